// Package editor implements the server-side state for the template editor:
// the element list being edited, the drag state machine with axis snapping,
// undo/redo history and layer ordering. A session serializes all access with
// a mutex; one session belongs to one template being edited.
package editor

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/certcat/certcat/internal/canvas"
	"github.com/certcat/certcat/internal/model"
)

var (
	ErrElementNotFound = errors.New("element not found")
	ErrElementLocked   = errors.New("element is locked")
)

const (
	// snapThreshold locks a dragged coordinate to the 50% centerline when it
	// comes strictly within this many percentage points of it.
	snapThreshold = 2.0
	// snapClearDelay keeps the snap indicator raised briefly after pointer-up
	// so the user sees the snap register.
	snapClearDelay = 300 * time.Millisecond

	// offsets and caps for duplicated elements
	duplicateOffset = 3.0
	duplicateMax    = 95.0
)

// Defaults for freshly added elements.
const (
	defaultTextSize      = 40.0
	defaultTextFont      = "Poppins"
	defaultTextColor     = "#1a1a2e"
	defaultRecipientSize = 48.0
	defaultRecipientFont = "Great Vibes"
	defaultImageWidth    = 120.0
	defaultQRX           = 85.0
	defaultQRY           = 85.0
)

// Session holds one template's element list under edit. All exported methods
// are safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	elements model.ElementList
	history  *History

	dragIdx       int // -1 when idle
	dragOffX      float64
	dragOffY      float64
	snapX, snapY  bool
	snapTimer     *time.Timer
	defaultQRSize float64
	updatedAt     time.Time
}

// NewSession starts editing the given element list. qrSize is the template's
// configured QR size, used when a QR element is added; zero falls back to the
// standard default.
func NewSession(elements model.ElementList, qrSize float64) *Session {
	if qrSize <= 0 {
		qrSize = 80
	}
	return &Session{
		elements:      elements.Clone(),
		history:       NewHistory(elements),
		dragIdx:       -1,
		defaultQRSize: qrSize,
		updatedAt:     time.Now(),
	}
}

// Elements returns a deep copy of the current list, in z-order.
func (s *Session) Elements() model.ElementList {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elements.Clone()
}

func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// record settles the current list into history. Callers hold s.mu.
func (s *Session) record() {
	s.history.Record(s.elements)
	s.updatedAt = time.Now()
}

// PointerDown begins a drag on the element at idx. The pointer position is
// given in canvas percent; the offset between the pointer and the element's
// center is kept so the element does not jump under the cursor.
func (s *Session) PointerDown(idx int, pointerX, pointerY float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= len(s.elements) {
		return ErrElementNotFound
	}
	if s.elements[idx].Locked {
		return ErrElementLocked
	}
	s.dragIdx = idx
	s.dragOffX = canvas.Percent(s.elements[idx].X) - pointerX
	s.dragOffY = canvas.Percent(s.elements[idx].Y) - pointerY
	return nil
}

// PointerMove updates the dragged element's position from the absolute
// pointer location. Position is always recomputed from the pointer, never
// incremented, so rapid repeated events cannot accumulate drift. Coordinates
// within the snap threshold of the 50% centerlines lock to exactly 50.
// A no-op when no drag is active.
func (s *Session) PointerMove(pointerX, pointerY float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dragIdx < 0 {
		return
	}
	x := canvas.ClampPercent(pointerX + s.dragOffX)
	y := canvas.ClampPercent(pointerY + s.dragOffY)

	s.snapX = math.Abs(x-50) < snapThreshold
	if s.snapX {
		x = 50
	}
	s.snapY = math.Abs(y-50) < snapThreshold
	if s.snapY {
		y = 50
	}

	s.elements[s.dragIdx].X = x
	s.elements[s.dragIdx].Y = y
}

// PointerUp ends the drag and settles the move into history. The snap
// indicator stays raised for a short delay before clearing.
func (s *Session) PointerUp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dragIdx < 0 {
		return
	}
	s.dragIdx = -1
	s.record()

	if s.snapX || s.snapY {
		if s.snapTimer != nil {
			s.snapTimer.Stop()
		}
		s.snapTimer = time.AfterFunc(snapClearDelay, func() {
			s.mu.Lock()
			s.snapX, s.snapY = false, false
			s.mu.Unlock()
		})
	}
}

// Snapped reports whether the snap indicator is raised on each axis.
func (s *Session) Snapped() (x, y bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapX, s.snapY
}

// Dragging reports the index of the element being dragged, or -1.
func (s *Session) Dragging() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dragIdx
}

// AddText appends a centered text element with the given value.
func (s *Session) AddText(value string) int {
	return s.add(model.Element{
		Type:       model.ElementText,
		X:          50,
		Y:          50,
		Value:      value,
		FontSize:   defaultTextSize,
		FontFamily: defaultTextFont,
		Color:      defaultTextColor,
	})
}

// AddRecipientName appends the {name} placeholder styled as the recipient
// line, the most common element on a certificate.
func (s *Session) AddRecipientName() int {
	return s.add(model.Element{
		Type:       model.ElementText,
		X:          50,
		Y:          50,
		Value:      "{name}",
		Name:       "Recipient Name",
		FontSize:   defaultRecipientSize,
		FontFamily: defaultRecipientFont,
		Color:      defaultTextColor,
	})
}

// AddImage appends an image element sized to the default width, preserving
// the upload's aspect ratio.
func (s *Session) AddImage(src string, naturalW, naturalH float64) int {
	el := model.Element{
		Type:  model.ElementImage,
		X:     50,
		Y:     50,
		Src:   src,
		Width: defaultImageWidth,
	}
	if naturalW > 0 && naturalH > 0 {
		el.AspectRatio = naturalW / naturalH
		el.Height = defaultImageWidth / el.AspectRatio
	} else {
		el.Height = defaultImageWidth
	}
	return s.add(el)
}

// AddQRCode appends the verification QR element at its conventional
// bottom-right position.
func (s *Session) AddQRCode() int {
	return s.add(model.Element{
		Type: model.ElementQRCode,
		X:    defaultQRX,
		Y:    defaultQRY,
		Size: s.defaultQRSize,
	})
}

func (s *Session) add(el model.Element) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements = append(s.elements, el)
	s.record()
	return len(s.elements) - 1
}

// Update applies mutate to the element at idx and settles the result as one
// history entry.
func (s *Session) Update(idx int, mutate func(*model.Element)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= len(s.elements) {
		return ErrElementNotFound
	}
	mutate(&s.elements[idx])
	s.record()
	return nil
}

// Resize sets an image element's width, keeping height proportional when an
// aspect ratio is known.
func (s *Session) Resize(idx int, width float64) error {
	return s.Update(idx, func(el *model.Element) {
		el.Width = width
		if el.AspectRatio > 0 {
			el.Height = width / el.AspectRatio
		} else if el.Height > 0 && el.Width > 0 {
			el.Height = width
		}
	})
}

// Duplicate copies the element at idx, nudging the copy down-right so it is
// visibly distinct, and appends it on top.
func (s *Session) Duplicate(idx int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= len(s.elements) {
		return -1, ErrElementNotFound
	}
	cp := s.elements.Clone()[idx]
	cp.X = minf(cp.X+duplicateOffset, duplicateMax)
	cp.Y = minf(cp.Y+duplicateOffset, duplicateMax)
	cp.Locked = false
	s.elements = append(s.elements, cp)
	s.record()
	return len(s.elements) - 1, nil
}

// Delete removes the element at idx.
func (s *Session) Delete(idx int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= len(s.elements) {
		return ErrElementNotFound
	}
	s.elements = append(s.elements[:idx], s.elements[idx+1:]...)
	if s.dragIdx == idx {
		s.dragIdx = -1
	}
	s.record()
	return nil
}

// MoveForward swaps the element with its next neighbor, drawing it one layer
// higher. Moving the topmost element is a no-op.
func (s *Session) MoveForward(idx int) error {
	return s.swap(idx, idx+1)
}

// MoveBackward swaps the element with its previous neighbor. Moving the
// bottom element is a no-op.
func (s *Session) MoveBackward(idx int) error {
	return s.swap(idx, idx-1)
}

func (s *Session) swap(idx, with int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= len(s.elements) {
		return ErrElementNotFound
	}
	if with < 0 || with >= len(s.elements) {
		return nil // already at the end of the stack
	}
	s.elements[idx], s.elements[with] = s.elements[with], s.elements[idx]
	s.record()
	return nil
}

// ToggleVisible flips the element's visibility flag.
func (s *Session) ToggleVisible(idx int) error {
	return s.Update(idx, func(el *model.Element) {
		el.Visible = model.VisiblePtr(!el.IsVisible())
	})
}

// ToggleLocked flips the element's drag lock.
func (s *Session) ToggleLocked(idx int) error {
	return s.Update(idx, func(el *model.Element) {
		el.Locked = !el.Locked
	})
}

// Undo restores the previous settled state. Returns false when there is
// nothing to undo.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	els, ok := s.history.Undo()
	if !ok {
		return false
	}
	s.elements = els
	s.dragIdx = -1
	s.updatedAt = time.Now()
	return true
}

// Redo restores the state undone by the last Undo.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	els, ok := s.history.Redo()
	if !ok {
		return false
	}
	s.elements = els
	s.dragIdx = -1
	s.updatedAt = time.Now()
	return true
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
