package editor

import "github.com/certcat/certcat/internal/model"

// maxHistory caps the undo stack. Older snapshots fall off the front.
const maxHistory = 50

// History is an undo/redo stack of deep element-list snapshots. Only settled
// mutations are recorded, never intermediate drag frames. The cursor points
// at the snapshot representing the current state; undo moves it back, redo
// forward, and a fresh record discards everything past the cursor.
type History struct {
	stack    []model.ElementList
	cursor   int
	applying bool // true while a snapshot is being restored by undo/redo
}

func NewHistory(initial model.ElementList) *History {
	return &History{stack: []model.ElementList{initial.Clone()}}
}

// Record pushes a deep snapshot. Calls made while an undo/redo restore is in
// progress are ignored, otherwise every undo would grow the stack it is
// walking back through.
func (h *History) Record(els model.ElementList) {
	if h.applying {
		return
	}
	h.stack = append(h.stack[:h.cursor+1], els.Clone())
	if len(h.stack) > maxHistory {
		h.stack = h.stack[len(h.stack)-maxHistory:]
	}
	h.cursor = len(h.stack) - 1
}

func (h *History) CanUndo() bool { return h.cursor > 0 }
func (h *History) CanRedo() bool { return h.cursor < len(h.stack)-1 }

// Undo steps the cursor back and returns a copy of that snapshot. The second
// return is false when there is nothing to undo.
func (h *History) Undo() (model.ElementList, bool) {
	if !h.CanUndo() {
		return nil, false
	}
	h.applying = true
	defer func() { h.applying = false }()
	h.cursor--
	return h.stack[h.cursor].Clone(), true
}

func (h *History) Redo() (model.ElementList, bool) {
	if !h.CanRedo() {
		return nil, false
	}
	h.applying = true
	defer func() { h.applying = false }()
	h.cursor++
	return h.stack[h.cursor].Clone(), true
}
