package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// ElementType is the closed set of element kinds. Elements are polymorphic
// by type tag, not subclassing: one flat struct, type-specific fields left
// zero for the kinds that do not use them.
type ElementType string

const (
	ElementText   ElementType = "text"
	ElementImage  ElementType = "image"
	ElementQRCode ElementType = "qrcode"
)

// Element is one positioned visual unit on a certificate canvas.
//
// X and Y are percentages in [0,100] locating the element's CENTER, not its
// top-left corner. The center-anchored convention must hold identically in
// the editor, the preview renderer and the PDF exporter; see internal/canvas.
// All size attributes (FontSize, Width, Height, Size) are points at canvas
// scale 1.0.
type Element struct {
	Type    ElementType `json:"type"`
	X       float64     `json:"x"`
	Y       float64     `json:"y"`
	Opacity float64     `json:"opacity,omitempty"` // percent, 0-100, default 100
	Visible *bool       `json:"visible,omitempty"` // nil means visible
	Locked  bool        `json:"locked,omitempty"`  // editor-only, never affects rendering
	Name    string      `json:"name,omitempty"`    // editor-only display label

	// text
	Value         string  `json:"value,omitempty"`
	FontSize      float64 `json:"fontSize,omitempty"`
	FontFamily    string  `json:"fontFamily,omitempty"`
	FontWeight    string  `json:"fontWeight,omitempty"` // normal | bold
	FontStyle     string  `json:"fontStyle,omitempty"`  // normal | italic
	Color         string  `json:"color,omitempty"`      // hex, e.g. #1a1a2e
	LetterSpacing float64 `json:"letterSpacing,omitempty"`

	// image
	Src         string  `json:"src,omitempty"`
	Width       float64 `json:"width,omitempty"`
	Height      float64 `json:"height,omitempty"`
	AspectRatio float64 `json:"aspectRatio,omitempty"`

	// qrcode
	Size      float64 `json:"size,omitempty"`
	QRDataURL string  `json:"qrDataUrl,omitempty"` // pre-rendered PNG payload
	QRURL     string  `json:"qrUrl,omitempty"`     // verification URL encoded in the QR
}

// IsVisible reports whether renderers should draw the element. A missing
// visible flag counts as visible; only an explicit false hides it.
func (e *Element) IsVisible() bool {
	return e.Visible == nil || *e.Visible
}

// EffectiveOpacity returns the element opacity as a 0.0-1.0 alpha,
// defaulting to fully opaque when unset.
func (e *Element) EffectiveOpacity() float64 {
	if e.Opacity <= 0 || e.Opacity > 100 {
		return 1.0
	}
	return e.Opacity / 100.0
}

// VisiblePtr is a convenience for building elements literal-style.
func VisiblePtr(v bool) *bool { return &v }

// ElementList stores an ordered element slice as a JSONB column. Array order
// encodes z-order: later elements draw on top.
type ElementList []Element

func (l ElementList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *ElementList) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		*l = nil
		return nil
	default:
		return errors.New("unsupported type for ElementList")
	}
}

// Clone returns a deep copy of the list. Elements hold no reference fields
// besides the visible flag, which is re-pointed so snapshots stay isolated.
func (l ElementList) Clone() ElementList {
	if l == nil {
		return nil
	}
	out := make(ElementList, len(l))
	copy(out, l)
	for i := range out {
		if out[i].Visible != nil {
			v := *out[i].Visible
			out[i].Visible = &v
		}
	}
	return out
}
