// Package layout converts element descriptors into concrete geometry for a
// given scale factor. It is the single source of positioning math shared by
// the editor, the preview renderer and the PDF exporter; the renderers only
// differ in their final draw calls.
package layout

import (
	"github.com/certcat/certcat/internal/canvas"
	"github.com/certcat/certcat/internal/model"
)

// Defaults applied when an element carries a missing or invalid numeric
// attribute. A malformed element degrades to "centered, default-sized"
// instead of breaking the whole render.
const (
	DefaultFontSize = 20.0
	DefaultImageW   = 100.0
	DefaultQRSize   = 80.0
)

// Geometry is the resolved placement of one element on a surface whose
// origin is top-left. All values are already multiplied by the scale factor.
//
// Text geometry carries the center point and scaled font size; centering the
// glyph run around that point is the host surface's job (CSS transform in a
// DOM, explicit advance-width/ascent math in a vector exporter). Image and
// QR geometry additionally carries the top-left corner, computed as
// center - size/2, for hosts that draw from the corner.
type Geometry struct {
	CenterX, CenterY float64
	Left, Top        float64
	Width, Height    float64
	FontSize         float64
	LetterSpacing    float64
}

// Layout resolves an element's geometry at the given scale factor
// (surfaceWidth / canvas.Width).
func Layout(el *model.Element, scale float64) Geometry {
	cx, cy := canvas.Center(canvas.Percent(el.X), canvas.Percent(el.Y), scale)
	g := Geometry{CenterX: cx, CenterY: cy}

	switch el.Type {
	case model.ElementText:
		size := el.FontSize
		if size <= 0 {
			size = DefaultFontSize
		}
		g.FontSize = size * scale
		g.LetterSpacing = el.LetterSpacing * scale
		// The glyph run box is unknown here; top is approximated for hosts
		// that want it, matching the fontSize/2 convention.
		g.Top = cy - g.FontSize/2

	case model.ElementImage:
		w := el.Width
		if w <= 0 {
			w = DefaultImageW
		}
		h := el.Height
		if h <= 0 {
			if el.AspectRatio > 0 {
				h = w / el.AspectRatio
			} else {
				h = w // square fallback when no dimensions were stored
			}
		}
		g.Width = w * scale
		g.Height = h * scale
		g.Left = cx - g.Width/2
		g.Top = cy - g.Height/2

	case model.ElementQRCode:
		s := el.Size
		if s <= 0 {
			s = DefaultQRSize
		}
		g.Width = s * scale
		g.Height = s * scale
		g.Left = cx - g.Width/2
		g.Top = cy - g.Height/2

	default:
		g.Left = cx
		g.Top = cy
	}

	return g
}
