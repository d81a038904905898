// Package canvas defines the shared positioning contract for every
// certificate renderer.
//
// All element positions are stored as percentages (0-100) of the canonical
// A4 landscape canvas and locate the element's CENTER point. x=50, y=50 puts
// an element's center at the center of the page regardless of element size.
// Every renderer derives its scale factor the same way: surface width
// divided by Width. Using any other base width breaks visual parity between
// the editor, the preview and the PDF export.
package canvas

// A4 landscape dimensions in points (72 units per inch). These must match
// everywhere; the aspect ratio never changes, only the display scale does.
const (
	Width  = 842.0
	Height = 595.0
)

// AspectRatio is Width / Height.
const AspectRatio = Width / Height

// Scale converts a rendering surface width into the canonical scale factor.
func Scale(surfaceWidth float64) float64 {
	return surfaceWidth / Width
}

// Center converts percentage coordinates into a surface-space center point.
func Center(xPercent, yPercent, scale float64) (cx, cy float64) {
	return (xPercent / 100.0) * Width * scale, (yPercent / 100.0) * Height * scale
}

// FlipY converts a top-down y coordinate (screen space, canvas scale 1.0)
// to the bottom-up coordinate space used by vector page formats.
func FlipY(y float64) float64 {
	return Height - y
}

// PixelToPercent maps a surface-space point back to percentage coordinates,
// clamped to [0,100]. This is the inverse mapping used by drag operations.
func PixelToPercent(px, py, surfaceWidth, surfaceHeight float64) (x, y float64) {
	if surfaceWidth > 0 {
		x = (px / surfaceWidth) * 100.0
	}
	if surfaceHeight > 0 {
		y = (py / surfaceHeight) * 100.0
	}
	return ClampPercent(x), ClampPercent(y)
}

// ClampPercent bounds a coordinate to the canvas.
func ClampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Percent returns a stored coordinate, substituting the centered default
// when the value is missing or out of range. A zero value counts as missing:
// stored documents never carry an explicit 0 for a coordinate that was set,
// and a malformed element should degrade to "centered" rather than fail.
func Percent(v float64) float64 {
	if v <= 0 || v > 100 {
		return 50
	}
	return v
}
