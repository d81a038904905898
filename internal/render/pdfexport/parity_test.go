package pdfexport

import (
	"context"
	"image"
	"math"
	"testing"
	"time"

	"github.com/certcat/certcat/internal/canvas"
	"github.com/certcat/certcat/internal/layout"
	"github.com/certcat/certcat/internal/model"
	"github.com/certcat/certcat/internal/render/assets"
	"github.com/certcat/certcat/internal/render/fonts"
	"github.com/certcat/certcat/internal/render/preview"
)

// The renderers must place the same element at the same relative position.
// The editor and preview share the layout package directly; the exporter
// recomputes placement at scale 1.0 in page points. This test converts all
// three into a common 1000px-wide pixel space and requires agreement within
// a 2px tolerance.
func TestRenderersAgreeOnElementCenters(t *testing.T) {
	const renderW = 1000.0
	const tolerance = 2.0

	qr := &model.Element{Type: model.ElementQRCode, X: 85, Y: 85, Size: 80, QRURL: "https://example.com/verify/xyz"}

	// editor surface: percent -> pixel at the render width
	editorX, editorY := canvas.Center(qr.X, qr.Y, canvas.Scale(renderW))

	// preview surface: locate the QR ink's bounding box center in the raster
	r := preview.New(fonts.NewSource(50*time.Millisecond), assets.NewFetcher(50*time.Millisecond))
	img, err := r.Render(context.Background(), "", model.ElementList{*qr}, int(renderW))
	if err != nil {
		t.Fatal(err)
	}
	previewX, previewY, ok := inkCenter(img)
	if !ok {
		t.Fatal("no QR ink in the preview render")
	}

	// export surface: page points at scale 1.0, converted to render pixels
	g := layout.Layout(qr, 1.0)
	pdfX := (g.Left + g.Width/2) * renderW / canvas.Width
	pdfY := (g.Top + g.Height/2) * renderW / canvas.Width

	check := func(surface string, x, y float64) {
		if math.Abs(x-editorX) > tolerance || math.Abs(y-editorY) > tolerance {
			t.Errorf("%s center = (%.1f, %.1f), editor = (%.1f, %.1f), tolerance %v",
				surface, x, y, editorX, editorY, tolerance)
		}
	}
	check("preview", previewX, previewY)
	check("export", pdfX, pdfY)
}

// inkCenter returns the center of the bounding box of dark pixels. QR modules
// are symmetric enough around the element center for a 2px tolerance.
func inkCenter(img image.Image) (x, y float64, ok bool) {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X, b.Min.Y
	for py := b.Min.Y; py < b.Max.Y; py++ {
		for px := b.Min.X; px < b.Max.X; px++ {
			r, g, bl, a := img.At(px, py).RGBA()
			if a > 0x8000 && r < 0x4000 && g < 0x4000 && bl < 0x4000 {
				if px < minX {
					minX = px
				}
				if px > maxX {
					maxX = px
				}
				if py < minY {
					minY = py
				}
				if py > maxY {
					maxY = py
				}
			}
		}
	}
	if maxX < minX {
		return 0, 0, false
	}
	return float64(minX+maxX) / 2, float64(minY+maxY) / 2, true
}
