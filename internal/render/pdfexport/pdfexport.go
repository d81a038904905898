// Package pdfexport converts a certificate's element list into a one-page
// vector PDF at the canonical canvas size. The target format has no layout
// engine, so text metrics (advance width, ascent) are taken from the embedded
// font and the center-anchored placement is recomputed here from the same
// coordinate contract the editor and preview use.
package pdfexport

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jung-kurt/gofpdf"
	qrcodegen "github.com/skip2/go-qrcode"

	"github.com/certcat/certcat/internal/canvas"
	"github.com/certcat/certcat/internal/layout"
	"github.com/certcat/certcat/internal/model"
	"github.com/certcat/certcat/internal/render/assets"
	"github.com/certcat/certcat/internal/render/fonts"
)

// capHeightRatio matches the preview renderer's vertical centering; the two
// surfaces must agree on where a text run's optical center sits.
const capHeightRatio = 0.7

type Exporter struct {
	fonts  *fonts.Source
	assets *assets.Fetcher
}

func New(fontSource *fonts.Source, fetcher *assets.Fetcher) *Exporter {
	return &Exporter{fonts: fontSource, assets: fetcher}
}

// Export renders the background and elements to PDF bytes. The page is the
// canvas itself: 842x595pt, scale factor 1.0. Resource fetches that fail are
// logged and their elements skipped; a missing font falls back to a built-in
// core face so the document always carries its text.
func (e *Exporter) Export(ctx context.Context, background string, els model.ElementList) ([]byte, error) {
	// orientation stays "P": the size already carries the landscape dimensions
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: canvas.Width, Ht: canvas.Height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	families := e.registerFonts(ctx, pdf, els)
	e.drawBackground(ctx, pdf, background)

	for i := range els {
		el := &els[i]
		if !el.IsVisible() {
			continue
		}
		g := layout.Layout(el, 1.0)
		switch el.Type {
		case model.ElementText:
			e.drawText(pdf, el, g, families)
		case model.ElementImage:
			e.drawImage(ctx, pdf, fmt.Sprintf("el-%d", i), el.Src, el, g)
		case model.ElementQRCode:
			e.drawQR(ctx, pdf, fmt.Sprintf("qr-%d", i), el, g)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// registerFonts embeds each distinct family/weight/style the elements use and
// returns the family name SetFont should be given for each key+style pair.
// Catalog fetches run inside the source's timeout; a family that does not
// resolve maps to the built-in Times or Helvetica, picked by whether the
// requested name reads as a serif face.
func (e *Exporter) registerFonts(ctx context.Context, pdf *gofpdf.Fpdf, els model.ElementList) map[string]string {
	families := make(map[string]string)
	for i := range els {
		el := &els[i]
		if el.Type != model.ElementText || !el.IsVisible() {
			continue
		}
		key, style := fontKey(el)
		if _, done := families[key+style]; done {
			continue
		}
		ttf, ok := e.fonts.TTF(ctx, el.FontFamily, el.FontWeight, el.FontStyle)
		if !ok {
			if fonts.IsSerif(el.FontFamily) {
				families[key+style] = "Times"
			} else {
				families[key+style] = "Helvetica"
			}
			continue
		}
		pdf.AddUTF8FontFromBytes(key, style, ttf)
		families[key+style] = key
	}
	return families
}

func (e *Exporter) drawBackground(ctx context.Context, pdf *gofpdf.Fpdf, src string) {
	if src == "" {
		return
	}
	png, err := e.assets.PNG(ctx, src)
	if err != nil {
		log.Printf("pdf background unavailable: %v", err)
		return
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("background", opts, bytes.NewReader(png))
	pdf.ImageOptions("background", 0, 0, canvas.Width, canvas.Height, false, opts, 0, "")
}

// drawText places the run so its advance width straddles the anchor and its
// cap-height box centers on it vertically. Letter spacing has no equivalent
// in this backend and is not applied.
func (e *Exporter) drawText(pdf *gofpdf.Fpdf, el *model.Element, g layout.Geometry, families map[string]string) {
	if el.Value == "" {
		return
	}
	key, style := fontKey(el)
	family := families[key+style]
	pdf.SetFont(family, style, g.FontSize)

	r, gc, b := hexToRGB(el.Color)
	pdf.SetTextColor(int(r), int(gc), int(b))
	pdf.SetAlpha(el.EffectiveOpacity(), "Normal")
	defer pdf.SetAlpha(1.0, "Normal")

	width := pdf.GetStringWidth(el.Value)
	desc := pdf.GetFontDesc(family, style)
	capHeight := float64(desc.Ascent) * g.FontSize / 1000 * capHeightRatio
	baseline := g.CenterY + capHeight/2

	pdf.Text(g.CenterX-width/2, baseline, el.Value)
}

func (e *Exporter) drawImage(ctx context.Context, pdf *gofpdf.Fpdf, name, src string, el *model.Element, g layout.Geometry) {
	png, err := e.assets.PNG(ctx, src)
	if err != nil {
		log.Printf("pdf image %s unavailable: %v", name, err)
		return
	}
	e.placePNG(pdf, name, png, el, g)
}

func (e *Exporter) drawQR(ctx context.Context, pdf *gofpdf.Fpdf, name string, el *model.Element, g layout.Geometry) {
	var png []byte
	var err error
	switch {
	case el.QRDataURL != "":
		png, err = e.assets.PNG(ctx, el.QRDataURL)
	case el.QRURL != "":
		// render at 300px regardless of placed size, matching the stored payloads
		png, err = qrcodegen.Encode(el.QRURL, qrcodegen.Medium, 300)
	default:
		return
	}
	if err != nil {
		log.Printf("pdf qr %s unavailable: %v", name, err)
		return
	}
	e.placePNG(pdf, name, png, el, g)
}

func (e *Exporter) placePNG(pdf *gofpdf.Fpdf, name string, png []byte, el *model.Element, g layout.Geometry) {
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	pdf.SetAlpha(el.EffectiveOpacity(), "Normal")
	pdf.ImageOptions(name, g.Left, g.Top, g.Width, g.Height, false, opts, 0, "")
	pdf.SetAlpha(1.0, "Normal")
}

// fontKey maps an element's typography to the embedded font's registry key
// and gofpdf style string.
func fontKey(el *model.Element) (key, style string) {
	key = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(el.FontFamily), " ", ""))
	if key == "" {
		key = "fallback"
	}
	if el.FontWeight == "bold" {
		style += "B"
	}
	if el.FontStyle == "italic" {
		style += "I"
	}
	return key, style
}

func hexToRGB(hex string) (uint8, uint8, uint8) {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return 26, 26, 46
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(h, "%02x%02x%02x", &r, &g, &b); err != nil {
		return 26, 26, 46
	}
	return r, g, b
}
