// Package preview renders a certificate's element list to a raster image for
// the public verification page. It consumes the same stored element data as
// the PDF exporter and must place every element at the same relative position;
// the shared coordinate and layout packages carry that contract.
package preview

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"log"
	"strings"

	"github.com/disintegration/imaging"
	qrcodegen "github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/certcat/certcat/internal/canvas"
	"github.com/certcat/certcat/internal/layout"
	"github.com/certcat/certcat/internal/model"
	"github.com/certcat/certcat/internal/render/assets"
	"github.com/certcat/certcat/internal/render/fonts"
)

// capHeightRatio approximates cap height from the font ascent. Centering the
// cap-height box on the anchor keeps the optical center of a text run where
// the editor showed it.
const capHeightRatio = 0.7

type Renderer struct {
	fonts  *fonts.Source
	assets *assets.Fetcher
}

func New(fontSource *fonts.Source, fetcher *assets.Fetcher) *Renderer {
	return &Renderer{fonts: fontSource, assets: fetcher}
}

// Render rasterizes the background and elements at the given pixel width.
// The height follows from the fixed canvas aspect ratio. Fonts are preloaded
// up front with a hard timeout; a family that does not arrive in time renders
// with a fallback face rather than blocking the page.
func (r *Renderer) Render(ctx context.Context, background string, els model.ElementList, width int) (*image.NRGBA, error) {
	if width <= 0 {
		width = 1000
	}
	height := int(float64(width) / canvas.AspectRatio)
	scale := canvas.Scale(float64(width))

	r.preload(ctx, els)
	images := r.prefetchImages(ctx, background, els)

	out := imaging.New(width, height, color.White)
	if bg, ok := images[background]; ok {
		resized := imaging.Resize(bg, width, height, imaging.Lanczos)
		out = imaging.Overlay(out, resized, image.Pt(0, 0), 1.0)
	} else if background != "" {
		log.Printf("preview background unavailable, rendering elements only")
	}

	for i := range els {
		el := &els[i]
		if !el.IsVisible() {
			continue
		}
		g := layout.Layout(el, scale)
		switch el.Type {
		case model.ElementText:
			r.drawText(ctx, out, el, g)
		case model.ElementImage:
			if img, ok := images[el.Src]; ok {
				overlayScaled(out, img, g, el.EffectiveOpacity())
			}
		case model.ElementQRCode:
			if img, err := r.qrImage(el, g); err == nil {
				overlayScaled(out, img, g, el.EffectiveOpacity())
			} else {
				log.Printf("qr render skipped: %v", err)
			}
		}
	}
	return out, nil
}

// PNG renders and encodes in one step.
func (r *Renderer) PNG(ctx context.Context, background string, els model.ElementList, width int) ([]byte, error) {
	img, err := r.Render(ctx, background, els, width)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) preload(ctx context.Context, els model.ElementList) {
	var fams []struct{ Name, Weight, Style string }
	for i := range els {
		if els[i].Type == model.ElementText && els[i].IsVisible() {
			fams = append(fams, struct{ Name, Weight, Style string }{els[i].FontFamily, els[i].FontWeight, els[i].FontStyle})
		}
	}
	r.fonts.Preload(ctx, fams)
}

func (r *Renderer) prefetchImages(ctx context.Context, background string, els model.ElementList) map[string]image.Image {
	srcs := []string{background}
	for i := range els {
		if els[i].Type == model.ElementImage && els[i].IsVisible() {
			srcs = append(srcs, els[i].Src)
		}
	}
	return r.assets.Prefetch(ctx, srcs)
}

// drawText places the glyph run so its advance width is centered on the
// anchor horizontally and its cap-height box vertically. Letter spacing is
// added between runes, matching how the editor tracks text.
func (r *Renderer) drawText(ctx context.Context, dst *image.NRGBA, el *model.Element, g layout.Geometry) {
	if el.Value == "" {
		return
	}
	f := r.fonts.Font(ctx, el.FontFamily, el.FontWeight, el.FontStyle)
	if f == nil {
		return
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    g.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		log.Printf("face for %q unavailable: %v", el.FontFamily, err)
		return
	}
	defer face.Close()

	runes := []rune(el.Value)
	advance := float64(font.MeasureString(face, el.Value)) / 64
	if n := len(runes); n > 1 {
		advance += g.LetterSpacing * float64(n-1)
	}

	ascent := float64(face.Metrics().Ascent) / 64
	baseline := g.CenterY + ascent*capHeightRatio/2

	rCol, gCol, bCol := hexToRGB(el.Color)
	alpha := uint8(el.EffectiveOpacity() * 255)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.NRGBA{rCol, gCol, bCol, alpha}),
		Face: face,
		Dot:  fixed.Point26_6{X: floatToFixed(g.CenterX - advance/2), Y: floatToFixed(baseline)},
	}

	if g.LetterSpacing == 0 {
		d.DrawString(el.Value)
		return
	}
	for i, rn := range runes {
		d.DrawString(string(rn))
		if i < len(runes)-1 {
			d.Dot.X += floatToFixed(g.LetterSpacing)
		}
	}
}

// qrImage decodes the element's pre-rendered payload, or encodes its URL
// fresh when only the URL is stored (editor previews).
func (r *Renderer) qrImage(el *model.Element, g layout.Geometry) (image.Image, error) {
	if el.QRDataURL != "" {
		return r.assets.Image(context.Background(), el.QRDataURL)
	}
	if el.QRURL == "" {
		return nil, fmt.Errorf("qr element has no payload")
	}
	png, err := qrcodegen.Encode(el.QRURL, qrcodegen.Medium, int(g.Width))
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return imaging.Decode(bytes.NewReader(png))
}

func overlayScaled(dst *image.NRGBA, src image.Image, g layout.Geometry, opacity float64) {
	w := int(g.Width + 0.5)
	h := int(g.Height + 0.5)
	if w <= 0 || h <= 0 {
		return
	}
	resized := imaging.Resize(src, w, h, imaging.Lanczos)
	*dst = *imaging.Overlay(dst, resized, image.Pt(int(g.Left+0.5), int(g.Top+0.5)), opacity)
}

// hexToRGB parses #rgb and #rrggbb colors, defaulting to near-black on
// anything malformed.
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

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}
