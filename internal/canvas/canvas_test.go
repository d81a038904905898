package canvas

import (
	"math"
	"testing"
)

// A centered element must land on the exact canvas center at every scale.
func TestCenterAtCanvasCenter(t *testing.T) {
	for _, scale := range []float64{0.25, 1, 4} {
		cx, cy := Center(50, 50, scale)
		wantX := Width / 2 * scale
		wantY := Height / 2 * scale
		if math.Abs(cx-wantX) > 1e-9 || math.Abs(cy-wantY) > 1e-9 {
			t.Fatalf("scale %g: center = (%g, %g), want (%g, %g)", scale, cx, cy, wantX, wantY)
		}
	}
}

func TestCenterArbitraryPoint(t *testing.T) {
	cx, cy := Center(85, 85, 1)
	if math.Abs(cx-0.85*Width) > 1e-9 {
		t.Fatalf("cx = %g, want %g", cx, 0.85*Width)
	}
	if math.Abs(cy-0.85*Height) > 1e-9 {
		t.Fatalf("cy = %g, want %g", cy, 0.85*Height)
	}
}

func TestScaleUsesCanonicalWidth(t *testing.T) {
	if got := Scale(842); got != 1 {
		t.Fatalf("Scale(842) = %g, want 1", got)
	}
	if got := Scale(421); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("Scale(421) = %g, want 0.5", got)
	}
}

func TestPixelToPercentInverse(t *testing.T) {
	// round-trip: percent -> pixel -> percent
	w := 1000.0
	h := w / AspectRatio
	for _, p := range []struct{ x, y float64 }{{50, 50}, {85, 85}, {0, 100}, {12.5, 33.3}} {
		px := (p.x / 100) * w
		py := (p.y / 100) * h
		x, y := PixelToPercent(px, py, w, h)
		if math.Abs(x-p.x) > 1e-9 || math.Abs(y-p.y) > 1e-9 {
			t.Fatalf("round trip (%g, %g) -> (%g, %g)", p.x, p.y, x, y)
		}
	}
}

func TestPixelToPercentClamps(t *testing.T) {
	x, y := PixelToPercent(-10, 2000, 1000, 700)
	if x != 0 || y != 100 {
		t.Fatalf("clamped = (%g, %g), want (0, 100)", x, y)
	}
}

func TestFlipYRoundTrip(t *testing.T) {
	for _, y := range []float64{0, 100, Height / 2, Height} {
		if got := FlipY(FlipY(y)); math.Abs(got-y) > 1e-9 {
			t.Fatalf("FlipY round trip of %g = %g", y, got)
		}
	}
	if FlipY(0) != Height {
		t.Fatalf("FlipY(0) = %g, want %g", FlipY(0), Height)
	}
}

func TestPercentDefaultsWhenMissing(t *testing.T) {
	if got := Percent(0); got != 50 {
		t.Fatalf("Percent(0) = %g, want 50", got)
	}
	if got := Percent(101); got != 50 {
		t.Fatalf("Percent(101) = %g, want 50", got)
	}
	if got := Percent(85); got != 85 {
		t.Fatalf("Percent(85) = %g, want 85", got)
	}
}
