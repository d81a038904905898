package fonts

import (
	"context"
	"strings"
	"testing"
	"time"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

func TestURLKnownFamilies(t *testing.T) {
	tests := []struct {
		name   string
		weight string
		want   string
	}{
		{"Great Vibes", "normal", "great-vibes@latest/latin-400-normal.ttf"},
		{"Great Vibes", "bold", "great-vibes@latest/latin-400-normal.ttf"}, // no 700 cut
		{"Poppins", "bold", "poppins@latest/latin-700-normal.ttf"},
		{"open sans", "normal", "open-sans@latest/latin-400-normal.ttf"},
		{"  Roboto ", "normal", "roboto@latest/latin-400-normal.ttf"},
	}
	for _, tc := range tests {
		url, ok := URL(tc.name, tc.weight)
		if !ok {
			t.Errorf("URL(%q) not found", tc.name)
			continue
		}
		if !strings.HasSuffix(url, tc.want) {
			t.Errorf("URL(%q, %q) = %q, want suffix %q", tc.name, tc.weight, url, tc.want)
		}
	}
}

func TestURLUnknownFamily(t *testing.T) {
	if _, ok := URL("Nonexistent Script", "normal"); ok {
		t.Error("unknown family resolved to a URL")
	}
}

func TestIsSerif(t *testing.T) {
	for _, name := range []string{"Playfair Display", "merriweather", "Lora", "Times New Roman", "Georgia"} {
		if !IsSerif(name) {
			t.Errorf("IsSerif(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"Poppins", "Great Vibes", "Roboto", ""} {
		if IsSerif(name) {
			t.Errorf("IsSerif(%q) = true, want false", name)
		}
	}
}

func TestFallbackPicksWeightAndStyle(t *testing.T) {
	if string(Fallback("normal", "normal")) != string(goregular.TTF) {
		t.Error("normal fallback is not the regular face")
	}
	if string(Fallback("bold", "normal")) != string(gobold.TTF) {
		t.Error("bold fallback is not the bold face")
	}
}

func TestTTFUnknownFamilyFallsBack(t *testing.T) {
	s := NewSource(time.Second)
	data, fromCatalog := s.TTF(context.Background(), "Nonexistent Script", "normal", "normal")
	if fromCatalog {
		t.Error("unknown family reported as catalog hit")
	}
	if len(data) == 0 {
		t.Error("fallback payload is empty")
	}
}

func TestFontNeverNilForUnknownFamily(t *testing.T) {
	s := NewSource(time.Second)
	if f := s.Font(context.Background(), "Nonexistent Script", "normal", "normal"); f == nil {
		t.Error("Font returned nil for unknown family")
	}
}

func TestFamiliesCoversCatalog(t *testing.T) {
	fams := Families()
	if len(fams) != 13 {
		t.Errorf("catalog has %d families, want 13", len(fams))
	}
	for _, name := range fams {
		if _, ok := URL(name, "normal"); !ok {
			t.Errorf("catalog family %q has no URL", name)
		}
	}
}
