// Package fonts resolves font families used on certificates to TTF payloads
// and parsed faces. Families come from a fixed catalog served by the
// fontsource CDN; anything outside the catalog falls back to a bundled Go
// font so rendering never fails on an unknown family name.
package fonts

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// family maps a catalog entry to its fontsource slug. hasBold marks families
// the CDN serves a 700 weight for; the scripts only ship 400.
type family struct {
	slug    string
	hasBold bool
}

var catalog = map[string]family{
	"great vibes":      {"great-vibes", false},
	"dancing script":   {"dancing-script", true},
	"pacifico":         {"pacifico", false},
	"playfair display": {"playfair-display", true},
	"merriweather":     {"merriweather", true},
	"lora":             {"lora", true},
	"inter":            {"inter", true},
	"roboto":           {"roboto", true},
	"open sans":        {"open-sans", true},
	"poppins":          {"poppins", true},
	"montserrat":       {"montserrat", true},
	"oswald":           {"oswald", true},
	"bebas neue":       {"bebas-neue", false},
}

// serifMarkers drive the fallback classification: families matching one of
// these render with a serif default, everything else sans-serif.
var serifMarkers = []string{"playfair", "merriweather", "lora", "times", "georgia"}

// IsSerif reports whether the family should fall back to a serif face.
func IsSerif(name string) bool {
	n := strings.ToLower(name)
	for _, m := range serifMarkers {
		if strings.Contains(n, m) {
			return true
		}
	}
	return false
}

// URL returns the CDN location of the family's TTF for the given weight, or
// false when the family is not in the catalog. Bold requests for families
// without a 700 cut resolve to the 400 cut.
func URL(name, weight string) (string, bool) {
	f, ok := catalog[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", false
	}
	w := "400"
	if weight == "bold" && f.hasBold {
		w = "700"
	}
	return fmt.Sprintf("https://cdn.jsdelivr.net/fontsource/fonts/%s@latest/latin-%s-normal.ttf", f.slug, w), true
}

// Families lists the catalog names, for the editor's font picker.
func Families() []string {
	out := make([]string, 0, len(catalog))
	for name := range catalog {
		out = append(out, name)
	}
	return out
}

// Fallback returns the bundled TTF used when a family is unknown or its
// fetch failed.
func Fallback(weight, style string) []byte {
	bold := weight == "bold"
	italic := style == "italic"
	switch {
	case bold && italic:
		return gobolditalic.TTF
	case bold:
		return gobold.TTF
	case italic:
		return goitalic.TTF
	default:
		return goregular.TTF
	}
}

// Source fetches and caches font payloads. TTF bytes and parsed faces are
// kept in separate TTL caches so repeated renders of the same template skip
// the network entirely.
type Source struct {
	client  *http.Client
	bytes   *cache.Cache
	parsed  *cache.Cache
	timeout time.Duration
}

// NewSource builds a Source whose individual fetches are bounded by timeout.
func NewSource(timeout time.Duration) *Source {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Source{
		client:  &http.Client{Timeout: timeout},
		bytes:   cache.New(1*time.Hour, 10*time.Minute),
		parsed:  cache.New(1*time.Hour, 10*time.Minute),
		timeout: timeout,
	}
}

// TTF returns the raw font bytes for the family and weight. Unknown families
// and failed fetches return the bundled fallback together with false.
func (s *Source) TTF(ctx context.Context, name, weight, style string) ([]byte, bool) {
	url, ok := URL(name, weight)
	if !ok {
		return Fallback(weight, style), false
	}
	if v, hit := s.bytes.Get(url); hit {
		return v.([]byte), true
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Fallback(weight, style), false
	}
	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("font fetch failed for %q: %v", name, err)
		return Fallback(weight, style), false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("font fetch for %q returned %d", name, resp.StatusCode)
		return Fallback(weight, style), false
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Fallback(weight, style), false
	}
	s.bytes.Set(url, data, cache.DefaultExpiration)
	return data, true
}

// Font returns the parsed sfnt font for the family, falling back like TTF.
func (s *Source) Font(ctx context.Context, name, weight, style string) *sfnt.Font {
	key := strings.ToLower(name) + "|" + weight + "|" + style
	if v, hit := s.parsed.Get(key); hit {
		return v.(*sfnt.Font)
	}
	data, _ := s.TTF(ctx, name, weight, style)
	f, err := opentype.Parse(data)
	if err != nil {
		// catalog payload failed to parse, use the bundled face
		f, err = opentype.Parse(Fallback(weight, style))
		if err != nil {
			log.Printf("bundled font parse failed: %v", err)
			return nil
		}
	}
	s.parsed.Set(key, f, cache.DefaultExpiration)
	return f
}

// Preload fetches the distinct families in fams concurrently and returns when
// all fetches settle or the deadline passes. Rendering proceeds either way;
// families that did not arrive in time render with the fallback face.
func (s *Source) Preload(ctx context.Context, fams []struct{ Name, Weight, Style string }) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for _, f := range fams {
		key := strings.ToLower(f.Name) + "|" + f.Weight
		if f.Name == "" || seen[key] {
			continue
		}
		seen[key] = true
		wg.Add(1)
		go func(name, weight, style string) {
			defer wg.Done()
			s.TTF(ctx, name, weight, style)
		}(f.Name, f.Weight, f.Style)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Printf("font preload timed out, continuing with fetched subset")
	}
}
