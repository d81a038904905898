package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestImageFromDataURL(t *testing.T) {
	payload := pngBytes(t, 8, 4, color.Black)
	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)

	f := NewFetcher(time.Second)
	img, err := f.Image(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 4 {
		t.Errorf("bounds = %v, want 8x4", b)
	}
}

func TestImageFromHTTPAndCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write(pngBytes(t, 4, 4, color.White))
	}))
	defer srv.Close()

	f := NewFetcher(time.Second)
	for i := 0; i < 3; i++ {
		if _, err := f.Image(context.Background(), srv.URL); err != nil {
			t.Fatal(err)
		}
	}
	if hits != 1 {
		t.Errorf("server hit %d times, want 1 (cached)", hits)
	}
}

func TestPrefetchIsolatesFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			http.Error(w, "nope", http.StatusNotFound)
			return
		}
		w.Write(pngBytes(t, 4, 4, color.White))
	}))
	defer srv.Close()

	f := NewFetcher(time.Second)
	got := f.Prefetch(context.Background(), []string{
		srv.URL + "/a",
		srv.URL + "/bad",
		srv.URL + "/b",
		"", // empty sources are skipped, not errors
	})
	if len(got) != 2 {
		t.Fatalf("prefetched %d images, want 2", len(got))
	}
	if _, ok := got[srv.URL+"/bad"]; ok {
		t.Error("failed source present in prefetch result")
	}
}

func TestPNGNormalizesOutput(t *testing.T) {
	payload := pngBytes(t, 6, 6, color.Black)
	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)

	f := NewFetcher(time.Second)
	out, err := f.PNG(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := png.Decode(bytes.NewReader(out)); err != nil {
		t.Errorf("output is not a decodable PNG: %v", err)
	}
}

func TestMalformedDataURL(t *testing.T) {
	f := NewFetcher(time.Second)
	if _, err := f.Image(context.Background(), "data:image/png;base64"); err == nil {
		t.Error("malformed data url did not error")
	}
	if _, err := f.Image(context.Background(), ""); err != ErrEmptySource {
		t.Errorf("err = %v, want ErrEmptySource", err)
	}
}
