// Package assets loads the raster resources a render needs: the background
// image, element images and pre-rendered QR payloads. Sources may be http(s)
// URLs or base64 data URLs. Everything decodes through imaging and is
// normalized to PNG so downstream embedders deal with one format.
package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/patrickmn/go-cache"
	_ "golang.org/x/image/webp" // uploads may be webp
)

var ErrEmptySource = errors.New("empty image source")

// maxConcurrentFetches bounds parallel downloads during a prefetch.
const maxConcurrentFetches = 20

type Fetcher struct {
	client *http.Client
	cache  *cache.Cache
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		cache:  cache.New(30*time.Minute, 10*time.Minute),
	}
}

// Image decodes the resource at src. Data URLs decode inline, anything else
// is fetched over HTTP with the Fetcher's timeout.
func (f *Fetcher) Image(ctx context.Context, src string) (image.Image, error) {
	if src == "" {
		return nil, ErrEmptySource
	}
	if v, hit := f.cache.Get(src); hit {
		return v.(image.Image), nil
	}

	var raw []byte
	var err error
	if strings.HasPrefix(src, "data:") {
		raw, err = decodeDataURL(src)
	} else {
		raw, err = f.download(ctx, src)
	}
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", truncate(src), err)
	}
	f.cache.Set(src, img, cache.DefaultExpiration)
	return img, nil
}

// PNG returns the resource normalized to PNG bytes, the format every
// embedder here accepts.
func (f *Fetcher) PNG(ctx context.Context, src string) ([]byte, error) {
	img, err := f.Image(ctx, src)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Prefetch loads the distinct sources concurrently and returns the ones that
// succeeded. A failing source is logged and skipped; it never aborts the
// fetches in flight for the others.
func (f *Fetcher) Prefetch(ctx context.Context, srcs []string) map[string]image.Image {
	sem := make(chan struct{}, maxConcurrentFetches)
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[string]image.Image)
	)
	seen := make(map[string]bool)
	for _, src := range srcs {
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		wg.Add(1)
		go func(src string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			img, err := f.Image(ctx, src)
			if err != nil {
				log.Printf("prefetch skipped %s: %v", truncate(src), err)
				return
			}
			mu.Lock()
			out[src] = img
			mu.Unlock()
		}(src)
	}
	wg.Wait()
	return out
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", truncate(url), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", truncate(url), resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// decodeDataURL extracts the payload of a base64 data URL such as the QR
// payloads stored on certificates ("data:image/png;base64,....").
func decodeDataURL(src string) ([]byte, error) {
	idx := strings.Index(src, ",")
	if idx < 0 {
		return nil, errors.New("malformed data url")
	}
	meta := src[:idx]
	if !strings.Contains(meta, ";base64") {
		return nil, errors.New("unsupported data url encoding")
	}
	return base64.StdEncoding.DecodeString(src[idx+1:])
}

func truncate(s string) string {
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}
