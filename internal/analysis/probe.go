// Package analysis probes image dimensions and schedules quality
// scoring across an artifact collection. Probing is network-bound and
// capped by a hard per-image timeout; scoring itself is pure.
package analysis

import (
	"context"
	"errors"
	"image"
	"time"

	// Decoders registered for image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rotisserie/eris"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/jespergran98/originGuessr-Analyzer/internal/fetcher"
	"github.com/jespergran98/originGuessr-Analyzer/internal/store"
)

// Prober resolves an image URL to its natural pixel dimensions.
type Prober interface {
	Probe(ctx context.Context, imageURL string) (store.Dimensions, error)
}

// HTTPProber fetches image headers over HTTP and decodes their
// dimensions without reading the full payload into memory.
type HTTPProber struct {
	fetcher *fetcher.HTTPFetcher
	timeout time.Duration
}

// NewHTTPProber creates a prober with a hard per-probe timeout.
func NewHTTPProber(f *fetcher.HTTPFetcher, timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &HTTPProber{fetcher: f, timeout: timeout}
}

func (p *HTTPProber) Probe(ctx context.Context, imageURL string) (store.Dimensions, error) {
	if imageURL == "" {
		return store.Dimensions{}, ErrNoImage
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	body, err := p.fetcher.Download(ctx, imageURL)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return store.Dimensions{}, eris.Wrapf(ErrImageTimeout, "fetch %s", imageURL)
		}
		return store.Dimensions{}, eris.Wrapf(ErrImageLoad, "fetch %s: %v", imageURL, err)
	}
	defer body.Close() //nolint:errcheck

	cfg, _, err := image.DecodeConfig(body)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return store.Dimensions{}, eris.Wrapf(ErrImageTimeout, "decode %s", imageURL)
		}
		return store.Dimensions{}, eris.Wrapf(ErrImageLoad, "decode %s: %v", imageURL, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return store.Dimensions{}, eris.Wrapf(ErrImageLoad, "decode %s: empty dimensions", imageURL)
	}

	return store.Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}
