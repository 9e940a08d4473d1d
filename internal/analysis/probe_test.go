package analysis

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jespergran98/originGuessr-Analyzer/internal/fetcher"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		MaxRetries:     1,
		RequestsPerSec: 1000,
	})
}

func TestHTTPProberDecodesDimensions(t *testing.T) {
	t.Parallel()

	payload := pngBytes(t, 640, 480)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	p := NewHTTPProber(testFetcher(), time.Second)
	dims, err := p.Probe(context.Background(), srv.URL+"/a.png")
	require.NoError(t, err)
	assert.Equal(t, 640, dims.Width)
	assert.Equal(t, 480, dims.Height)
}

func TestHTTPProberEmptyURL(t *testing.T) {
	t.Parallel()

	p := NewHTTPProber(testFetcher(), time.Second)
	_, err := p.Probe(context.Background(), "")
	assert.True(t, eris.Is(err, ErrNoImage))
}

func TestHTTPProberLoadErrors(t *testing.T) {
	t.Parallel()

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		p := NewHTTPProber(testFetcher(), time.Second)
		_, err := p.Probe(context.Background(), srv.URL+"/gone.png")
		assert.True(t, eris.Is(err, ErrImageLoad))
	})

	t.Run("not an image", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>not an image</html>"))
		}))
		defer srv.Close()

		p := NewHTTPProber(testFetcher(), time.Second)
		_, err := p.Probe(context.Background(), srv.URL+"/page")
		assert.True(t, eris.Is(err, ErrImageLoad))
	})
}

func TestHTTPProberTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	p := NewHTTPProber(testFetcher(), 50*time.Millisecond)
	_, err := p.Probe(context.Background(), srv.URL+"/slow.png")
	assert.True(t, eris.Is(err, ErrImageTimeout))
}
