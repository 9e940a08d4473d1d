package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFetcher() *HTTPFetcher {
	return NewHTTPFetcher(HTTPOptions{
		Timeout:        5 * time.Second,
		MaxRetries:     3,
		RequestsPerSec: 1000,
	})
}

func TestDownload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	body, err := testFetcher().Download(context.Background(), srv.URL)
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))
}

func TestDownloadNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testFetcher().Download(context.Background(), srv.URL)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestDownloadRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		io.WriteString(w, "recovered")
	}))
	defer srv.Close()

	body, err := testFetcher().Download(context.Background(), srv.URL)
	require.NoError(t, err)
	defer body.Close()

	data, _ := io.ReadAll(body)
	assert.Equal(t, "recovered", string(data))
	assert.Equal(t, int32(3), calls.Load())
}

func TestDownloadExhaustsRetries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testFetcher().Download(context.Background(), srv.URL)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "all retries exhausted")
}

func TestHead(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	status, err := testFetcher().Head(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
}

func TestHeadFallsBackToGet(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	status, err := testFetcher().Head(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
}

func TestDecodeJSONObject(t *testing.T) {
	t.Parallel()

	type doc struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		got, err := DecodeJSONObject[doc](strings.NewReader(`{"name":"amphora","count":3}`))
		require.NoError(t, err)
		assert.Equal(t, "amphora", got.Name)
		assert.Equal(t, 3, got.Count)
	})

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()
		_, err := DecodeJSONObject[doc](strings.NewReader(`{"name":`))
		assert.Error(t, err)
	})
}
