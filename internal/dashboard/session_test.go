package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jespergran98/originGuessr-Analyzer/internal/config"
	"github.com/jespergran98/originGuessr-Analyzer/internal/model"
	"github.com/jespergran98/originGuessr-Analyzer/internal/sorting"
)

type sourceArtifact struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Year        *int     `json:"year,omitempty"`
	Author      string   `json:"author,omitempty"`
	License     string   `json:"license,omitempty"`
	Image       string   `json:"image,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
}

func newTestBackend(t *testing.T, count int) *httptest.Server {
	t.Helper()

	var imgBuf bytes.Buffer
	require.NoError(t, png.Encode(&imgBuf, image.NewRGBA(image.Rect(0, 0, 320, 240))))
	imgBytes := imgBuf.Bytes()

	mux := http.NewServeMux()
	mux.HandleFunc("/artifacts.json", func(w http.ResponseWriter, _ *http.Request) {
		var artifacts []sourceArtifact
		for i := 0; i < count; i++ {
			year := 1500 + i*10
			artifacts = append(artifacts, sourceArtifact{
				ID:          fmt.Sprintf("a%03d", i),
				Title:       fmt.Sprintf("Artifact %03d", i),
				Description: fmt.Sprintf("Description for artifact number %03d", i),
				Year:        &year,
				Author:      "Jane Carver",
				License:     "CC BY 4.0",
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"artifacts": artifacts})
	})
	mux.HandleFunc("/img/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(imgBytes)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(srv *httptest.Server) *config.Config {
	return &config.Config{
		Source: config.SourceConfig{
			URL:         srv.URL + "/artifacts.json",
			TimeoutSecs: 5,
			MaxRetries:  1,
			UserAgent:   "analyzer-test/1.0",
		},
		Analysis: config.AnalysisConfig{ProbeTimeoutSecs: 5, YieldEvery: 10, RepublishEvery: 5},
		View:     config.ViewConfig{PageSize: 12, LookaheadPages: 2, LeaderboardSize: 5},
	}
}

func newTestSession(t *testing.T, count int) *Session {
	t.Helper()
	srv := newTestBackend(t, count)
	s, err := NewSession(context.Background(), testConfig(srv))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestNewSessionMaterializesFirstPage(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, 30)

	assert.Equal(t, sorting.KeyYearNewest, s.SortKey())
	assert.Equal(t, 12, s.Rendered())
	cards := s.Cards()
	require.Len(t, cards, 12)
	// Year-newest: the latest year leads.
	require.NotNil(t, cards[0].Year)
	assert.Equal(t, 1500+29*10, *cards[0].Year)

	assert.Equal(t, 30, s.Stats().Summary.Total)
	assert.Equal(t, "CC BY 4.0", s.Stats().Licenses.Entries[0].Label)
}

func TestLoadMoreProgressionAndExhaustion(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, 30)

	loaded, exhausted := s.LoadMore()
	assert.True(t, loaded)
	assert.False(t, exhausted)
	assert.Equal(t, 24, s.Rendered())

	loaded, exhausted = s.LoadMore()
	assert.True(t, loaded)
	assert.True(t, exhausted)
	assert.Equal(t, 30, s.Rendered())

	loaded, exhausted = s.LoadMore()
	assert.False(t, loaded, "load past the end is a no-op")
	assert.True(t, exhausted)
	assert.Equal(t, 30, s.Rendered())
}

func TestSetSortKeyResetsView(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, 30)
	s.LoadMore()
	require.Equal(t, 24, s.Rendered())

	require.NoError(t, s.SetSortKey("year-oldest"))
	assert.Equal(t, 12, s.Rendered(), "re-sort resets to the first page")
	cards := s.Cards()
	require.NotNil(t, cards[0].Year)
	assert.Equal(t, 1500, *cards[0].Year)

	assert.Error(t, s.SetSortKey("bogus-key"))
	assert.Equal(t, sorting.KeyYearOldest, s.SortKey(), "failed parse leaves the view alone")
}

func TestSessionAnalysisLifecycle(t *testing.T) {
	t.Parallel()

	srv := newTestBackend(t, 6)

	// Source with images pointing back at the test server.
	mux := http.NewServeMux()
	mux.HandleFunc("/artifacts.json", func(w http.ResponseWriter, _ *http.Request) {
		var artifacts []sourceArtifact
		for i := 0; i < 6; i++ {
			artifacts = append(artifacts, sourceArtifact{
				ID:    fmt.Sprintf("a%03d", i),
				Title: fmt.Sprintf("Artifact %03d", i),
				Image: srv.URL + fmt.Sprintf("/img/a%03d.png", i),
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"artifacts": artifacts})
	})
	front := httptest.NewServer(mux)
	t.Cleanup(front.Close)

	s, err := NewSession(context.Background(), testConfig(front))
	require.NoError(t, err)
	t.Cleanup(s.Close)

	s.StartAnalysis()

	require.Eventually(t, func() bool {
		p := s.Progress()
		return !p.Running && p.Done == p.Total && p.Total == 6
	}, 10*time.Second, 20*time.Millisecond)

	var sawFinal bool
	for done := false; !done; {
		select {
		case ev := <-s.Events():
			if ev.Final {
				sawFinal = true
				done = true
			}
		default:
			done = true
		}
	}
	assert.True(t, sawFinal, "final progress event published")

	for _, a := range s.Artifacts() {
		assert.Equal(t, model.AnalysisScored, a.Analysis)
		assert.NotEmpty(t, a.ImageQuality)
	}
	assert.Positive(t, s.Progress().AverageScore)

	top, bottom := s.Leaderboards()
	assert.NotEmpty(t, top)
	assert.NotEmpty(t, bottom)

	leaders := s.LengthLeaders(5)
	assert.Len(t, leaders.LongestTitles, 5)
}

func TestEventFeedRetainsFinalEventWithoutConsumer(t *testing.T) {
	t.Parallel()

	// Imageless artifacts fail analysis instantly, so a large collection
	// publishes far more events than the feed buffers. Nothing reads the
	// feed during the pass; the terminal event must still survive.
	s := newTestSession(t, 400)

	s.StartAnalysis()
	require.Eventually(t, func() bool {
		p := s.Progress()
		return !p.Running && p.Done == p.Total && p.Total == 400
	}, 10*time.Second, 20*time.Millisecond)

	var drained int
	var sawFinal bool
	for done := false; !done; {
		select {
		case ev := <-s.Events():
			drained++
			sawFinal = ev.Final
		default:
			done = true
		}
	}

	require.Positive(t, drained)
	assert.LessOrEqual(t, drained, 64, "buffer bounds the backlog")
	assert.True(t, sawFinal, "last buffered event is the terminal one")
}

func TestSessionChartsAndMap(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, 10)

	charts := s.Charts()
	assert.Len(t, charts.DescriptionLengths, 15)
	assert.Len(t, charts.Timeframes, 13)

	// The fixture has no coordinates.
	assert.Empty(t, s.MapPoints())
}

func TestSessionCloseIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, 3)
	s.Close()
	s.Close()
}
