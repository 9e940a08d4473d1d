// Package linkcheck sweeps artifact image and author URLs for
// liveness. Probes run concurrently under a bounded worker group; the
// shared fetcher rate limiter keeps the sweep polite.
package linkcheck

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jespergran98/originGuessr-Analyzer/internal/config"
	"github.com/jespergran98/originGuessr-Analyzer/internal/fetcher"
	"github.com/jespergran98/originGuessr-Analyzer/internal/model"
	"github.com/jespergran98/originGuessr-Analyzer/internal/store"
)

// Kind names which artifact field a probed URL came from.
type Kind string

const (
	KindImage      Kind = "image"
	KindAuthorLink Kind = "authorLink"
)

// Result is the outcome of probing one URL.
type Result struct {
	ArtifactID string `json:"artifactId"`
	URL        string `json:"url"`
	Kind       Kind   `json:"kind"`
	Status     int    `json:"status,omitempty"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
}

// Report summarizes one liveness sweep. When the sweep is interrupted
// the results gathered so far are retained and Interrupted is set.
type Report struct {
	CheckedAt   time.Time `json:"checkedAt"`
	Total       int       `json:"total"`
	Checked     int       `json:"checked"`
	Failed      int       `json:"failed"`
	Interrupted bool      `json:"interrupted"`
	Results     []Result  `json:"results"`
}

// StoreRecord converts the report for persistence.
func (r *Report) StoreRecord() (store.LinkReport, error) {
	details, err := json.Marshal(r.Results)
	if err != nil {
		return store.LinkReport{}, eris.Wrap(err, "linkcheck: marshal results")
	}
	return store.LinkReport{
		CheckedAt: r.CheckedAt,
		Total:     r.Total,
		Failed:    r.Failed,
		Details:   details,
	}, nil
}

// Checker probes artifact URLs for liveness.
type Checker struct {
	fetcher     *fetcher.HTTPFetcher
	concurrency int
}

// New creates a Checker backed by the given fetcher.
func New(f *fetcher.HTTPFetcher, cfg config.LinkCheckConfig) *Checker {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 8
	}
	return &Checker{fetcher: f, concurrency: concurrency}
}

type target struct {
	artifactID string
	url        string
	kind       Kind
}

// Check probes every image and author link in the collection. It
// returns whatever it gathered even when the context is cancelled
// mid-sweep.
func (c *Checker) Check(ctx context.Context, artifacts []model.Artifact) *Report {
	targets := collectTargets(artifacts)
	report := &Report{
		CheckedAt: time.Now().UTC(),
		Total:     len(targets),
	}

	log := zap.L().With(zap.String("component", "linkcheck"))
	log.Info("liveness sweep started",
		zap.Int("urls", len(targets)),
		zap.Int("concurrency", c.concurrency),
	)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, t := range targets {
		if gctx.Err() != nil {
			break
		}
		t := t
		g.Go(func() error {
			res := c.probe(gctx, t)
			mu.Lock()
			report.Results = append(report.Results, res)
			report.Checked++
			if !res.OK {
				report.Failed++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	report.Interrupted = ctx.Err() != nil
	log.Info("liveness sweep finished",
		zap.Int("checked", report.Checked),
		zap.Int("failed", report.Failed),
		zap.Bool("interrupted", report.Interrupted),
	)
	return report
}

func (c *Checker) probe(ctx context.Context, t target) Result {
	res := Result{ArtifactID: t.artifactID, URL: t.url, Kind: t.kind}

	status, err := c.fetcher.Head(ctx, t.url)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Status = status
	res.OK = status >= http.StatusOK && status < http.StatusBadRequest
	return res
}

func collectTargets(artifacts []model.Artifact) []target {
	var targets []target
	for _, a := range artifacts {
		if a.Image != "" {
			targets = append(targets, target{artifactID: a.ID, url: a.Image, kind: KindImage})
		}
		if a.AuthorLink != "" {
			targets = append(targets, target{artifactID: a.ID, url: a.AuthorLink, kind: KindAuthorLink})
		}
	}
	return targets
}
