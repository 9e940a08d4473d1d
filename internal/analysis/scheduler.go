package analysis

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/jespergran98/originGuessr-Analyzer/internal/config"
	"github.com/jespergran98/originGuessr-Analyzer/internal/model"
	"github.com/jespergran98/originGuessr-Analyzer/internal/quality"
	"github.com/jespergran98/originGuessr-Analyzer/internal/view"
)

// ProgressEvent is published while an analysis pass runs.
type ProgressEvent struct {
	Done         int              `json:"done"`
	Total        int              `json:"total"`
	AverageScore float64          `json:"averageScore"`
	Top          []model.Artifact `json:"top"`
	Bottom       []model.Artifact `json:"bottom"`
	ScoredIDs    []string         `json:"scoredIds"`
	Final        bool             `json:"final"`
}

// Publisher receives progress events. Calls are sequential.
type Publisher func(ProgressEvent)

const defaultLeaderboardSize = 5

// Scheduler owns the artifact arena and drives image analysis over it.
// Each score update replaces the artifact at its index under the mutex
// and bumps the version counter; consumers read whole-slice snapshots
// and use the version to detect staleness.
type Scheduler struct {
	mu        sync.RWMutex
	artifacts []model.Artifact
	metric    model.QualityMetric
	done      int
	version   atomic.Int64
	running   atomic.Bool

	prober    Prober
	cache     *ScoreCache
	cfg       config.AnalysisConfig
	publish   Publisher
	boardSize int
}

// NewScheduler creates a scheduler over its own copy of the collection.
func NewScheduler(artifacts []model.Artifact, prober Prober, cache *ScoreCache, cfg config.AnalysisConfig) *Scheduler {
	if cfg.YieldEvery <= 0 {
		cfg.YieldEvery = 10
	}
	if cfg.RepublishEvery <= 0 {
		cfg.RepublishEvery = 5
	}
	arena := make([]model.Artifact, len(artifacts))
	copy(arena, artifacts)
	return &Scheduler{
		artifacts: arena,
		metric:    model.MetricOverall,
		prober:    prober,
		cache:     cache,
		cfg:       cfg,
		boardSize: defaultLeaderboardSize,
	}
}

// SetPublisher installs the progress sink. Must be set before AnalyzeAll.
func (s *Scheduler) SetPublisher(fn Publisher) {
	s.publish = fn
}

// SetLeaderboardSize overrides how many entries each leaderboard holds.
func (s *Scheduler) SetLeaderboardSize(n int) {
	if n < 1 {
		return
	}
	s.mu.Lock()
	s.boardSize = n
	s.mu.Unlock()
}

// SetMetric switches the metric used for leaderboards. No re-probing
// happens; the next Leaderboards call reflects scored data only.
func (s *Scheduler) SetMetric(m model.QualityMetric) {
	s.mu.Lock()
	s.metric = m
	s.mu.Unlock()
}

// Metric returns the active leaderboard metric.
func (s *Scheduler) Metric() model.QualityMetric {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metric
}

// Version returns the arena version, bumped on every artifact update.
func (s *Scheduler) Version() int64 {
	return s.version.Load()
}

// Running reports whether an analysis pass is in flight.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// Snapshot returns a copy of the arena.
func (s *Scheduler) Snapshot() []model.Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Artifact, len(s.artifacts))
	copy(out, s.artifacts)
	return out
}

// Progress reports processed and total artifact counts.
func (s *Scheduler) Progress() (done, total int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.done, len(s.artifacts)
}

// AverageScore is the mean overall score over scored artifacts.
func (s *Scheduler) AverageScore() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return averageScore(s.artifacts)
}

// Leaderboards returns the top and bottom ranked scored artifacts for
// the active metric.
func (s *Scheduler) Leaderboards() (top, bottom []model.Artifact) {
	s.mu.RLock()
	arena := make([]model.Artifact, len(s.artifacts))
	copy(arena, s.artifacts)
	metric := s.metric
	n := s.boardSize
	s.mu.RUnlock()
	return view.TopByMetric(arena, metric, n), view.BottomByMetric(arena, metric, n)
}

// AnalyzeAll runs one sequential analysis pass over the whole arena,
// visiting prioritized ids first. The priority order is fixed at pass
// start; mid-pass priority changes apply to future passes only. A
// second call while a pass is running is a no-op.
func (s *Scheduler) AnalyzeAll(ctx context.Context, priority map[string]struct{}) {
	if !s.running.CompareAndSwap(false, true) {
		zap.L().Debug("analysis pass already running, ignoring")
		return
	}
	defer s.running.Store(false)

	order := s.passOrder(priority)
	total := len(order)
	s.mu.Lock()
	s.done = 0
	s.mu.Unlock()

	log := zap.L().With(zap.String("component", "analysis"))
	log.Info("analysis pass started", zap.Int("total", total))

	var scoredIDs []string
	sinceRepublish := 0
	done := 0
	for _, idx := range order {
		if ctx.Err() != nil {
			log.Warn("analysis pass interrupted", zap.Int("done", done), zap.Int("total", total))
			break
		}

		s.mu.RLock()
		id := s.artifacts[idx].ID
		s.mu.RUnlock()

		if s.analyzeOne(ctx, idx) {
			scoredIDs = append(scoredIDs, id)
		}
		done++
		sinceRepublish++
		s.mu.Lock()
		s.done = done
		s.mu.Unlock()

		_, prioritized := priority[id]
		if prioritized || sinceRepublish >= s.cfg.RepublishEvery {
			s.publishProgress(done, total, scoredIDs, false)
			scoredIDs = nil
			sinceRepublish = 0
		}

		if done%s.cfg.YieldEvery == 0 {
			runtime.Gosched()
		}
	}

	s.publishProgress(done, total, scoredIDs, true)
	log.Info("analysis pass finished",
		zap.Int("done", done),
		zap.Int("cached_urls", s.cache.Len()),
	)
}

// passOrder lists arena indices with prioritized ids first. Relative
// order within each group is collection order.
func (s *Scheduler) passOrder(priority map[string]struct{}) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order := make([]int, 0, len(s.artifacts))
	var rest []int
	for i, a := range s.artifacts {
		if _, ok := priority[a.ID]; ok {
			order = append(order, i)
		} else {
			rest = append(rest, i)
		}
	}
	return append(order, rest...)
}

// analyzeOne resolves the analysis state of one artifact. Probe
// failures are terminal for the artifact and never returned to the
// caller. Reports whether the artifact transitioned to scored.
func (s *Scheduler) analyzeOne(ctx context.Context, idx int) bool {
	s.mu.RLock()
	art := s.artifacts[idx]
	s.mu.RUnlock()

	if art.Analysis == model.AnalysisScored || art.Analysis == model.AnalysisFailed {
		return false
	}
	if !art.HasImage() {
		s.fail(idx, quality.LabelNoImage)
		return false
	}

	if scores, ok := s.cache.Get(ctx, art.Image); ok {
		s.applyScores(idx, scores)
		return true
	}

	dims, err := s.prober.Probe(ctx, art.Image)
	if err != nil {
		zap.L().Warn("image probe failed",
			zap.String("artifact_id", art.ID),
			zap.String("url", art.Image),
			zap.Error(err),
		)
		s.fail(idx, quality.LabelAnalysisFailed)
		return false
	}

	scores := quality.Score(dims.Width, dims.Height)
	s.cache.Put(ctx, art.Image, dims, scores)
	s.applyScores(idx, scores)
	return true
}

func (s *Scheduler) applyScores(idx int, scores quality.Scores) {
	s.mu.Lock()
	defer s.mu.Unlock()

	art := s.artifacts[idx]
	art.ImageQualityScore = scores.Overall
	art.ImageQuality = quality.Label(scores.Overall)
	art.AspectRatioScore = scores.AspectRatioScore
	art.PixelSizeScore = scores.PixelSizeScore
	ratio := scores.AspectRatio
	pixels := scores.PixelCount
	art.AspectRatio = &ratio
	art.PixelSize = &pixels
	art.Analysis = model.AnalysisScored
	s.artifacts[idx] = art
	s.version.Add(1)
}

func (s *Scheduler) fail(idx int, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	art := s.artifacts[idx]
	art.ImageQualityScore = 0
	art.ImageQuality = label
	art.Analysis = model.AnalysisFailed
	s.artifacts[idx] = art
	s.version.Add(1)
}

func (s *Scheduler) publishProgress(done, total int, scoredIDs []string, final bool) {
	if s.publish == nil {
		return
	}

	s.mu.RLock()
	arena := make([]model.Artifact, len(s.artifacts))
	copy(arena, s.artifacts)
	metric := s.metric
	n := s.boardSize
	s.mu.RUnlock()

	s.publish(ProgressEvent{
		Done:         done,
		Total:        total,
		AverageScore: averageScore(arena),
		Top:          view.TopByMetric(arena, metric, n),
		Bottom:       view.BottomByMetric(arena, metric, n),
		ScoredIDs:    scoredIDs,
		Final:        final,
	})
}

func averageScore(artifacts []model.Artifact) float64 {
	sum, count := 0, 0
	for _, a := range artifacts {
		if a.Scored() {
			sum += a.ImageQualityScore
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}
