// Package dashboard wires the analyzer's engines into one per-session
// orchestrator. A Session owns its collection snapshot, statistics,
// sorted view, pager and analysis scheduler; nothing here is a global.
package dashboard

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jespergran98/originGuessr-Analyzer/internal/analysis"
	"github.com/jespergran98/originGuessr-Analyzer/internal/config"
	"github.com/jespergran98/originGuessr-Analyzer/internal/fetcher"
	"github.com/jespergran98/originGuessr-Analyzer/internal/ingest"
	"github.com/jespergran98/originGuessr-Analyzer/internal/linkcheck"
	"github.com/jespergran98/originGuessr-Analyzer/internal/model"
	"github.com/jespergran98/originGuessr-Analyzer/internal/sorting"
	"github.com/jespergran98/originGuessr-Analyzer/internal/stats"
	"github.com/jespergran98/originGuessr-Analyzer/internal/store"
	"github.com/jespergran98/originGuessr-Analyzer/internal/view"
)

const eventBuffer = 64

// Progress is a snapshot of the analysis pass state.
type Progress struct {
	Done         int     `json:"done"`
	Total        int     `json:"total"`
	Running      bool    `json:"running"`
	AverageScore float64 `json:"averageScore"`
	Version      int64   `json:"version"`
}

// LengthLeaders are the pre-ranked title/description extremes.
type LengthLeaders struct {
	LongestTitles        []model.Artifact `json:"longestTitles"`
	ShortestTitles       []model.Artifact `json:"shortestTitles"`
	LongestDescriptions  []model.Artifact `json:"longestDescriptions"`
	ShortestDescriptions []model.Artifact `json:"shortestDescriptions"`
}

// Charts bundles the two dashboard histograms.
type Charts struct {
	DescriptionLengths []stats.Bucket `json:"descriptionLengths"`
	Timeframes         []stats.Bucket `json:"timeframes"`
}

// Session is one dashboard session over a loaded collection. Statistics
// are computed once at load; the sorted view, pager and priority set
// change together as the user re-sorts or pages.
type Session struct {
	mu        sync.Mutex
	cfg       *config.Config
	store     store.Store
	stats     *stats.Result
	scheduler *analysis.Scheduler
	pager     *view.Pager
	sortKey   sorting.Key
	sortedIDs []string
	priority  map[string]struct{}
	events    chan analysis.ProgressEvent

	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// NewSession loads the collection, computes statistics and prepares the
// first page under the default year-newest ordering.
func NewSession(ctx context.Context, cfg *config.Config) (*Session, error) {
	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "dashboard: open store")
	}
	if st != nil {
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, eris.Wrap(err, "dashboard: migrate store")
		}
	}

	loader := ingest.NewLoader(cfg.Source)
	collection, err := loader.Load(ctx)
	if err != nil {
		if st != nil {
			st.Close()
		}
		return nil, err
	}

	probeFetcher := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  cfg.Source.UserAgent,
		Timeout:    cfg.Analysis.ProbeTimeout(),
		MaxRetries: 1,
	})
	prober := analysis.NewHTTPProber(probeFetcher, cfg.Analysis.ProbeTimeout())
	cache := analysis.NewScoreCache(st)

	artifacts := collection.All()
	scheduler := analysis.NewScheduler(artifacts, prober, cache, cfg.Analysis)
	scheduler.SetLeaderboardSize(cfg.View.LeaderboardSize)

	sessionCtx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:       cfg,
		store:     st,
		stats:     stats.Compute(artifacts),
		scheduler: scheduler,
		pager:     view.NewPager(cfg.View.PageSize),
		events:    make(chan analysis.ProgressEvent, eventBuffer),
		ctx:       sessionCtx,
		cancel:    cancel,
	}
	scheduler.SetPublisher(s.publishEvent)

	if err := s.SetSortKey(string(sorting.KeyYearNewest)); err != nil {
		s.Close()
		return nil, err
	}

	zap.L().Info("dashboard session ready",
		zap.Int("artifacts", collection.Len()),
		zap.Bool("persistent_cache", st != nil),
	)
	return s, nil
}

// SortKeys lists the orderings a session supports.
func SortKeys() []sorting.Key {
	return sorting.Keys()
}

// SetSortKey re-sorts the collection, resets the pager, materializes
// the first page and recomputes the priority set. The refreshed
// priority applies to the next analysis pass only.
func (s *Session) SetSortKey(raw string) error {
	key, err := sorting.ParseKey(raw)
	if err != nil {
		return err
	}

	arena := s.scheduler.Snapshot()
	sorted, err := sorting.Sort(arena, key, &s.stats.Licenses, &s.stats.Authors)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortKey = key
	s.sortedIDs = make([]string, len(sorted))
	for i, a := range sorted {
		s.sortedIDs[i] = a.ID
	}
	s.pager.Reset(len(sorted))
	s.pager.LoadMore()
	s.priority = view.PrioritySet(sorted, s.pager.Rendered(), s.priorityOptions())
	return nil
}

// SortKey returns the active ordering.
func (s *Session) SortKey() sorting.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortKey
}

// LoadMore materializes the next page. It reports whether anything new
// was rendered; the second value signals exhaustion.
func (s *Session) LoadMore() (loaded, exhausted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.pager.LoadMore()
	if ok {
		sorted := s.currentOrderLocked()
		s.priority = view.PrioritySet(sorted, s.pager.Rendered(), s.priorityOptions())
	}
	return ok, s.pager.Exhausted()
}

// Cards returns the rendered slice of the sorted view, refreshed
// against the latest analysis state.
func (s *Session) Cards() []model.Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	sorted := s.currentOrderLocked()
	rendered := s.pager.Rendered()
	if rendered > len(sorted) {
		rendered = len(sorted)
	}
	return sorted[:rendered]
}

// Rendered reports how many cards are materialized.
func (s *Session) Rendered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pager.Rendered()
}

// StartAnalysis launches one analysis pass in the background using the
// priority set as of now. A pass already in flight makes this a no-op.
func (s *Session) StartAnalysis() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	priority := make(map[string]struct{}, len(s.priority))
	for id := range s.priority {
		priority[id] = struct{}{}
	}
	ctx := s.ctx
	s.mu.Unlock()

	go s.scheduler.AnalyzeAll(ctx, priority)
}

// Events exposes the analysis progress feed. A lagging consumer loses
// the oldest buffered events rather than stalling the pass; the most
// recent event, including the terminal one, is always retained.
func (s *Session) Events() <-chan analysis.ProgressEvent {
	return s.events
}

// Progress returns the current analysis pass state.
func (s *Session) Progress() Progress {
	done, total := s.scheduler.Progress()
	return Progress{
		Done:         done,
		Total:        total,
		Running:      s.scheduler.Running(),
		AverageScore: s.scheduler.AverageScore(),
		Version:      s.scheduler.Version(),
	}
}

// SetMetric switches the leaderboard metric. Already-scored data is
// re-ranked; nothing is re-probed.
func (s *Session) SetMetric(m model.QualityMetric) {
	s.scheduler.SetMetric(m)
}

// Leaderboards returns top and bottom scored artifacts for the active
// metric.
func (s *Session) Leaderboards() (top, bottom []model.Artifact) {
	return s.scheduler.Leaderboards()
}

// Stats returns the load-time aggregate statistics.
func (s *Session) Stats() *stats.Result {
	return s.stats
}

// LengthLeaders returns the top n artifacts by title and description
// length in both directions, from the views precomputed at load.
func (s *Session) LengthLeaders(n int) LengthLeaders {
	return LengthLeaders{
		LongestTitles:        headOf(s.stats.LongestTitles, n),
		ShortestTitles:       headOf(s.stats.ShortestTitles, n),
		LongestDescriptions:  headOf(s.stats.LongestDescriptions, n),
		ShortestDescriptions: headOf(s.stats.ShortestDescriptions, n),
	}
}

// Charts builds both dashboard histograms from the current arena.
func (s *Session) Charts() Charts {
	arena := s.scheduler.Snapshot()
	return Charts{
		DescriptionLengths: stats.DescriptionLengthHistogram(arena),
		Timeframes:         stats.TimeframeHistogram(arena),
	}
}

// MapPoints lists the plottable artifacts.
func (s *Session) MapPoints() []stats.MapPoint {
	return stats.MapPoints(s.scheduler.Snapshot())
}

// Artifacts returns the full arena in collection order.
func (s *Session) Artifacts() []model.Artifact {
	return s.scheduler.Snapshot()
}

// RunLinkCheck sweeps the collection's URLs and persists the report
// when a store is configured. The partial report survives cancellation.
func (s *Session) RunLinkCheck(ctx context.Context, checker *linkcheck.Checker) (*linkcheck.Report, error) {
	report := checker.Check(ctx, s.scheduler.Snapshot())

	if s.store != nil {
		rec, err := report.StoreRecord()
		if err != nil {
			return report, err
		}
		if err := s.store.SaveLinkReport(ctx, rec); err != nil {
			return report, eris.Wrap(err, "dashboard: persist link report")
		}
	}
	return report, nil
}

// LatestLinkReport returns the most recent persisted sweep, nil when
// none exists or persistence is disabled.
func (s *Session) LatestLinkReport(ctx context.Context) (*store.LinkReport, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.LatestLinkReport(ctx)
}

// Close tears the session down: the running pass is cancelled and the
// store released. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			zap.L().Warn("store close failed", zap.Error(err))
		}
	}
}

// publishEvent enqueues a progress event, evicting the oldest buffered
// one when the consumer lags. The newest event always lands, so a
// drained feed ends on the pass's final event.
func (s *Session) publishEvent(ev analysis.ProgressEvent) {
	select {
	case s.events <- ev:
		return
	default:
	}

	select {
	case <-s.events:
		zap.L().Debug("progress event evicted, consumer behind")
	default:
	}
	select {
	case s.events <- ev:
	default:
	}
}

func (s *Session) priorityOptions() view.PriorityOptions {
	return view.PriorityOptions{
		PageSize:        s.cfg.View.PageSize,
		LookaheadPages:  s.cfg.View.LookaheadPages,
		LeaderboardSize: s.cfg.View.LeaderboardSize,
	}
}

// currentOrderLocked projects the sorted id sequence onto the latest
// arena snapshot so card badges reflect fresh scores without
// reordering mid-page.
func (s *Session) currentOrderLocked() []model.Artifact {
	arena := s.scheduler.Snapshot()
	byID := make(map[string]model.Artifact, len(arena))
	for _, a := range arena {
		byID[a.ID] = a
	}
	out := make([]model.Artifact, 0, len(s.sortedIDs))
	for _, id := range s.sortedIDs {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

func headOf(artifacts []model.Artifact, n int) []model.Artifact {
	if n > len(artifacts) {
		n = len(artifacts)
	}
	out := make([]model.Artifact, n)
	copy(out, artifacts[:n])
	return out
}
