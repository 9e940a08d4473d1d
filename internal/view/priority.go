package view

import (
	"slices"
	"strings"

	"github.com/jespergran98/originGuessr-Analyzer/internal/model"
)

// PriorityOptions sizes the priority computation.
type PriorityOptions struct {
	PageSize        int
	LookaheadPages  int
	LeaderboardSize int
}

// PrioritySet computes the set of artifact ids whose image analysis
// should be expedited: everything rendered or about to be rendered
// (the next LookaheadPages pages), plus the current rank extremes —
// top and bottom LeaderboardSize ids by each quality metric over the
// already-scored artifacts.
func PrioritySet(sorted []model.Artifact, rendered int, opts PriorityOptions) map[string]struct{} {
	set := make(map[string]struct{})

	window := rendered + opts.LookaheadPages*opts.PageSize
	if window > len(sorted) {
		window = len(sorted)
	}
	for _, a := range sorted[:window] {
		set[a.ID] = struct{}{}
	}

	metrics := []model.QualityMetric{
		model.MetricOverall, model.MetricAspectRatio, model.MetricPixelSize,
	}
	for _, metric := range metrics {
		for _, a := range TopByMetric(sorted, metric, opts.LeaderboardSize) {
			set[a.ID] = struct{}{}
		}
		for _, a := range BottomByMetric(sorted, metric, opts.LeaderboardSize) {
			set[a.ID] = struct{}{}
		}
	}

	return set
}

// TopByMetric returns the n highest-scoring already-scored artifacts by
// the given metric, ties broken by title.
func TopByMetric(artifacts []model.Artifact, metric model.QualityMetric, n int) []model.Artifact {
	return rankByMetric(artifacts, metric, n, true)
}

// BottomByMetric returns the n lowest-scoring already-scored artifacts
// by the given metric, ties broken by title.
func BottomByMetric(artifacts []model.Artifact, metric model.QualityMetric, n int) []model.Artifact {
	return rankByMetric(artifacts, metric, n, false)
}

func rankByMetric(artifacts []model.Artifact, metric model.QualityMetric, n int, top bool) []model.Artifact {
	scored := make([]model.Artifact, 0, len(artifacts))
	for _, a := range artifacts {
		if a.Scored() {
			scored = append(scored, a)
		}
	}

	slices.SortStableFunc(scored, func(a, b model.Artifact) int {
		va, vb := a.MetricScore(metric), b.MetricScore(metric)
		if va != vb {
			if top == (va > vb) {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Title, b.Title)
	})

	if len(scored) > n {
		scored = scored[:n]
	}
	return scored
}
