// Package stats computes one-shot descriptive statistics over a loaded
// artifact collection. It runs exactly once after ingestion and never
// reads image-quality fields; those are populated later by the analysis
// scheduler without re-running this engine.
package stats

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jespergran98/originGuessr-Analyzer/internal/model"
)

// NoDateData is reported when no artifact carries a numeric year.
const NoDateData = "No date data available"

// FreqEntry is one row of a frequency table.
type FreqEntry struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// FreqTable is a frequency table ordered by count descending, ties by
// first occurrence in collection order. Rank and counts are static for
// the session; they are never recomputed after load.
type FreqTable struct {
	Entries []FreqEntry `json:"entries"`
	counts  map[string]int
	ranks   map[string]int
}

// Count returns the occurrence count for a label, 0 if absent.
func (t *FreqTable) Count(label string) int {
	return t.counts[label]
}

// Rank returns the table position of a label (0 = most common). Labels
// not in the table rank last.
func (t *FreqTable) Rank(label string) int {
	if r, ok := t.ranks[label]; ok {
		return r
	}
	return len(t.Entries)
}

// Summary holds the scalar aggregates of the collection.
type Summary struct {
	Total                int     `json:"total"`
	AvgTitleLength       float64 `json:"avgTitleLength"`
	AvgDescriptionLength float64 `json:"avgDescriptionLength"`
	PlayableCount        int     `json:"playableCount"`
	NotPlayableCount     int     `json:"notPlayableCount"`
	YearRange            string  `json:"yearRange"`
}

// Result is the full output of the statistics engine.
type Result struct {
	Summary  Summary   `json:"summary"`
	Licenses FreqTable `json:"licenses"`
	Authors  FreqTable `json:"authors"`

	// Pre-sorted views of the full collection, reused for the top-5
	// longest/shortest displays.
	LongestTitles        []model.Artifact `json:"-"`
	ShortestTitles       []model.Artifact `json:"-"`
	LongestDescriptions  []model.Artifact `json:"-"`
	ShortestDescriptions []model.Artifact `json:"-"`
}

// Compute builds the aggregate statistics for the collection snapshot.
func Compute(artifacts []model.Artifact) *Result {
	r := &Result{}
	r.Summary.Total = len(artifacts)

	var titleSum, descSum int
	var minYear, maxYear int
	haveYear := false

	for _, a := range artifacts {
		titleSum += a.TitleLength
		descSum += a.DescriptionLength

		if a.IsPlayable != nil {
			if *a.IsPlayable {
				r.Summary.PlayableCount++
			} else {
				r.Summary.NotPlayableCount++
			}
		}

		if a.Year != nil {
			if !haveYear || *a.Year < minYear {
				minYear = *a.Year
			}
			if !haveYear || *a.Year > maxYear {
				maxYear = *a.Year
			}
			haveYear = true
		}
	}

	if len(artifacts) > 0 {
		r.Summary.AvgTitleLength = float64(titleSum) / float64(len(artifacts))
		r.Summary.AvgDescriptionLength = float64(descSum) / float64(len(artifacts))
	}

	if haveYear {
		r.Summary.YearRange = fmt.Sprintf("%s - %s",
			model.FormatYear(&minYear), model.FormatYear(&maxYear))
	} else {
		r.Summary.YearRange = NoDateData
	}

	r.Licenses = buildFreqTable(artifacts, func(a model.Artifact) string {
		return model.NormalizeLicense(a.License, a.Author)
	})
	r.Authors = buildFreqTable(artifacts, func(a model.Artifact) string {
		return model.NormalizeAuthor(a.Author)
	})

	r.LongestTitles = sortedByLength(artifacts, func(a model.Artifact) int { return a.TitleLength }, true)
	r.ShortestTitles = sortedByLength(artifacts, func(a model.Artifact) int { return a.TitleLength }, false)
	r.LongestDescriptions = sortedByLength(artifacts, func(a model.Artifact) int { return a.DescriptionLength }, true)
	r.ShortestDescriptions = sortedByLength(artifacts, func(a model.Artifact) int { return a.DescriptionLength }, false)

	return r
}

func buildFreqTable(artifacts []model.Artifact, labelOf func(model.Artifact) string) FreqTable {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)

	for i, a := range artifacts {
		label := labelOf(a)
		if _, ok := counts[label]; !ok {
			firstSeen[label] = i
		}
		counts[label]++
	}

	entries := make([]FreqEntry, 0, len(counts))
	for label, n := range counts {
		entries = append(entries, FreqEntry{Label: label, Count: n})
	}
	slices.SortFunc(entries, func(a, b FreqEntry) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return firstSeen[a.Label] - firstSeen[b.Label]
	})

	ranks := make(map[string]int, len(entries))
	for i, e := range entries {
		ranks[e.Label] = i
	}

	return FreqTable{Entries: entries, counts: counts, ranks: ranks}
}

func sortedByLength(artifacts []model.Artifact, lengthOf func(model.Artifact) int, desc bool) []model.Artifact {
	out := make([]model.Artifact, len(artifacts))
	copy(out, artifacts)
	slices.SortStableFunc(out, func(a, b model.Artifact) int {
		la, lb := lengthOf(a), lengthOf(b)
		if la != lb {
			if desc {
				return lb - la
			}
			return la - lb
		}
		return strings.Compare(a.Title, b.Title)
	})
	return out
}
