// Package sorting produces total orderings of the artifact collection.
// Every key yields a deterministic order: ties are broken by
// lexicographic title comparison so repeated sorts are idempotent.
package sorting

import (
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/jespergran98/originGuessr-Analyzer/internal/model"
	"github.com/jespergran98/originGuessr-Analyzer/internal/stats"
)

// Key selects a sort order.
type Key string

const (
	KeyYearNewest          Key = "year-newest"
	KeyYearOldest          Key = "year-oldest"
	KeyTitleLongest        Key = "title-longest"
	KeyTitleShortest       Key = "title-shortest"
	KeyDescriptionLongest  Key = "description-longest"
	KeyDescriptionShortest Key = "description-shortest"
	KeyQualityBest         Key = "image-high-quality"
	KeyQualityWorst        Key = "image-low-quality"
	KeyLicenseCommon       Key = "license-common"
	KeyLicenseRare         Key = "license-rare"
	KeyAuthorCommon        Key = "author-common"
	KeyAuthorRare          Key = "author-rare"
)

// unscoredAscendingScore stands in for a missing quality score when
// sorting worst-first, so unmeasured artifacts trail the measured ones.
// This deliberately conflates "not yet measured" with "off the scale";
// see DESIGN.md.
const unscoredAscendingScore = 999

// Keys lists every supported sort key.
func Keys() []Key {
	return []Key{
		KeyYearNewest, KeyYearOldest,
		KeyTitleLongest, KeyTitleShortest,
		KeyDescriptionLongest, KeyDescriptionShortest,
		KeyQualityBest, KeyQualityWorst,
		KeyLicenseCommon, KeyLicenseRare,
		KeyAuthorCommon, KeyAuthorRare,
	}
}

// ParseKey validates a raw sort key string.
func ParseKey(raw string) (Key, error) {
	k := Key(raw)
	if slices.Contains(Keys(), k) {
		return k, nil
	}
	return "", eris.Errorf("sorting: unknown sort key %q", raw)
}

// Sort returns a new slice holding the artifacts in the order selected
// by key. Frequency-based keys rank against the static tables built at
// load time.
func Sort(artifacts []model.Artifact, key Key, licenses, authors *stats.FreqTable) ([]model.Artifact, error) {
	cmp, err := comparator(key, licenses, authors)
	if err != nil {
		return nil, err
	}

	out := make([]model.Artifact, len(artifacts))
	copy(out, artifacts)
	slices.SortStableFunc(out, cmp)
	return out, nil
}

func comparator(key Key, licenses, authors *stats.FreqTable) (func(a, b model.Artifact) int, error) {
	switch key {
	case KeyYearNewest:
		// Undefined years sort as negative infinity: last when newest-first.
		return byValueDesc(func(a model.Artifact) int {
			if a.Year == nil {
				return minYear
			}
			return *a.Year
		}), nil
	case KeyYearOldest:
		// Undefined years sort as positive infinity: last when oldest-first.
		return byValueAsc(func(a model.Artifact) int {
			if a.Year == nil {
				return maxYear
			}
			return *a.Year
		}), nil
	case KeyTitleLongest:
		return byValueDesc(func(a model.Artifact) int { return a.TitleLength }), nil
	case KeyTitleShortest:
		return byValueAsc(func(a model.Artifact) int { return a.TitleLength }), nil
	case KeyDescriptionLongest:
		return byValueDesc(func(a model.Artifact) int { return a.DescriptionLength }), nil
	case KeyDescriptionShortest:
		return byValueAsc(func(a model.Artifact) int { return a.DescriptionLength }), nil
	case KeyQualityBest:
		return byValueDesc(func(a model.Artifact) int { return a.ImageQualityScore }), nil
	case KeyQualityWorst:
		return byValueAsc(func(a model.Artifact) int {
			if !a.Scored() {
				return unscoredAscendingScore
			}
			return a.ImageQualityScore
		}), nil
	case KeyLicenseCommon:
		return byValueAsc(func(a model.Artifact) int {
			return licenses.Rank(model.NormalizeLicense(a.License, a.Author))
		}), nil
	case KeyLicenseRare:
		return byValueDesc(func(a model.Artifact) int {
			return licenses.Rank(model.NormalizeLicense(a.License, a.Author))
		}), nil
	case KeyAuthorCommon:
		return byValueAsc(func(a model.Artifact) int {
			return authors.Rank(model.NormalizeAuthor(a.Author))
		}), nil
	case KeyAuthorRare:
		return byValueDesc(func(a model.Artifact) int {
			return authors.Rank(model.NormalizeAuthor(a.Author))
		}), nil
	default:
		return nil, eris.Errorf("sorting: unknown sort key %q", key)
	}
}

const (
	minYear = -1 << 62
	maxYear = 1 << 62
)

func byValueAsc(valueOf func(model.Artifact) int) func(a, b model.Artifact) int {
	return func(a, b model.Artifact) int {
		va, vb := valueOf(a), valueOf(b)
		if va != vb {
			if va < vb {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Title, b.Title)
	}
}

func byValueDesc(valueOf func(model.Artifact) int) func(a, b model.Artifact) int {
	asc := byValueAsc(valueOf)
	return func(a, b model.Artifact) int {
		va, vb := valueOf(a), valueOf(b)
		if va != vb {
			if va > vb {
				return -1
			}
			return 1
		}
		return asc(a, b)
	}
}
