package stats

import (
	"fmt"

	"github.com/jespergran98/originGuessr-Analyzer/internal/model"
)

// Bucket is one histogram bar handed to the chart rendering sink.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// descriptionBuckets is the number of bars in the description-length chart.
const descriptionBuckets = 15

// timeframeBounds are the fixed year-chart boundaries. A year y falls in
// bucket i when bounds[i] <= y < bounds[i+1]; yearless artifacts and
// years outside the bounds are excluded.
var timeframeBounds = []int{
	-5000000, -500000, -100000, -10000, -1000, 0,
	500, 750, 1000, 1250, 1500, 1750, 1900, 2025,
}

// DescriptionLengthHistogram buckets description lengths into 15 equal
// spans from the shortest to the longest observed length.
func DescriptionLengthHistogram(artifacts []model.Artifact) []Bucket {
	if len(artifacts) == 0 {
		return nil
	}

	minLen, maxLen := artifacts[0].DescriptionLength, artifacts[0].DescriptionLength
	for _, a := range artifacts[1:] {
		if a.DescriptionLength < minLen {
			minLen = a.DescriptionLength
		}
		if a.DescriptionLength > maxLen {
			maxLen = a.DescriptionLength
		}
	}

	width := (maxLen-minLen)/descriptionBuckets + 1
	buckets := make([]Bucket, descriptionBuckets)
	for i := range buckets {
		lo := minLen + i*width
		hi := lo + width - 1
		buckets[i].Label = fmt.Sprintf("%d-%d", lo, hi)
	}

	for _, a := range artifacts {
		i := (a.DescriptionLength - minLen) / width
		if i >= descriptionBuckets {
			i = descriptionBuckets - 1
		}
		buckets[i].Count++
	}

	return buckets
}

// TimeframeHistogram buckets artifact counts into the fixed 13 historical
// timeframes.
func TimeframeHistogram(artifacts []model.Artifact) []Bucket {
	buckets := make([]Bucket, len(timeframeBounds)-1)
	for i := range buckets {
		lo, hi := timeframeBounds[i], timeframeBounds[i+1]
		buckets[i].Label = fmt.Sprintf("%s - %s", model.FormatYear(&lo), model.FormatYear(&hi))
	}

	for _, a := range artifacts {
		if a.Year == nil {
			continue
		}
		y := *a.Year
		for i := range buckets {
			if y >= timeframeBounds[i] && y < timeframeBounds[i+1] {
				buckets[i].Count++
				break
			}
		}
	}

	return buckets
}

// MapPoint is one plottable artifact handed to the map rendering sink.
type MapPoint struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Title       string  `json:"title"`
	Year        string  `json:"year"`
	Image       string  `json:"image,omitempty"`
	Description string  `json:"description,omitempty"`
}

// MapPoints collects artifacts with a valid coordinate pair; records
// failing the range check are omitted, not errors.
func MapPoints(artifacts []model.Artifact) []MapPoint {
	var points []MapPoint
	for _, a := range artifacts {
		if !a.HasLocation() {
			continue
		}
		points = append(points, MapPoint{
			Lat:         *a.Lat,
			Lng:         *a.Lng,
			Title:       a.Title,
			Year:        model.FormatYear(a.Year),
			Image:       a.Image,
			Description: a.Description,
		})
	}
	return points
}
