// Package quality scores artifact images from their pixel dimensions.
//
// The scoring policy is a fixed heuristic: half the score rewards an
// aspect ratio near common display shapes (4:3 through 16:9), half
// rewards raw pixel count. The tables below are the policy; they are
// deliberately not configurable so identical dimensions always produce
// identical scores.
package quality

import "math"

// Quality labels derived from the overall score.
const (
	LabelExcellent = "Excellent"
	LabelGood      = "Good"
	LabelAverage   = "Average"
	LabelPoor      = "Poor"
	LabelVeryPoor  = "Very Poor"

	// Terminal labels for artifacts that never reach a score.
	LabelAnalysisFailed = "Analysis Failed"
	LabelNoImage        = "No Image"
)

// Scores is the result of scoring one image.
type Scores struct {
	Overall          int     `json:"overall"`
	AspectRatioScore float64 `json:"aspectRatioScore"`
	PixelSizeScore   float64 `json:"pixelSizeScore"`
	AspectRatio      float64 `json:"aspectRatio"`
	PixelCount       int     `json:"pixelCount"`
}

// Aspect ratios inside [idealRatioLow, idealRatioHigh] earn the full 50.
const (
	idealRatioLow  = 1.33
	idealRatioHigh = 1.78
)

type ratioBand struct {
	ratio float64
	score float64
}

// Decay bands on either side of the ideal ratio range. Scores between
// breakpoints interpolate linearly; beyond the outermost band the score
// floors at 1.
var (
	narrowBands = []ratioBand{
		{0.15, 2},
		{0.30, 8},
		{0.50, 20},
		{0.75, 35},
		{1.00, 44},
		{1.20, 48},
		{idealRatioLow, 50},
	}
	wideBands = []ratioBand{
		{idealRatioHigh, 50},
		{2.00, 46},
		{2.40, 40},
		{3.00, 31},
		{4.00, 22},
		{6.00, 10},
		{8.00, 3},
	}
)

type pixelStep struct {
	minPixels int
	score     float64
}

// Pixel-count staircase, descending. 4096x4096 and up earns the full 50;
// anything under 16,000 pixels earns nothing.
var pixelSteps = []pixelStep{
	{16777216, 50},
	{14000000, 49},
	{12000000, 48},
	{10000000, 47},
	{8294400, 46},
	{7000000, 45},
	{6000000, 44},
	{5000000, 43},
	{4000000, 42},
	{3500000, 41},
	{3000000, 40},
	{2500000, 38},
	{2073600, 36},
	{1500000, 33},
	{1000000, 30},
	{750000, 27},
	{500000, 24},
	{350000, 21},
	{250000, 18},
	{150000, 15},
	{100000, 12},
	{64000, 9},
	{40000, 6},
	{25000, 4},
	{16000, 2},
}

// Score computes the quality scores for an image of the given pixel
// dimensions. It is pure and deterministic. Non-positive dimensions
// yield the zero value.
func Score(width, height int) Scores {
	if width <= 0 || height <= 0 {
		return Scores{}
	}

	ratio := float64(width) / float64(height)
	pixels := width * height

	ar := aspectRatioScore(ratio)
	ps := pixelSizeScore(pixels)

	overall := int(math.Round(ar)) + int(math.Round(ps))
	if overall < 0 {
		overall = 0
	}
	if overall > 100 {
		overall = 100
	}

	return Scores{
		Overall:          overall,
		AspectRatioScore: ar,
		PixelSizeScore:   ps,
		AspectRatio:      ratio,
		PixelCount:       pixels,
	}
}

// Label maps an overall score to its display label.
func Label(overall int) string {
	switch {
	case overall >= 85:
		return LabelExcellent
	case overall >= 70:
		return LabelGood
	case overall >= 50:
		return LabelAverage
	case overall >= 30:
		return LabelPoor
	default:
		return LabelVeryPoor
	}
}

func aspectRatioScore(ratio float64) float64 {
	if ratio >= idealRatioLow && ratio <= idealRatioHigh {
		return 50
	}
	if ratio < idealRatioLow {
		if ratio <= narrowBands[0].ratio {
			return 1
		}
		for i := len(narrowBands) - 1; i > 0; i-- {
			hi, lo := narrowBands[i], narrowBands[i-1]
			if ratio >= lo.ratio && ratio < hi.ratio {
				return interpolate(ratio, lo.ratio, hi.ratio, lo.score, hi.score)
			}
		}
		return 1
	}
	if ratio >= wideBands[len(wideBands)-1].ratio {
		return 1
	}
	for i := 0; i < len(wideBands)-1; i++ {
		lo, hi := wideBands[i], wideBands[i+1]
		if ratio > lo.ratio && ratio <= hi.ratio {
			return interpolate(ratio, lo.ratio, hi.ratio, lo.score, hi.score)
		}
	}
	return 1
}

func pixelSizeScore(pixels int) float64 {
	for _, step := range pixelSteps {
		if pixels >= step.minPixels {
			return step.score
		}
	}
	return 0
}

func interpolate(x, x0, x1, y0, y1 float64) float64 {
	t := (x - x0) / (x1 - x0)
	return y0 + t*(y1-y0)
}
