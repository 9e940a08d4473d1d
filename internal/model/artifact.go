package model

// AnalysisState tracks where an artifact's image sits in the analysis
// lifecycle. Transitions are monotonic: unscored moves to scored or
// failed exactly once and never back.
type AnalysisState string

const (
	AnalysisUnscored AnalysisState = "unscored"
	AnalysisScored   AnalysisState = "scored"
	AnalysisFailed   AnalysisState = "failed"
)

// QualityMetric selects which quality sub-score drives leaderboards
// and quality-based orderings.
type QualityMetric string

const (
	MetricOverall     QualityMetric = "overall"
	MetricAspectRatio QualityMetric = "aspect_ratio"
	MetricPixelSize   QualityMetric = "pixel_size"
)

// Artifact is one historical item record with descriptive metadata and
// an optional image and location.
type Artifact struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// Year is the creation year; negative values are BCE. Nil when the
	// source record has no parseable year.
	Year       *int     `json:"year,omitempty"`
	Author     string   `json:"author,omitempty"`
	AuthorLink string   `json:"authorLink,omitempty"`
	License    string   `json:"license,omitempty"`
	Image      string   `json:"image,omitempty"`
	Lat        *float64 `json:"lat,omitempty"`
	Lng        *float64 `json:"lng,omitempty"`
	IsPlayable *bool    `json:"isPlayable,omitempty"`

	// Derived at ingestion, immutable thereafter.
	TitleLength       int `json:"titleLength"`
	DescriptionLength int `json:"descriptionLength"`

	// Populated once by the analysis scheduler.
	ImageQualityScore int           `json:"imageQualityScore"`
	ImageQuality      string        `json:"imageQuality,omitempty"`
	AspectRatioScore  float64       `json:"aspectRatioScore"`
	PixelSizeScore    float64       `json:"pixelSizeScore"`
	AspectRatio       *float64      `json:"aspectRatio,omitempty"`
	PixelSize         *int          `json:"pixelSize,omitempty"`
	Analysis          AnalysisState `json:"analysisState"`
}

// HasImage reports whether the artifact carries an image URL.
func (a *Artifact) HasImage() bool {
	return a.Image != ""
}

// Scored reports whether image analysis completed successfully.
func (a *Artifact) Scored() bool {
	return a.Analysis == AnalysisScored
}

// HasLocation reports whether the artifact has a plottable coordinate
// pair: both values present, latitude in [-90,90], longitude in [-180,180].
func (a *Artifact) HasLocation() bool {
	if a.Lat == nil || a.Lng == nil {
		return false
	}
	return *a.Lat >= -90 && *a.Lat <= 90 && *a.Lng >= -180 && *a.Lng <= 180
}

// MetricScore returns the artifact's value for the given quality metric.
func (a *Artifact) MetricScore(m QualityMetric) float64 {
	switch m {
	case MetricAspectRatio:
		return a.AspectRatioScore
	case MetricPixelSize:
		return a.PixelSizeScore
	default:
		return float64(a.ImageQualityScore)
	}
}
