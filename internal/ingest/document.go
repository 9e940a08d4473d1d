package ingest

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// rawDocument mirrors the source payload: a mapping with an ordered
// artifact sequence under "artifacts". The pointer distinguishes a
// missing key (bad shape) from an empty sequence.
type rawDocument struct {
	Artifacts *[]rawArtifact `json:"artifacts"`
}

// rawArtifact is one source record before normalization. Years arrive
// as numbers or numeric strings depending on the record's vintage.
type rawArtifact struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Year        flexYear `json:"year"`
	Author      string   `json:"author"`
	AuthorLink  string   `json:"authorLink"`
	License     string   `json:"license"`
	Image       string   `json:"image"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	IsPlayable  *bool    `json:"isPlayable"`
}

// flexYear accepts an integer, an integral float, or a numeric string.
// Anything else normalizes to absent rather than failing the load.
type flexYear struct {
	value *int
}

func (y *flexYear) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil
		}
		y.value = &n
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return nil
	}
	if f != math.Trunc(f) {
		return nil
	}
	n := int(f)
	y.value = &n
	return nil
}
