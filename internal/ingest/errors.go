package ingest

import "github.com/rotisserie/eris"

// Fatal load failures. Either one short-circuits the whole dashboard
// into its error state; check with eris.Is.
var (
	// ErrDataLoad marks an unreachable source, a non-success status, or a
	// payload that is not a mapping holding an artifact sequence.
	ErrDataLoad = eris.New("artifact collection could not be loaded")

	// ErrEmptyCollection marks a well-formed payload with zero artifacts.
	ErrEmptyCollection = eris.New("artifact collection is empty")
)
