package analysis

import "github.com/rotisserie/eris"

var (
	// ErrNoImage marks an artifact without an image URL.
	ErrNoImage = eris.New("analysis: artifact has no image")

	// ErrImageLoad marks a fetch or decode failure for an image URL.
	ErrImageLoad = eris.New("analysis: image load failed")

	// ErrImageTimeout marks a probe that exceeded its deadline.
	ErrImageTimeout = eris.New("analysis: image probe timed out")
)
