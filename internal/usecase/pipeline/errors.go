// Package pipeline provides the staged blog generation use cases.
// It validates inputs, delegates to a text generation provider, and folds
// provider failures into a single sentinel so handlers can map every
// generation failure to one upstream-failure response.
package pipeline

import "errors"

// Sentinel errors for pipeline use case operations.
var (
	// ErrGenerationFailed indicates that the text generation provider could
	// not produce usable output. The provider error is flattened into the
	// message; callers match with errors.Is.
	ErrGenerationFailed = errors.New("text generation failed")
)
