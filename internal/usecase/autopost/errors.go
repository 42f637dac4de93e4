// Package autopost runs the generation pipeline unattended. For each
// configured genre it drafts an article through the staged generation
// calls, looks up a featured photo best-effort, and publishes the result
// as a draft for editorial review.
package autopost

import "errors"

// Sentinel errors for autopost runs.
var (
	// ErrNoGenres indicates that a run was started with an empty genre
	// list, so the worker has nothing to draft.
	ErrNoGenres = errors.New("no genres configured")
)
