// Package photo provides the stock photo lookup use case used to pick a
// featured image candidate for a post.
package photo

import "errors"

// Sentinel errors for photo use case operations.
var (
	// ErrPhotoLookupFailed indicates that the photo provider could not
	// return a usable photo for the requested genre.
	ErrPhotoLookupFailed = errors.New("photo lookup failed")
)
