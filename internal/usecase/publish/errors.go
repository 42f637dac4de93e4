// Package publish orchestrates post creation on the CMS and the
// featured-image workflow that follows it. The post create call is the
// only step that can fail the operation; every image step after it
// degrades the result instead.
package publish

import "errors"

// Sentinel errors for publish use case operations.
var (
	// ErrPublishFailed indicates that the post could not be created on the
	// CMS. Image workflow failures never produce this error.
	ErrPublishFailed = errors.New("publish failed")
)
