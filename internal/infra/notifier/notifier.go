// Package notifier provides abstraction for sending review notifications about drafts.
// It defines the Notifier interface which allows different notification mechanisms
// (Discord, Slack, email, etc.) to be used interchangeably through dependency injection.
//
// The package includes implementations for Discord and Slack webhooks and a no-op
// notifier for when notifications are disabled.
package notifier

import (
	"context"

	"blogsmith/internal/domain/entity"
)

// Notifier is an interface for sending draft review notifications.
// Implementations should handle rate limiting, retries, and error logging internally.
type Notifier interface {
	// NotifyDraft sends a notification that a post was created and awaits review.
	// The notification should include the post title, post ID, and the CMS edit link.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - review: The draft to notify about (must not be nil)
	//
	// Returns:
	//   - error: Non-nil if the notification failed after all retry attempts
	//
	// Implementations should:
	//   - Generate a unique request ID for tracing
	//   - Apply rate limiting to prevent API abuse
	//   - Retry transient failures with exponential backoff
	//   - Log all attempts with the request ID for debugging
	//   - Respect context cancellation
	NotifyDraft(ctx context.Context, review *entity.DraftReview) error
}
