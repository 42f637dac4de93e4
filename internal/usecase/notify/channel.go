// Package notify fans draft-review notifications out to the configured
// delivery channels (Discord, Slack) with per-channel circuit breakers,
// a bounded worker pool, and Prometheus metrics.
package notify

import (
	"context"

	"blogsmith/internal/domain/entity"
)

// Channel is one notification delivery target. Implementations own
// their rate limiting and retries:
//
//   - transient failures (5xx, network): exponential backoff, max 2 attempts
//   - 429: sleep for retry_after, max 3 attempts
//   - other 4xx: no retry
//   - context timeout: no retry
//
// All methods must be safe for concurrent use, and Send must respect
// context cancellation.
type Channel interface {
	// Name is the channel identifier used in logs, metric labels, and
	// the health endpoint (lowercase, e.g. "discord").
	Name() string

	// IsEnabled reports whether the channel is turned on in config.
	// Disabled channels are skipped at dispatch.
	IsEnabled() bool

	// Send delivers the notification. It returns ErrChannelDisabled when
	// called on a disabled channel, ErrInvalidReview for a nil review,
	// and wrapped network/API errors after retries are exhausted.
	Send(ctx context.Context, review *entity.DraftReview) error
}
