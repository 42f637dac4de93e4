package notify

import "errors"

var (
	// ErrChannelDisabled means Send was called on a channel that is
	// turned off in config.
	ErrChannelDisabled = errors.New("channel is disabled")

	// ErrInvalidReview means the review is nil or has no title.
	ErrInvalidReview = errors.New("invalid draft review data")

	// ErrNotificationDropped means no worker slot freed up in time.
	// Non-critical; surfaced through the dropped-notifications metric.
	ErrNotificationDropped = errors.New("notification dropped due to pool saturation")

	// ErrCircuitBreakerOpen means the channel's breaker is rejecting
	// sends until its timeout elapses.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open for this channel")
)
