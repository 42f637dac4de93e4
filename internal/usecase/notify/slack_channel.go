package notify

import (
	"context"

	"blogsmith/internal/domain/entity"
	"blogsmith/internal/infra/notifier"
)

// SlackChannel adapts the infra-layer SlackNotifier to the Channel
// interface so Slack plugs into the multi-channel dispatcher.
type SlackChannel struct {
	notifier notifier.Notifier
	enabled  bool
}

// NewSlackChannel builds the channel. A disabled config gets a
// NoOpNotifier behind it, so the Channel contract holds without nil
// checks. The rate-limit wait callback defaults to the channel's
// Prometheus observer when the caller hasn't set one.
func NewSlackChannel(config notifier.SlackConfig) *SlackChannel {
	var n notifier.Notifier
	if config.Enabled {
		if config.OnRateLimitWait == nil {
			config.OnRateLimitWait = rateLimitObserver("slack")
		}
		n = notifier.NewSlackNotifier(config)
	} else {
		n = notifier.NewNoOpNotifier()
	}

	return &SlackChannel{
		notifier: n,
		enabled:  config.Enabled,
	}
}

// Name returns "slack".
func (c *SlackChannel) Name() string {
	return "slack"
}

// IsEnabled reports the configured enabled state.
func (c *SlackChannel) IsEnabled() bool {
	return c.enabled
}

// Send validates and delegates to the underlying notifier, which owns
// rate limiting (1 req/s, burst 1), retries, and request-ID logging.
func (c *SlackChannel) Send(ctx context.Context, review *entity.DraftReview) error {
	if !c.enabled {
		return ErrChannelDisabled
	}
	if review == nil {
		return ErrInvalidReview
	}
	return c.notifier.NotifyDraft(ctx, review)
}
