package notify

import (
	"context"

	"blogsmith/internal/domain/entity"
	"blogsmith/internal/infra/notifier"
)

// DiscordChannel adapts the infra-layer DiscordNotifier to the Channel
// interface so Discord plugs into the multi-channel dispatcher.
type DiscordChannel struct {
	notifier notifier.Notifier
	enabled  bool
}

// NewDiscordChannel builds the channel. A disabled config gets a
// NoOpNotifier behind it, so the Channel contract holds without nil
// checks. The rate-limit wait callback defaults to the channel's
// Prometheus observer when the caller hasn't set one.
func NewDiscordChannel(config notifier.DiscordConfig) *DiscordChannel {
	var n notifier.Notifier
	if config.Enabled {
		if config.OnRateLimitWait == nil {
			config.OnRateLimitWait = rateLimitObserver("discord")
		}
		n = notifier.NewDiscordNotifier(config)
	} else {
		n = notifier.NewNoOpNotifier()
	}

	return &DiscordChannel{
		notifier: n,
		enabled:  config.Enabled,
	}
}

// Name returns "discord".
func (c *DiscordChannel) Name() string {
	return "discord"
}

// IsEnabled reports the configured enabled state.
func (c *DiscordChannel) IsEnabled() bool {
	return c.enabled
}

// Send validates and delegates to the underlying notifier, which owns
// rate limiting (0.5 req/s, burst 3), retries, and request-ID logging.
func (c *DiscordChannel) Send(ctx context.Context, review *entity.DraftReview) error {
	if !c.enabled {
		return ErrChannelDisabled
	}
	if review == nil {
		return ErrInvalidReview
	}
	return c.notifier.NotifyDraft(ctx, review)
}
