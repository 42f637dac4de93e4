package notifier

import (
	"context"

	"blogsmith/internal/domain/entity"
)

// NoOpNotifier satisfies Notifier while doing nothing. Channels whose
// config is disabled carry one of these instead of a nil, so callers
// never branch on notifier presence.
type NoOpNotifier struct{}

func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// NotifyDraft discards the review and reports success.
func (n *NoOpNotifier) NotifyDraft(ctx context.Context, review *entity.DraftReview) error {
	return nil
}
