package notifier

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket guarding webhook APIs. Discord allows 30
// requests per minute per webhook, Slack one message per second; each
// notifier constructs its limiter to match.
type RateLimiter struct {
	rate    rate.Limit
	burst   int
	limiter *rate.Limiter
	onWait  func(wait time.Duration)
}

// NewRateLimiter returns a limiter that sustains requestsPerSecond with
// up to burst immediate sends.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	r := rate.Limit(requestsPerSecond)

	return &RateLimiter{
		rate:    r,
		burst:   burst,
		limiter: rate.NewLimiter(r, burst),
	}
}

// SetWaitObserver registers a callback invoked after every Allow with the
// time the caller spent blocked. The notify layer uses this to feed its
// rate-limit metrics. Must be set before the limiter is shared across
// goroutines.
func (r *RateLimiter) SetWaitObserver(fn func(wait time.Duration)) {
	r.onWait = fn
}

// Allow blocks until a token is available or ctx is done. Call it before
// each webhook request:
//
//	if err := limiter.Allow(ctx); err != nil {
//	    return fmt.Errorf("rate limiter error: %w", err)
//	}
func (r *RateLimiter) Allow(ctx context.Context) error {
	start := time.Now()
	err := r.limiter.Wait(ctx)
	if r.onWait != nil {
		r.onWait(time.Since(start))
	}
	return err
}
