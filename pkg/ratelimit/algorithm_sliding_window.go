package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SlidingWindowAlgorithm counts the requests recorded inside a moving
// window ending now. Compared to fixed windows it admits no boundary
// bursts, which matters here because each admitted request can trigger a
// paid generation call.
//
// The algorithm also guards against the system clock stepping backwards:
// it remembers the newest timestamp it has issued per key and refuses to
// hand out an earlier one, so an NTP correction cannot reopen a window.
type SlidingWindowAlgorithm struct {
	clock Clock

	// mu guards newestSeen.
	mu sync.RWMutex

	// newestSeen holds the latest timestamp issued per key, for the
	// backwards-clock guard.
	newestSeen map[string]time.Time

	// windowDuration is the window from the most recent IsAllowed call,
	// reported by GetWindowDuration.
	windowDuration time.Duration
}

// NewSlidingWindowAlgorithm creates the algorithm. A nil clock selects
// SystemClock.
func NewSlidingWindowAlgorithm(clock Clock) *SlidingWindowAlgorithm {
	if clock == nil {
		clock = &SystemClock{}
	}
	return &SlidingWindowAlgorithm{
		clock:      clock,
		newestSeen: make(map[string]time.Time),
	}
}

// IsAllowed checks key against limit over window. When the store
// implements AtomicRateLimitStore the check and the record happen under
// one lock; otherwise the two-step fallback is used, which can overshoot
// the limit slightly under concurrency.
func (a *SlidingWindowAlgorithm) IsAllowed(ctx context.Context, key string, store RateLimitStore, limit int, window time.Duration) (*RateLimitDecision, error) {
	a.windowDuration = window

	now := a.monotonicNow(key)
	cutoff := now.Add(-window)
	resetAt := now.Add(window)

	if atomicStore, ok := store.(AtomicRateLimitStore); ok {
		return a.decideAtomic(ctx, key, atomicStore, limit, cutoff, now, resetAt)
	}
	return a.decideTwoStep(ctx, key, store, limit, cutoff, now, resetAt)
}

// decideAtomic checks and records in one store operation.
func (a *SlidingWindowAlgorithm) decideAtomic(ctx context.Context, key string, store AtomicRateLimitStore, limit int, cutoff, now, resetAt time.Time) (*RateLimitDecision, error) {
	allowed, count, err := store.CheckAndAddRequest(ctx, key, now, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to check and add request: %w", err)
	}

	if allowed {
		return NewAllowedDecision(key, "unknown", limit, limit-count, resetAt), nil
	}

	decision := NewDeniedDecision(key, "unknown", limit, resetAt)
	decision.RetryAfter = resetAt.Sub(now)
	return decision, nil
}

// decideTwoStep counts and then records, for stores without an atomic
// check-and-add. Two concurrent requests can both observe count == limit-1
// here; only use such stores where a small overshoot is acceptable.
func (a *SlidingWindowAlgorithm) decideTwoStep(ctx context.Context, key string, store RateLimitStore, limit int, cutoff, now, resetAt time.Time) (*RateLimitDecision, error) {
	count, err := store.GetRequestCount(ctx, key, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to get request count: %w", err)
	}

	if count < limit {
		if err := store.AddRequest(ctx, key, now); err != nil {
			return nil, fmt.Errorf("failed to add request: %w", err)
		}
		// count predates the current request.
		return NewAllowedDecision(key, "unknown", limit, limit-count-1, resetAt), nil
	}

	decision := NewDeniedDecision(key, "unknown", limit, resetAt)
	decision.RetryAfter = resetAt.Sub(now)
	return decision, nil
}

// GetWindowDuration returns the window from the most recent IsAllowed
// call.
func (a *SlidingWindowAlgorithm) GetWindowDuration() time.Duration {
	return a.windowDuration
}

// monotonicNow returns the clock time, clamped so it never runs backwards
// for a key. A backwards step is logged and the previously issued
// timestamp is reused.
func (a *SlidingWindowAlgorithm) monotonicNow(key string) time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	if newest, exists := a.newestSeen[key]; exists && now.Before(newest) {
		slog.Warn("clock skew detected, using last valid timestamp",
			slog.String("key", key),
			slog.Time("now", now),
			slog.Time("last_seen", newest),
			slog.Duration("skew", newest.Sub(now)),
		)
		return newest
	}

	a.newestSeen[key] = now
	return now
}

// CleanupExpiredTimestamps drops skew-guard entries older than maxAge so
// the map does not grow with the set of keys ever seen. Returns the
// number of entries removed.
func (a *SlidingWindowAlgorithm) CleanupExpiredTimestamps(maxAge time.Duration) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := a.clock.Now().Add(-maxAge)
	removed := 0
	for key, ts := range a.newestSeen {
		if ts.Before(cutoff) {
			delete(a.newestSeen, key)
			removed++
		}
	}

	if removed > 0 {
		slog.Debug("cleaned up expired timestamp entries",
			slog.Int("removed", removed),
			slog.Int("remaining", len(a.newestSeen)),
		)
	}
	return removed
}

// GetTrackedKeysCount returns the number of keys the skew guard currently
// tracks.
func (a *SlidingWindowAlgorithm) GetTrackedKeysCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.newestSeen)
}
