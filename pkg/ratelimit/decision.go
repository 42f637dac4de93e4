package ratelimit

import (
	"fmt"
	"time"
)

// RateLimitDecision is the verdict of one limit check together with the
// metadata the middleware writes into X-RateLimit-* response headers.
type RateLimitDecision struct {
	// Key is the subject that was checked (client IP or editor subject).
	Key string

	// Allowed reports whether the request fits under the limit.
	Allowed bool

	// Limit is the maximum number of requests per window.
	Limit int

	// Remaining counts the requests still available in the current
	// window. Zero means the next request will be denied.
	Remaining int

	// ResetAt is when the oldest in-window request ages out.
	ResetAt time.Time

	// RetryAfter is how long a denied client should wait, derived from
	// ResetAt at decision time.
	RetryAfter time.Duration

	// LimiterType names the limiter that produced the decision, "ip" or
	// "user".
	LimiterType string
}

// String formats the decision for logs.
func (d *RateLimitDecision) String() string {
	if d.Allowed {
		return fmt.Sprintf("RateLimitDecision{Allowed: true, Key: %s, Type: %s, Remaining: %d/%d, ResetAt: %s}",
			d.Key, d.LimiterType, d.Remaining, d.Limit, d.ResetAt.Format(time.RFC3339))
	}
	return fmt.Sprintf("RateLimitDecision{Allowed: false, Key: %s, Type: %s, Limit: %d, RetryAfter: %s, ResetAt: %s}",
		d.Key, d.LimiterType, d.Limit, d.RetryAfter.String(), d.ResetAt.Format(time.RFC3339))
}

// IsAllowed reports whether the request was admitted.
func (d *RateLimitDecision) IsAllowed() bool {
	return d.Allowed
}

// IsDenied reports whether the request was rejected.
func (d *RateLimitDecision) IsDenied() bool {
	return !d.Allowed
}

// HasRemaining reports whether the window still has capacity.
func (d *RateLimitDecision) HasRemaining() bool {
	return d.Remaining > 0
}

// ResetAtUnix returns ResetAt as a Unix timestamp for the
// X-RateLimit-Reset header.
func (d *RateLimitDecision) ResetAtUnix() int64 {
	return d.ResetAt.Unix()
}

// RetryAfterSeconds returns the retry delay in whole seconds for the
// Retry-After header, clamped at zero.
func (d *RateLimitDecision) RetryAfterSeconds() int64 {
	seconds := int64(d.RetryAfter.Seconds())
	if seconds < 0 {
		return 0
	}
	return seconds
}

// NewAllowedDecision builds the verdict for an admitted request.
func NewAllowedDecision(key, limiterType string, limit, remaining int, resetAt time.Time) *RateLimitDecision {
	return &RateLimitDecision{
		Key:         key,
		Allowed:     true,
		Limit:       limit,
		Remaining:   remaining,
		ResetAt:     resetAt,
		RetryAfter:  clampedUntil(resetAt),
		LimiterType: limiterType,
	}
}

// NewDeniedDecision builds the verdict for a rejected request. Remaining
// is always zero on denial.
func NewDeniedDecision(key, limiterType string, limit int, resetAt time.Time) *RateLimitDecision {
	return &RateLimitDecision{
		Key:         key,
		Allowed:     false,
		Limit:       limit,
		Remaining:   0,
		ResetAt:     resetAt,
		RetryAfter:  clampedUntil(resetAt),
		LimiterType: limiterType,
	}
}

func clampedUntil(t time.Time) time.Duration {
	d := time.Until(t)
	if d < 0 {
		return 0
	}
	return d
}
