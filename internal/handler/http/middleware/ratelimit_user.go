package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"blogsmith/pkg/ratelimit"
)

// UserExtractor resolves the authenticated user behind a request. It is
// an interface so the rate limiter does not care whether auth is JWT,
// sessions, or a test double.
type UserExtractor interface {
	// ExtractUser returns the user identifier (typically the email), the
	// user's tier, and whether a user was present in the context at all.
	ExtractUser(ctx context.Context) (userID string, tier ratelimit.UserTier, ok bool)
}

// UserTierProvider looks up a user's service tier. Implementations may
// consult a user store; the default pins everyone to TierBasic.
type UserTierProvider interface {
	GetUserTier(ctx context.Context, userID string) ratelimit.UserTier
}

// DefaultTierProvider assigns TierBasic to every user.
type DefaultTierProvider struct{}

func (p *DefaultTierProvider) GetUserTier(ctx context.Context, userID string) ratelimit.UserTier {
	return ratelimit.TierBasic
}

// JWTUserExtractor reads the user email that the JWT auth middleware
// stored in the request context, then resolves the tier via the
// configured provider.
type JWTUserExtractor struct {
	contextKey   interface{}
	tierProvider UserTierProvider
}

// NewJWTUserExtractor builds an extractor for the given context key.
// A nil tierProvider falls back to DefaultTierProvider.
func NewJWTUserExtractor(contextKey interface{}, tierProvider UserTierProvider) *JWTUserExtractor {
	if tierProvider == nil {
		tierProvider = &DefaultTierProvider{}
	}
	return &JWTUserExtractor{
		contextKey:   contextKey,
		tierProvider: tierProvider,
	}
}

func (e *JWTUserExtractor) ExtractUser(ctx context.Context) (userID string, tier ratelimit.UserTier, ok bool) {
	userValue := ctx.Value(e.contextKey)
	if userValue == nil {
		return "", "", false
	}

	userID, ok = userValue.(string)
	if !ok || userID == "" {
		return "", "", false
	}

	return userID, e.tierProvider.GetUserTier(ctx, userID), true
}

// TierLimit is the request budget for one tier.
type TierLimit struct {
	Limit  int
	Window time.Duration
}

// UserRateLimiterConfig wires the limiter's collaborators.
type UserRateLimiterConfig struct {
	Store          ratelimit.RateLimitStore
	Algorithm      ratelimit.RateLimitAlgorithm
	Metrics        ratelimit.RateLimitMetrics
	CircuitBreaker *ratelimit.CircuitBreaker
	UserExtractor  UserExtractor

	// TierLimits maps tiers to budgets; tiers not listed get the defaults.
	TierLimits    map[ratelimit.UserTier]TierLimit
	DefaultLimit  int
	DefaultWindow time.Duration

	// SkipUnauthenticated skips limiting for requests with no user in
	// context. Deprecated: use SkipUnauthenticatedPtr, which can express
	// an explicit false.
	SkipUnauthenticated bool

	// SkipUnauthenticatedPtr controls unauthenticated request handling:
	// nil falls back to the deprecated field, *true skips them, *false
	// limits them under the shared "anonymous" identity.
	SkipUnauthenticatedPtr *bool

	// Clock abstraction for tests.
	Clock ratelimit.Clock

	// Degradation optionally relaxes tier limits under sustained failures.
	// When the manager reports LevelDisabled, requests bypass limiting.
	Degradation *DegradationManager
}

// UserRateLimiter enforces per-user budgets keyed on the authenticated
// identity, with tier-based limits, circuit breaker fail-open, and the
// standard X-RateLimit-* headers.
type UserRateLimiter struct {
	config UserRateLimiterConfig
}

// NewUserRateLimiter applies defaults (1000 requests / 1 hour, system
// clock) and normalizes the two SkipUnauthenticated fields into the
// pointer form.
func NewUserRateLimiter(config UserRateLimiterConfig) *UserRateLimiter {
	if config.DefaultLimit == 0 {
		config.DefaultLimit = 1000
	}
	if config.DefaultWindow == 0 {
		config.DefaultWindow = 1 * time.Hour
	}
	if config.Clock == nil {
		config.Clock = &ratelimit.SystemClock{}
	}

	if config.SkipUnauthenticatedPtr == nil {
		// the deprecated bool's zero value means anonymous users ARE
		// limited; callers wanting the old skip behavior must say so
		config.SkipUnauthenticatedPtr = &config.SkipUnauthenticated
	}

	return &UserRateLimiter{
		config: config,
	}
}

// Middleware enforces the user budget. Unauthenticated requests are
// skipped or pooled under "anonymous" per configuration; over-budget
// requests get 429 with Retry-After; store failures fail open.
func (rl *UserRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, tier, ok := rl.config.UserExtractor.ExtractUser(r.Context())
			if !ok {
				skipUnauthenticated := true
				if rl.config.SkipUnauthenticatedPtr != nil {
					skipUnauthenticated = *rl.config.SkipUnauthenticatedPtr
				}
				if skipUnauthenticated {
					slog.Debug("user rate limiter: skipping unauthenticated request",
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
					)
					next.ServeHTTP(w, r)
					return
				}
				userID = "anonymous"
				tier = ratelimit.TierBasic
			}

			limit, window := rl.getTierLimit(tier)

			// degradation raises the limit under pressure; zero means
			// limiting is off entirely
			if rl.config.Degradation != nil {
				limit = rl.config.Degradation.AdjustLimits(limit)
				if limit == 0 {
					slog.Debug("user rate limiter: disabled by degradation, allowing request",
						slog.String("tier", tier.String()),
						slog.String("path", r.URL.Path),
					)
					next.ServeHTTP(w, r)
					return
				}
			}

			// user IDs are hashed before they touch the store or the logs
			hashedUserID := hashUserID(userID)

			decision, failOpen := rl.checkLimit(r, hashedUserID, tier, limit, window)
			if failOpen {
				next.ServeHTTP(w, r)
				return
			}

			decision.LimiterType = "user"

			slog.Debug("rate limit check completed",
				slog.String("limiter_type", "user"),
				slog.String("key", hashedUserID[:16]),
				slog.String("tier", tier.String()),
				slog.Int("current", decision.Limit-decision.Remaining),
				slog.Int("limit", decision.Limit),
				slog.Duration("window", window),
				slog.Bool("allowed", decision.Allowed),
				slog.String("path", r.URL.Path),
			)

			rl.setRateLimitHeaders(w, decision)

			if !decision.Allowed {
				rl.config.Metrics.RecordDenied("user", r.URL.Path)

				slog.Warn("rate limit exceeded",
					slog.String("limiter_type", "user"),
					slog.String("key", hashedUserID[:16]),
					slog.String("tier", tier.String()),
					slog.Int("current", decision.Limit-decision.Remaining),
					slog.Int("limit", decision.Limit),
					slog.Int64("retry_after", decision.RetryAfterSeconds()),
					slog.String("path", r.URL.Path),
					slog.String("method", r.Method),
				)

				rl.writeRateLimitError(w, decision, window)
				return
			}

			rl.config.Metrics.RecordAllowed("user", r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}

// checkLimit runs the algorithm through the circuit breaker. failOpen is
// true when the request must be allowed without a decision: open circuit,
// check error, or a nil decision.
func (rl *UserRateLimiter) checkLimit(r *http.Request, hashedUserID string, tier ratelimit.UserTier, limit int, window time.Duration) (decision *ratelimit.RateLimitDecision, failOpen bool) {
	startTime := rl.config.Clock.Now()

	var checkErr error
	circuitErr := rl.config.CircuitBreaker.Execute(func() error {
		decision, checkErr = rl.config.Algorithm.IsAllowed(
			r.Context(),
			hashedUserID,
			rl.config.Store,
			limit,
			window,
		)
		return checkErr
	})

	rl.config.Metrics.RecordCheckDuration("user", rl.config.Clock.Now().Sub(startTime))

	if rl.config.CircuitBreaker.IsOpen() {
		slog.Warn("user rate limiter: circuit breaker open, allowing request",
			slog.String("user_hash", hashedUserID[:16]),
			slog.String("tier", tier.String()),
			slog.String("path", r.URL.Path),
		)
		return nil, true
	}

	if circuitErr != nil {
		slog.Error("user rate limiter: check failed",
			slog.String("error", circuitErr.Error()),
			slog.String("user_hash", hashedUserID[:16]),
			slog.String("tier", tier.String()),
		)
		return nil, true
	}

	if decision == nil {
		slog.Error("user rate limiter: nil decision returned",
			slog.String("user_hash", hashedUserID[:16]),
			slog.String("tier", tier.String()),
		)
		return nil, true
	}

	return decision, false
}

// getTierLimit resolves the budget for a tier, falling back to the
// defaults for unknown tiers.
func (rl *UserRateLimiter) getTierLimit(tier ratelimit.UserTier) (int, time.Duration) {
	if tierLimit, ok := rl.config.TierLimits[tier]; ok {
		return tierLimit.Limit, tierLimit.Window
	}
	return rl.config.DefaultLimit, rl.config.DefaultWindow
}

func (rl *UserRateLimiter) setRateLimitHeaders(w http.ResponseWriter, decision *ratelimit.RateLimitDecision) {
	w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", decision.Limit))
	w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", decision.Remaining))
	w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", decision.ResetAtUnix()))
	w.Header().Set("X-RateLimit-Type", decision.LimiterType)
}

// writeRateLimitError sends the 429 with Retry-After and a JSON body
// describing the quota.
func (rl *UserRateLimiter) writeRateLimitError(w http.ResponseWriter, decision *ratelimit.RateLimitDecision, window time.Duration) {
	w.Header().Set("Retry-After", fmt.Sprintf("%d", decision.RetryAfterSeconds()))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	errorBody := fmt.Sprintf(`{
  "error": "rate limit exceeded",
  "message": "You have exceeded your request quota. Please try again in %d seconds.",
  "retry_after_seconds": %d,
  "limit": %d,
  "window": "%s"
}`,
		decision.RetryAfterSeconds(),
		decision.RetryAfterSeconds(),
		decision.Limit,
		window.String(),
	)

	if _, err := w.Write([]byte(errorBody)); err != nil {
		slog.Error("user rate limiter: failed to write error response",
			slog.String("error", err.Error()),
		)
	}
}

// hashUserID hashes the identifier with SHA-256 so emails never appear
// in the store or the logs. The hash is deterministic, so one user
// always maps to one key.
func hashUserID(userID string) string {
	hash := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(hash[:])
}

// NewDefaultTierLimits returns the standard hourly budgets per tier.
func NewDefaultTierLimits() map[ratelimit.UserTier]TierLimit {
	return map[ratelimit.UserTier]TierLimit{
		ratelimit.TierAdmin:   {Limit: 10000, Window: 1 * time.Hour},
		ratelimit.TierPremium: {Limit: 5000, Window: 1 * time.Hour},
		ratelimit.TierBasic:   {Limit: 1000, Window: 1 * time.Hour},
		ratelimit.TierViewer:  {Limit: 500, Window: 1 * time.Hour},
	}
}

// BoolPtr makes it easy to set SkipUnauthenticatedPtr inline:
//
//	config := UserRateLimiterConfig{
//	    SkipUnauthenticatedPtr: BoolPtr(false),
//	}
func BoolPtr(v bool) *bool {
	return &v
}
