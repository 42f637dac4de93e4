package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"blogsmith/pkg/ratelimit"
)

// IPRateLimiterConfig holds configuration for the IP-based rate limiter.
type IPRateLimiterConfig struct {
	// Limit is the maximum number of requests per IP within the window.
	Limit int

	// Window is the time period the limit applies to.
	Window time.Duration

	// Enabled turns the limiter off entirely when false.
	Enabled bool

	// Degradation optionally relaxes the limit under sustained failures.
	// When the manager reports LevelDisabled, requests bypass limiting.
	Degradation *DegradationManager
}

// DefaultIPRateLimiterConfig allows 100 requests per IP per minute.
func DefaultIPRateLimiterConfig() IPRateLimiterConfig {
	return IPRateLimiterConfig{
		Limit:   100,
		Window:  1 * time.Minute,
		Enabled: true,
	}
}

// IPRateLimiter is the HTTP adapter over pkg/ratelimit keyed on client
// IP. It extracts the IP via the configured IPExtractor, answers 429
// with X-RateLimit-* headers when the budget is exhausted, and fails
// open on any limiter-side problem: extraction error, store error, or
// an open circuit breaker.
type IPRateLimiter struct {
	config         IPRateLimiterConfig
	ipExtractor    IPExtractor
	store          ratelimit.RateLimitStore
	algorithm      ratelimit.RateLimitAlgorithm
	metrics        ratelimit.RateLimitMetrics
	circuitBreaker *ratelimit.CircuitBreaker
}

// NewIPRateLimiter wires the limiter; zero Limit or Window fall back to
// the defaults.
func NewIPRateLimiter(
	config IPRateLimiterConfig,
	ipExtractor IPExtractor,
	store ratelimit.RateLimitStore,
	algorithm ratelimit.RateLimitAlgorithm,
	metrics ratelimit.RateLimitMetrics,
	circuitBreaker *ratelimit.CircuitBreaker,
) *IPRateLimiter {
	if config.Limit <= 0 {
		config.Limit = 100
	}
	if config.Window <= 0 {
		config.Window = 1 * time.Minute
	}

	return &IPRateLimiter{
		config:         config,
		ipExtractor:    ipExtractor,
		store:          store,
		algorithm:      algorithm,
		metrics:        metrics,
		circuitBreaker: circuitBreaker,
	}
}

// Middleware enforces the per-IP budget. Allowed requests carry
// X-RateLimit-Limit/Remaining/Reset/Type headers; denied ones get 429
// with Retry-After and a JSON body.
func (rl *IPRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.config.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			ip, err := rl.extractIP(r)
			if err != nil {
				slog.Error("IP rate limiter: failed to extract IP, allowing request",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
					slog.String("path", r.URL.Path),
				)
				next.ServeHTTP(w, r)
				return
			}

			// degradation raises the limit under pressure; zero means
			// limiting is off entirely
			limit := rl.config.Limit
			if rl.config.Degradation != nil {
				if limit = rl.config.Degradation.AdjustLimits(limit); limit == 0 {
					slog.Debug("IP rate limiter: disabled by degradation, allowing request",
						slog.String("ip", ip),
						slog.String("path", r.URL.Path),
					)
					next.ServeHTTP(w, r)
					return
				}
			}

			decision, failOpen := rl.checkLimit(r, ip, limit)
			if failOpen {
				next.ServeHTTP(w, r)
				return
			}

			slog.Debug("rate limit check completed",
				slog.String("limiter_type", "ip"),
				slog.String("key", ip),
				slog.Int("current", decision.Limit-decision.Remaining),
				slog.Int("limit", decision.Limit),
				slog.Duration("window", rl.config.Window),
				slog.Bool("allowed", decision.Allowed),
				slog.String("path", r.URL.Path),
			)

			rl.setRateLimitHeaders(w, decision)

			if decision.IsDenied() {
				rl.writeRateLimitError(w, r, decision)
				return
			}

			if rl.metrics != nil {
				rl.metrics.RecordAllowed("ip", r.URL.Path)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractIP resolves the client IP via the configured strategy
// (RemoteAddr, or proxy headers when the proxy is trusted).
func (rl *IPRateLimiter) extractIP(r *http.Request) (string, error) {
	return rl.ipExtractor.ExtractIP(r)
}

// checkLimit runs the algorithm, through the circuit breaker when one is
// configured so repeated store failures eventually trip it. failOpen is
// true when the request must be allowed without a decision: the circuit
// is already open, or the check itself failed.
func (rl *IPRateLimiter) checkLimit(r *http.Request, ip string, limit int) (*ratelimit.RateLimitDecision, bool) {
	if rl.circuitBreaker != nil && rl.circuitBreaker.IsOpen() {
		slog.Warn("IP rate limiter: circuit breaker open, allowing request",
			slog.String("ip", ip),
			slog.String("path", r.URL.Path),
		)
		return nil, true
	}

	start := time.Now()

	var decision *ratelimit.RateLimitDecision
	check := func() (err error) {
		decision, err = rl.algorithm.IsAllowed(r.Context(), ip, rl.store, limit, rl.config.Window)
		return err
	}

	var err error
	if rl.circuitBreaker != nil {
		err = rl.circuitBreaker.Execute(check)
	} else {
		err = check()
	}

	if rl.metrics != nil {
		rl.metrics.RecordCheckDuration("ip", time.Since(start))
	}

	if err != nil {
		slog.Error("IP rate limiter: check failed, allowing request (fail-open)",
			slog.String("error", err.Error()),
			slog.String("ip", ip),
			slog.String("path", r.URL.Path),
		)
		return nil, true
	}
	if decision == nil {
		return nil, true
	}

	decision.LimiterType = "ip"
	return decision, false
}

func (rl *IPRateLimiter) setRateLimitHeaders(w http.ResponseWriter, decision *ratelimit.RateLimitDecision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAtUnix(), 10))
	w.Header().Set("X-RateLimit-Type", "ip")
}

// writeRateLimitError sends the 429 with Retry-After and the JSON body
// {"error": "rate_limit_exceeded", "message": ..., "retry_after": N}.
func (rl *IPRateLimiter) writeRateLimitError(w http.ResponseWriter, r *http.Request, decision *ratelimit.RateLimitDecision) {
	retryAfter := decision.RetryAfterSeconds()
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	body := map[string]interface{}{
		"error":       "rate_limit_exceeded",
		"message":     "Too many requests from this IP address",
		"retry_after": retryAfter,
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("IP rate limiter: failed to encode JSON response",
			slog.String("error", err.Error()),
		)
	}

	if rl.metrics != nil {
		rl.metrics.RecordDenied("ip", r.URL.Path)
	}

	slog.Warn("rate limit exceeded",
		slog.String("limiter_type", "ip"),
		slog.String("key", decision.Key),
		slog.Int("current", decision.Limit-decision.Remaining),
		slog.Int("limit", decision.Limit),
		slog.Int64("retry_after", retryAfter),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
	)
}
