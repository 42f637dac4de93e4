package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// RateLimiter is a per-IP sliding window limiter. The IPExtractor decides
// whose budget a request counts against (bare RemoteAddr or trusted proxy
// headers). Used for the login endpoint, where brute-force pressure is per
// source address.
type RateLimiter struct {
	limit  int
	window time.Duration

	ipExtractor IPExtractor

	mu       sync.Mutex
	requests map[string][]time.Time // timestamps per IP
}

// NewRateLimiter builds a limiter allowing limit requests per IP per window.
//
//	// no proxy trust (default, safe)
//	limiter := NewRateLimiter(5, time.Minute, &RemoteAddrExtractor{})
//
//	// behind a known reverse proxy
//	limiter := NewRateLimiter(5, time.Minute, NewTrustedProxyExtractor(proxyConfig))
func NewRateLimiter(limit int, window time.Duration, ipExtractor IPExtractor) *RateLimiter {
	return &RateLimiter{
		limit:       limit,
		window:      window,
		ipExtractor: ipExtractor,
		requests:    make(map[string][]time.Time),
	}
}

// pruneExpired returns only the timestamps still inside the window.
func pruneExpired(timestamps []time.Time, cutoff time.Time) []time.Time {
	var valid []time.Time
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}
	return valid
}

// Middleware enforces the limit. Requests over budget get 429. If the
// configured extractor fails, the limiter falls back to RemoteAddr rather
// than letting the request through uncounted; if even that fails the
// request is rejected with 500.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, err := rl.ipExtractor.ExtractIP(r)
		if err != nil {
			slog.Warn("rate limiter: IP extraction failed, using RemoteAddr fallback",
				slog.String("error", err.Error()),
				slog.String("remote_addr", r.RemoteAddr),
			)
			ip, err = extractIPFromAddr(r.RemoteAddr)
			if err != nil {
				slog.Error("rate limiter: RemoteAddr extraction failed",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
		}

		if !rl.allow(ip) {
			slog.Warn("rate limit exceeded",
				slog.String("ip", ip),
				slog.String("path", r.URL.Path),
				slog.Int("limit", rl.limit),
				slog.Duration("window", rl.window),
			)
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allow prunes the IP's expired timestamps, then admits the request only
// if the remaining count is under the limit. Rejected requests do not
// consume budget.
func (rl *RateLimiter) allow(ip string) bool {
	now := time.Now()
	cutoff := now.Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	valid := pruneExpired(rl.requests[ip], cutoff)
	if len(valid) >= rl.limit {
		rl.requests[ip] = valid
		return false
	}

	rl.requests[ip] = append(valid, now)
	return true
}

// CleanupExpired drops expired timestamps for every IP and removes IPs
// with none left. Call it periodically so idle IPs do not accumulate;
// StartRateLimitCleanupLegacy runs it on a ticker.
func (rl *RateLimiter) CleanupExpired() {
	cutoff := time.Now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, timestamps := range rl.requests {
		valid := pruneExpired(timestamps, cutoff)
		if len(valid) == 0 {
			delete(rl.requests, ip)
		} else {
			rl.requests[ip] = valid
		}
	}

	slog.Debug("rate limiter: cleanup completed",
		slog.Int("active_ips", len(rl.requests)),
	)
}
