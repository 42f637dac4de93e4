// Package http provides HTTP handlers and middleware for the web application.
// It includes the blog generation pipeline endpoints, health check endpoints,
// metrics collection, authentication, and various middleware components.
package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"blogsmith/pkg/ratelimit"
)

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string                 `json:"status"`    // "healthy", "degraded" or "unhealthy"
	Timestamp string                 `json:"timestamp"` // ISO 8601 format
	Checks    map[string]CheckStatus `json:"checks"`    // Status of each check item
	Version   string                 `json:"version"`   // Application version
}

// CheckStatus represents the status of a single health check.
type CheckStatus struct {
	Status  string                 `json:"status"`            // "healthy", "degraded" or "unhealthy"
	Message string                 `json:"message,omitempty"` // Optional status message
	Details map[string]interface{} `json:"details,omitempty"` // Optional additional details
}

// RateLimiterHealthInfo contains health information for a rate limiter instance.
type RateLimiterHealthInfo struct {
	ActiveKeys       int    `json:"active_keys"`       // Number of active keys being tracked
	MemoryBytes      int64  `json:"memory_bytes"`      // Estimated memory usage in bytes
	CircuitBreaker   string `json:"circuit_breaker"`   // Circuit breaker state (closed/open/half-open)
	DegradationLevel string `json:"degradation_level"` // Degradation level (normal/relaxed/minimal/disabled)
}

// CSPHealthInfo contains health information for CSP middleware.
type CSPHealthInfo struct {
	Enabled    bool `json:"enabled"`     // Whether CSP is enabled
	ReportOnly bool `json:"report_only"` // Whether CSP is in report-only mode
}

// CircuitReporter exposes the circuit breaker state of one downstream
// dependency. Implemented by the resilience circuit breaker wrapper, which
// the infra clients hand out for health reporting.
type CircuitReporter interface {
	Name() string
	State() gobreaker.State
}

// DegradationManager exposes the current degradation level without pulling
// in the full degradation manager implementation.
type DegradationManager interface {
	GetLevel() DegradationLevel
}

// DegradationLevel is a printable rate limiting degradation level.
type DegradationLevel interface {
	String() string
}

// HealthHandler handles health check endpoint requests.
// The service holds no database; its dependencies are the downstream HTTP
// collaborators (text generation provider, photo provider, CMS), so the
// check reports their circuit breaker states. An open circuit degrades the
// overall status but does not make it unhealthy: the post-create path may
// still work while a secondary provider is down.
type HealthHandler struct {
	Version string

	// Dependencies lists the downstream circuit breakers to report on.
	Dependencies []CircuitReporter

	// Rate limiter components (optional)
	IPRateLimiterStore     ratelimit.RateLimitStore
	UserRateLimiterStore   ratelimit.RateLimitStore
	IPCircuitBreaker       *ratelimit.CircuitBreaker
	UserCircuitBreaker     *ratelimit.CircuitBreaker
	IPDegradationManager   DegradationManager
	UserDegradationManager DegradationManager
	RateLimiterEnabled     bool

	// CSP status (optional)
	CSPEnabled    bool
	CSPReportOnly bool
}

// ServeHTTP runs every configured check and reports the aggregate status.
// Degraded still returns 200; only a handler with no dependencies wired
// reports unhealthy with 503.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]CheckStatus{
		"dependencies": h.checkDependencies(),
	}
	if h.RateLimiterEnabled {
		checks["rate_limiter"] = h.checkRateLimiter(ctx)
	}
	if h.CSPEnabled {
		checks["csp"] = h.checkCSP()
	}

	status := "healthy"
	statusCode := http.StatusOK
	switch checks["dependencies"].Status {
	case "degraded":
		status = "degraded"
	case "unhealthy":
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
	if err != nil {
		log.Printf("health: failed to encode response: %v", err)
	}
}

// checkDependencies reports the circuit breaker state of every downstream
// collaborator. Any open circuit degrades the check; half-open counts as
// recovering and stays healthy.
func (h *HealthHandler) checkDependencies() CheckStatus {
	if len(h.Dependencies) == 0 {
		return CheckStatus{Status: "unhealthy", Message: "not configured"}
	}

	details := make(map[string]interface{}, len(h.Dependencies))
	open := 0
	for _, dep := range h.Dependencies {
		state := dep.State()
		details[dep.Name()] = state.String()
		if state == gobreaker.StateOpen {
			open++
		}
	}

	if open > 0 {
		return CheckStatus{
			Status:  "degraded",
			Message: "one or more downstream circuits are open",
			Details: details,
		}
	}
	return CheckStatus{Status: "healthy", Details: details}
}

// checkRateLimiter reports key counts, memory usage, breaker state and
// degradation level for the IP and user limiters. The check is always
// "healthy": an open breaker means fail-open, and degradation is the
// limiter coping with overload, so neither is a failure of the limiter.
func (h *HealthHandler) checkRateLimiter(ctx context.Context) CheckStatus {
	details := make(map[string]interface{})
	if h.IPRateLimiterStore != nil {
		details["ip"] = limiterInfo(ctx, h.IPRateLimiterStore, h.IPCircuitBreaker, h.IPDegradationManager)
	}
	if h.UserRateLimiterStore != nil {
		details["user"] = limiterInfo(ctx, h.UserRateLimiterStore, h.UserCircuitBreaker, h.UserDegradationManager)
	}
	return CheckStatus{Status: "healthy", Details: details}
}

// limiterInfo snapshots one limiter. Store read errors leave the
// corresponding fields at their zero values rather than failing the check.
func limiterInfo(ctx context.Context, store ratelimit.RateLimitStore, breaker *ratelimit.CircuitBreaker, degradation DegradationManager) RateLimiterHealthInfo {
	info := RateLimiterHealthInfo{
		CircuitBreaker:   "not_configured",
		DegradationLevel: "not_configured",
	}

	if keys, err := store.KeyCount(ctx); err == nil {
		info.ActiveKeys = keys
	}
	if mem, err := store.MemoryUsage(ctx); err == nil {
		info.MemoryBytes = mem
	}
	if breaker != nil {
		info.CircuitBreaker = breaker.State().String()
	}
	if degradation != nil {
		info.DegradationLevel = degradation.GetLevel().String()
	}
	return info
}

// checkCSP reports the CSP middleware configuration.
func (h *HealthHandler) checkCSP() CheckStatus {
	return CheckStatus{
		Status: "healthy",
		Details: map[string]interface{}{
			"config": CSPHealthInfo{Enabled: h.CSPEnabled, ReportOnly: h.CSPReportOnly},
		},
	}
}

// ReadyHandler handles Kubernetes readiness probe requests.
// The service is stateless and keeps no connections open between requests,
// so it is ready as soon as the handler tree is wired.
type ReadyHandler struct{}

// ServeHTTP reports readiness. Downstream outages never make the service
// unready: requests that hit an open circuit fail individually while other
// endpoints keep working.
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ready")); err != nil {
		log.Printf("ready: failed to write response: %v", err)
	}
}

// LiveHandler handles Kubernetes liveness probe requests.
type LiveHandler struct{}

// ServeHTTP always returns 200 while the process can respond at all.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("alive")); err != nil {
		log.Printf("alive: failed to write response: %v", err)
	}
}
