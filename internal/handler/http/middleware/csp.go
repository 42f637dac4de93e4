package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"blogsmith/pkg/ratelimit"
	"blogsmith/pkg/security/csp"
)

// CSPMiddlewareConfig configures CSP header injection. The API serves two
// very different surfaces: strict JSON endpoints and the Swagger UI, which
// needs inline scripts. PathPolicies lets each surface get its own policy.
type CSPMiddlewareConfig struct {
	// Enabled toggles CSP entirely, so the rollout can be staged via an
	// environment variable.
	Enabled bool

	// DefaultPolicy applies when no path prefix matches.
	DefaultPolicy *csp.CSPBuilder

	// PathPolicies maps path prefixes to policies, e.g.
	// {"/swagger/": csp.SwaggerUIPolicy()}. The longest matching prefix
	// wins.
	PathPolicies map[string]*csp.CSPBuilder

	// ReportOnly switches every policy to
	// Content-Security-Policy-Report-Only, so a new policy can be
	// observed before it blocks anything.
	ReportOnly bool
}

// CSPMiddleware applies Content-Security-Policy headers per request path.
type CSPMiddleware struct {
	config CSPMiddlewareConfig
	// violation counting when a report endpoint is configured; nil is fine
	metrics ratelimit.RateLimitMetrics
}

// NewCSPMiddleware builds the middleware from config.
func NewCSPMiddleware(config CSPMiddlewareConfig) *CSPMiddleware {
	return &CSPMiddleware{config: config}
}

// WithMetrics injects a metrics recorder for violation tracking and
// returns the middleware for chaining.
func (m *CSPMiddleware) WithMetrics(metrics ratelimit.RateLimitMetrics) *CSPMiddleware {
	m.metrics = metrics
	return m
}

// Middleware returns the wrapping handler. For each request it selects a
// policy by path prefix (longest match, falling back to DefaultPolicy),
// renders it, and sets the enforcing or report-only header. Requests pass
// through untouched when CSP is disabled, no policy matches, or the
// selected policy renders empty.
func (m *CSPMiddleware) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.config.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			policy := m.selectPolicy(r.URL.Path)
			if policy == nil {
				next.ServeHTTP(w, r)
				return
			}
			if m.config.ReportOnly {
				policy = policy.ReportOnly(true)
			}

			cspValue := policy.Build()
			if cspValue == "" {
				next.ServeHTTP(w, r)
				return
			}

			headerName := policy.HeaderName()
			w.Header().Set(headerName, cspValue)

			slog.Debug("CSP header applied",
				slog.String("path", r.URL.Path),
				slog.String("header", headerName),
				slog.String("policy", cspValue),
			)

			next.ServeHTTP(w, r)
		})
	}
}

// selectPolicy picks the policy whose prefix is the longest match for
// path. Matching is case-sensitive. Returns DefaultPolicy (which may be
// nil) when nothing matches.
func (m *CSPMiddleware) selectPolicy(path string) *csp.CSPBuilder {
	longestPrefix := ""
	var matched *csp.CSPBuilder

	for prefix, policy := range m.config.PathPolicies {
		if strings.HasPrefix(path, prefix) && len(prefix) > len(longestPrefix) {
			longestPrefix = prefix
			matched = policy
		}
	}

	if matched != nil {
		return matched
	}
	return m.config.DefaultPolicy
}

// ShouldApplyCSP reports whether path matches any of the patterns.
// Patterns support exact match, trailing-slash prefix match ("/swagger/"),
// and wildcard suffix match ("/swagger/*"). Kept for callers that gate
// CSP on a path list rather than a policy map.
func ShouldApplyCSP(path string, applyToPaths []string) bool {
	for _, pattern := range applyToPaths {
		if pattern == path {
			return true
		}
		if strings.HasSuffix(pattern, "/*") {
			if strings.HasPrefix(path, strings.TrimSuffix(pattern, "*")) {
				return true
			}
		}
		if strings.HasSuffix(pattern, "/") && strings.HasPrefix(path, pattern) {
			return true
		}
	}
	return false
}
