package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig drives the CORS middleware. Origin decisions are delegated
// to the Validator so the policy (static whitelist, wildcard patterns,
// CIDR ranges) can change without touching the middleware itself.
type CORSConfig struct {
	// AllowedOrigins is the static whitelist. Kept for loaders that
	// build a WhitelistValidator from it; the middleware itself only
	// consults Validator.
	AllowedOrigins []string

	// AllowedMethods and AllowedHeaders are advertised on preflight
	// responses. Loaded from CORS_ALLOWED_METHODS / CORS_ALLOWED_HEADERS.
	AllowedMethods []string
	AllowedHeaders []string

	// AllowCredentials must be true for Bearer-token requests from the
	// editor frontend.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int

	// Validator decides whether an Origin may call us.
	Validator OriginValidator

	// Logger receives policy violations and preflight traces. A nil
	// logger silences both.
	Logger CORSLogger
}

// logViolation records a rejected origin when a logger is configured.
func (c CORSConfig) logViolation(r *http.Request, origin string) {
	if c.Logger == nil {
		return
	}
	c.Logger.Warn("CORS: origin not allowed", map[string]interface{}{
		"origin":      origin,
		"path":        r.URL.Path,
		"method":      r.Method,
		"remote_addr": r.RemoteAddr,
	})
}

// answerPreflight writes the advertised methods, headers and cache
// lifetime and terminates the OPTIONS request with 204.
func (c CORSConfig) answerPreflight(w http.ResponseWriter, r *http.Request, origin string) {
	h := w.Header()
	h.Set("Access-Control-Allow-Methods", strings.Join(c.AllowedMethods, ", "))
	h.Set("Access-Control-Allow-Headers", strings.Join(c.AllowedHeaders, ", "))
	h.Set("Access-Control-Max-Age", strconv.Itoa(c.MaxAge))

	if c.Logger != nil {
		c.Logger.Debug("CORS: preflight request", map[string]interface{}{
			"origin":            origin,
			"requested_method":  r.Header.Get("Access-Control-Request-Method"),
			"requested_headers": r.Header.Get("Access-Control-Request-Headers"),
		})
	}

	w.WriteHeader(http.StatusNoContent)
}

// CORS returns middleware enforcing the given cross-origin policy.
//
// Same-origin requests (no Origin header) pass through untouched. A
// disallowed origin is logged and forwarded WITHOUT CORS headers, which
// lets the browser block the response while server-to-server callers
// keep working. Allowed origins get the origin echoed back (required
// when credentials are in play); preflight OPTIONS requests are
// answered directly with 204 and never reach the next handler.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !config.Validator.IsAllowed(origin) {
				config.logViolation(r, origin)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			if r.Method == http.MethodOptions {
				config.answerPreflight(w, r, origin)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
