package middleware

// OriginValidator decides whether an Origin header value may make CORS
// requests against the API. WhitelistValidator is the only implementation
// today; keeping the interface means pattern or IP-range validators can
// be swapped in without touching the middleware.
type OriginValidator interface {
	// IsAllowed reports whether origin is permitted. Implementations
	// compare case-insensitively, ignore a trailing slash, and reject
	// the empty string.
	IsAllowed(origin string) bool

	// GetAllowedOrigins returns the configured origins (or patterns) for
	// logging and the health endpoint. Implementations return a copy,
	// never internal state.
	GetAllowedOrigins() []string
}

// ConfigSource loads CORS configuration. EnvConfigSource reads environment
// variables; a file- or database-backed source would implement the same
// four loaders.
type ConfigSource interface {
	// LoadOrigins returns the allowed origins. Loading fails closed: at
	// least one valid http(s) origin without path, query, fragment, or
	// trailing slash must be configured.
	LoadOrigins() ([]string, error)

	// LoadMethods returns the allowed HTTP methods, defaulting to
	// GET/POST/PUT/DELETE/PATCH/OPTIONS when unconfigured. Anything
	// outside that verb set is an error.
	LoadMethods() ([]string, error)

	// LoadHeaders returns the allowed request headers, defaulting to
	// Content-Type, Authorization, and X-Request-ID. Header names are
	// case-insensitive on the wire.
	LoadHeaders() ([]string, error)

	// LoadMaxAge returns the preflight cache lifetime in seconds,
	// defaulting to 86400 (24h). Zero disables caching; negative values
	// are an error.
	LoadMaxAge() (int, error)
}

// CORSLogger receives CORS events. The indirection exists so tests can
// capture log output and so origin-rejection warnings don't hard-depend
// on slog.
type CORSLogger interface {
	// Info logs startup configuration.
	Info(msg string, fields map[string]interface{})

	// Warn logs policy violations: rejected origins, malformed Origin
	// headers.
	Warn(msg string, fields map[string]interface{})

	// Debug logs per-request processing detail, preflights included.
	Debug(msg string, fields map[string]interface{})
}
