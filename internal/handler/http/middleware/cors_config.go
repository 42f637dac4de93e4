package middleware

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// defaults used when the optional CORS variables are unset.
var (
	defaultCORSMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	defaultCORSHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
)

const defaultCORSMaxAge = 86400 // 24h

// EnvConfigSource loads CORS configuration from environment variables:
//
//	CORS_ALLOWED_ORIGINS=http://localhost:3000,https://blog.example.com  (required)
//	CORS_ALLOWED_METHODS=GET,POST,PUT,DELETE                             (optional)
//	CORS_ALLOWED_HEADERS=Content-Type,Authorization                      (optional)
//	CORS_MAX_AGE=86400                                                   (optional)
type EnvConfigSource struct{}

// validateOrigin rejects anything that is not a bare http(s) origin:
// no path, query, fragment, or trailing slash.
func validateOrigin(origin string) error {
	u, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("invalid origin URL '%s': %w", origin, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("origin must use http or https scheme: %s", origin)
	}
	if u.Path != "" && u.Path != "/" {
		return fmt.Errorf("origin must not include path: %s", origin)
	}
	if u.RawQuery != "" {
		return fmt.Errorf("origin must not include query string: %s", origin)
	}
	if u.Fragment != "" {
		return fmt.Errorf("origin must not include fragment: %s", origin)
	}
	if strings.HasSuffix(origin, "/") {
		return fmt.Errorf("origin must not have trailing slash: %s", origin)
	}
	return nil
}

// LoadOrigins reads CORS_ALLOWED_ORIGINS. The variable is required and
// must contain at least one valid origin: with no whitelist the browser
// frontend cannot be distinguished from anyone else, so loading fails
// closed rather than defaulting to "*".
func (s *EnvConfigSource) LoadOrigins() ([]string, error) {
	originsStr := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if originsStr == "" {
		return nil, fmt.Errorf("CORS_ALLOWED_ORIGINS environment variable is required")
	}

	origins := make([]string, 0)
	for _, origin := range strings.Split(originsStr, ",") {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if err := validateOrigin(origin); err != nil {
			return nil, err
		}
		origins = append(origins, origin)
	}

	if len(origins) == 0 {
		return nil, fmt.Errorf("at least one valid origin must be configured in CORS_ALLOWED_ORIGINS")
	}
	return origins, nil
}

// LoadMethods reads CORS_ALLOWED_METHODS, defaulting to the full verb set
// used by the editorial frontend. Unknown verbs are an error rather than
// silently dropped.
func (s *EnvConfigSource) LoadMethods() ([]string, error) {
	methodsStr := strings.TrimSpace(os.Getenv("CORS_ALLOWED_METHODS"))
	if methodsStr == "" {
		return defaultCORSMethods, nil
	}

	validMethods := map[string]bool{
		"GET": true, "POST": true, "PUT": true,
		"DELETE": true, "PATCH": true, "OPTIONS": true,
	}

	methods := make([]string, 0)
	for _, method := range strings.Split(methodsStr, ",") {
		method = strings.ToUpper(strings.TrimSpace(method))
		if method == "" {
			continue
		}
		if !validMethods[method] {
			return nil, fmt.Errorf("invalid HTTP method '%s': must be one of GET, POST, PUT, DELETE, PATCH, OPTIONS", method)
		}
		methods = append(methods, method)
	}

	if len(methods) == 0 {
		return nil, fmt.Errorf("at least one valid HTTP method must be configured in CORS_ALLOWED_METHODS")
	}
	return methods, nil
}

// LoadHeaders reads CORS_ALLOWED_HEADERS, defaulting to the three headers
// the frontend actually sends.
func (s *EnvConfigSource) LoadHeaders() ([]string, error) {
	headersStr := strings.TrimSpace(os.Getenv("CORS_ALLOWED_HEADERS"))
	if headersStr == "" {
		return defaultCORSHeaders, nil
	}

	headers := make([]string, 0)
	for _, header := range strings.Split(headersStr, ",") {
		header = strings.TrimSpace(header)
		if header == "" {
			continue
		}
		headers = append(headers, header)
	}

	if len(headers) == 0 {
		return nil, fmt.Errorf("at least one valid header must be configured in CORS_ALLOWED_HEADERS")
	}
	return headers, nil
}

// LoadMaxAge reads CORS_MAX_AGE (seconds, non-negative), defaulting to
// 24 hours. Zero disables preflight caching.
func (s *EnvConfigSource) LoadMaxAge() (int, error) {
	maxAgeStr := strings.TrimSpace(os.Getenv("CORS_MAX_AGE"))
	if maxAgeStr == "" {
		return defaultCORSMaxAge, nil
	}

	maxAge, err := strconv.Atoi(maxAgeStr)
	if err != nil {
		return 0, fmt.Errorf("invalid CORS_MAX_AGE '%s': must be a valid integer", maxAgeStr)
	}
	if maxAge < 0 {
		return 0, fmt.Errorf("CORS_MAX_AGE must be non-negative, got: %d", maxAge)
	}
	return maxAge, nil
}

// LoadCORSConfig loads CORS configuration from environment variables.
// The caller injects a Logger afterwards:
//
//	config, err := middleware.LoadCORSConfig()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	config.Logger = &middleware.SlogAdapter{Logger: logger}
//	handler = middleware.CORS(*config)(handler)
func LoadCORSConfig() (*CORSConfig, error) {
	return LoadCORSConfigFromSource(&EnvConfigSource{}, nil)
}

// LoadCORSConfigFromSource builds a CORSConfig from any ConfigSource,
// wiring the loaded origins into a WhitelistValidator. logger may be nil
// and injected later.
func LoadCORSConfigFromSource(source ConfigSource, logger CORSLogger) (*CORSConfig, error) {
	origins, err := source.LoadOrigins()
	if err != nil {
		return nil, fmt.Errorf("failed to load allowed origins: %w", err)
	}
	methods, err := source.LoadMethods()
	if err != nil {
		return nil, fmt.Errorf("failed to load allowed methods: %w", err)
	}
	headers, err := source.LoadHeaders()
	if err != nil {
		return nil, fmt.Errorf("failed to load allowed headers: %w", err)
	}
	maxAge, err := source.LoadMaxAge()
	if err != nil {
		return nil, fmt.Errorf("failed to load max age: %w", err)
	}

	return &CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: methods,
		AllowedHeaders: headers,
		// credentials are always allowed: the frontend authenticates
		// with JWT cookies
		AllowCredentials: true,
		MaxAge:           maxAge,
		Validator:        NewWhitelistValidator(origins),
		Logger:           logger,
	}, nil
}
