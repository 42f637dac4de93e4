package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	appconfig "blogsmith/internal/config"
	envconfig "blogsmith/internal/pkg/config"
	"blogsmith/pkg/config"
	"blogsmith/pkg/ratelimit"
	"blogsmith/pkg/security/csp"

	"blogsmith/internal/infra/generator"
	"blogsmith/internal/infra/media"
	"blogsmith/internal/infra/notifier"
	"blogsmith/internal/infra/unsplash"
	"blogsmith/internal/infra/wordpress"
	"blogsmith/internal/observability/slo"
	"blogsmith/internal/observability/tracing"
	"blogsmith/internal/resilience/circuitbreaker"

	notifyUC "blogsmith/internal/usecase/notify"
	photoUC "blogsmith/internal/usecase/photo"
	pipeUC "blogsmith/internal/usecase/pipeline"
	pubUC "blogsmith/internal/usecase/publish"

	hhttp "blogsmith/internal/handler/http"
	hauth "blogsmith/internal/handler/http/auth"
	"blogsmith/internal/handler/http/middleware"
	hphoto "blogsmith/internal/handler/http/photo"
	hpipe "blogsmith/internal/handler/http/pipeline"
	hpub "blogsmith/internal/handler/http/publish"
	"blogsmith/internal/handler/http/requestid"
	authservice "blogsmith/internal/service/auth"

	_ "blogsmith/docs" // swagger docs
)

// @title           Blogsmith API
// @version         1.0
// @description     REST API for the AI blog-content pipeline.
// @description     Staged idea/outline/article generation, random featured-photo lookup, and WordPress publishing with best-effort image attachment.

// @contact.name   API Support
// @contact.url    https://github.com/yujitsuchiya/blogsmith
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token authentication. Set the header to "Bearer {token}".

const (
	// protectedRouteTimeout bounds a single pipeline request. Generation
	// calls are the slowest step; the publish image workflow also makes
	// several sequential CMS calls.
	protectedRouteTimeout = 2 * time.Minute

	// notifyShutdownTimeout bounds the notification flush during shutdown.
	notifyShutdownTimeout = 10 * time.Second

	// defaultNotifyMaxConcurrent caps concurrent notification deliveries
	// unless NOTIFY_MAX_CONCURRENT overrides it.
	defaultNotifyMaxConcurrent = 10

	// defaultSecurityConfigPath is where the YAML security policy lives,
	// relative to the working directory.
	defaultSecurityConfigPath = "configs/security.yaml"

	// defaultMinPasswordLength applies when the security config file is
	// absent.
	defaultMinPasswordLength = 12

	// sloPublishInterval is how often the SLO tracker folds its request
	// window into the published gauges.
	sloPublishInterval = time.Minute
)

// defaultWeakPasswords applies when the security config file is absent.
var defaultWeakPasswords = []string{"password", "123456", "admin", "test", "secret"}

// defaultPublicEndpoints mirrors the auth middleware allowlist minus the
// root greeting: the auth service matcher is prefix-based, so a bare "/"
// entry would mark every path public.
var defaultPublicEndpoints = []string{"/auth/token", "/health", "/health/pipeline", "/ready", "/live", "/metrics", "/swagger/"}

func main() {
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	logger := initLogger()

	// Auth is optional: unless AUTH_ENABLED=true every endpoint is public
	// and credential/JWT validation is skipped.
	authEnabled := os.Getenv("AUTH_ENABLED") == "true"
	if authEnabled {
		validateEditorCredentials(logger)
		validateJWTSecret(logger)
	} else {
		logger.Warn("authentication is DISABLED - all pipeline endpoints are public, not recommended for production")
	}

	version := getVersion()
	serverComponents := setupServer(logger, version, authEnabled)

	runServer(logger, serverComponents, version)
}

// initLogger initializes and returns a structured logger based on environment configuration.
func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// validateEditorCredentials validates the editor credentials at startup.
// This prevents the server from starting with empty or weak editor credentials
// while authentication is enabled.
func validateEditorCredentials(logger *slog.Logger) {
	if err := hauth.ValidateEditorCredentials(); err != nil {
		logger.Error("editor credentials validation failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// validateJWTSecret validates the JWT_SECRET environment variable for security requirements.
func validateJWTSecret(logger *slog.Logger) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Error("JWT_SECRET must be set")
		os.Exit(1)
	}
	// セキュリティ: 最小32文字（256ビット）を強制
	if len(secret) < 32 {
		logger.Error("JWT_SECRET must be at least 32 characters (256 bits)")
		os.Exit(1)
	}
	// セキュリティ: よくある弱い秘密鍵を拒否
	weakSecrets := []string{"secret", "password", "test", "admin", "default"}
	for _, weak := range weakSecrets {
		if secret == weak || secret == weak+"123" {
			logger.Error("JWT_SECRET must not be a common weak value", slog.String("weak_value", weak))
			os.Exit(1)
		}
	}
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

// securityPolicy is the subset of the YAML security config the server wires
// into the auth provider, with built-in fallbacks for a missing file.
type securityPolicy struct {
	MinPasswordLength int
	WeakPasswords     []string
	PublicEndpoints   []string
}

// loadSecurityPolicy reads the security policy from configs/security.yaml
// (overridable via SECURITY_CONFIG_PATH). A missing or invalid file falls
// back to the built-in defaults so the binary also runs outside the
// repository tree.
func loadSecurityPolicy(logger *slog.Logger) securityPolicy {
	path := os.Getenv("SECURITY_CONFIG_PATH")
	if path == "" {
		path = defaultSecurityConfigPath
	}

	fallback := securityPolicy{
		MinPasswordLength: defaultMinPasswordLength,
		WeakPasswords:     defaultWeakPasswords,
		PublicEndpoints:   defaultPublicEndpoints,
	}

	securityCfg, err := appconfig.LoadSecurityConfig(path)
	if err != nil {
		logger.Warn("security config not loaded, using built-in defaults",
			slog.String("path", path),
			slog.Any("error", err))
		return fallback
	}

	policy := securityPolicy{
		MinPasswordLength: securityCfg.GetMinPasswordLength(),
		WeakPasswords:     securityCfg.GetWeakPasswords(),
		PublicEndpoints:   securityCfg.GetPublicEndpoints(),
	}
	if len(policy.WeakPasswords) == 0 {
		policy.WeakPasswords = defaultWeakPasswords
	}
	if len(policy.PublicEndpoints) == 0 {
		policy.PublicEndpoints = defaultPublicEndpoints
	}

	logger.Info("security config loaded",
		slog.String("path", path),
		slog.String("provider", securityCfg.GetAuthProvider()),
		slog.Int("min_password_length", policy.MinPasswordLength))
	return policy
}

// pipelineServices bundles the usecase services behind the HTTP handlers
// together with the downstream circuit breakers reported by the health
// endpoints.
type pipelineServices struct {
	Pipeline *pipeUC.Service
	Photos   *photoUC.Service
	Publish  *pubUC.Service
	Notify   notifyUC.Service // nil unless NOTIFY_ON_PUBLISH=true
	Health   []hhttp.CircuitReporter
}

// setupPipelineServices wires the generation, photo, and publish services
// with their downstream clients. WordPress is required at startup; the photo
// provider degrades to per-request failures when unconfigured.
func setupPipelineServices(logger *slog.Logger) *pipelineServices {
	var healthDeps []hhttp.CircuitReporter

	gen := createGenerator(logger)
	if reporter, ok := gen.(interface {
		Breaker() *circuitbreaker.CircuitBreaker
	}); ok {
		healthDeps = append(healthDeps, reporter.Breaker())
	}

	// Photo lookup degrades gracefully: without an Unsplash key the server
	// still starts and only /get_random_image fails.
	photoSvc := &photoUC.Service{}
	if unsplashConfig, err := unsplash.LoadConfig(); err != nil {
		logger.Warn("photo lookup disabled", slog.Any("error", err))
	} else {
		unsplashClient := unsplash.NewClient(unsplashConfig)
		photoSvc.Finder = unsplashClient
		healthDeps = append(healthDeps, unsplashClient.Breaker())
		logger.Info("photo lookup enabled")
	}

	wordpressConfig, err := wordpress.LoadConfig()
	if err != nil {
		logger.Error("failed to load WordPress configuration", slog.Any("error", err))
		os.Exit(1)
	}
	wordpressClient := wordpress.NewClient(wordpressConfig)
	healthDeps = append(healthDeps, wordpressClient.Breaker())

	notifySvc := setupPublishNotifications(logger)

	publishSvc := &pubUC.Service{
		Poster:   wordpressClient,
		Images:   media.NewDownloader(media.DefaultDownloadConfig()),
		Renderer: pubUC.NewContentRendererFromEnv(),
		Notifier: notifySvc,
	}

	return &pipelineServices{
		Pipeline: &pipeUC.Service{Generator: gen},
		Photos:   photoSvc,
		Publish:  publishSvc,
		Notify:   notifySvc,
		Health:   healthDeps,
	}
}

// createGenerator creates a generation provider based on the GENERATOR_TYPE
// environment variable.
func createGenerator(logger *slog.Logger) pipeUC.TextGenerator {
	generatorType := os.Getenv("GENERATOR_TYPE")
	if generatorType == "" {
		generatorType = "openai"
	}

	switch generatorType {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			logger.Error("OPENAI_API_KEY is required when GENERATOR_TYPE=openai")
			os.Exit(1)
		}
		// Load and validate OpenAI configuration
		config, err := generator.LoadOpenAIConfig()
		if err != nil {
			logger.Error("Failed to load OpenAI configuration", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Using OpenAI API for generation",
			slog.String("type", "openai"),
			slog.String("model", config.GetModel()))
		return generator.NewOpenAI(apiKey, config)
	case "claude":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			logger.Error("ANTHROPIC_API_KEY is required when GENERATOR_TYPE=claude")
			os.Exit(1)
		}
		logger.Info("Using Claude API for generation", slog.String("type", "claude"))
		return generator.NewClaude(apiKey)
	default:
		logger.Error("Invalid GENERATOR_TYPE",
			slog.String("type", generatorType),
			slog.String("expected", "openai or claude"))
		os.Exit(1)
		return nil
	}
}

// setupPublishNotifications builds the review notification service used by
// the publish endpoint. Disabled unless NOTIFY_ON_PUBLISH=true: an editor
// publishing interactively already sees the result, so the webhook ping is
// opt-in for the API (the worker always notifies).
func setupPublishNotifications(logger *slog.Logger) notifyUC.Service {
	if os.Getenv("NOTIFY_ON_PUBLISH") != "true" {
		return nil
	}

	var channels []notifyUC.Channel
	if discordConfig := notifier.LoadDiscordConfig(logger); discordConfig.Enabled {
		channels = append(channels, notifyUC.NewDiscordChannel(discordConfig))
	}
	if slackConfig := notifier.LoadSlackConfig(logger); slackConfig.Enabled {
		channels = append(channels, notifyUC.NewSlackChannel(slackConfig))
	}
	if len(channels) == 0 {
		logger.Warn("NOTIFY_ON_PUBLISH is set but no notification channel is configured")
		return nil
	}

	result := envconfig.LoadEnvInt("NOTIFY_MAX_CONCURRENT", defaultNotifyMaxConcurrent, func(v int) error {
		return envconfig.ValidateIntRange(v, 1, 100)
	})
	for _, warning := range result.Warnings {
		logger.Warn("Configuration fallback applied",
			slog.String("field", "NotifyMaxConcurrent"),
			slog.String("warning", warning))
	}
	maxConcurrent := result.Value.(int)

	logger.Info("publish notifications enabled",
		slog.Int("channels", len(channels)),
		slog.Int("max_concurrent", maxConcurrent))
	return notifyUC.NewService(channels, maxConcurrent)
}

// ServerComponents holds components needed for server operation and cleanup.
type ServerComponents struct {
	Handler     http.Handler
	IPStore     *ratelimit.InMemoryRateLimitStore
	UserStore   *ratelimit.InMemoryRateLimitStore
	IPWindow    time.Duration
	UserWindow  time.Duration
	AuthLimiter *middleware.RateLimiter // Legacy rate limiter for cleanup
	Notify      notifyUC.Service        // Flushed on shutdown when notifications are enabled
	Degradation *degradationMonitor     // Drives rate limiter degradation, nil when limiting is off
}

// setupServer configures and returns the HTTP handler with all routes and middleware.
func setupServer(logger *slog.Logger, version string, authEnabled bool) *ServerComponents {
	services := setupPipelineServices(logger)

	// Load rate limiting configuration
	rateLimitConfig, err := config.LoadRateLimitConfig()
	if err != nil {
		logger.Error("failed to load rate limit configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Load trusted proxy configuration for IP extraction
	proxyConfig, err := middleware.LoadTrustedProxyConfig()
	if err != nil {
		logger.Error("failed to load trusted proxy configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Create appropriate IPExtractor based on configuration
	var ipExtractor middleware.IPExtractor
	if proxyConfig.Enabled {
		ipExtractor = middleware.NewTrustedProxyExtractor(*proxyConfig)
		logger.Info("rate limiting: trusted proxy mode enabled",
			slog.Int("trusted_proxies_count", len(proxyConfig.AllowedCIDRs)))
	} else {
		ipExtractor = &middleware.RemoteAddrExtractor{}
		logger.Info("rate limiting: using RemoteAddr (secure mode, proxy headers ignored)")
	}

	// Initialize rate limiting components (if enabled)
	var ipRateLimiter *middleware.IPRateLimiter
	var userRateLimiter *middleware.UserRateLimiter
	var ipStore *ratelimit.InMemoryRateLimitStore
	var userStore *ratelimit.InMemoryRateLimitStore
	var ipCircuitBreaker *ratelimit.CircuitBreaker
	var userCircuitBreaker *ratelimit.CircuitBreaker
	var ipDegradation *middleware.DegradationManager
	var userDegradation *middleware.DegradationManager

	if rateLimitConfig.Enabled {
		// Create separate stores for IP and user rate limiting
		// This allows independent memory management and cleanup
		ipStore = ratelimit.NewInMemoryRateLimitStore(ratelimit.InMemoryStoreConfig{
			MaxKeys: rateLimitConfig.MaxActiveKeys,
		})
		userStore = ratelimit.NewInMemoryRateLimitStore(ratelimit.InMemoryStoreConfig{
			MaxKeys: rateLimitConfig.MaxActiveKeys,
		})

		algorithm := ratelimit.NewSlidingWindowAlgorithm(&ratelimit.SystemClock{})
		metrics := ratelimit.NewPrometheusMetrics()

		// Create circuit breakers for IP and User rate limiters
		ipCircuitBreaker = ratelimit.NewCircuitBreaker(ratelimit.CircuitBreakerConfig{
			FailureThreshold: rateLimitConfig.CircuitBreakerFailureThreshold,
			RecoveryTimeout:  rateLimitConfig.CircuitBreakerResetTimeout,
		})

		userCircuitBreaker = ratelimit.NewCircuitBreaker(ratelimit.CircuitBreakerConfig{
			FailureThreshold: rateLimitConfig.CircuitBreakerFailureThreshold,
			RecoveryTimeout:  rateLimitConfig.CircuitBreakerResetTimeout,
		})

		// Degradation managers relax limits when a limiter's own circuit
		// opens or its store approaches capacity. The monitor started in
		// runServer feeds them.
		ipDegradation = middleware.NewDegradationManager(middleware.DegradationConfig{
			AutoAdjust:        true,
			CooldownPeriod:    1 * time.Minute,
			RelaxedMultiplier: 2,
			MinimalMultiplier: 10,
			Clock:             &ratelimit.SystemClock{},
			Metrics:           metrics,
			LimiterType:       "ip",
		})
		userDegradation = middleware.NewDegradationManager(middleware.DegradationConfig{
			AutoAdjust:        true,
			CooldownPeriod:    1 * time.Minute,
			RelaxedMultiplier: 2,
			MinimalMultiplier: 10,
			Clock:             &ratelimit.SystemClock{},
			Metrics:           metrics,
			LimiterType:       "user",
		})

		// Create IP rate limiter
		ipRateLimiter = middleware.NewIPRateLimiter(
			middleware.IPRateLimiterConfig{
				Limit:       rateLimitConfig.DefaultIPLimit,
				Window:      rateLimitConfig.DefaultIPWindow,
				Enabled:     true,
				Degradation: ipDegradation,
			},
			ipExtractor,
			ipStore,
			algorithm,
			metrics,
			ipCircuitBreaker,
		)

		// Create user rate limiter with tier-based limits
		tierLimits := make(map[ratelimit.UserTier]middleware.TierLimit)
		for _, tierCfg := range rateLimitConfig.TierLimits {
			tierLimits[tierCfg.Tier] = middleware.TierLimit{
				Limit:  tierCfg.Limit,
				Window: tierCfg.Window,
			}
		}

		// Create user extractor (reads the user stored by the auth middleware)
		userExtractor := middleware.NewJWTUserExtractor(hauth.UserContextKey, nil)

		userRateLimiter = middleware.NewUserRateLimiter(middleware.UserRateLimiterConfig{
			Store:               userStore,
			Algorithm:           algorithm,
			Metrics:             metrics,
			CircuitBreaker:      userCircuitBreaker,
			UserExtractor:       userExtractor,
			TierLimits:          tierLimits,
			DefaultLimit:        rateLimitConfig.DefaultUserLimit,
			DefaultWindow:       rateLimitConfig.DefaultUserWindow,
			SkipUnauthenticated: true,
			Clock:               &ratelimit.SystemClock{},
			Degradation:         userDegradation,
		})

		logger.Info("rate limiting initialized",
			slog.Bool("enabled", true),
			slog.Int("ip_limit", rateLimitConfig.DefaultIPLimit),
			slog.Duration("ip_window", rateLimitConfig.DefaultIPWindow),
			slog.Int("user_limit", rateLimitConfig.DefaultUserLimit),
			slog.Duration("user_window", rateLimitConfig.DefaultUserWindow),
			slog.Int("max_keys", rateLimitConfig.MaxActiveKeys),
		)
	} else {
		logger.Warn("rate limiting is DISABLED - not recommended for production")
	}

	// Load CSP configuration (also reported by the health endpoint)
	cspConfig, err := config.LoadCSPConfig()
	if err != nil {
		logger.Error("failed to load CSP configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Health endpoint reports downstream circuits plus rate limiter and
	// CSP state.
	healthHandler := &hhttp.HealthHandler{
		Version:            version,
		Dependencies:       services.Health,
		RateLimiterEnabled: rateLimitConfig.Enabled,
		CSPEnabled:         cspConfig.Enabled,
		CSPReportOnly:      cspConfig.ReportOnly,
	}

	// Degradation monitor drives the managers from breaker and store state.
	var degradation *degradationMonitor
	if rateLimitConfig.Enabled {
		healthHandler.IPRateLimiterStore = ipStore
		healthHandler.UserRateLimiterStore = userStore
		healthHandler.IPCircuitBreaker = ipCircuitBreaker
		healthHandler.UserCircuitBreaker = userCircuitBreaker
		healthHandler.IPDegradationManager = degradationReporter{ipDegradation}
		healthHandler.UserDegradationManager = degradationReporter{userDegradation}

		degradation = &degradationMonitor{
			limiters: []limiterHealth{
				{name: "ip", manager: ipDegradation, breaker: ipCircuitBreaker, store: ipStore, maxKeys: rateLimitConfig.MaxActiveKeys},
				{name: "user", manager: userDegradation, breaker: userCircuitBreaker, store: userStore, maxKeys: rateLimitConfig.MaxActiveKeys},
			},
			logger: logger,
		}
	}

	// Setup routes with rate limiting middleware
	rootMux, authLimiter := setupRoutes(healthHandler, services, authEnabled, ipExtractor, userRateLimiter, logger)
	handler := applyMiddleware(logger, rootMux, ipRateLimiter, cspConfig)

	// Return server components including stores for cleanup
	return &ServerComponents{
		Handler:     handler,
		IPStore:     ipStore,
		UserStore:   userStore,
		IPWindow:    rateLimitConfig.DefaultIPWindow,
		UserWindow:  rateLimitConfig.DefaultUserWindow,
		AuthLimiter: authLimiter,
		Notify:      services.Notify,
		Degradation: degradation,
	}
}

// setupRoutes registers all HTTP routes (public and protected).
func setupRoutes(
	healthHandler *hhttp.HealthHandler,
	services *pipelineServices,
	authEnabled bool,
	ipExtractor middleware.IPExtractor,
	userRateLimiter *middleware.UserRateLimiter,
	logger *slog.Logger,
) (*http.ServeMux, *middleware.RateLimiter) {
	publicMux := http.NewServeMux()

	// Token endpoint only exists while auth is enabled.
	// レート制限: 認証エンドポイントは1分間に5リクエストまで
	var authRateLimiter *middleware.RateLimiter
	if authEnabled {
		authRateLimiter = middleware.NewRateLimiter(5, 1*time.Minute, ipExtractor)

		// Password policy comes from configs/security.yaml with built-in
		// fallbacks.
		policy := loadSecurityPolicy(logger)
		authProvider := hauth.NewEditorAuthProvider(policy.MinPasswordLength, policy.WeakPasswords)
		authService := authservice.NewAuthService(authProvider, policy.PublicEndpoints)

		publicMux.Handle("/auth/token", authRateLimiter.Middleware(hauth.TokenHandler(authService)))
	}

	// ヘルスチェックエンドポイント（認証不要）
	publicMux.Handle("/health", healthHandler)
	publicMux.HandleFunc("/health/pipeline", hhttp.NewPipelineHealthHandler(services.Health...).Health)
	publicMux.Handle("/ready", &hhttp.ReadyHandler{})
	publicMux.Handle("/live", &hhttp.LiveHandler{})
	publicMux.Handle("/metrics", hhttp.MetricsHandler())

	// Swagger UI（認証不要）
	publicMux.Handle("/swagger/", httpSwagger.WrapHandler)

	privateMux := http.NewServeMux()
	privateMux.Handle("/", &hhttp.RootHandler{})
	hpipe.Register(privateMux, services.Pipeline)
	hphoto.Register(privateMux, services.Photos)
	hpub.Register(privateMux, services.Publish)

	// Generation and publish calls are slow; bound each request.
	var protected http.Handler = hhttp.Timeout(protectedRouteTimeout)(privateMux)

	if authEnabled {
		// Wrap the user rate limiter first so Authz runs before it in the
		// request path: limits are checked with the user already in context.
		if userRateLimiter != nil {
			protected = userRateLimiter.Middleware()(protected)
		}
		protected = hauth.Authz(protected)
	}

	// Header/path size caps run before any auth parsing.
	protected = hhttp.InputValidation()(protected)

	rootMux := http.NewServeMux()
	if authEnabled {
		rootMux.Handle("/auth/token", publicMux)
	}
	rootMux.Handle("/health", publicMux)
	rootMux.Handle("/health/pipeline", publicMux)
	rootMux.Handle("/ready", publicMux)
	rootMux.Handle("/live", publicMux)
	rootMux.Handle("/metrics", publicMux)
	rootMux.Handle("/swagger/", publicMux)
	rootMux.Handle("/", protected)

	// Return auth rate limiter for cleanup management
	return rootMux, authRateLimiter
}

// applyMiddleware wraps the handler with middleware chain.
// Middleware order: CORS → Request ID → IP Rate Limit → Recovery → Logging → Body Limit → CSP → Tracing → Metrics
func applyMiddleware(logger *slog.Logger, handler http.Handler, ipRateLimiter *middleware.IPRateLimiter, cspConfig *config.CSPConfig) http.Handler {
	// Load CORS configuration from environment variables
	corsConfig, err := middleware.LoadCORSConfig()
	if err != nil {
		logger.Error("failed to load CORS configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Inject SlogAdapter for logging
	corsConfig.Logger = &middleware.SlogAdapter{Logger: logger}

	// Log CORS startup configuration
	logger.Info("CORS enabled",
		slog.Int("allowed_origins_count", len(corsConfig.Validator.GetAllowedOrigins())),
		slog.Any("allowed_origins", corsConfig.Validator.GetAllowedOrigins()),
		slog.Any("allowed_methods", corsConfig.AllowedMethods),
		slog.Any("allowed_headers", corsConfig.AllowedHeaders),
		slog.Int("max_age", corsConfig.MaxAge))

	// Create CSP middleware
	var cspMiddleware func(http.Handler) http.Handler
	if cspConfig.Enabled {
		cspMW := middleware.NewCSPMiddleware(middleware.CSPMiddlewareConfig{
			Enabled:       true,
			DefaultPolicy: csp.StrictPolicy(),
			PathPolicies: map[string]*csp.CSPBuilder{
				"/swagger/": csp.SwaggerUIPolicy(),
			},
			ReportOnly: cspConfig.ReportOnly,
		})
		cspMiddleware = cspMW.Middleware()
		logger.Info("CSP enabled",
			slog.Bool("report_only", cspConfig.ReportOnly))
	} else {
		// No-op middleware if CSP is disabled
		cspMiddleware = func(next http.Handler) http.Handler {
			return next
		}
		logger.Warn("CSP is disabled")
	}

	// Build middleware chain
	// Recommended order:
	// 1. CORS (handles preflight requests early)
	// 2. Request ID (generates unique ID for request tracking)
	// 3. IP Rate Limiting (check rate limit before expensive operations)
	// 4. Recovery (catch panics)
	// 5. Logging (log all requests)
	// 6. Body Size Limit (prevent DoS)
	// 7. CSP (set security headers)
	// 8. Tracing (span per request, X-Trace-Id response header)
	// 9. Metrics (record request metrics)
	// 10. Authentication (in routes layer)
	// 11. User Rate Limiting (in routes layer, after auth)

	middlewareChain := handler

	// Apply in reverse order (innermost to outermost)
	middlewareChain = hhttp.MetricsMiddleware(middlewareChain)
	middlewareChain = tracing.Middleware(middlewareChain)
	middlewareChain = cspMiddleware(middlewareChain)
	middlewareChain = hhttp.LimitRequestBody(1 << 20)(middlewareChain) // 1MB limit
	middlewareChain = hhttp.Logging(logger)(middlewareChain)
	middlewareChain = hhttp.Recover(logger)(middlewareChain)

	// Apply IP rate limiting if enabled
	if ipRateLimiter != nil {
		middlewareChain = ipRateLimiter.Middleware()(middlewareChain)
	}

	middlewareChain = requestid.Middleware(middlewareChain)
	middlewareChain = middleware.CORS(*corsConfig)(middlewareChain)

	return middlewareChain
}

// runServer starts the HTTP server and handles graceful shutdown.
func runServer(logger *slog.Logger, components *ServerComponents, version string) {
	// Create a context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load cleanup configuration
	cleanupCfg := hhttp.LoadCleanupConfigFromEnv()

	// Start background cleanup goroutines for rate limit stores
	if components.IPStore != nil {
		go hhttp.StartRateLimitCleanup(ctx, components.IPStore, cleanupCfg.Interval, components.IPWindow, "ip")
		logger.Info("IP rate limit cleanup started",
			slog.Duration("interval", cleanupCfg.Interval),
			slog.Duration("window", components.IPWindow))
	}

	if components.UserStore != nil {
		go hhttp.StartRateLimitCleanup(ctx, components.UserStore, cleanupCfg.Interval, components.UserWindow, "user")
		logger.Info("user rate limit cleanup started",
			slog.Duration("interval", cleanupCfg.Interval),
			slog.Duration("window", components.UserWindow))
	}

	// Start cleanup for legacy auth rate limiter
	if components.AuthLimiter != nil {
		go hhttp.StartRateLimitCleanupLegacy(ctx, components.AuthLimiter, cleanupCfg.Interval, "auth")
		logger.Info("auth rate limit cleanup started (legacy)",
			slog.Duration("interval", cleanupCfg.Interval))
	}

	// Start the degradation monitor for rate limiter health
	if components.Degradation != nil {
		go components.Degradation.Run(ctx)
		logger.Info("rate limit degradation monitor started",
			slog.Duration("interval", degradationPollInterval))
	}

	// Fold request observations into the SLO gauges once a minute
	go slo.DefaultTracker.Run(ctx, sloPublishInterval)
	logger.Info("SLO publisher started",
		slog.Duration("interval", sloPublishInterval))

	srv := &http.Server{
		Addr:              ":8080",
		Handler:           components.Handler,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", ":8080"),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	// Cancel background goroutines (rate limit cleanup)
	cancel()
	logger.Debug("background cleanup goroutines cancelled")

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}

	// Flush in-flight review notifications before exit
	if components.Notify != nil {
		notifyCtx, notifyCancel := context.WithTimeout(context.Background(), notifyShutdownTimeout)
		defer notifyCancel()
		if err := components.Notify.Shutdown(notifyCtx); err != nil {
			logger.Error("notification service shutdown failed", slog.Any("error", err))
		}
	}

	logger.Info("server stopped")
}
