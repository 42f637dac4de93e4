package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	hhttp "blogsmith/internal/handler/http/respond"
	"blogsmith/internal/infra/generator"
	"blogsmith/internal/infra/media"
	"blogsmith/internal/infra/notifier"
	"blogsmith/internal/infra/unsplash"
	"blogsmith/internal/infra/wordpress"
	workerPkg "blogsmith/internal/infra/worker"
	"blogsmith/internal/usecase/autopost"
	"blogsmith/internal/usecase/notify"
	"blogsmith/internal/usecase/photo"
	"blogsmith/internal/usecase/pipeline"
	"blogsmith/internal/usecase/publish"
)

const (
	// jobDrainTimeout bounds how long shutdown waits for a running draft
	// job before canceling its context.
	jobDrainTimeout = 30 * time.Second

	// notifyShutdownTimeout bounds the notification flush during shutdown.
	notifyShutdownTimeout = 10 * time.Second
)

func main() {
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	logger := initLogger()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerMetrics.MustRegister()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.String("genres", strings.Join(workerConfig.Genres, ",")),
		slog.Int("max_concurrent", workerConfig.MaxConcurrent),
		slog.Duration("run_timeout", workerConfig.RunTimeout),
		slog.Int("notify_max_concurrent", workerConfig.NotifyMaxConcurrent),
		slog.Int("health_port", workerConfig.HealthPort))

	// Initialize Discord notification channel
	discordConfig := notifier.LoadDiscordConfig(logger)
	var discordChannel notify.Channel
	if discordConfig.Enabled {
		discordChannel = notify.NewDiscordChannel(discordConfig)
		logger.Info("Discord channel initialized", slog.String("status", "enabled"))
	} else {
		logger.Info("Discord channel disabled")
	}

	// Initialize Slack notification channel
	slackConfig := notifier.LoadSlackConfig(logger)
	var slackChannel notify.Channel
	if slackConfig.Enabled {
		slackChannel = notify.NewSlackChannel(slackConfig)
		logger.Info("Slack channel initialized", slog.String("status", "enabled"))
	} else {
		logger.Info("Slack channel disabled")
	}

	// Initialize notification service (use workerConfig)
	var channels []notify.Channel
	if discordChannel != nil {
		channels = append(channels, discordChannel)
	}
	if slackChannel != nil {
		channels = append(channels, slackChannel)
	}

	notifyService := notify.NewService(channels, workerConfig.NotifyMaxConcurrent)
	logger.Info("Notification service initialized",
		slog.Int("channels", len(channels)),
		slog.Int("max_concurrent", workerConfig.NotifyMaxConcurrent))

	// Start metrics HTTP server
	startMetricsServer(ctx, logger, notifyService)

	// Start health check server
	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	svc := setupAutopostService(logger, notifyService, workerConfig)

	scheduler := startCronWorker(ctx, logger, svc, workerConfig, workerMetrics, healthServer)

	// Block until SIGINT/SIGTERM, then drain the scheduler, flush pending
	// notifications, and stop the HTTP servers.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	healthServer.SetReady(false)
	drained := scheduler.Stop()
	select {
	case <-drained.Done():
	case <-time.After(jobDrainTimeout):
		logger.Warn("running draft job did not finish in time, canceling")
		cancel()
		<-drained.Done()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), notifyShutdownTimeout)
	defer shutdownCancel()
	if err := notifyService.Shutdown(shutdownCtx); err != nil {
		logger.Error("notification service shutdown failed", slog.Any("error", err))
	}

	cancel()
	logger.Info("worker stopped")
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

// setupAutopostService creates and configures the autopost service with all
// pipeline dependencies: the generation provider, the Unsplash photo lookup,
// and the WordPress publish workflow.
func setupAutopostService(logger *slog.Logger, notifyService notify.Service, cfg *workerPkg.WorkerConfig) *autopost.Service {
	gen := createGenerator(logger)
	pipelineSvc := &pipeline.Service{Generator: gen}

	// Photo lookup is best-effort; without an Unsplash key drafts simply
	// go out without a featured image.
	var photos autopost.PhotoFinder
	unsplashConfig, err := unsplash.LoadConfig()
	if err != nil {
		logger.Warn("photo lookup disabled", slog.Any("error", err))
	} else {
		photos = &photo.Service{Finder: unsplash.NewClient(unsplashConfig)}
		logger.Info("photo lookup enabled")
	}

	wordpressConfig, err := wordpress.LoadConfig()
	if err != nil {
		logger.Error("failed to load WordPress configuration", slog.Any("error", err))
		os.Exit(1)
	}

	publishSvc := &publish.Service{
		Poster:   wordpress.NewClient(wordpressConfig),
		Images:   media.NewDownloader(media.DefaultDownloadConfig()),
		Renderer: publish.NewContentRendererFromEnv(),
		Notifier: notifyService,
	}

	return &autopost.Service{
		Generator:     pipelineSvc,
		Photos:        photos,
		Publisher:     publishSvc,
		Genres:        cfg.Genres,
		MaxConcurrent: cfg.MaxConcurrent,
	}
}

// createGenerator creates a generation provider based on the GENERATOR_TYPE
// environment variable.
func createGenerator(logger *slog.Logger) pipeline.TextGenerator {
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

// startCronWorker starts the cron scheduler and returns it for shutdown
// control. Draft jobs derive their context from ctx so canceling it aborts
// a running job.
func startCronWorker(ctx context.Context, logger *slog.Logger, svc *autopost.Service, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics, healthServer *workerPkg.HealthServer) *cron.Cron {
	// Load timezone
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	_, err = c.AddFunc(cfg.CronSchedule, func() {
		runDraftJob(ctx, logger, svc, cfg, metrics)
	})
	if err != nil {
		logger.Error("failed to add cron job", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	// Mark as ready after cron is set up
	healthServer.SetReady(true)
	logger.Info("worker marked as ready")

	logger.Info("worker started",
		slog.String("schedule", cfg.CronSchedule),
		slog.String("timezone", cfg.Timezone),
		slog.String("genres", strings.Join(cfg.Genres, ",")))
	return c
}

// runDraftJob executes a single draft job with timeout and error handling.
func runDraftJob(ctx context.Context, logger *slog.Logger, svc *autopost.Service, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics) {
	startTime := time.Now()
	metrics.RecordJobRun("started")
	logger.Info("autopost run started")

	// ドラフト生成処理のタイムアウト（設定から取得）
	runCtx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	stats, err := svc.Run(runCtx)
	if err != nil {
		// 機密情報をマスクしてログ出力
		logger.Error("autopost run failed", slog.Any("error", hhttp.SanitizeError(err)))
		metrics.RecordJobRun("failure")
		metrics.RecordJobDuration(time.Since(startTime).Seconds())
		metrics.RecordDraftsCreated(stats.Drafted)
		return
	}

	// Record metrics
	metrics.RecordJobRun("success")
	metrics.RecordJobDuration(time.Since(startTime).Seconds())
	metrics.RecordDraftsCreated(stats.Drafted)
	metrics.RecordLastSuccess()

	logger.Info("autopost job finished",
		slog.Int("genres", stats.Genres),
		slog.Int64("drafted", stats.Drafted),
		slog.Int64("photo_failures", stats.PhotoFailures),
		slog.Int64("generation_failures", stats.GenerationFailures),
		slog.Int64("publish_failures", stats.PublishFailures),
		slog.Duration("duration", stats.Duration),
	)
}
