package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"blogsmith/internal/pkg/config"
	"blogsmith/internal/usecase/notify"
)

// defaultMetricsPort is the Prometheus scrape port when METRICS_PORT is unset.
const defaultMetricsPort = 9090

// channelStatus is the wire form of one notification channel's health.
type channelStatus struct {
	Name               string     `json:"name"`
	Enabled            bool       `json:"enabled"`
	CircuitBreakerOpen bool       `json:"circuit_breaker_open"`
	DisabledUntil      *time.Time `json:"disabled_until,omitempty"`
}

// channelHealthBody is the /health/channels response payload.
type channelHealthBody struct {
	Healthy  bool            `json:"healthy"`
	Channels []channelStatus `json:"channels"`
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// startMetricsServer starts the worker's Prometheus scrape server and
// returns it for external shutdown control. It serves:
//
//	GET /metrics          - job runs, drafts created, config fallbacks
//	GET /health           - liveness probe, always 200
//	GET /health/channels  - review channel health with breaker state
//
// The port comes from METRICS_PORT (default 9090, fail-open on invalid
// values). The server shuts down gracefully within 5 seconds once ctx is
// canceled. notifyService may be nil; /health/channels then reports 503.
func startMetricsServer(ctx context.Context, logger *slog.Logger, notifyService notify.Service) *http.Server {
	port := getMetricsPort(logger)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("/health/channels", channelHealthHandler(notifyService))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		logger.Info("metrics server shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
			return
		}
		logger.Info("metrics server stopped")
	}()

	return server
}

// getMetricsPort reads the scrape port from METRICS_PORT. Invalid values
// log a warning and fall back to the default.
func getMetricsPort(logger *slog.Logger) int {
	result := config.LoadEnvInt("METRICS_PORT", defaultMetricsPort, func(port int) error {
		return config.ValidateIntRange(port, 1, 65535)
	})
	for _, warning := range result.Warnings {
		logger.Warn("Configuration fallback applied",
			slog.String("field", "MetricsPort"),
			slog.String("warning", warning))
	}
	return result.Value.(int)
}

// channelHealthHandler serves GET /health/channels: 200 while every
// enabled channel can deliver review notifications, 503 once any enabled
// channel's circuit breaker opens (drafts are silently going unreviewed).
func channelHealthHandler(notifyService notify.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if notifyService == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "notification service not initialized",
			})
			return
		}

		statuses := notifyService.GetChannelHealth()
		body := channelHealthBody{
			Healthy:  true,
			Channels: make([]channelStatus, 0, len(statuses)),
		}
		for _, status := range statuses {
			if status.Enabled && status.CircuitBreakerOpen {
				body.Healthy = false
			}
			body.Channels = append(body.Channels, channelStatus{
				Name:               status.Name,
				Enabled:            status.Enabled,
				CircuitBreakerOpen: status.CircuitBreakerOpen,
				DisabledUntil:      status.DisabledUntil,
			})
		}

		code := http.StatusOK
		if !body.Healthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, body)
	}
}
