package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// HealthServer exposes the autopost worker's Kubernetes probes:
//
//	GET /health        liveness, always 200
//	GET /health/ready  readiness, 200 once SetReady(true), 503 before
//
// The worker flips readiness on after the scheduler and generation
// pipeline are wired, and off again before shutdown so the pod drains
// cleanly.
type HealthServer struct {
	addr   string
	logger *slog.Logger
	ready  atomic.Bool
	server *http.Server
}

// NewHealthServer returns a probe server that reports not-ready until
// SetReady is called. Start must be called to begin serving.
func NewHealthServer(addr string, logger *slog.Logger) *HealthServer {
	return &HealthServer{
		addr:   addr,
		logger: logger,
	}
}

// SetReady flips the readiness probe. Safe to call from any goroutine.
func (h *HealthServer) SetReady(ready bool) {
	h.ready.Store(ready)
	h.logger.Info("health server readiness changed", slog.Bool("ready", ready))
}

// Start serves the probe endpoints until ctx is cancelled, then shuts
// down gracefully with a 5s deadline. Returns http.ErrServerClosed on a
// clean shutdown so callers can filter it the usual way.
func (h *HealthServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	// liveness succeeds whenever the process answers HTTP at all; a hung
	// worker stops responding and the kubelet restarts it
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		h.writeProbe(w, http.StatusOK, "ok")
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if h.ready.Load() {
			h.writeProbe(w, http.StatusOK, "ok")
			return
		}
		h.writeProbe(w, http.StatusServiceUnavailable, "not ready")
	})

	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		h.logger.Info("health server starting", slog.String("addr", h.addr))
		if err := h.server.ListenAndServe(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		h.logger.Info("health server shutting down")
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			h.logger.Error("health server shutdown failed", slog.Any("error", err))
			return err
		}
		h.logger.Info("health server stopped")
		return http.ErrServerClosed

	case err := <-errChan:
		if err != http.ErrServerClosed {
			h.logger.Error("health server failed", slog.Any("error", err))
		}
		return err
	}
}

func (h *HealthServer) writeProbe(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{"status": status}); err != nil {
		h.logger.Error("failed to encode probe response", slog.Any("error", err))
	}
}
