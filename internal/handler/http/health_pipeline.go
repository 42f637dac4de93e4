package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// PipelineHealthHandler provides a focused health endpoint for the content
// generation pipeline: it reports the circuit breaker state of each
// downstream provider (text generation, photo search, CMS) without issuing
// any outbound requests.
type PipelineHealthHandler struct {
	dependencies []CircuitReporter
}

// NewPipelineHealthHandler creates a pipeline health handler over the given
// downstream circuit breakers.
func NewPipelineHealthHandler(deps ...CircuitReporter) *PipelineHealthHandler {
	return &PipelineHealthHandler{dependencies: deps}
}

// PipelineHealthResponse represents the response structure for the pipeline
// health endpoint.
type PipelineHealthResponse struct {
	Status    string            `json:"status"`
	Circuits  map[string]string `json:"circuits"`
	Timestamp string            `json:"timestamp"`
}

// Health returns the pipeline dependency status.
// GET /health/pipeline
// Returns 200 with per-dependency circuit states; the status field is
// "degraded" when any circuit is open. Open circuits do not produce 503
// because the pipeline endpoints degrade independently of each other.
func (h *PipelineHealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	circuits := make(map[string]string, len(h.dependencies))
	status := "healthy"

	for _, dep := range h.dependencies {
		state := dep.State()
		circuits[dep.Name()] = state.String()
		if state == gobreaker.StateOpen {
			status = "degraded"
		}
	}

	response := PipelineHealthResponse{
		Status:    status,
		Circuits:  circuits,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("failed to encode pipeline health response", slog.Any("error", err))
	}
}
