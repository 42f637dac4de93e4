// Package observability is the umbrella for logging, metrics, tracing
// and SLO tracking. Keeping them together makes it easy to correlate a
// slow pipeline run across all three signals: the request ID in the log
// line, the Prometheus histogram bucket, and the trace span.
//
// Subpackages:
//   - logging: slog-based JSON logging with request-ID stamping
//   - metrics: Prometheus registry and pipeline/publish recorders
//   - tracing: OpenTelemetry request spans and context propagation
//   - slo: service level objectives and burn-rate evaluation
//
//	logger := logging.NewLogger()
//	logger.Info("pipeline run started", slog.String("genre", genre))
//	metrics.RecordPipelineRequest("ideas", true)
package observability
