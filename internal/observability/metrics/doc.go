// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes the business metrics of the content pipeline:
//   - Generation requests per pipeline step (ideas, select, outline, article)
//   - Step durations
//   - Photo lookups and publish-time image workflow steps
//   - Published post counts by status
//
// HTTP-level metrics (request counts, durations, sizes) live with the HTTP
// middleware instead. All metrics here are automatically registered with the
// Prometheus default registry and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "blogsmith/internal/observability/metrics"
//
//	func generateIdeas(ctx context.Context, genre string) error {
//	    start := time.Now()
//	    err := callProvider(ctx, genre)
//
//	    metrics.RecordPipelineRequest("ideas", err == nil)
//	    metrics.RecordPipelineDuration("ideas", time.Since(start))
//	    return err
//	}
package metrics
