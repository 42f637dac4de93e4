package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("blogsmith")

// GetTracer returns the shared tracer. Use it to open child spans under
// the request span created by Middleware.
func GetTracer() trace.Tracer {
	return tracer
}
