// Package tracing wires OpenTelemetry tracing into the HTTP stack.
//
// Middleware opens one server span per request, joins incoming W3C Trace
// Context when the caller supplies it, and echoes the trace ID back in
// the X-Trace-Id response header. Spans are tagged with method, path and
// status, and 5xx responses are flagged as errors.
//
// Other packages create child spans through GetTracer:
//
//	ctx, span := tracing.GetTracer().Start(ctx, "pipeline.generate_article")
//	defer span.End()
//
// Exporter configuration (stdout, OTLP) is the binary's job; this package
// only uses whatever provider is registered globally.
package tracing
