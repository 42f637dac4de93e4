package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// installTestTracer swaps in an in-memory exporter and points the package
// tracer at it, restoring the globals after the test.
func installTestTracer(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer("blogsmith")
	t.Cleanup(func() {
		otel.SetTracerProvider(sdktrace.NewTracerProvider())
		tracer = otel.Tracer("blogsmith")
	})
	return exporter, tp
}

// traceRequest runs one request through the middleware and returns the
// exported spans.
func traceRequest(t *testing.T, exporter *tracetest.InMemoryExporter, tp *sdktrace.TracerProvider, req *http.Request, status int) tracetest.SpanStubs {
	t.Helper()
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	_ = tp.ForceFlush(context.Background())

	return exporter.GetSpans()
}

func spanAttr(spans tracetest.SpanStubs, key string) (interface{}, bool) {
	for _, attr := range spans[0].Attributes {
		if string(attr.Key) == key {
			return attr.Value.AsInterface(), true
		}
	}
	return nil, false
}

func TestMiddleware_CreatesSpan(t *testing.T) {
	exporter, tp := installTestTracer(t)

	spans := traceRequest(t, exporter, tp,
		httptest.NewRequest("GET", "/v1/autopost", nil), http.StatusOK)
	require.Len(t, spans, 1)

	assert.Equal(t, "GET /v1/autopost", spans[0].Name)

	method, ok := spanAttr(spans, "http.method")
	require.True(t, ok, "http.method attribute missing")
	assert.Equal(t, "GET", method)

	path, ok := spanAttr(spans, "http.path")
	require.True(t, ok, "http.path attribute missing")
	assert.Equal(t, "/v1/autopost", path)

	status, ok := spanAttr(spans, "http.status_code")
	require.True(t, ok, "http.status_code attribute missing")
	assert.Equal(t, int64(200), status)
}

func TestMiddleware_AddsTraceIDToResponse(t *testing.T) {
	installTestTracer(t)

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/autopost", nil))

	traceID := rr.Header().Get("X-Trace-Id")
	require.NotEmpty(t, traceID, "X-Trace-Id header missing")
	assert.Len(t, traceID, 32, "trace ID is 32 hex characters")
}

func TestMiddleware_PropagatesTraceContext(t *testing.T) {
	exporter, tp := installTestTracer(t)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator())
	})

	req := httptest.NewRequest("GET", "/v1/autopost", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	spans := traceRequest(t, exporter, tp, req, http.StatusOK)
	require.Len(t, spans, 1)

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736",
		spans[0].SpanContext.TraceID().String(),
		"span must join the caller's trace")
}

func TestMiddleware_MarksErrorSpansFor5xx(t *testing.T) {
	exporter, tp := installTestTracer(t)

	spans := traceRequest(t, exporter, tp,
		httptest.NewRequest("GET", "/v1/autopost", nil), http.StatusInternalServerError)
	require.Len(t, spans, 1)

	errorAttr, ok := spanAttr(spans, "error")
	require.True(t, ok, "error attribute missing for 5xx response")
	assert.Equal(t, true, errorAttr)
}

func TestMiddleware_NoErrorAttributeFor4xx(t *testing.T) {
	exporter, tp := installTestTracer(t)

	spans := traceRequest(t, exporter, tp,
		httptest.NewRequest("GET", "/no_such_route", nil), http.StatusNotFound)
	require.Len(t, spans, 1)

	_, ok := spanAttr(spans, "error")
	assert.False(t, ok, "4xx responses are not span errors")
}

func TestStatusRecorder_CapturesStatusCode(t *testing.T) {
	rec := newStatusRecorder(httptest.NewRecorder())
	assert.Equal(t, http.StatusOK, rec.statusCode, "defaults to 200 when WriteHeader is never called")

	rec.WriteHeader(http.StatusCreated)
	assert.Equal(t, http.StatusCreated, rec.statusCode)
}
