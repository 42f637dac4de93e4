package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* ───────── helpers ───────── */

func resetHTTPMetrics() {
	httpRequestsTotal.Reset()
	httpRequestDuration.Reset()
	httpRequestSize.Reset()
	httpResponseSize.Reset()
}

func metricsHandlerWithStatus(status int) http.Handler {
	return MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
}

func serveMetrics(handler http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

/* ───────── path normalization ───────── */

func TestMetricsMiddleware_PathNormalization(t *testing.T) {
	resetHTTPMetrics()
	handler := metricsHandlerWithStatus(http.StatusOK)

	tests := []struct {
		name         string
		path         string
		expectedPath string
	}{
		{"pipeline endpoint unchanged", "/generate_ideas", "/generate_ideas"},
		{"publish endpoint unchanged", "/publish", "/publish"},
		{"static endpoint unchanged", "/health", "/health"},
		{"scanner probe collapses to /other", "/wp-login.php", "/other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveMetrics(handler, "GET", tt.path)
			require.Equal(t, http.StatusOK, rec.Code)

			count := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", tt.expectedPath, "200"))
			assert.GreaterOrEqual(t, count, 1.0, "request should be counted under %s", tt.expectedPath)
		})
	}
}

// A scanner probing many unknown paths must land on a single /other
// series rather than one series per probe.
func TestMetricsMiddleware_CardinalityReduction(t *testing.T) {
	resetHTTPMetrics()
	handler := metricsHandlerWithStatus(http.StatusOK)

	probes := []string{
		"/wp-login.php",
		"/wp-admin/setup.php",
		"/.env",
		"/admin",
		"/phpmyadmin",
		"/cgi-bin/test.cgi",
		"/vendor/composer.json",
		"/etc/passwd",
	}

	for _, path := range probes {
		serveMetrics(handler, "GET", path)
	}

	otherCount := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/other", "200"))
	assert.Equal(t, float64(len(probes)), otherCount, "all probes should share the /other label")
	assert.Equal(t, 1, testutil.CollectAndCount(httpRequestsTotal), "expected a single series for all probe paths")
}

func TestMetricsMiddleware_QueryParametersStripped(t *testing.T) {
	resetHTTPMetrics()
	handler := metricsHandlerWithStatus(http.StatusOK)

	paths := []string{
		"/get_random_image",
		"/get_random_image?query=mountains",
		"/get_random_image?query=mountains&orientation=landscape",
	}

	for _, path := range paths {
		serveMetrics(handler, "GET", path)
	}

	count := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/get_random_image", "200"))
	assert.Equal(t, 3.0, count, "all three requests should share one path label")
}

/* ───────── status codes ───────── */

func TestMetricsMiddleware_StatusCodes(t *testing.T) {
	resetHTTPMetrics()

	statuses := []int{
		http.StatusOK,
		http.StatusCreated,
		http.StatusBadRequest,
		http.StatusUnauthorized,
		http.StatusNotFound,
		http.StatusInternalServerError,
	}

	for _, status := range statuses {
		rec := serveMetrics(metricsHandlerWithStatus(status), "POST", "/generate_blog")
		assert.Equal(t, status, rec.Code)
	}

	// one series per status, all on the same path
	assert.Equal(t, len(statuses), testutil.CollectAndCount(httpRequestsTotal))
}

/* ───────── sizes and duration ───────── */

func TestMetricsMiddleware_RequestSize(t *testing.T) {
	resetHTTPMetrics()

	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	body := strings.NewReader(`{"genre":"technology","idea":"Edge computing trends"}`)
	req := httptest.NewRequest("POST", "/generate_outline", body)
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = int64(body.Len())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, testutil.CollectAndCount(httpRequestSize), "request size histogram should have one series")
}

func TestMetricsMiddleware_ResponseSize(t *testing.T) {
	resetHTTPMetrics()

	responseBody := []byte(`{"ideas":["Edge computing trends","Serverless databases"]}`)
	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(responseBody)
	}))

	rec := serveMetrics(handler, "POST", "/generate_ideas")

	assert.Equal(t, len(responseBody), rec.Body.Len())
	assert.Equal(t, 1, testutil.CollectAndCount(httpResponseSize))
}

func TestMetricsMiddleware_InFlightGauge(t *testing.T) {
	var duringRequest float64
	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		duringRequest = testutil.ToFloat64(httpRequestsInFlight)
		w.WriteHeader(http.StatusOK)
	}))

	before := testutil.ToFloat64(httpRequestsInFlight)
	serveMetrics(handler, "GET", "/health")

	assert.Equal(t, before+1, duringRequest, "gauge should be raised while the handler runs")
	assert.Equal(t, before, testutil.ToFloat64(httpRequestsInFlight), "gauge should return to baseline")
}

func TestMetricsMiddleware_Duration(t *testing.T) {
	resetHTTPMetrics()

	serveMetrics(metricsHandlerWithStatus(http.StatusOK), "POST", "/select_idea")

	assert.Equal(t, 1, testutil.CollectAndCount(httpRequestDuration))
}

/* ───────── response writer ───────── */

func TestResponseWriter_CapturesStatusAndSize(t *testing.T) {
	rw := &responseWriter{
		ResponseWriter: httptest.NewRecorder(),
		statusCode:     http.StatusOK,
	}

	rw.WriteHeader(http.StatusCreated)
	assert.Equal(t, http.StatusCreated, rw.statusCode)

	data := []byte("test response")
	n, err := rw.Write(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Equal(t, len(data), rw.size)

	// second write accumulates
	_, err = rw.Write(data)
	require.NoError(t, err)
	assert.Equal(t, 2*len(data), rw.size)
}

/* ───────── end to end ───────── */

func TestMetricsMiddleware_Integration(t *testing.T) {
	resetHTTPMetrics()

	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}))

	testRequests := []struct {
		method string
		path   string
	}{
		{"POST", "/generate_ideas"},
		{"POST", "/select_idea"},
		{"POST", "/generate_outline"},
		{"POST", "/generate_blog"},
		{"GET", "/get_random_image"},
		{"POST", "/publish"},
		{"GET", "/health"},
		{"GET", "/wp-login.php"},
		{"GET", "/phpmyadmin"},
	}

	for _, tr := range testRequests {
		rec := serveMetrics(handler, tr.method, tr.path)
		require.Equal(t, http.StatusOK, rec.Code, "%s %s", tr.method, tr.path)
	}

	// seven real endpoints plus the shared /other series for both probes
	assert.Equal(t, 8, testutil.CollectAndCount(httpRequestsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/other", "200")))
}

func TestMetricsHandler(t *testing.T) {
	handler := MetricsHandler()
	require.NotNil(t, handler)

	rec := serveMetrics(handler, http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}

/* ───────── benchmarks ───────── */

func BenchmarkMetricsMiddleware(b *testing.B) {
	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	paths := []string{
		"/generate_blog",
		"/get_random_image",
		"/health",
		"/publish",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest("GET", paths[i%len(paths)], nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
	}
}

func BenchmarkMetricsMiddleware_UnmatchedPath(b *testing.B) {
	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest("GET", "/wp-login.php", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
	}
}
