package http

import (
	"net/http"
	"strconv"
	"time"

	"blogsmith/internal/handler/http/pathutil"
	"blogsmith/internal/observability/slo"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// sizeHistogram builds a bytes histogram with buckets from 100B to 1GB,
// labeled by method and normalized path.
func sizeHistogram(name, help string) *prometheus.HistogramVec {
	return promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    name,
			Help:    help,
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)
}

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// buckets span 5ms to 10s so p95/p99 stay meaningful for both the
	// cheap endpoints and the minutes-long generation paths' fast-fail cases
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestSize  = sizeHistogram("http_request_size_bytes", "HTTP request size in bytes")
	httpResponseSize = sizeHistogram("http_response_size_bytes", "HTTP response size in bytes")

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)

	// legacy metric, kept so existing dashboards keep working
	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)
)

// responseWriter records the status code and bytes written.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// recordOutcome flushes the per-request series once the handler has
// returned, and feeds the same observation into the SLO window.
func recordOutcome(method, path string, rw *responseWriter, elapsed time.Duration) {
	status := strconv.Itoa(rw.statusCode)
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(elapsed.Seconds())
	httpResponseSize.WithLabelValues(method, path).Observe(float64(rw.size))

	slo.Observe(rw.statusCode, elapsed)
}

// MetricsMiddleware records per-request Prometheus metrics (count,
// duration, sizes, in-flight gauge) and feeds the SLO window. Paths are
// normalized first so scanner noise like /wp-login.php cannot explode
// label cardinality.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()
		activeConnections.Inc()
		defer activeConnections.Dec()

		path := pathutil.NormalizePath(r.URL.Path)
		if r.ContentLength > 0 {
			httpRequestSize.WithLabelValues(r.Method, path).Observe(float64(r.ContentLength))
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		start := time.Now()
		next.ServeHTTP(rw, r)

		recordOutcome(r.Method, path, rw, time.Since(start))
	})
}

// MetricsHandler exposes the Prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
