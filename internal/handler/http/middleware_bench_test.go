package http_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpHandler "blogsmith/internal/handler/http"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// BenchmarkLogging_Sequential は順次リクエストでのロギングミドルウェアの性能を測定
func BenchmarkLogging_Sequential(b *testing.B) {
	handler := httpHandler.Logging(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "192.168.1.1:12345"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
	}
}

// BenchmarkLogging_Parallel は並行リクエストでのロギングミドルウェアの性能を測定
func BenchmarkLogging_Parallel(b *testing.B) {
	handler := httpHandler.Logging(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.RemoteAddr = "192.168.1.1:12345"
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
		}
	})
}

// BenchmarkRecover_NoPanic はパニックが発生しない場合のリカバリミドルウェアのオーバーヘッドを測定
func BenchmarkRecover_NoPanic(b *testing.B) {
	handler := httpHandler.Recover(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
	}
}

// BenchmarkLimitRequestBody はボディサイズ制限ミドルウェアの性能を測定
func BenchmarkLimitRequestBody(b *testing.B) {
	handler := httpHandler.LimitRequestBody(1 << 20)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	body := strings.Repeat("a", 4096)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/generate_blog", strings.NewReader(body))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
	}
}

// BenchmarkMiddlewareStack は本番構成と同じ順序で積んだミドルウェアチェーン全体の性能を測定
func BenchmarkMiddlewareStack(b *testing.B) {
	logger := discardLogger()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := httpHandler.Recover(logger)(
		httpHandler.Logging(logger)(
			httpHandler.LimitRequestBody(1 << 20)(inner),
		),
	)

	body := strings.Repeat("a", 512)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/generate_ideas", strings.NewReader(body))
		req.RemoteAddr = "192.168.1.1:12345"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
	}
}
