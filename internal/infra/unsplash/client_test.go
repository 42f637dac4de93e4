package unsplash_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"blogsmith/internal/domain/entity"
	"blogsmith/internal/infra/unsplash"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) unsplash.Config {
	return unsplash.Config{
		AccessKey: "test-access-key",
		BaseURL:   baseURL,
		Timeout:   5 * time.Second,
	}
}

const randomPhotoBody = `{
	"urls": {"full": "https://images.unsplash.com/photo-1", "regular": "https://images.unsplash.com/photo-1?w=1080"},
	"user": {"name": "Jane Doe", "links": {"html": "https://unsplash.com/@jane"}}
}`

/* ───────── RandomPhoto Success Tests ───────── */

func TestClient_RandomPhoto_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/photos/random", r.URL.Path)
		assert.Equal(t, "travel", r.URL.Query().Get("query"))
		assert.Equal(t, "landscape", r.URL.Query().Get("orientation"))
		assert.Equal(t, "test-access-key", r.URL.Query().Get("client_id"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(randomPhotoBody))
	}))
	defer server.Close()

	client := unsplash.NewClient(testConfig(server.URL))

	photo, err := client.RandomPhoto(context.Background(), "travel")

	require.NoError(t, err)
	want := entity.PhotoCandidate{
		ImageURL:         "https://images.unsplash.com/photo-1",
		PhotographerName: "Jane Doe",
		PhotographerLink: "https://unsplash.com/@jane",
	}
	if diff := cmp.Diff(want, photo); diff != "" {
		t.Errorf("RandomPhoto() mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_RandomPhoto_QueryEscaping(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		_, _ = w.Write([]byte(randomPhotoBody))
	}))
	defer server.Close()

	client := unsplash.NewClient(testConfig(server.URL))

	_, err := client.RandomPhoto(context.Background(), "street food & night markets")

	require.NoError(t, err)
	assert.Equal(t, "street food & night markets", gotQuery)
}

func TestClient_RandomPhoto_MissingAttribution(t *testing.T) {
	// Unsplash can omit photographer data; only the image URL is mandatory.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"urls": {"full": "https://images.unsplash.com/photo-2"}, "user": {}}`))
	}))
	defer server.Close()

	client := unsplash.NewClient(testConfig(server.URL))

	photo, err := client.RandomPhoto(context.Background(), "travel")

	require.NoError(t, err)
	assert.Equal(t, "https://images.unsplash.com/photo-2", photo.ImageURL)
	assert.Empty(t, photo.PhotographerName)
	assert.Empty(t, photo.PhotographerLink)
}

/* ───────── RandomPhoto Error Tests ───────── */

func TestClient_RandomPhoto_MissingImageURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"urls": {}, "user": {"name": "Jane Doe"}}`))
	}))
	defer server.Close()

	client := unsplash.NewClient(testConfig(server.URL))

	_, err := client.RandomPhoto(context.Background(), "travel")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing image url")
}

func TestClient_RandomPhoto_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	client := unsplash.NewClient(testConfig(server.URL))

	_, err := client.RandomPhoto(context.Background(), "travel")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode unsplash response")
}

func TestClient_RandomPhoto_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors": ["No photos found."]}`))
	}))
	defer server.Close()

	client := unsplash.NewClient(testConfig(server.URL))

	_, err := client.RandomPhoto(context.Background(), "xyzzy")

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "4xx responses must not be retried")
}

func TestClient_RandomPhoto_ServerErrorIsRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(randomPhotoBody))
	}))
	defer server.Close()

	client := unsplash.NewClient(testConfig(server.URL))

	photo, err := client.RandomPhoto(context.Background(), "travel")

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "5xx response should be retried once before succeeding")
	assert.Equal(t, "https://images.unsplash.com/photo-1", photo.ImageURL)
}

func TestClient_RandomPhoto_RateLimitHonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(randomPhotoBody))
	}))
	defer server.Close()

	client := unsplash.NewClient(testConfig(server.URL))

	start := time.Now()
	photo, err := client.RandomPhoto(context.Background(), "travel")

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "429 should be retried once before succeeding")
	assert.GreaterOrEqual(t, time.Since(start), time.Second,
		"retry must wait out the Retry-After header, not just the backoff delay")
	assert.Equal(t, "https://images.unsplash.com/photo-1", photo.ImageURL)
}

func TestClient_RandomPhoto_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(randomPhotoBody))
	}))
	defer server.Close()

	client := unsplash.NewClient(testConfig(server.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.RandomPhoto(ctx, "travel")

	assert.Error(t, err)
}

/* ───────── Configuration Tests ───────── */

func TestLoadConfig_RequiresAccessKey(t *testing.T) {
	t.Setenv("UNSPLASH_ACCESS_KEY", "")
	t.Setenv("UNSPLASH_BASE_URL", "")

	_, err := unsplash.LoadConfig()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNSPLASH_ACCESS_KEY")
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("UNSPLASH_ACCESS_KEY", "key-from-env")
	t.Setenv("UNSPLASH_BASE_URL", "")

	config, err := unsplash.LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "key-from-env", config.AccessKey)
	assert.Equal(t, "https://api.unsplash.com", config.BaseURL)
	assert.Equal(t, 15*time.Second, config.Timeout)
}

func TestLoadConfig_BaseURLOverride(t *testing.T) {
	t.Setenv("UNSPLASH_ACCESS_KEY", "key-from-env")
	t.Setenv("UNSPLASH_BASE_URL", "http://localhost:9999")

	config, err := unsplash.LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999", config.BaseURL)
}
