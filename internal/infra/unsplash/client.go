// Package unsplash provides a client for the Unsplash random-photo API.
// It wraps the single endpoint the pipeline needs (GET /photos/random) with
// rate limiting, retry with exponential backoff, and a circuit breaker, the
// same reliability layering used for the AI provider calls.
package unsplash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"blogsmith/internal/domain/entity"
	"blogsmith/internal/resilience/circuitbreaker"
	"blogsmith/internal/resilience/retry"
)

const (
	// defaultBaseURL is the public Unsplash API host.
	defaultBaseURL = "https://api.unsplash.com"

	// defaultTimeout bounds a single photo lookup request.
	defaultTimeout = 15 * time.Second

	// maxErrorBodyBytes caps how much of an error response body is read
	// for logging and error messages.
	maxErrorBodyBytes = 4 * 1024
)

// Config contains configuration for the Unsplash API client.
type Config struct {
	// AccessKey is the Unsplash API access key, sent as the client_id
	// query parameter.
	AccessKey string

	// BaseURL is the API host. Overridable for tests.
	BaseURL string

	// Timeout is the HTTP request timeout for a single lookup.
	Timeout time.Duration
}

// LoadConfig loads Unsplash configuration from environment variables.
//
// Environment variables:
//   - UNSPLASH_ACCESS_KEY: API access key (required)
//   - UNSPLASH_BASE_URL: API host override (default: https://api.unsplash.com)
//
// Returns an error if the access key is missing.
func LoadConfig() (Config, error) {
	accessKey := os.Getenv("UNSPLASH_ACCESS_KEY")
	if accessKey == "" {
		return Config{}, fmt.Errorf("UNSPLASH_ACCESS_KEY is required")
	}

	baseURL := os.Getenv("UNSPLASH_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return Config{
		AccessKey: accessKey,
		BaseURL:   baseURL,
		Timeout:   defaultTimeout,
	}, nil
}

// Client queries the Unsplash API for random photos.
// Lookups are idempotent reads, so transient failures are retried; a
// circuit breaker stops hammering the API while it is down.
type Client struct {
	config         Config
	httpClient     *http.Client
	limiter        *rate.Limiter
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewClient creates a new Unsplash client with the given configuration.
// The rate limiter stays well under the Unsplash per-hour quota while still
// allowing small bursts from concurrent pipeline runs.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter:        rate.NewLimiter(rate.Limit(2.0), 2), // 2 req/s, burst of 2
		circuitBreaker: circuitbreaker.New(circuitbreaker.UnsplashAPIConfig()),
		retryConfig:    retry.PhotoLookupConfig(),
	}
}

// Breaker returns the client's circuit breaker for health reporting.
func (c *Client) Breaker() *circuitbreaker.CircuitBreaker {
	return c.circuitBreaker
}

// randomPhotoResponse is the subset of the Unsplash response the pipeline
// uses. Everything else in the payload is ignored.
type randomPhotoResponse struct {
	URLs struct {
		Full string `json:"full"`
	} `json:"urls"`
	User struct {
		Name  string `json:"name"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
	} `json:"user"`
}

// RandomPhoto fetches one random landscape photo matching the query.
// Photographer name and profile link may be empty when Unsplash omits them;
// the image URL is mandatory and its absence is treated as a failure.
func (c *Client) RandomPhoto(ctx context.Context, query string) (entity.PhotoCandidate, error) {
	requestID := uuid.New().String()

	// Apply rate limiting before any attempt
	if err := c.limiter.Wait(ctx); err != nil {
		slog.Error("Rate limiter error",
			slog.String("request_id", requestID),
			slog.String("query", query),
			slog.Any("error", err))
		return entity.PhotoCandidate{}, fmt.Errorf("rate limiter error: %w", err)
	}

	var result entity.PhotoCandidate

	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doRandomPhoto(ctx, requestID, query)
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("unsplash api circuit breaker open, request rejected",
					slog.String("request_id", requestID),
					slog.String("service", "unsplash-api"),
					slog.String("state", c.circuitBreaker.State().String()))
				return fmt.Errorf("unsplash api unavailable: circuit breaker open")
			}
			return err
		}

		result = cbResult.(entity.PhotoCandidate)
		return nil
	})

	if retryErr != nil {
		return entity.PhotoCandidate{}, fmt.Errorf("unsplash photo lookup failed: %w", retryErr)
	}

	return result, nil
}

// doRandomPhoto performs the actual API call without retry or circuit breaker.
func (c *Client) doRandomPhoto(ctx context.Context, requestID, query string) (entity.PhotoCandidate, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("orientation", "landscape")
	params.Set("client_id", c.config.AccessKey)

	endpoint := c.config.BaseURL + "/photos/random?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return entity.PhotoCandidate{}, fmt.Errorf("create http request: %w", err)
	}

	slog.InfoContext(ctx, "Starting photo lookup",
		slog.String("request_id", requestID),
		slog.String("query", query))

	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "Photo lookup request failed",
			slog.String("request_id", requestID),
			slog.String("query", query),
			slog.Any("error", err))
		return entity.PhotoCandidate{}, fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	duration := time.Since(start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		slog.ErrorContext(ctx, "Photo lookup returned error status",
			slog.String("request_id", requestID),
			slog.String("query", query),
			slog.Int("status_code", resp.StatusCode),
			slog.Duration("duration", duration))
		// retry.IsRetryable treats 5xx and 429 as retryable, other 4xx as final.
		httpErr := &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unsplash api error: %s", string(body)),
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			httpErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		}
		return entity.PhotoCandidate{}, httpErr
	}

	var photo randomPhotoResponse
	if err := json.NewDecoder(resp.Body).Decode(&photo); err != nil {
		slog.ErrorContext(ctx, "Photo lookup response decode failed",
			slog.String("request_id", requestID),
			slog.String("query", query),
			slog.Any("error", err))
		return entity.PhotoCandidate{}, fmt.Errorf("decode unsplash response: %w", err)
	}

	if photo.URLs.Full == "" {
		slog.ErrorContext(ctx, "Photo lookup response missing image url",
			slog.String("request_id", requestID),
			slog.String("query", query))
		return entity.PhotoCandidate{}, fmt.Errorf("unsplash response missing image url")
	}

	slog.InfoContext(ctx, "Photo lookup completed",
		slog.String("request_id", requestID),
		slog.String("query", query),
		slog.String("photographer", photo.User.Name),
		slog.Duration("duration", duration))

	return entity.PhotoCandidate{
		ImageURL:         photo.URLs.Full,
		PhotographerName: photo.User.Name,
		PhotographerLink: photo.User.Links.HTML,
	}, nil
}

// parseRetryAfter reads an integer-seconds Retry-After value. HTTP-date
// forms and malformed values fall back to the regular backoff schedule.
func parseRetryAfter(header string) time.Duration {
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
