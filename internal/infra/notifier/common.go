package notifier

import (
	"errors"
	"fmt"
	"time"
)

// contextKey avoids collisions with other packages' context values.
type contextKey string

const requestIDKey contextKey = "request_id"

// Webhook error classification shared by the Discord and Slack notifiers.
// The retry loop treats each class differently: 429 waits out RetryAfter,
// 5xx retries with backoff, other 4xx fails immediately.

// RateLimitError is a 429 from the webhook service.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string // optional
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError is a non-429 4xx: the payload or webhook URL is wrong and
// retrying will not help.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ServerError is a 5xx from the webhook service.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// is429Error extracts the RateLimitError from err, if there is one.
func is429Error(err error) (*RateLimitError, bool) {
	var rateLimitErr *RateLimitError
	ok := errors.As(err, &rateLimitErr)
	return rateLimitErr, ok
}

// isRetryableError reports whether the send should be retried. Server
// errors and unclassified failures (network, timeouts) are retryable.
// Client errors are not, and rate limits go through is429Error instead.
func isRetryableError(err error) bool {
	var (
		serverErr    *ServerError
		clientErr    *ClientError
		rateLimitErr *RateLimitError
	)
	switch {
	case errors.As(err, &serverErr):
		return true
	case errors.As(err, &clientErr), errors.As(err, &rateLimitErr):
		return false
	}
	return true
}

// truncateText caps text at maxLength, appending suffix when it had to cut.
func truncateText(text string, maxLength int, suffix string) string {
	if len(text) <= maxLength {
		return text
	}
	return text[:max(0, maxLength-len(suffix))] + suffix
}
