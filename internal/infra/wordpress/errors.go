package wordpress

import "fmt"

// ClientError represents a 4xx response from the WordPress API.
// These are final: the request was understood and rejected, so the caller
// must not retry it.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ServerError represents a 5xx response from the WordPress API.
// The publish calls are not idempotent, so even these are surfaced to the
// caller instead of being retried.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// statusError classifies a non-2xx WordPress response.
func statusError(statusCode int, body []byte) error {
	if statusCode >= 400 && statusCode < 500 {
		return &ClientError{
			StatusCode: statusCode,
			Message:    fmt.Sprintf("wordpress api client error (status %d): %s", statusCode, string(body)),
		}
	}
	if statusCode >= 500 {
		return &ServerError{
			StatusCode: statusCode,
			Message:    fmt.Sprintf("wordpress api server error (status %d): %s", statusCode, string(body)),
		}
	}
	return fmt.Errorf("unexpected status code %d: %s", statusCode, string(body))
}
