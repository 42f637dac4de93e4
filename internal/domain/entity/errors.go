package entity

import (
	"errors"
	"fmt"
)

// Domain sentinel errors. Handlers map these onto HTTP status codes.
var (
	ErrNotFound         = errors.New("entity not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError carries the failing field alongside the message so API
// responses can point at the exact input that was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}
