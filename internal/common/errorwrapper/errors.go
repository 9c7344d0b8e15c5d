package errorwrapper

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels callers match with errors.Is.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrNetworkFailure       = errors.New("network failure")
	ErrUpstreamStatus       = errors.New("unexpected upstream status")
	ErrContentTooLarge      = errors.New("content too large")
)

// WrapError prefixes err with message, keeping it in the chain.
func WrapError(err error, message string) error {
	if err == nil {
		return fmt.Errorf("%s: <nil>", message)
	}
	return fmt.Errorf("%s: %w", message, err)
}

// NewError creates a new error with a formatted message
func NewError(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// ValidationError reports a bad value for a named field. It matches ErrInvalidInput.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// NetworkError means the upstream could not be reached or the exchange broke
// off. It matches ErrNetworkFailure and unwraps to the transport error.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("cannot reach '%s': %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetworkFailure
}

// NewNetworkError creates a new network error
func NewNetworkError(url string, err error) *NetworkError {
	return &NetworkError{URL: url, Err: err}
}

// StatusError means the upstream answered outside 2xx. It matches ErrUpstreamStatus.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream '%s' returned %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) Unwrap() error {
	return ErrUpstreamStatus
}

// NewStatusError creates a new status error
func NewStatusError(url string, statusCode int) *StatusError {
	return &StatusError{URL: url, StatusCode: statusCode}
}
