package proxy

import (
	"errors"
	"fmt"

	"github.com/aleister1102/faleproxy/internal/models"
)

// ErrMissingURL is returned when a request carries no URL.
var ErrMissingURL = errors.New(models.MissingURLMessage)

// UpstreamError covers every failure after validation: an unreachable or
// invalid URL, a non-2xx status, an oversized body or a document that could
// not be rewritten.
type UpstreamError struct {
	URL     string
	Stage   string
	Wrapped error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("failed to %s '%s': %v", e.Stage, e.URL, e.Wrapped)
}

func (e *UpstreamError) Unwrap() error {
	return e.Wrapped
}

// NewUpstreamError creates a new upstream error
func NewUpstreamError(url, stage string, wrapped error) *UpstreamError {
	return &UpstreamError{URL: url, Stage: stage, Wrapped: wrapped}
}
