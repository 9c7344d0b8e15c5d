package models

import (
	"errors"

	"github.com/aleister1102/faleproxy/internal/common/errorwrapper"
	"github.com/go-playground/validator/v10"
)

// MissingURLMessage is the error text returned when a request carries no URL.
const MissingURLMessage = "URL is required"

var requestValidator = validator.New()

// FetchRequest is the body of POST /fetch.
type FetchRequest struct {
	URL string `json:"url" validate:"required"`
}

// Validate reports a *errorwrapper.ValidationError when URL is missing or empty.
func (r FetchRequest) Validate() error {
	err := requestValidator.Struct(r)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 && errs[0].Field() == "URL" {
		return errorwrapper.NewValidationError("url", r.URL, MissingURLMessage)
	}
	return errorwrapper.WrapError(err, "invalid fetch request")
}

// FetchResponse is returned by POST /fetch on success.
type FetchResponse struct {
	Success     bool   `json:"success"`
	Content     string `json:"content"`
	Title       string `json:"title"`
	OriginalURL string `json:"originalUrl"`
}

// ErrorResponse is returned by every endpoint on failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

var _ Validator = FetchRequest{}
