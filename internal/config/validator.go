package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/aleister1102/faleproxy/internal/common/errorwrapper"
	"github.com/aleister1102/faleproxy/internal/urlhandler"
	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator with the config-specific rules registered.
func NewValidator() *validator.Validate {
	validate := validator.New()

	_ = validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "trace", "debug", "info", "warn", "error", "fatal", "panic":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("logformat", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "console", "text", "json":
			return true
		default:
			return false
		}
	})

	// host:port where host may be empty (":3001")
	_ = validate.RegisterValidation("listenaddr", func(fl validator.FieldLevel) bool {
		_, port, err := net.SplitHostPort(fl.Field().String())
		return err == nil && port != ""
	})

	_ = validate.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
		return urlhandler.ValidateURLFormat(fl.Field().String()) == nil
	})

	return validate
}

// ValidateConfig performs validation on the GlobalConfig structure.
func ValidateConfig(cfg *GlobalConfig) error {
	if cfg == nil {
		return errorwrapper.WrapError(errorwrapper.ErrInvalidConfiguration, "config is nil")
	}

	err := NewValidator().Struct(cfg)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("%w: %v", errorwrapper.ErrInvalidConfiguration, err)
	}

	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		// drop the leading "GlobalConfig."
		fieldName := strings.TrimPrefix(e.StructNamespace(), "GlobalConfig.")
		msg := fmt.Sprintf("Validation failed for '%s': rule '%s'", fieldName, e.Tag())
		if e.Param() != "" {
			msg += fmt.Sprintf(" (expected: %s)", e.Param())
		}
		if e.Value() != nil && e.Value() != "" {
			msg += fmt.Sprintf(", actual: '%v'", e.Value())
		}
		messages = append(messages, msg)
	}
	return fmt.Errorf("%w:\n  %s", errorwrapper.ErrInvalidConfiguration, strings.Join(messages, "\n  "))
}
