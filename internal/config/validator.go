package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validator is the interface for validating configuration.
type Validator interface {
	Validate() error
}

// ValidationError represents a single validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MultiValidationError represents multiple validation errors.
type MultiValidationError struct {
	Errors []ValidationError
}

// Error implements the error interface.
func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("validation failed with %d errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		builder.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return builder.String()
}

var logLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate validates Config.
func (c *Config) Validate() error {
	var errors []ValidationError

	if msg := validateEndpoint(c.Travis.Endpoint); msg != "" {
		errors = append(errors, ValidationError{
			Field:   "travis.endpoint",
			Message: msg,
		})
	}

	if c.Travis.APIVersion == "" {
		errors = append(errors, ValidationError{
			Field:   "travis.api_version",
			Message: "api version is required",
		})
	}

	if c.Travis.Timeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "travis.timeout",
			Message: "timeout must be positive",
		})
	}

	if c.OutputDir == "" {
		errors = append(errors, ValidationError{
			Field:   "output_dir",
			Message: "output directory is required",
		})
	}

	if !logLevels[c.LogLevel] {
		errors = append(errors, ValidationError{
			Field:   "log_level",
			Message: fmt.Sprintf("unknown log level %q (use trace, debug, info, warn or error)", c.LogLevel),
		})
	}

	if len(errors) > 0 {
		return &MultiValidationError{Errors: errors}
	}
	return nil
}

func validateEndpoint(endpoint string) string {
	if endpoint == "" {
		return "endpoint is required"
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Sprintf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "endpoint must use http or https"
	}
	if u.Host == "" {
		return "endpoint must include a host"
	}
	return ""
}
