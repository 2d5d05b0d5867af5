package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a single configuration validation error.
type ValidationError struct {
	// Path is the field path to the invalid value, e.g. "smtp.port".
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates a BrokerConfig.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the configuration and returns any errors found.
func (v *Validator) Validate(cfg *BrokerConfig) ValidationErrors {
	v.errors = nil

	if cfg.ListenAddr == "" {
		v.addError("listen_addr", "listen_addr is required")
	}
	if cfg.ConfirmTimeout <= 0 {
		v.addError("confirm_timeout", "confirm_timeout must be positive")
	}
	if cfg.KeepAliveInterval <= 0 {
		v.addError("keep_alive_interval", "keep_alive_interval must be positive")
	}
	if cfg.KeepAliveTimeout <= 0 {
		v.addError("keep_alive_timeout", "keep_alive_timeout must be positive")
	}
	if cfg.MaxJobFailures < 0 {
		v.addError("max_job_failures", "max_job_failures must be non-negative")
	}
	if cfg.PreviouslyConfirmedCapacity <= 0 {
		v.addError("previously_confirmed_capacity", "previously_confirmed_capacity must be positive")
	}
	if cfg.SMTP.Host == "" {
		v.addError("smtp.host", "smtp.host is required")
	}
	if cfg.SMTP.Port <= 0 || cfg.SMTP.Port > 65535 {
		v.addError("smtp.port", "smtp.port must be between 1 and 65535")
	}
	if cfg.SMTP.From == "" {
		v.addError("smtp.from", "smtp.from is required")
	}

	return v.errors
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}
