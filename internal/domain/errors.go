package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)

// NewValidationError builds a field-level validation error wrapping the
// given sentinel, so callers can match it with errors.Is.
func NewValidationError(field, message string, sentinel error) error {
	return fmt.Errorf("%s %s: %w", field, message, sentinel)
}
