package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// Every field-specific validation error below wraps it, so callers can
	// check errors.Is(err, ErrValidation) without enumerating them.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = fmt.Errorf("%w: invalid ID", ErrValidation)
)

// validationError creates a field-specific error wrapping ErrValidation.
func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
