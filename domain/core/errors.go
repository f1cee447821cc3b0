package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound       = errors.New("resource not found")
	ErrChartNotFound  = fmt.Errorf("%w: chart", ErrNotFound)
	ErrLimitsNotFound = fmt.Errorf("%w: spc limits", ErrNotFound)

	// Validation errors
	ErrInvalidFilter = errors.New("invalid filter")
	ErrUnknownAxis   = errors.New("unknown axis")
	ErrUnknownView   = errors.New("unknown chart view")
	ErrMissingField  = errors.New("missing field name")

	// Request ordering
	ErrSuperseded = errors.New("request superseded by a newer request")
)

// NewNotFoundError builds a not-found error for a resource id
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// NewValidationError builds a field-level validation error
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidFilter, field, reason)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidFilter) ||
		errors.Is(err, ErrUnknownAxis) ||
		errors.Is(err, ErrUnknownView) ||
		errors.Is(err, ErrMissingField)
}

// IsSuperseded reports whether a load lost the race to a newer request
func IsSuperseded(err error) bool {
	return errors.Is(err, ErrSuperseded)
}
