package models

import (
	"errors"
	"fmt"
)

// Custom errors
var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidPeriodRange = errors.New("invalid period range")
	ErrInvalidSampleCount = errors.New("invalid sample count")
	ErrInvalidPosition    = errors.New("invalid position")
	ErrInvalidRoster      = errors.New("invalid roster")
)

// ValidationError reports input rejected before any computation runs
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return "validation failed: " + e.Field + ": " + e.Message
}

// Unwrap exposes the sentinel so callers can use errors.Is
func (e ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a validation error wrapping a sentinel
func NewValidationError(field, message string, err error) ValidationError {
	return ValidationError{Field: field, Message: message, Err: err}
}

// PlayerNotFound wraps ErrNotFound with the offending player id
func PlayerNotFound(playerID int) error {
	return fmt.Errorf("player %d: %w", playerID, ErrNotFound)
}

// ValidatePeriodRange rejects a range whose end precedes its start
func ValidatePeriodRange(from, to int) error {
	if to < from {
		return NewValidationError("period_to", fmt.Sprintf("period_to (%d) must be >= period_from (%d)", to, from), ErrInvalidPeriodRange)
	}
	if from < 1 {
		return NewValidationError("period_from", fmt.Sprintf("period_from must be positive, got %d", from), ErrInvalidPeriodRange)
	}
	return nil
}
