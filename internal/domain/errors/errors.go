package errors

import (
	"errors"
	"fmt"
)

var (
	// Order errors
	ErrOrderNotFound = errors.New("order not found")

	// Settings errors
	ErrSettingsNotFound = errors.New("delivery settings not found")

	// Integration errors
	ErrRetriesExhausted    = errors.New("retries exhausted")
	ErrChannelNotSupported = errors.New("no adapter supports this channel payload")
	ErrClientNotFound      = errors.New("external system client not found")
	ErrContractViolated    = errors.New("integration contract violated")
	ErrDeadLetterNotFound  = errors.New("dead letter not found")

	// Lock errors
	ErrLockNotAcquired = errors.New("reconciliation lock not acquired")
	ErrLockNotHeld     = errors.New("lock not held")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidInput     = errors.New("invalid input")
)

// DomainError wraps errors with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
