// Package common holds the sentinel errors shared by the store, service and
// HTTP layers. Callers match them with errors.Is.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrValidation           = errors.New("validation error")
	ErrDuplicateEmail       = errors.New("duplicate email")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrMalformedID          = errors.New("malformed identifier")
	ErrInternal             = errors.New("internal error")

	// Token errors (bad signature, malformed payload, wrong intent, expired).
	ErrInvalidToken = errors.New("invalid token")
)

// ValidationError describes which input field was rejected and why.
// It matches ErrValidation under errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError is a shorthand for &ValidationError{Field: field, Reason: reason}.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
