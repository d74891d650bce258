// Package domain contains the core business entities for Monedero.
package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// Identity Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateEmail indicates a user with the same email already exists.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials indicates authentication failed. It is returned for
	// unknown emails and wrong secrets alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized indicates the caller is not authenticated, or the
	// authenticated identity no longer exists.
	ErrUnauthorized = errors.New("unauthorized")

	// ===========================================
	// Resource Errors
	// ===========================================

	// ErrNotFound indicates the resource does not exist or is not owned by the caller.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates malformed or missing input.
	// Concrete failures are reported as *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError carries per-field validation messages.
type ValidationError struct {
	Fields map[string]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

// Is reports ErrValidation as the sentinel for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}
