// Package service provides business logic services for Monedero.
package service

import "errors"

// Common service errors. Business rule violations are reported with the
// domain sentinels; these cover what the domain does not know about.
var (
	// Identity errors
	ErrTooManyAttempts = errors.New("too many failed login attempts, try again later")

	// Receipt errors
	ErrReceiptsDisabled = errors.New("receipt storage is not configured")
	ErrNoReceipt        = errors.New("record has no receipt")

	// General errors
	ErrInternalError = errors.New("internal server error")
)
