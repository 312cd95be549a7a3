package domain

import "errors"

// Sentinel errors for OTP outcome discrimination.
// The service wraps these so handlers can map each kind to a status code and message.
var (
	ErrNotFound = errors.New("not found")

	ErrInvalidInput     = errors.New("invalid input")
	ErrIdentityNotFound = errors.New("identity not found")
	ErrNoCodePending    = errors.New("no code pending")
	ErrCodeExpired      = errors.New("code expired")
	ErrCodeMismatch     = errors.New("code mismatch")
	ErrDeliveryFailed   = errors.New("delivery failed")
)
