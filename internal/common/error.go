// Package common defines shared constants and sentinel errors used across
// the store, session and web layers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Credential errors.
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingInput       = errors.New("username and password are required")
	ErrorValidation       = errors.New("validation error")

	// Session cookie errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
