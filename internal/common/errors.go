// Package common contains shared constants and sentinel errors used across
// finledger components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Validation errors. Wrap with fmt.Errorf("%w: detail", ErrorValidation)
	// so the boundary can both classify the error and report the field at fault.
	ErrorValidation = errors.New("validation error")

	// Throttling.
	ErrorRateLimited = errors.New("rate limit exceeded")

	// Auth errors. A single sentinel for every token verification failure:
	// callers must not learn whether the signature or the expiry was at fault.
	ErrInvalidToken = errors.New("invalid or expired token")
)
