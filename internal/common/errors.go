// Package common defines shared constants and sentinel errors used across
// the shortener server, its repositories and its admin CLI. Callers should
// use errors.Is to match these values.
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

	// Validation errors for user supplied input.
	ErrorValidation = errors.New("validation error")
)
