package token

import "errors"

var (
	// ErrMalformed covers wrong segment counts and undecodable base64 or JSON.
	ErrMalformed = errors.New("malformed token")
	// ErrUnsupportedAlgorithm is returned when a header names an algorithm other
	// than the pinned one, or one this package cannot execute.
	ErrUnsupportedAlgorithm = errors.New("unsupported token algorithm")
	// ErrSignatureMismatch is returned when the recomputed MAC differs.
	ErrSignatureMismatch = errors.New("token signature mismatch")
	// ErrExpired is returned by Payload.Validate for payloads at or past expiry.
	ErrExpired = errors.New("token expired")
	// ErrEmptyKey is returned by NewKey for an empty secret.
	ErrEmptyKey = errors.New("empty signing key")
)
