package identity

import "errors"

// Sentinel error kinds (stable for errors.Is and for mapping to API status codes).
var (
	ErrInvalidInput = errors.New("invalid_input")
	ErrNotFound     = errors.New("not_found")
	ErrConflict     = errors.New("conflict")

	// ErrInvalidCredentials is the uniform login failure: unknown email and
	// wrong password are indistinguishable to avoid leaking account existence.
	ErrInvalidCredentials = errors.New("invalid_credentials")
)
