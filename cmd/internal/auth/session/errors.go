package session

import "errors"

var (
	// ErrTokenMalformed is returned when a token fails structural or signature checks.
	ErrTokenMalformed = errors.New("token malformed")

	// ErrTokenExpired is returned when a token is past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrDeviceMismatch is returned when the device id bound into a token does not
	// match the device id supplied with the request.
	ErrDeviceMismatch = errors.New("device mismatch")

	// ErrSessionNotFound is returned when no session exists for a (user, device) key.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionRevoked is returned when the session has been revoked (e.g. logout).
	ErrSessionRevoked = errors.New("session revoked")

	// ErrTokenReuseDetected is returned when a superseded refresh token is presented
	// again, or when a concurrent rotation already consumed the token.
	ErrTokenReuseDetected = errors.New("refresh token reuse detected")

	// ErrTokenRevoked is returned when an access token id is present in the
	// revocation store.
	ErrTokenRevoked = errors.New("token revoked")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)

// IsAuthFailure reports whether err is one of the authentication/authorization
// failure kinds that collapse to 401 externally. The kind itself is for
// logging only.
func IsAuthFailure(err error) bool {
	switch {
	case errors.Is(err, ErrTokenMalformed),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrDeviceMismatch),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrSessionRevoked),
		errors.Is(err, ErrTokenReuseDetected),
		errors.Is(err, ErrTokenRevoked):
		return true
	}
	return false
}
