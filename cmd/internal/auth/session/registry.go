package session

import (
	"context"
	"time"
)

// Session mirrors the device_sessions row used by the session subsystem.
// Keyed by (UserID, DeviceID); at most one live session per key.
type Session struct {
	UserID   string
	DeviceID string

	// RefreshTokenID is the id of the currently valid refresh token.
	// Superseded ids are dead the moment rotation commits.
	RefreshTokenID   string
	RefreshExpiresAt time.Time

	CreatedAt     time.Time
	LastRotatedAt *time.Time
	RevokedAt     *time.Time
}

// Revoked reports whether the session has been explicitly revoked.
func (s Session) Revoked() bool { return s.RevokedAt != nil }

// Expired reports whether the session's refresh token is past expiry at now.
func (s Session) Expired(now time.Time) bool { return !s.RefreshExpiresAt.After(now) }

// Registry abstracts persistence for per-device session state.
//
// Implementations must ensure rotation safety: Rotate is a conditional update
// on the current refresh-token id, and of two concurrent calls with the same
// oldRefreshID exactly one may succeed. Operations on distinct (user, device)
// keys must never block each other.
type Registry interface {
	// CreateOrReplace installs a new session for (UserID, DeviceID), discarding
	// any prior session for that key. The prior refresh token becomes unusable.
	CreateOrReplace(ctx context.Context, s Session) error

	// Get loads the session for a (user, device) key.
	// Returns ErrSessionNotFound when no session exists.
	Get(ctx context.Context, userID, deviceID string) (Session, error)

	// Rotate atomically replaces the current refresh-token id, succeeding only
	// if oldRefreshID still matches. Returns ErrTokenReuseDetected on a
	// compare failure (already rotated or superseded), ErrSessionRevoked when
	// the session was revoked, ErrSessionNotFound when the key is absent.
	Rotate(ctx context.Context, now time.Time, userID, deviceID, oldRefreshID, newRefreshID string, newExpiresAt time.Time) error

	// Revoke marks the session revoked; its refresh token becomes permanently
	// unusable. Idempotent.
	Revoke(ctx context.Context, now time.Time, userID, deviceID string) error

	// RevokeAllForUser revokes every session of a user across devices. Idempotent.
	RevokeAllForUser(ctx context.Context, now time.Time, userID string) error

	// DeleteAllForUser removes every session of a user (account deletion cascade).
	DeleteAllForUser(ctx context.Context, userID string) error
}
