package session

import (
	"context"
	"sync"
	"time"
)

// MemoryRegistry is an in-memory Registry used in dev mode and tests.
//
// The map mutex is held only for key lookup/insertion; session state is
// guarded per entry, so operations on distinct (user, device) keys do not
// serialize against each other.
type MemoryRegistry struct {
	mu       sync.RWMutex
	sessions map[sessionKey]*memSession
}

type sessionKey struct {
	userID   string
	deviceID string
}

type memSession struct {
	mu sync.Mutex
	s  Session
}

// NewMemoryRegistry constructs an empty in-memory Registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{sessions: make(map[sessionKey]*memSession)}
}

func (r *MemoryRegistry) entry(userID, deviceID string) (*memSession, bool) {
	r.mu.RLock()
	e, ok := r.sessions[sessionKey{userID, deviceID}]
	r.mu.RUnlock()
	return e, ok
}

// CreateOrReplace installs a new session, discarding any prior one for the key.
func (r *MemoryRegistry) CreateOrReplace(ctx context.Context, s Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k := sessionKey{s.UserID, s.DeviceID}

	r.mu.Lock()
	e, ok := r.sessions[k]
	if !ok {
		r.sessions[k] = &memSession{s: s}
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	e.mu.Lock()
	e.s = s
	e.mu.Unlock()
	return nil
}

// Get loads the session for a key.
func (r *MemoryRegistry) Get(ctx context.Context, userID, deviceID string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}

	e, ok := r.entry(userID, deviceID)
	if !ok {
		return Session{}, ErrSessionNotFound
	}

	e.mu.Lock()
	s := e.s
	e.mu.Unlock()
	return s, nil
}

// Rotate performs the compare-and-swap on the current refresh-token id.
func (r *MemoryRegistry) Rotate(ctx context.Context, now time.Time, userID, deviceID, oldRefreshID, newRefreshID string, newExpiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e, ok := r.entry(userID, deviceID)
	if !ok {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.s.RevokedAt != nil {
		return ErrSessionRevoked
	}
	if e.s.RefreshTokenID != oldRefreshID {
		return ErrTokenReuseDetected
	}

	rotated := now
	e.s.RefreshTokenID = newRefreshID
	e.s.RefreshExpiresAt = newExpiresAt
	e.s.LastRotatedAt = &rotated
	return nil
}

// Revoke marks a single session revoked (idempotent).
func (r *MemoryRegistry) Revoke(ctx context.Context, now time.Time, userID, deviceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e, ok := r.entry(userID, deviceID)
	if !ok {
		return nil
	}

	e.mu.Lock()
	if e.s.RevokedAt == nil {
		at := now
		e.s.RevokedAt = &at
	}
	e.mu.Unlock()
	return nil
}

// RevokeAllForUser revokes every session of a user across devices (idempotent).
func (r *MemoryRegistry) RevokeAllForUser(ctx context.Context, now time.Time, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.RLock()
	entries := make([]*memSession, 0, 4)
	for k, e := range r.sessions {
		if k.userID == userID {
			entries = append(entries, e)
		}
	}
	r.mu.RUnlock()

	for _, e := range entries {
		e.mu.Lock()
		if e.s.RevokedAt == nil {
			at := now
			e.s.RevokedAt = &at
		}
		e.mu.Unlock()
	}
	return nil
}

// DeleteAllForUser removes every session of a user.
func (r *MemoryRegistry) DeleteAllForUser(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	for k := range r.sessions {
		if k.userID == userID {
			delete(r.sessions, k)
		}
	}
	r.mu.Unlock()
	return nil
}
