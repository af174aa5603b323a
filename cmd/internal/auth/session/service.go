package session

import (
	"context"
	"strings"
	"time"
)

// Service implements the high-level session operations for keygate.
//
// It issues device-bound token pairs, validates access tokens for protected
// requests, performs refresh rotation with reuse detection, and handles
// logout-time and account-deletion revocation.
type Service struct {
	cfg      Config
	tokens   TokenIssuer
	registry Registry
	revoked  RevocationStore
}

// NewService constructs a Service with the provided configuration and stores.
func NewService(cfg Config, tokens TokenIssuer, registry Registry, revoked RevocationStore) *Service {
	return &Service{cfg: cfg, tokens: tokens, registry: registry, revoked: revoked}
}

// IssueSession mints a fresh token pair for (userID, deviceID) and installs
// the session, replacing any prior session for the same device. The prior
// refresh token becomes unusable immediately.
func (s *Service) IssueSession(ctx context.Context, now time.Time, userID, deviceID string) (TokenPair, error) {
	pair, err := s.tokens.Issue(userID, deviceID, now)
	if err != nil {
		return TokenPair{}, err
	}

	err = s.registry.CreateOrReplace(ctx, Session{
		UserID:           userID,
		DeviceID:         deviceID,
		RefreshTokenID:   pair.Refresh.ID,
		RefreshExpiresAt: pair.Refresh.ExpiresAt,
		CreatedAt:        now,
	})
	if err != nil {
		return TokenPair{}, err
	}

	return pair, nil
}

// Authenticate decides authorize/deny for a protected-resource call.
//
// Checks in order: structural/signature validity, expiry, device binding,
// revocation. All failure kinds collapse to 401 externally; the kind is for
// logging only.
func (s *Service) Authenticate(ctx context.Context, now time.Time, accessToken, deviceID string) (Claims, error) {
	claims, err := s.tokens.Verify(accessToken, KindAccess, now)
	if err != nil {
		return Claims{}, err
	}

	if claims.DeviceID != strings.TrimSpace(deviceID) {
		return Claims{}, ErrDeviceMismatch
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return Claims{}, err
	}
	if revoked {
		return Claims{}, ErrTokenRevoked
	}

	return claims, nil
}

// Refresh validates a presented refresh token and atomically replaces it with
// a freshly issued pair.
//
// The device binding is checked before any registry state: the client's device
// id is untrusted input and must match what was bound at issuance. A lost
// rotation race surfaces as ErrTokenReuseDetected; rotation is not idempotent
// and is never retried silently.
func (s *Service) Refresh(ctx context.Context, now time.Time, refreshToken, deviceID string) (TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken, KindRefresh, now)
	if err != nil {
		return TokenPair{}, err
	}

	if claims.DeviceID != strings.TrimSpace(deviceID) {
		return TokenPair{}, ErrDeviceMismatch
	}

	sess, err := s.registry.Get(ctx, claims.UserID, claims.DeviceID)
	if err != nil {
		return TokenPair{}, err
	}

	switch {
	case sess.Expired(now):
		return TokenPair{}, ErrTokenExpired
	case sess.Revoked():
		return TokenPair{}, ErrSessionRevoked
	case sess.RefreshTokenID != claims.TokenID:
		return TokenPair{}, ErrTokenReuseDetected
	}

	pair, err := s.tokens.Issue(claims.UserID, claims.DeviceID, now)
	if err != nil {
		return TokenPair{}, err
	}

	// CAS against the presented id: the registry serializes concurrent
	// rotations, so a loser here lost the race to another refresh call.
	err = s.registry.Rotate(ctx, now, claims.UserID, claims.DeviceID, claims.TokenID, pair.Refresh.ID, pair.Refresh.ExpiresAt)
	if err != nil {
		return TokenPair{}, err
	}

	return pair, nil
}

// Logout revokes the access token used to authenticate the call and the
// session's refresh token, so that neither outlives the logout.
func (s *Service) Logout(ctx context.Context, now time.Time, claims Claims) error {
	if err := s.revoked.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return err
	}
	return s.registry.Revoke(ctx, now, claims.UserID, claims.DeviceID)
}

// DeleteUserSessions revokes the presented access token and removes every
// session of the user (account deletion cascade).
func (s *Service) DeleteUserSessions(ctx context.Context, now time.Time, claims Claims) error {
	if err := s.revoked.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return err
	}
	return s.registry.DeleteAllForUser(ctx, claims.UserID)
}
