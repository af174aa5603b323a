package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRegistry implements Registry using PostgreSQL (keygate.device_sessions).
//
// Rotation safety relies on a single conditional UPDATE keyed on the current
// refresh-token id, so no explicit row lock or transaction is needed: the
// database serializes concurrent rotations and exactly one observes a matching
// id.
type PostgresRegistry struct {
	pool *pgxpool.Pool
}

// NewPostgresRegistry creates a Postgres-backed session registry.
func NewPostgresRegistry(pool *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{pool: pool}
}

// CreateOrReplace upserts the session row for (user_id, device_id).
func (r *PostgresRegistry) CreateOrReplace(ctx context.Context, s Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO keygate.device_sessions (
			user_id, device_id, refresh_token_id, refresh_expires_at,
			created_at, last_rotated_at, revoked_at
		) VALUES ($1, $2, $3, $4, $5, NULL, NULL)
		ON CONFLICT (user_id, device_id) DO UPDATE SET
			refresh_token_id   = EXCLUDED.refresh_token_id,
			refresh_expires_at = EXCLUDED.refresh_expires_at,
			created_at         = EXCLUDED.created_at,
			last_rotated_at    = NULL,
			revoked_at         = NULL
	`, s.UserID, s.DeviceID, s.RefreshTokenID, s.RefreshExpiresAt, s.CreatedAt)
	return err
}

// Get loads a session row by (user_id, device_id).
func (r *PostgresRegistry) Get(ctx context.Context, userID, deviceID string) (Session, error) {
	var s Session

	err := r.pool.QueryRow(ctx, `
		SELECT
			user_id, device_id, refresh_token_id, refresh_expires_at,
			created_at, last_rotated_at, revoked_at
		FROM keygate.device_sessions
		WHERE user_id = $1 AND device_id = $2
	`, userID, deviceID).Scan(
		&s.UserID,
		&s.DeviceID,
		&s.RefreshTokenID,
		&s.RefreshExpiresAt,
		&s.CreatedAt,
		&s.LastRotatedAt,
		&s.RevokedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, err
	}

	return s, nil
}

// Rotate swaps the refresh-token id iff oldRefreshID is still current.
func (r *PostgresRegistry) Rotate(ctx context.Context, now time.Time, userID, deviceID, oldRefreshID, newRefreshID string, newExpiresAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE keygate.device_sessions
		SET
			refresh_token_id   = $5,
			refresh_expires_at = $6,
			last_rotated_at    = $3
		WHERE user_id = $1 AND device_id = $2
		  AND refresh_token_id = $4
		  AND revoked_at IS NULL
	`, userID, deviceID, now, oldRefreshID, newRefreshID, newExpiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Compare failed. Re-read to report the precise kind for logging.
	s, err := r.Get(ctx, userID, deviceID)
	if err != nil {
		return err
	}
	if s.Revoked() {
		return ErrSessionRevoked
	}
	return ErrTokenReuseDetected
}

// Revoke revokes a single session (idempotent).
func (r *PostgresRegistry) Revoke(ctx context.Context, now time.Time, userID, deviceID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE keygate.device_sessions
		SET revoked_at = COALESCE(revoked_at, $3)
		WHERE user_id = $1 AND device_id = $2
	`, userID, deviceID, now)
	return err
}

// RevokeAllForUser revokes all sessions for a user (idempotent).
func (r *PostgresRegistry) RevokeAllForUser(ctx context.Context, now time.Time, userID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE keygate.device_sessions
		SET revoked_at = COALESCE(revoked_at, $2)
		WHERE user_id = $1
	`, userID, now)
	return err
}

// DeleteAllForUser removes all sessions for a user.
func (r *PostgresRegistry) DeleteAllForUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM keygate.device_sessions
		WHERE user_id = $1
	`, userID)
	return err
}
