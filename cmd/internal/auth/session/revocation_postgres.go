package session

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRevocations implements RevocationStore using PostgreSQL
// (keygate.revoked_tokens).
type PostgresRevocations struct {
	pool *pgxpool.Pool
}

// NewPostgresRevocations creates a Postgres-backed revocation store.
func NewPostgresRevocations(pool *pgxpool.Pool) *PostgresRevocations {
	return &PostgresRevocations{pool: pool}
}

// Revoke records a token id until expiresAt (idempotent).
func (s *PostgresRevocations) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO keygate.revoked_tokens (token_id, expires_at, revoked_at)
		VALUES ($1, $2, now())
		ON CONFLICT (token_id) DO NOTHING
	`, tokenID, expiresAt)
	return err
}

// IsRevoked reports whether tokenID has been revoked.
func (s *PostgresRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM keygate.revoked_tokens WHERE token_id = $1
		)
	`, tokenID).Scan(&ok)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// PurgeExpired drops entries past their token's natural expiry.
func (s *PostgresRevocations) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM keygate.revoked_tokens
		WHERE expires_at <= $1
	`, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
