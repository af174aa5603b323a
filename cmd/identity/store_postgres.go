package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using PostgreSQL (keygate.accounts).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed account store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("identity: nil db pool")
	}
	return &PostgresStore{pool: pool}, nil
}

// Create inserts an account; the unique index on email_norm enforces
// uniqueness.
func (s *PostgresStore) Create(ctx context.Context, a Account) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO keygate.accounts (id, email, email_norm, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, a.ID, a.Email, NormalizeEmail(a.Email), a.PasswordHash, a.CreatedAt)
	if isUniqueViolation(err) {
		return ConflictError{Op: "identity.Create", Field: "email"}
	}
	return err
}

// GetByEmail looks up an account by normalized email.
func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (Account, error) {
	var a Account
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at
		FROM keygate.accounts
		WHERE email_norm = $1
	`, NormalizeEmail(email)).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, OpError{Op: "identity.GetByEmail", Kind: ErrNotFound}
	}
	if err != nil {
		return Account{}, err
	}
	return a, nil
}

// GetByID looks up an account by id.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (Account, error) {
	var a Account
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at
		FROM keygate.accounts
		WHERE id = $1
	`, id).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, OpError{Op: "identity.GetByID", Kind: ErrNotFound}
	}
	if err != nil {
		return Account{}, err
	}
	return a, nil
}

// UpdatePassword replaces the stored credential hash.
func (s *PostgresStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE keygate.accounts
		SET password_hash = $2
		WHERE id = $1
	`, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return OpError{Op: "identity.UpdatePassword", Kind: ErrNotFound}
	}
	return nil
}

// Delete removes the account.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM keygate.accounts
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return OpError{Op: "identity.Delete", Kind: ErrNotFound}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
