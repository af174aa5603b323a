package identity

import (
	"context"
	"time"
)

// Account is keygate's canonical security principal.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Store is the account persistence boundary.
//
// Email uniqueness is enforced by the store: Create returns a ConflictError
// for a duplicate (normalized) email.
type Store interface {
	Create(ctx context.Context, a Account) error

	// GetByEmail looks up an account by normalized email.
	// Returns an ErrNotFound-kinded error when absent.
	GetByEmail(ctx context.Context, email string) (Account, error)

	// GetByID looks up an account by id.
	GetByID(ctx context.Context, id string) (Account, error)

	// UpdatePassword replaces the stored credential hash.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// Delete removes the account. Session cascade is the caller's job.
	Delete(ctx context.Context, id string) error
}
