package identity

import (
	"context"
	"errors"
	"time"

	"keygate/cmd/identity/ids"
)

// Service implements account lifecycle on top of a Store.
type Service struct {
	store  Store
	params Argon2idParams

	// dummyHash is verified against when the email is unknown so login
	// latency does not reveal account existence.
	dummyHash string
}

// NewService constructs an identity service. Hashing parameters are fixed at
// construction time.
func NewService(store Store, params Argon2idParams) (*Service, error) {
	if store == nil {
		return nil, errors.New("identity: nil store")
	}
	dummy, err := HashPassword("keygate-dummy-credential", params)
	if err != nil {
		return nil, err
	}
	return &Service{store: store, params: params, dummyHash: dummy}, nil
}

// Register validates and creates a new account.
//
// Returns an ErrInvalidInput-kinded error for a malformed email or weak
// password, and a ConflictError when the email is already taken.
func (s *Service) Register(ctx context.Context, email, password string) (Account, error) {
	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return Account{}, OpError{Op: "identity.Register", Kind: ErrInvalidInput, Msg: "invalid email"}
	}
	if !ValidPassword(password) {
		return Account{}, OpError{Op: "identity.Register", Kind: ErrInvalidInput, Msg: "password does not meet policy"}
	}

	hash, err := HashPassword(password, s.params)
	if err != nil {
		return Account{}, err
	}

	now := time.Now().UTC()
	id, err := ids.NewULID(now)
	if err != nil {
		return Account{}, err
	}

	a := Account{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
	}
	if err := s.store.Create(ctx, a); err != nil {
		return Account{}, err
	}
	return a, nil
}

// VerifyCredentials checks an email/password pair and returns the account.
//
// Unknown email and wrong password both collapse to an
// ErrInvalidCredentials-kinded error. A dummy hash is verified on the
// unknown-email path for timing resistance.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (Account, error) {
	a, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if IsNotFound(err) {
			_, _ = VerifyPassword(password, s.dummyHash)
			return Account{}, OpError{Op: "identity.VerifyCredentials", Kind: ErrInvalidCredentials}
		}
		return Account{}, err
	}

	ok, err := VerifyPassword(password, a.PasswordHash)
	if err != nil || !ok {
		return Account{}, OpError{Op: "identity.VerifyCredentials", Kind: ErrInvalidCredentials}
	}
	return a, nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *Service) ChangePassword(ctx context.Context, id, current, next string) error {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	ok, err := VerifyPassword(current, a.PasswordHash)
	if err != nil || !ok {
		return OpError{Op: "identity.ChangePassword", Kind: ErrInvalidCredentials}
	}
	if !ValidPassword(next) {
		return OpError{Op: "identity.ChangePassword", Kind: ErrInvalidInput, Msg: "password does not meet policy"}
	}

	hash, err := HashPassword(next, s.params)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, id, hash)
}

// Delete removes the account. Callers authenticate the request; session
// cascade is the caller's job.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
