package identity

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used in dev mode and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]Account
	byEmail map[string]string // normalized email -> id
}

// NewMemoryStore constructs an empty in-memory account store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]Account),
		byEmail: make(map[string]string),
	}
}

// Create inserts an account, enforcing email uniqueness.
func (s *MemoryStore) Create(ctx context.Context, a Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	norm := NormalizeEmail(a.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[norm]; ok {
		return ConflictError{Op: "identity.Create", Field: "email"}
	}
	s.byID[a.ID] = a
	s.byEmail[norm] = a.ID
	return nil
}

// GetByEmail looks up an account by normalized email.
func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return Account{}, OpError{Op: "identity.GetByEmail", Kind: ErrNotFound}
	}
	return s.byID[id], nil
}

// GetByID looks up an account by id.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok {
		return Account{}, OpError{Op: "identity.GetByID", Kind: ErrNotFound}
	}
	return a, nil
}

// UpdatePassword replaces the stored credential hash.
func (s *MemoryStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return OpError{Op: "identity.UpdatePassword", Kind: ErrNotFound}
	}
	a.PasswordHash = passwordHash
	s.byID[id] = a
	return nil
}

// Delete removes the account.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return OpError{Op: "identity.Delete", Kind: ErrNotFound}
	}
	delete(s.byID, id)
	delete(s.byEmail, NormalizeEmail(a.Email))
	return nil
}
