package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RevocationStore records access-token ids invalidated before their natural
// expiry (logout, account deletion).
//
// Entries are safe to purge once past the token's own expiry: an expired token
// is rejected by the expiry check regardless.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)

	// PurgeExpired removes entries whose expiry is at or before now and
	// returns how many were removed. It must never remove a live entry.
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}

// MemoryRevocations is an in-memory RevocationStore used in dev mode and tests.
type MemoryRevocations struct {
	mu      sync.RWMutex
	entries map[string]time.Time // token id -> expiry
}

// NewMemoryRevocations constructs an empty in-memory RevocationStore.
func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{entries: make(map[string]time.Time)}
}

// Revoke records a token id until expiresAt.
func (s *MemoryRevocations) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.entries[tokenID] = expiresAt
	s.mu.Unlock()
	return nil
}

// IsRevoked reports whether tokenID has been revoked.
func (s *MemoryRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	_, ok := s.entries[tokenID]
	s.mu.RUnlock()
	return ok, nil
}

// PurgeExpired drops entries past their token's natural expiry.
func (s *MemoryRevocations) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, exp := range s.entries {
		if !exp.After(now) {
			delete(s.entries, id)
			n++
		}
	}
	return n, nil
}

// Sweeper periodically purges expired revocation entries in the background,
// independent of request handling.
type Sweeper struct {
	log      *slog.Logger
	store    RevocationStore
	interval time.Duration
}

// NewSweeper constructs a Sweeper over the given store.
func NewSweeper(log *slog.Logger, store RevocationStore, interval time.Duration) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{log: log, store: store, interval: interval}
}

// Run blocks until ctx is cancelled, purging on every tick.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := s.store.PurgeExpired(ctx, now.UTC())
			if err != nil {
				if ctx.Err() == nil {
					s.log.Error("revocation.sweep.fail", "err", err)
				}
				continue
			}
			if n > 0 {
				s.log.Debug("revocation.sweep", "purged", n)
			}
		}
	}
}
