package session

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRevocations_RevokeAndPurge(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	s := NewMemoryRevocations()

	if revoked, err := s.IsRevoked(ctx, "t1"); err != nil || revoked {
		t.Fatalf("fresh store: revoked=%v err=%v", revoked, err)
	}

	if err := s.Revoke(ctx, "t1", now.Add(time.Minute)); err != nil {
		t.Fatalf("Revoke t1: %v", err)
	}
	if err := s.Revoke(ctx, "t2", now.Add(time.Hour)); err != nil {
		t.Fatalf("Revoke t2: %v", err)
	}

	if revoked, err := s.IsRevoked(ctx, "t1"); err != nil || !revoked {
		t.Fatalf("t1: revoked=%v err=%v", revoked, err)
	}

	// Purge before expiry must not remove a live entry.
	n, err := s.PurgeExpired(ctx, now)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if n != 0 {
		t.Fatalf("purged %d entries before expiry", n)
	}

	n, err = s.PurgeExpired(ctx, now.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("purged %d, want 1", n)
	}

	if revoked, _ := s.IsRevoked(ctx, "t1"); revoked {
		t.Fatalf("t1 should be purged")
	}
	if revoked, _ := s.IsRevoked(ctx, "t2"); !revoked {
		t.Fatalf("t2 must survive the purge")
	}
}

func TestSweeper_PurgesOnTick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewMemoryRevocations()
	if err := s.Revoke(ctx, "t1", time.Now().UTC().Add(-time.Second)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	sw := NewSweeper(nil, s, 10*time.Millisecond)
	go sw.Run(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if revoked, _ := s.IsRevoked(ctx, "t1"); !revoked {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("sweeper never purged the expired entry")
}
