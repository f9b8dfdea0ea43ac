package lock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryExclusive(t *testing.T) {
	m := NewMemory(nil)
	ctx := context.Background()

	release, err := m.Acquire(ctx, HandoffKey("doc-1"), time.Minute)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := m.Acquire(ctx, HandoffKey("doc-1"), time.Minute); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}
	if _, err := m.Acquire(ctx, HandoffKey("doc-2"), time.Minute); err != nil {
		t.Fatalf("other key should be free: %v", err)
	}

	if err := release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := m.Acquire(ctx, HandoffKey("doc-1"), time.Minute); err != nil {
		t.Fatalf("expected reacquire after release: %v", err)
	}
}

func TestMemoryExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(func() time.Time { return now })
	ctx := context.Background()

	stale, err := m.Acquire(ctx, SweepKey, time.Minute)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := m.Acquire(ctx, SweepKey, time.Minute); err != nil {
		t.Fatalf("expected expired lock to be reacquired: %v", err)
	}

	// A stale release must not free the new holder's lock.
	_ = stale(ctx)
	if _, err := m.Acquire(ctx, SweepKey, time.Minute); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected lock still held, got %v", err)
	}
}

func TestNopAlwaysGrants(t *testing.T) {
	var n Nop
	for i := 0; i < 2; i++ {
		if _, err := n.Acquire(context.Background(), SweepKey, time.Second); err != nil {
			t.Fatalf("Acquire: %v", err)
		}
	}
}

func TestConnectRedisRequiresURL(t *testing.T) {
	if _, err := ConnectRedis(context.Background(), ""); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := ConnectRedis(context.Background(), "not a url"); err == nil {
		t.Fatalf("expected parse error")
	}
}
