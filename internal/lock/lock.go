package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotAcquired is returned when another holder owns the key.
var ErrNotAcquired = errors.New("lock not acquired")

// Release gives up a held lock. It is safe to call after the TTL expired.
type Release func(ctx context.Context) error

// Locker grants exclusive, expiring ownership of a key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error)
}

// HandoffKey is the lock key guarding one document's handoff.
func HandoffKey(documentID string) string { return "handoff:" + documentID }

// SweepKey is the lock key guarding the cleanup sweep.
const SweepKey = "sweep:global"

// Memory is a process-local Locker.
type Memory struct {
	mu   sync.Mutex
	held map[string]memoryHold
	now  func() time.Time
	seq  uint64
}

type memoryHold struct {
	token   uint64
	expires time.Time
}

// NewMemory constructs a Memory locker. A nil now uses time.Now.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{held: make(map[string]memoryHold), now: now}
}

// Acquire implements Locker.
func (m *Memory) Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if h, ok := m.held[key]; ok && now.Before(h.expires) {
		return nil, ErrNotAcquired
	}
	m.seq++
	token := m.seq
	m.held[key] = memoryHold{token: token, expires: now.Add(ttl)}

	return func(ctx context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		if h, ok := m.held[key]; ok && h.token == token {
			delete(m.held, key)
		}
		return nil
	}, nil
}

// Nop grants every request. It is used when no lock backend is configured.
type Nop struct{}

// Acquire implements Locker.
func (Nop) Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error) {
	return func(context.Context) error { return nil }, nil
}
