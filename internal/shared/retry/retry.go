package retry

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Policy bounds attempts and spaces them with capped exponential backoff and full jitter.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewPolicy builds a Policy; attempts below 1 are treated as a single attempt.
func NewPolicy(maxAttempts int, baseDelay, maxDelay time.Duration) *Policy {
	return &Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		MaxDelay:    maxDelay,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Op is one attempt. Returning retryable=false stops the loop with err.
type Op func(ctx context.Context, attempt int) (retryable bool, err error)

// Do runs op until it succeeds, reports a non-retryable error, attempts run out,
// or ctx is done. It returns the number of attempts made and the last error.
func (p *Policy) Do(ctx context.Context, op Op) (int, error) {
	attempts := 1
	if p != nil && p.MaxAttempts > 1 {
		attempts = p.MaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		retryable, err := op(ctx, attempt)
		if err == nil {
			return attempt, nil
		}
		lastErr = err
		if !retryable || attempt == attempts {
			return attempt, lastErr
		}

		timer := time.NewTimer(p.Backoff(attempt))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return attempt, lastErr
		}
	}
	return attempts, lastErr
}

// Backoff returns the wait before the attempt following the given one.
func (p *Policy) Backoff(attempt int) time.Duration {
	if p == nil || p.BaseDelay <= 0 {
		return 0
	}
	ceiling := p.BaseDelay
	for i := 1; i < attempt; i++ {
		if ceiling > math.MaxInt64/2 {
			ceiling = math.MaxInt64 - 1
			break
		}
		ceiling *= 2
		if p.MaxDelay > 0 && ceiling >= p.MaxDelay {
			ceiling = p.MaxDelay
			break
		}
	}
	if p.MaxDelay > 0 && ceiling > p.MaxDelay {
		ceiling = p.MaxDelay
	}
	return time.Duration(p.int63n(int64(ceiling) + 1))
}

func (p *Policy) int63n(n int64) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rnd == nil {
		p.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return p.rnd.Int63n(n)
}
