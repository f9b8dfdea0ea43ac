package platform

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultStubSuccessRate is the share of simulated uploads that succeed.
const DefaultStubSuccessRate = 0.9

var stubFailures = []string{
	"timeout",
	"platform unavailable",
	"document rejected by validator",
}

// StubClient simulates the platform with a fixed success rate and latency.
type StubClient struct {
	SuccessRate float64
	Latency     time.Duration

	mu   sync.Mutex
	rand func() float64
}

// NewStub builds a StubClient. A rate outside (0,1] falls back to the default.
func NewStub(successRate float64, latency time.Duration) *StubClient {
	if successRate <= 0 || successRate > 1 {
		successRate = DefaultStubSuccessRate
	}
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &StubClient{SuccessRate: successRate, Latency: latency, rand: rnd.Float64}
}

// WithRand replaces the random source, for deterministic runs.
func (s *StubClient) WithRand(fn func() float64) *StubClient {
	s.mu.Lock()
	s.rand = fn
	s.mu.Unlock()
	return s
}

// Upload waits for the configured latency and then succeeds or fails at random.
func (s *StubClient) Upload(ctx context.Context, creds Credentials, req UploadRequest) (UploadResult, error) {
	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		return UploadResult{}, ErrMissingCredentials
	}

	if s.Latency > 0 {
		timer := time.NewTimer(s.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return UploadResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	s.mu.Lock()
	roll := s.rand()
	s.mu.Unlock()

	if roll < s.SuccessRate {
		return UploadResult{Success: true, ExternalID: "CIA-" + strings.ToUpper(uuid.NewString()[:8])}, nil
	}
	idx := int(roll*1000) % len(stubFailures)
	return UploadResult{Success: false, Error: stubFailures[idx]}, nil
}

var _ Uploader = (*StubClient)(nil)
