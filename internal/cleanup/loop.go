package cleanup

import (
	"context"
	"time"

	"constructia-backend/internal/shared/telemetry"
)

// RunEvery sweeps once immediately and then on every tick until ctx is done.
func RunEvery(ctx context.Context, s *Sweeper, interval time.Duration, now func() time.Time) error {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if now == nil {
		now = time.Now
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Sweep(ctx, now()); err != nil {
			telemetry.Error("sweep.run_failed", map[string]any{"error": err.Error()})
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
