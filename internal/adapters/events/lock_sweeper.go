package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/ports"
)

// LockSweeper clears lock tokens whose holder crashed before releasing.
// This is the sole path that releases a lock on behalf of someone else; the
// threshold must comfortably exceed the longest legitimate transition attempt
// or the sweep would steal live locks.
type LockSweeper struct {
	logger    *slog.Logger
	items     ports.LineItemRepository
	interval  time.Duration
	threshold time.Duration
}

func NewLockSweeper(logger *slog.Logger, items ports.LineItemRepository, interval, threshold time.Duration) *LockSweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if threshold <= 0 {
		threshold = 2 * time.Minute
	}
	return &LockSweeper{
		logger:    logger.With("module", "events.lock_sweeper", "layer", "adapter"),
		items:     items,
		interval:  interval,
		threshold: threshold,
	}
}

// Run executes the periodic sweep loop until context cancellation.
func (s *LockSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.SweepOnce(ctx); err != nil {
			s.logger.ErrorContext(ctx, "lock sweep failed",
				"operation", "sweep_expired_locks",
				"outcome", "failure",
				"error", err,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SweepOnce releases every lock older than the threshold.
func (s *LockSweeper) SweepOnce(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.threshold)
	released, err := s.items.ReleaseExpiredLocks(ctx, cutoff)
	if err != nil {
		return err
	}
	if released > 0 {
		s.logger.WarnContext(ctx, "expired locks released",
			"operation", "sweep_expired_locks",
			"outcome", "success",
			"released_count", released,
			"threshold_seconds", int(s.threshold.Seconds()),
		)
	}
	return nil
}
