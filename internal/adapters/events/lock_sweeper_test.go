package events

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/ports"
)

// sweepStore records ReleaseExpiredLocks calls; the rest of the repository
// contract is unused by the sweeper.
type sweepStore struct {
	mu       sync.Mutex
	cutoffs  []time.Time
	released int64
}

func (s *sweepStore) ReleaseExpiredLocks(_ context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cutoffs = append(s.cutoffs, olderThan)
	return s.released, nil
}

func (s *sweepStore) Create(context.Context, ports.CreateLineItemParams) (domain.LineItem, error) {
	return domain.LineItem{}, domain.ErrNotFound
}

func (s *sweepStore) GetByID(context.Context, uuid.UUID) (domain.LineItem, error) {
	return domain.LineItem{}, domain.ErrNotFound
}

func (s *sweepStore) ListByInvoice(context.Context, uuid.UUID) ([]domain.LineItem, error) {
	return nil, nil
}

func (s *sweepStore) AcquireLock(context.Context, uuid.UUID, string, time.Time) (bool, error) {
	return false, nil
}

func (s *sweepStore) ReleaseLock(context.Context, uuid.UUID, string) (bool, error) {
	return false, nil
}

func (s *sweepStore) CompareAndSwapStatus(context.Context, uuid.UUID, ports.StatusGuard, ports.StatusChange) (bool, error) {
	return false, nil
}

func (s *sweepStore) ListStalled(context.Context, time.Time, int) ([]domain.LineItem, error) {
	return nil, nil
}

func TestSweepOnceUsesThresholdCutoff(t *testing.T) {
	t.Parallel()

	store := &sweepStore{released: 2}
	sweeper := NewLockSweeper(slog.Default(), store, time.Minute, 2*time.Minute)

	before := time.Now().UTC()
	require.NoError(t, sweeper.SweepOnce(context.Background()))
	after := time.Now().UTC()

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.cutoffs, 1)
	cutoff := store.cutoffs[0]
	require.False(t, cutoff.Before(before.Add(-2*time.Minute)))
	require.False(t, cutoff.After(after.Add(-2*time.Minute)))
}

func TestRunSweepsUntilCancelled(t *testing.T) {
	t.Parallel()

	store := &sweepStore{}
	sweeper := NewLockSweeper(slog.Default(), store, 5*time.Millisecond, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := sweeper.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	store.mu.Lock()
	defer store.mu.Unlock()
	require.GreaterOrEqual(t, len(store.cutoffs), 2)
}
