package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/ports"
)

// lockManager serializes event processing per line item through the store's
// conditional lock-token update. It never blocks waiting for a lock: a busy
// row is reported back so the caller can back off or skip.
type lockManager struct {
	items  ports.LineItemRepository
	logger *slog.Logger
	nowFn  func() time.Time
}

// newLockToken builds a token unique per acquisition attempt. Carrying the
// operation name and timestamp makes stuck locks diagnosable from the row
// alone; the random suffix stops stale callers from releasing a lock they no
// longer hold.
func newLockToken(operation string, at time.Time) string {
	return fmt.Sprintf("%s:%d:%s", operation, at.UnixNano(), uuid.NewString())
}

// acquire returns the new token, or "" when another attempt holds the lock.
func (m *lockManager) acquire(ctx context.Context, lineItemID uuid.UUID, operation string) (string, error) {
	now := m.nowFn()
	token := newLockToken(operation, now)
	ok, err := m.items.AcquireLock(ctx, lineItemID, token, now)
	if err != nil {
		return "", fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// release clears the lock unconditionally from the caller's perspective.
// A mismatch means the lock was swept or stolen; that is logged, not fatal.
func (m *lockManager) release(ctx context.Context, lineItemID uuid.UUID, token string) {
	matched, err := m.items.ReleaseLock(ctx, lineItemID, token)
	if err != nil {
		m.logger.ErrorContext(ctx, "lock release failed",
			"operation", "release_lock",
			"outcome", "failure",
			"line_item_id", lineItemID,
			"error", err,
		)
		return
	}
	if !matched {
		m.logger.WarnContext(ctx, "lock release did not match holder token",
			"operation", "release_lock",
			"outcome", "mismatch",
			"line_item_id", lineItemID,
		)
	}
}
