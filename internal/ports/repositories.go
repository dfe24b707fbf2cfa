package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/domain"
)

// CreateLineItemParams captures the immutable columns written at creation.
// Status is always NEW on insert; only the dispatcher moves it afterwards.
type CreateLineItemParams struct {
	InvoiceID uuid.UUID
	RawName   string
	LineType  domain.LineType
	Unit      string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Currency  string
	CreatedAt time.Time
}

// StatusGuard is the expected row state for a guarded write: the stored
// status and lock token must both still match at commit time.
type StatusGuard struct {
	Status    domain.Status
	LockToken string
}

// StatusChange is the new row state applied when the guard holds.
// CanonicalItemID and MatchConfidence are written only on a MATCHED
// transition and left untouched when nil.
type StatusChange struct {
	Status          domain.Status
	CanonicalItemID *string
	MatchConfidence *float64
	At              time.Time
}

// LineItemRepository defines persistence for line-item rows.
// Every mutation of status goes through CompareAndSwapStatus so the
// optimistic-locking contract lives in exactly one primitive.
type LineItemRepository interface {
	Create(ctx context.Context, params CreateLineItemParams) (domain.LineItem, error)
	GetByID(ctx context.Context, lineItemID uuid.UUID) (domain.LineItem, error)
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.LineItem, error)

	// AcquireLock sets the lock token only where lock_token IS NULL.
	// A false return means another attempt holds the lock.
	AcquireLock(ctx context.Context, lineItemID uuid.UUID, token string, at time.Time) (bool, error)
	// ReleaseLock clears the lock token only where it still equals token.
	// A false return means the lock was already stolen or released.
	ReleaseLock(ctx context.Context, lineItemID uuid.UUID, token string) (bool, error)
	// ReleaseExpiredLocks clears lock tokens whose locked_at predates olderThan.
	// This sweep is the sole exception to holder-only release; it recovers
	// items whose lock holder crashed mid-transition.
	ReleaseExpiredLocks(ctx context.Context, olderThan time.Time) (int64, error)

	// CompareAndSwapStatus performs the double compare-and-swap: the status
	// change is persisted only if the stored status and lock token both still
	// match the guard. A false return means the optimistic write lost.
	CompareAndSwapStatus(ctx context.Context, lineItemID uuid.UUID, expected StatusGuard, next StatusChange) (bool, error)

	// ListStalled returns non-terminal items not updated since the cutoff,
	// used by collaborator backfill sweeps.
	ListStalled(ctx context.Context, notUpdatedSince time.Time, limit int) ([]domain.LineItem, error)
}

// OutboxEvent is the write-side audit payload for an applied transition.
type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

// OutboxRecord represents durable outbox state, including retry/error metadata.
type OutboxRecord struct {
	OutboxID       uuid.UUID
	EventType      string
	PartitionKey   string
	Payload        []byte
	RetryCount     int
	LastError      *string
	CreatedAt      time.Time
	PublishedAt    *time.Time
	LastErrorAt    *time.Time
	FirstSeenAt    time.Time
	ClaimToken     *string
	ClaimUntil     *time.Time
	DeadLetteredAt *time.Time
}

// OutboxRepository controls publish-retry workflow for applied transitions.
// This explicit contract enables transactional outbox patterns without leaking DB details.
type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
	MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
}
