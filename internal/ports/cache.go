package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/domain"
)

// StatusCache keeps short-lived status snapshots for the query API.
// The store stays authoritative; a cache miss or error falls back to a load.
type StatusCache interface {
	Get(ctx context.Context, lineItemID uuid.UUID) (*domain.StatusSnapshot, error)
	Put(ctx context.Context, snapshot domain.StatusSnapshot, ttl time.Duration) error
	// Invalidate drops the snapshot; called after every applied transition.
	Invalidate(ctx context.Context, lineItemID uuid.UUID) error
}
