package ports

import (
	"context"

	"github.com/google/uuid"
)

// Cascade trigger ports. Each is the entry point of the next pipeline stage,
// invoked as a best-effort side call after a transition commits. The stage
// reports its outcome by raising a new domain event, never by writing status.

// PreValidateTrigger starts content/blacklist validation for a new item.
type PreValidateTrigger interface {
	ValidateContent(ctx context.Context, lineItemID uuid.UUID) error
}

// PricerTrigger starts price-band validation for a matched item.
type PricerTrigger interface {
	ValidatePrice(ctx context.Context, lineItemID uuid.UUID, canonicalItemID string) error
}

// RuleTrigger starts rule evaluation for a price-validated item.
type RuleTrigger interface {
	EvaluateRules(ctx context.Context, lineItemID uuid.UUID) error
}

// ExplanationTrigger starts verification of a submitted explanation. The
// verifier later emits READY_FOR_SUBMISSION or DENIED back into the dispatcher.
type ExplanationTrigger interface {
	VerifyExplanation(ctx context.Context, lineItemID uuid.UUID, explanationID string) error
}
