package http

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/domain"
)

// eventEnvelope is the wire shape collaborator services post to /events.
// Only the fields the named event type carries are honored; the decoder
// rejects envelopes missing a required field rather than defaulting it.
type eventEnvelope struct {
	Type            string    `json:"type"`
	LineItemID      uuid.UUID `json:"line_item_id"`
	Verdict         string    `json:"verdict,omitempty"`
	Score           *float64  `json:"score,omitempty"`
	SourcesCount    *int      `json:"sources_count,omitempty"`
	CanonicalItemID string    `json:"canonical_item_id,omitempty"`
	Confidence      *float64  `json:"confidence,omitempty"`
	Validated       *bool     `json:"validated,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	ExplanationID   string    `json:"explanation_id,omitempty"`
}

func (e eventEnvelope) toDomainEvent() (domain.Event, error) {
	if e.LineItemID == uuid.Nil {
		return nil, fmt.Errorf("line_item_id is required")
	}

	switch domain.EventKind(e.Type) {
	case domain.EventLineItemAdded:
		return domain.NewLineItemAdded(e.LineItemID), nil
	case domain.EventValidated:
		verdict := domain.ValidationVerdict(e.Verdict)
		if verdict != domain.VerdictApproved && verdict != domain.VerdictRejected {
			return nil, fmt.Errorf("verdict must be APPROVED or REJECTED")
		}
		score := 0.0
		if e.Score != nil {
			score = *e.Score
		}
		return domain.NewValidated(e.LineItemID, verdict, score), nil
	case domain.EventMatchMiss:
		return domain.NewMatchMiss(e.LineItemID), nil
	case domain.EventWebIngested:
		sources := 0
		if e.SourcesCount != nil {
			sources = *e.SourcesCount
		}
		return domain.NewWebIngested(e.LineItemID, sources), nil
	case domain.EventMatched:
		if e.CanonicalItemID == "" {
			return nil, fmt.Errorf("canonical_item_id is required for MATCHED")
		}
		confidence := 0.0
		if e.Confidence != nil {
			confidence = *e.Confidence
		}
		return domain.NewMatched(e.LineItemID, e.CanonicalItemID, confidence), nil
	case domain.EventPriceValidated:
		if e.Validated == nil {
			return nil, fmt.Errorf("validated is required for PRICE_VALIDATED")
		}
		return domain.NewPriceValidated(e.LineItemID, *e.Validated), nil
	case domain.EventNeedsExplanation:
		return domain.NewNeedsExplanation(e.LineItemID, e.Reason), nil
	case domain.EventExplanationSubmitted:
		if e.ExplanationID == "" {
			return nil, fmt.Errorf("explanation_id is required for EXPLANATION_SUBMITTED")
		}
		return domain.NewExplanationSubmitted(e.LineItemID, e.ExplanationID), nil
	case domain.EventDenied:
		return domain.NewDenied(e.LineItemID, e.Reason), nil
	case domain.EventReadyForSubmission:
		return domain.NewReadyForSubmission(e.LineItemID), nil
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
}
