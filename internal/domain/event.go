package domain

import "github.com/google/uuid"

// EventKind names a domain event case.
type EventKind string

const (
	EventLineItemAdded        EventKind = "LINE_ITEM_ADDED"
	EventValidated            EventKind = "VALIDATED"
	EventMatchMiss            EventKind = "MATCH_MISS"
	EventWebIngested          EventKind = "WEB_INGESTED"
	EventMatched              EventKind = "MATCHED"
	EventPriceValidated       EventKind = "PRICE_VALIDATED"
	EventNeedsExplanation     EventKind = "NEEDS_EXPLANATION"
	EventExplanationSubmitted EventKind = "EXPLANATION_SUBMITTED"
	EventDenied               EventKind = "DENIED"
	EventReadyForSubmission   EventKind = "READY_FOR_SUBMISSION"
)

// ValidationVerdict is the outcome of content pre-validation.
type ValidationVerdict string

const (
	VerdictApproved ValidationVerdict = "APPROVED"
	VerdictRejected ValidationVerdict = "REJECTED"
)

// Event is the closed union of pipeline facts that may advance a line item.
// One struct per case, each carrying only its required fields, so the
// dispatcher never inspects loose payload maps. Events are ephemeral inputs;
// this core does not persist them.
type Event interface {
	Kind() EventKind
	ItemID() uuid.UUID
	sealed()
}

type eventBase struct {
	LineItemID uuid.UUID `json:"line_item_id"`
}

func (e eventBase) ItemID() uuid.UUID { return e.LineItemID }
func (eventBase) sealed()             {}

// LineItemAdded announces that a new line item row exists in status NEW.
type LineItemAdded struct {
	eventBase
}

func NewLineItemAdded(id uuid.UUID) LineItemAdded {
	return LineItemAdded{eventBase{LineItemID: id}}
}

func (LineItemAdded) Kind() EventKind { return EventLineItemAdded }

// Validated is raised by the pre-validator after content/blacklist checks.
type Validated struct {
	eventBase
	Verdict ValidationVerdict `json:"verdict"`
	Score   float64           `json:"score"`
}

func NewValidated(id uuid.UUID, verdict ValidationVerdict, score float64) Validated {
	return Validated{eventBase{LineItemID: id}, verdict, score}
}

func (Validated) Kind() EventKind { return EventValidated }

// MatchMiss is raised by the matcher when no canonical item qualified.
type MatchMiss struct {
	eventBase
}

func NewMatchMiss(id uuid.UUID) MatchMiss {
	return MatchMiss{eventBase{LineItemID: id}}
}

func (MatchMiss) Kind() EventKind { return EventMatchMiss }

// WebIngested is raised by the ingestor after new catalog sources were added.
type WebIngested struct {
	eventBase
	SourcesCount int `json:"sources_count"`
}

func NewWebIngested(id uuid.UUID, sources int) WebIngested {
	return WebIngested{eventBase{LineItemID: id}, sources}
}

func (WebIngested) Kind() EventKind { return EventWebIngested }

// Matched is raised by the matcher once a canonical item is confirmed.
type Matched struct {
	eventBase
	CanonicalItemID string  `json:"canonical_item_id"`
	Confidence      float64 `json:"confidence"`
}

func NewMatched(id uuid.UUID, canonicalItemID string, confidence float64) Matched {
	return Matched{eventBase{LineItemID: id}, canonicalItemID, confidence}
}

func (Matched) Kind() EventKind { return EventMatched }

// PriceValidated is raised by the pricer; Validated=false still records that
// the price stage ran.
type PriceValidated struct {
	eventBase
	Validated bool `json:"validated"`
}

func NewPriceValidated(id uuid.UUID, validated bool) PriceValidated {
	return PriceValidated{eventBase{LineItemID: id}, validated}
}

func (PriceValidated) Kind() EventKind { return EventPriceValidated }

// NeedsExplanation is raised by the rule engine when policy requires context.
type NeedsExplanation struct {
	eventBase
	Reason string `json:"reason"`
}

func NewNeedsExplanation(id uuid.UUID, reason string) NeedsExplanation {
	return NeedsExplanation{eventBase{LineItemID: id}, reason}
}

func (NeedsExplanation) Kind() EventKind { return EventNeedsExplanation }

// ExplanationSubmitted records that a user supplied additional context. It is
// informational: it never changes status, it only triggers verification.
type ExplanationSubmitted struct {
	eventBase
	ExplanationID string `json:"explanation_id"`
}

func NewExplanationSubmitted(id uuid.UUID, explanationID string) ExplanationSubmitted {
	return ExplanationSubmitted{eventBase{LineItemID: id}, explanationID}
}

func (ExplanationSubmitted) Kind() EventKind { return EventExplanationSubmitted }

// Denied is raised by the rule engine or the explanation verifier.
type Denied struct {
	eventBase
	Reason string `json:"reason"`
}

func NewDenied(id uuid.UUID, reason string) Denied {
	return Denied{eventBase{LineItemID: id}, reason}
}

func (Denied) Kind() EventKind { return EventDenied }

// ReadyForSubmission marks the item as fully validated.
type ReadyForSubmission struct {
	eventBase
}

func NewReadyForSubmission(id uuid.UUID) ReadyForSubmission {
	return ReadyForSubmission{eventBase{LineItemID: id}}
}

func (ReadyForSubmission) Kind() EventKind { return EventReadyForSubmission }
