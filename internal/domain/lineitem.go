package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineType classifies a line item on an invoice.
type LineType string

const (
	LineTypeMaterial  LineType = "material"
	LineTypeEquipment LineType = "equipment"
	LineTypeLabor     LineType = "labor"
)

// LineItem is the unit tracked through the validation pipeline.
// Status, CanonicalItemID and LockToken are the only mutable columns and all
// mutation goes through the event dispatcher's guarded writes; collaborators
// read them for gating but never write them.
type LineItem struct {
	LineItemID      uuid.UUID
	InvoiceID       uuid.UUID
	Status          Status
	RawName         string
	LineType        LineType
	Unit            string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	Currency        string
	CanonicalItemID *string
	MatchConfidence *float64
	LockToken       *string
	LockedAt        *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Locked reports whether a transition attempt is currently in flight.
func (li LineItem) Locked() bool {
	return li.LockToken != nil && *li.LockToken != ""
}

// StatusTransition is the intent record produced by the dispatcher for a
// single guarded write. It is handed to the store and the audit outbox and
// not retained afterwards.
type StatusTransition struct {
	LineItemID uuid.UUID
	From       Status
	To         Status
	Reason     string
	Metadata   map[string]string
}

// StatusSnapshot is the read-only view served by the status query API.
type StatusSnapshot struct {
	LineItemID      uuid.UUID `json:"line_item_id"`
	Status          Status    `json:"status"`
	RawName         string    `json:"raw_name"`
	CanonicalItemID *string   `json:"canonical_item_id,omitempty"`
	LockToken       *string   `json:"lock_token,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Snapshot projects the line item into its query-API view.
func (li LineItem) Snapshot() StatusSnapshot {
	return StatusSnapshot{
		LineItemID:      li.LineItemID,
		Status:          li.Status,
		RawName:         li.RawName,
		CanonicalItemID: li.CanonicalItemID,
		LockToken:       li.LockToken,
		CreatedAt:       li.CreatedAt,
	}
}

// Readiness is the structured answer to a collaborator's readiness gate.
// Not-ready is a normal outcome, not an error.
type Readiness struct {
	Ready  bool   `json:"ready"`
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}
