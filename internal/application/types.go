package application

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/domain"
)

// Result is the structured outcome of processing one domain event.
// Applied=false is a normal answer (busy item, stale or duplicated event,
// lost optimistic-write race, unknown item), never an error.
type Result struct {
	Applied bool          `json:"applied"`
	From    domain.Status `json:"from,omitempty"`
	To      domain.Status `json:"to,omitempty"`
	Reason  string        `json:"reason,omitempty"`
}

// CreateLineItemRequest carries the surrounding application's create call.
type CreateLineItemRequest struct {
	InvoiceID uuid.UUID       `json:"invoice_id"`
	RawName   string          `json:"raw_name"`
	LineType  domain.LineType `json:"line_type"`
	Unit      string          `json:"unit"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Currency  string          `json:"currency"`
}

// CreateLineItemResponse echoes the stored row's identity and status.
type CreateLineItemResponse struct {
	LineItemID uuid.UUID     `json:"line_item_id"`
	InvoiceID  uuid.UUID     `json:"invoice_id"`
	Status     domain.Status `json:"status"`
}
