package postgres

import (
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	LineItems ports.LineItemRepository
	Outbox    ports.OutboxRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		LineItems: &lineItemRepository{db: db},
		Outbox:    &outboxRepository{db: db},
	}
}

func toDomainLineItem(rec lineItemModel) domain.LineItem {
	return domain.LineItem{
		LineItemID:      rec.LineItemID,
		InvoiceID:       rec.InvoiceID,
		Status:          domain.Status(rec.Status),
		RawName:         rec.RawName,
		LineType:        domain.LineType(rec.LineType),
		Unit:            rec.Unit,
		Quantity:        rec.Quantity,
		UnitPrice:       rec.UnitPrice,
		Currency:        rec.Currency,
		CanonicalItemID: rec.CanonicalItemID,
		MatchConfidence: rec.MatchConfidence,
		LockToken:       rec.LockToken,
		LockedAt:        rec.LockedAt,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}
}
