package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type lineItemModel struct {
	LineItemID      uuid.UUID       `gorm:"column:line_item_id;type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceID       uuid.UUID       `gorm:"column:invoice_id;type:uuid"`
	Status          string          `gorm:"column:status"`
	RawName         string          `gorm:"column:raw_name"`
	LineType        string          `gorm:"column:line_type"`
	Unit            string          `gorm:"column:unit"`
	Quantity        decimal.Decimal `gorm:"column:quantity;type:numeric"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:numeric"`
	Currency        string          `gorm:"column:currency"`
	CanonicalItemID *string         `gorm:"column:canonical_item_id"`
	MatchConfidence *float64        `gorm:"column:match_confidence"`
	LockToken       *string         `gorm:"column:lock_token"`
	LockedAt        *time.Time      `gorm:"column:locked_at"`
	CreatedAt       time.Time       `gorm:"column:created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at"`
}

func (lineItemModel) TableName() string { return "invoice_line_items" }

type lineItemOutboxModel struct {
	OutboxID       uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType      string     `gorm:"column:event_type"`
	PartitionKey   string     `gorm:"column:partition_key"`
	Payload        string     `gorm:"column:payload;type:jsonb"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	FirstSeenAt    time.Time  `gorm:"column:first_seen_at"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	RetryCount     int        `gorm:"column:retry_count"`
	LastError      *string    `gorm:"column:last_error"`
	LastErrorAt    *time.Time `gorm:"column:last_error_at"`
	ClaimToken     *string    `gorm:"column:claim_token"`
	ClaimUntil     *time.Time `gorm:"column:claim_until"`
	DeadLetteredAt *time.Time `gorm:"column:dead_lettered_at"`
}

func (lineItemOutboxModel) TableName() string { return "lineitem_outbox" }
