package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/ports"
)

// CreateLineItem stores a new row in status NEW and dispatches the
// LINE_ITEM_ADDED kick-off event. Creation itself never transitions status.
func (s *Service) CreateLineItem(ctx context.Context, req CreateLineItemRequest) (CreateLineItemResponse, error) {
	if strings.TrimSpace(req.RawName) == "" {
		return CreateLineItemResponse{}, fmt.Errorf("%w: raw_name is required", domain.ErrInvalidInput)
	}
	switch req.LineType {
	case domain.LineTypeMaterial, domain.LineTypeEquipment, domain.LineTypeLabor:
	default:
		return CreateLineItemResponse{}, fmt.Errorf("%w: unknown line_type %q", domain.ErrInvalidInput, req.LineType)
	}

	item, err := s.items.Create(ctx, ports.CreateLineItemParams{
		InvoiceID: req.InvoiceID,
		RawName:   strings.TrimSpace(req.RawName),
		LineType:  req.LineType,
		Unit:      req.Unit,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		Currency:  req.Currency,
		CreatedAt: s.nowFn(),
	})
	if err != nil {
		return CreateLineItemResponse{}, fmt.Errorf("create line item: %w", err)
	}

	if _, err := s.Process(ctx, domain.NewLineItemAdded(item.LineItemID)); err != nil {
		// The row exists; the pre-validation kick-off can be backfilled by a sweep.
		s.logger.WarnContext(ctx, "line item added event failed",
			"operation", "create_line_item",
			"outcome", "partial",
			"line_item_id", item.LineItemID,
			"error", err,
		)
	}

	return CreateLineItemResponse{
		LineItemID: item.LineItemID,
		InvoiceID:  item.InvoiceID,
		Status:     item.Status,
	}, nil
}

// GetStatus returns the current snapshot for a line item, serving from the
// snapshot cache when possible. The store stays authoritative: cache errors
// degrade to a load, never to a request failure.
func (s *Service) GetStatus(ctx context.Context, lineItemID uuid.UUID) (domain.StatusSnapshot, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, lineItemID)
		if err != nil {
			s.logger.WarnContext(ctx, "status cache read failed",
				"operation", "get_status",
				"outcome", "degraded",
				"line_item_id", lineItemID,
				"error", err,
			)
		} else if cached != nil {
			return *cached, nil
		}
	}

	item, err := s.items.GetByID(ctx, lineItemID)
	if err != nil {
		return domain.StatusSnapshot{}, err
	}
	snapshot := item.Snapshot()

	if s.cache != nil {
		if err := s.cache.Put(ctx, snapshot, s.cfg.SnapshotTTL); err != nil {
			s.logger.WarnContext(ctx, "status cache write failed",
				"operation", "get_status",
				"outcome", "degraded",
				"line_item_id", lineItemID,
				"error", err,
			)
		}
	}
	return snapshot, nil
}

// CheckReadiness is the collaborator gate: a stage only starts work when the
// item sits in its required status. Not-ready is a structured answer with the
// current status and a human-readable reason, not an error.
func (s *Service) CheckReadiness(ctx context.Context, lineItemID uuid.UUID, required domain.Status) (domain.Readiness, error) {
	if !domain.IsValidStatus(required) {
		return domain.Readiness{}, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, required)
	}

	snapshot, err := s.GetStatus(ctx, lineItemID)
	if err != nil {
		return domain.Readiness{}, err
	}
	if snapshot.Status != required {
		return domain.Readiness{
			Status: snapshot.Status,
			Reason: fmt.Sprintf("line item is in status %s, stage requires %s", snapshot.Status, required),
		}, nil
	}
	return domain.Readiness{Ready: true, Status: snapshot.Status}, nil
}

// ListByInvoice returns all line items of one invoice for downstream reporting.
func (s *Service) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.LineItem, error) {
	return s.items.ListByInvoice(ctx, invoiceID)
}

// ListStalled returns non-terminal items idle since the cutoff. Collaborator
// backfill sweeps poll this to re-emit events for items their stage dropped.
func (s *Service) ListStalled(ctx context.Context, notUpdatedSince time.Time, limit int) ([]domain.LineItem, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.items.ListStalled(ctx, notUpdatedSince, limit)
}
