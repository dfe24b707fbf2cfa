package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/ports"
	"gorm.io/gorm"
)

type lineItemRepository struct {
	db *gorm.DB
}

func (r *lineItemRepository) Create(ctx context.Context, params ports.CreateLineItemParams) (domain.LineItem, error) {
	rec := lineItemModel{
		InvoiceID: params.InvoiceID,
		Status:    string(domain.StatusNew),
		RawName:   params.RawName,
		LineType:  string(params.LineType),
		Unit:      params.Unit,
		Quantity:  params.Quantity,
		UnitPrice: params.UnitPrice,
		Currency:  params.Currency,
		CreatedAt: params.CreatedAt,
		UpdatedAt: params.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.LineItem{}, domain.ErrConflict
		}
		return domain.LineItem{}, err
	}
	return toDomainLineItem(rec), nil
}

func (r *lineItemRepository) GetByID(ctx context.Context, lineItemID uuid.UUID) (domain.LineItem, error) {
	var rec lineItemModel
	if err := r.db.WithContext(ctx).Where("line_item_id = ?", lineItemID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LineItem{}, domain.ErrNotFound
		}
		return domain.LineItem{}, err
	}
	return toDomainLineItem(rec), nil
}

func (r *lineItemRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.LineItem, error) {
	var rows []lineItemModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.LineItem, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainLineItem(row))
	}
	return result, nil
}

func (r *lineItemRepository) AcquireLock(ctx context.Context, lineItemID uuid.UUID, token string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&lineItemModel{}).
		Where("line_item_id = ?", lineItemID).
		Where("lock_token IS NULL").
		Updates(map[string]any{
			"lock_token": token,
			"locked_at":  at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *lineItemRepository) ReleaseLock(ctx context.Context, lineItemID uuid.UUID, token string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&lineItemModel{}).
		Where("line_item_id = ?", lineItemID).
		Where("lock_token = ?", token).
		Updates(map[string]any{
			"lock_token": nil,
			"locked_at":  nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *lineItemRepository) ReleaseExpiredLocks(ctx context.Context, olderThan time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&lineItemModel{}).
		Where("lock_token IS NOT NULL").
		Where("locked_at < ?", olderThan).
		Updates(map[string]any{
			"lock_token": nil,
			"locked_at":  nil,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// CompareAndSwapStatus is the double compare-and-swap behind every status
// mutation: both the expected status and the holder's lock token are part of
// the WHERE clause, so a lost race affects zero rows.
func (r *lineItemRepository) CompareAndSwapStatus(ctx context.Context, lineItemID uuid.UUID, expected ports.StatusGuard, next ports.StatusChange) (bool, error) {
	updates := map[string]any{
		"status":     string(next.Status),
		"updated_at": next.At,
	}
	if next.CanonicalItemID != nil {
		updates["canonical_item_id"] = *next.CanonicalItemID
	}
	if next.MatchConfidence != nil {
		updates["match_confidence"] = *next.MatchConfidence
	}

	res := r.db.WithContext(ctx).
		Model(&lineItemModel{}).
		Where("line_item_id = ?", lineItemID).
		Where("status = ?", string(expected.Status)).
		Where("lock_token = ?", expected.LockToken).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *lineItemRepository) ListStalled(ctx context.Context, notUpdatedSince time.Time, limit int) ([]domain.LineItem, error) {
	if limit <= 0 {
		return nil, nil
	}
	terminal := []string{
		string(domain.StatusValidationRejected),
		string(domain.StatusReadyForSubmission),
		string(domain.StatusDenied),
	}
	var rows []lineItemModel
	if err := r.db.WithContext(ctx).
		Where("status NOT IN ?", terminal).
		Where("updated_at < ?", notUpdatedSince).
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.LineItem, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainLineItem(row))
	}
	return result, nil
}
