package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quoteflow/backend/internal/domain/shared"
	"github.com/quoteflow/backend/internal/domain/workorder"
	"github.com/quoteflow/backend/internal/infrastructure/persistence/models"
)

// GormActivityLedger implements workorder.ActivityLedger using GORM.
// It only inserts and reads; there is no update or delete path.
type GormActivityLedger struct {
	db *gorm.DB
}

// NewGormActivityLedger creates a new GormActivityLedger
func NewGormActivityLedger(db *gorm.DB) *GormActivityLedger {
	return &GormActivityLedger{db: db}
}

// Append inserts one ledger entry
func (r *GormActivityLedger) Append(ctx context.Context, a *workorder.Activity) error {
	var model models.WorkOrderActivityModel
	model.FromDomain(a)
	return r.db.WithContext(ctx).Create(&model).Error
}

// ListByOrder returns an order's entries oldest first
func (r *GormActivityLedger) ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID, filter shared.Filter) ([]workorder.Activity, error) {
	var rows []models.WorkOrderActivityModel
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Order("created_at ASC")
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	activities := make([]workorder.Activity, len(rows))
	for i := range rows {
		activities[i] = rows[i].ToDomain()
	}
	return activities, nil
}

// CountByOrder counts an order's entries
func (r *GormActivityLedger) CountByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.WorkOrderActivityModel{}).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormActivityLedger implements workorder.ActivityLedger
var _ workorder.ActivityLedger = (*GormActivityLedger)(nil)
