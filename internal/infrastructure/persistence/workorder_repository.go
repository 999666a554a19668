package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quoteflow/backend/internal/domain/shared"
	"github.com/quoteflow/backend/internal/domain/workorder"
	"github.com/quoteflow/backend/internal/infrastructure/persistence/models"
)

// GormWorkOrderRepository implements workorder.OrderRepository using GORM
type GormWorkOrderRepository struct {
	db *gorm.DB
}

// NewGormWorkOrderRepository creates a new GormWorkOrderRepository
func NewGormWorkOrderRepository(db *gorm.DB) *GormWorkOrderRepository {
	return &GormWorkOrderRepository{db: db}
}

// FindByIDForTenant finds an order by ID within a tenant
func (r *GormWorkOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*workorder.Order, error) {
	var model models.WorkOrderModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByQuoteID finds the order created from a quote
func (r *GormWorkOrderRepository) FindByQuoteID(ctx context.Context, tenantID, quoteID uuid.UUID) (*workorder.Order, error) {
	var model models.WorkOrderModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND quote_id = ?", tenantID, quoteID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists orders for a tenant
func (r *GormWorkOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]workorder.Order, error) {
	var rows []models.WorkOrderModel
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.WorkOrderModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	query = query.Order(workOrderSortColumns.orderBy(filter, "created_at"))

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	orders := make([]workorder.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, nil
}

// CountForTenant counts orders for a tenant with optional filters
func (r *GormWorkOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.WorkOrderModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts a new order. A second order for the same quote is rejected
// by the unique (tenant_id, quote_id) index.
func (r *GormWorkOrderRepository) Create(ctx context.Context, o *workorder.Order) error {
	if err := r.db.WithContext(ctx).Create(models.WorkOrderModelFromDomain(o)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return shared.NewDomainError(shared.ErrAlreadyExists.Code, "An order already exists for this quote")
		}
		return err
	}
	return nil
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormWorkOrderRepository) SaveWithLock(ctx context.Context, o *workorder.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&models.WorkOrderModel{}).
			Where("tenant_id = ? AND id = ?", o.TenantID, o.ID).
			Select("version").
			Scan(&currentVersion).Error; err != nil {
			return err
		}
		if currentVersion == 0 {
			return shared.ErrNotFound
		}
		if currentVersion != o.Version {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The order has been modified by another user")
		}

		o.Version++
		o.UpdatedAt = time.Now()
		model := models.WorkOrderModelFromDomain(o)

		result := tx.Model(&models.WorkOrderModel{}).
			Where("tenant_id = ? AND id = ? AND version = ?", o.TenantID, o.ID, currentVersion).
			Updates(map[string]interface{}{
				"title":            model.Title,
				"description":      model.Description,
				"status":           model.Status,
				"assignee_user_id": model.AssigneeUserID,
				"assignee_team_id": model.AssigneeTeamID,
				"version":          o.Version,
				"updated_at":       o.UpdatedAt,
			})
		if result.Error != nil {
			o.Version = currentVersion
			return result.Error
		}
		if result.RowsAffected == 0 {
			o.Version = currentVersion
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The order has been modified by another user")
		}
		return nil
	})
}

// RefreshSnapshot rewrites the customer, value and deduction columns copied
// from the quote. Status and assignment are left alone.
func (r *GormWorkOrderRepository) RefreshSnapshot(ctx context.Context, o *workorder.Order) error {
	model := models.WorkOrderModelFromDomain(o)
	now := time.Now()

	result := r.db.WithContext(ctx).
		Model(&models.WorkOrderModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", o.TenantID, o.ID, o.Version).
		Updates(map[string]interface{}{
			"customer_id":              model.CustomerID,
			"customer_name":            model.CustomerName,
			"title":                    model.Title,
			"description":              model.Description,
			"value":                    model.Value,
			"include_rot":              model.IncludeROT,
			"rot_personal_id":          model.ROTPersonalID,
			"rot_org_id":               model.ROTOrgID,
			"rot_property_designation": model.ROTPropertyDesignation,
			"rot_amount":               model.ROTAmount,
			"version":                  gorm.Expr("version + 1"),
			"updated_at":               now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("CONCURRENT_MODIFICATION", "The order has been modified by another user")
	}
	o.Version++
	o.UpdatedAt = now
	return nil
}

// DiscardUnlinked removes an order created by an acceptance that was rolled
// back. Orders with ledger entries beyond their created entry, or that a quote
// points at, are never touched.
func (r *GormWorkOrderRepository) DiscardUnlinked(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	var discarded bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Where("tenant_id = ? AND id = ? AND status = ?", tenantID, id, workorder.StatusOpen).
			Where("(SELECT COUNT(*) FROM work_order_activities WHERE work_order_activities.order_id = work_orders.id) <= 1").
			Where("NOT EXISTS (SELECT 1 FROM quotes WHERE quotes.tenant_id = ? AND quotes.order_id = ?)", tenantID, id).
			Delete(&models.WorkOrderModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		discarded = true
		return tx.Where("tenant_id = ? AND order_id = ?", tenantID, id).
			Delete(&models.WorkOrderActivityModel{}).Error
	})
	if err != nil {
		return false, err
	}
	return discarded, nil
}

// GenerateOrderNumber generates the next order number for a tenant.
// Format: WO-YYYY-NNNNN (e.g., WO-2026-00001)
func (r *GormWorkOrderRepository) GenerateOrderNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	return nextNumber(ctx, r.db, models.WorkOrderModel{}.TableName(), "order_number", "WO", tenantID)
}

func (r *GormWorkOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("(LOWER(order_number) LIKE ? OR LOWER(title) LIKE ? OR LOWER(customer_name) LIKE ?)",
			pattern, pattern, pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "assignee_user_id":
			query = query.Where("assignee_user_id = ?", value)
		case "assignee_team_id":
			query = query.Where("assignee_team_id = ?", value)
		}
	}
	return query
}

// isUniqueViolation catches duplicate key errors from drivers that gorm does
// not translate.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
}

// Ensure GormWorkOrderRepository implements workorder.OrderRepository
var _ workorder.OrderRepository = (*GormWorkOrderRepository)(nil)
