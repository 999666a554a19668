package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quoteflow/backend/internal/domain/deduction"
	"github.com/quoteflow/backend/internal/domain/quote"
	"github.com/quoteflow/backend/internal/domain/shared"
	"github.com/quoteflow/backend/internal/infrastructure/persistence/models"
)

// GormQuoteRepository implements quote.Repository using GORM
type GormQuoteRepository struct {
	db *gorm.DB
}

// NewGormQuoteRepository creates a new GormQuoteRepository
func NewGormQuoteRepository(db *gorm.DB) *GormQuoteRepository {
	return &GormQuoteRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// FindByIDForTenant finds a quote by ID within a tenant
func (r *GormQuoteRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*quote.Quote, error) {
	var model models.QuoteModel
	if err := preloadItems(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTokenHash finds the quote holding the token digest
func (r *GormQuoteRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*quote.Quote, error) {
	if tokenHash == "" {
		return nil, shared.ErrNotFound
	}
	var model models.QuoteModel
	if err := preloadItems(r.db.WithContext(ctx)).
		Where("acceptance_token = ?", tokenHash).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists quotes for a tenant without their items
func (r *GormQuoteRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]quote.Quote, error) {
	var rows []models.QuoteModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.QuoteModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainQuotes(rows), nil
}

// CountForTenant counts quotes for a tenant with optional filters
func (r *GormQuoteRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.QuoteModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindAcceptedWithoutOrder lists accepted quotes with no linked order
func (r *GormQuoteRepository) FindAcceptedWithoutOrder(ctx context.Context, tenantID uuid.UUID) ([]quote.Quote, error) {
	var rows []models.QuoteModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ? AND order_id IS NULL", tenantID, quote.StatusAccepted).
		Order("accepted_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainQuotes(rows), nil
}

// CountAcceptedWithoutOrder counts, per tenant, the quotes accepted before
// acceptedBefore that still have no linked order. It spans all tenants.
func (r *GormQuoteRepository) CountAcceptedWithoutOrder(ctx context.Context, acceptedBefore time.Time) (map[uuid.UUID]int64, error) {
	var rows []struct {
		TenantID uuid.UUID
		Count    int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.QuoteModel{}).
		Select("tenant_id, COUNT(*) AS count").
		Where("status = ? AND order_id IS NULL AND accepted_at < ?", quote.StatusAccepted, acceptedBefore).
		Group("tenant_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		counts[row.TenantID] = row.Count
	}
	return counts, nil
}

// Save creates the quote or updates it with an optimistic version check.
// Line items are always deleted and re-inserted together.
func (r *GormQuoteRepository) Save(ctx context.Context, q *quote.Quote) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.QuoteModel{}).
			Where("tenant_id = ? AND id = ?", q.TenantID, q.ID).
			Count(&existing).Error; err != nil {
			return err
		}

		model := models.QuoteModelFromDomain(q)
		if existing == 0 {
			if err := tx.Omit("Items").Create(model).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return shared.ErrAlreadyExists
				}
				return err
			}
			return replaceItems(tx, q.ID, model.Items)
		}

		currentVersion := q.Version
		q.Version++
		q.UpdatedAt = time.Now()

		result := tx.Model(&models.QuoteModel{}).
			Where("tenant_id = ? AND id = ? AND version = ?", q.TenantID, q.ID, currentVersion).
			Updates(map[string]interface{}{
				"customer_id":              model.CustomerID,
				"customer_name":            model.CustomerName,
				"title":                    model.Title,
				"description":              model.Description,
				"total_amount":             model.TotalAmount,
				"status":                   model.Status,
				"acceptance_token":         model.AcceptanceToken,
				"token_expires_at":         model.TokenExpiresAt,
				"sent_at":                  model.SentAt,
				"declined_at":              model.DeclinedAt,
				"include_rot":              model.IncludeROT,
				"rot_personal_id":          model.ROTPersonalID,
				"rot_org_id":               model.ROTOrgID,
				"rot_property_designation": model.ROTPropertyDesignation,
				"version":                  q.Version,
				"updated_at":               q.UpdatedAt,
			})
		if result.Error != nil {
			q.Version = currentVersion
			return result.Error
		}
		if result.RowsAffected == 0 {
			q.Version = currentVersion
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The quote has been modified by another user")
		}

		return replaceItems(tx, q.ID, model.Items)
	})
}

func replaceItems(tx *gorm.DB, quoteID uuid.UUID, items []models.QuoteLineItemModel) error {
	if err := tx.Where("quote_id = ?", quoteID).Delete(&models.QuoteLineItemModel{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return tx.Create(&items).Error
}

// Delete removes a quote and its items
func (r *GormQuoteRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.QuoteModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return tx.Where("quote_id = ?", id).Delete(&models.QuoteLineItemModel{}).Error
	})
}

// MarkAccepted moves the quote from sent to accepted in one conditional
// UPDATE. Only one concurrent caller can see RowsAffected == 1. A token that
// expired since it was resolved no longer matches.
func (r *GormQuoteRepository) MarkAccepted(ctx context.Context, tenantID, id uuid.UUID, acc quote.Acceptance) (bool, error) {
	updates := map[string]interface{}{
		"status":             quote.StatusAccepted,
		"accepted_at":        acc.AcceptedAt,
		"accepted_client_ip": optionalString(acc.ClientIP),
		"version":            gorm.Expr("version + 1"),
		"updated_at":         time.Now(),
	}
	if acc.Identifier != nil {
		personalID, orgID := deduction.ToColumns(acc.Identifier)
		updates["rot_personal_id"] = personalID
		updates["rot_org_id"] = orgID
		updates["rot_property_designation"] = acc.PropertyDesignation
	}
	if acc.ROTAmount != nil {
		updates["rot_amount"] = *acc.ROTAmount
	}

	result := r.db.WithContext(ctx).
		Model(&models.QuoteModel{}).
		Where("tenant_id = ? AND id = ? AND status = ? AND token_expires_at > ?",
			tenantID, id, quote.StatusSent, acc.AcceptedAt).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// RevertAcceptance moves an accepted quote without an order back to sent.
// The identifier columns are kept; they double as the salesperson's preset.
func (r *GormQuoteRepository) RevertAcceptance(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.QuoteModel{}).
		Where("tenant_id = ? AND id = ? AND status = ? AND order_id IS NULL",
			tenantID, id, quote.StatusAccepted).
		Updates(map[string]interface{}{
			"status":             quote.StatusSent,
			"accepted_at":        nil,
			"accepted_client_ip": nil,
			"rot_amount":         nil,
			"version":            gorm.Expr("version + 1"),
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// LinkOrder sets order_id once. Linking the same order again matches.
func (r *GormQuoteRepository) LinkOrder(ctx context.Context, tenantID, id, orderID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.QuoteModel{}).
		Where("tenant_id = ? AND id = ? AND status = ? AND (order_id IS NULL OR order_id = ?)",
			tenantID, id, quote.StatusAccepted, orderID).
		Updates(map[string]interface{}{
			"order_id":   orderID,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// GenerateQuoteNumber generates the next quote number for a tenant.
// Format: Q-YYYY-NNNNN (e.g., Q-2026-00001)
func (r *GormQuoteRepository) GenerateQuoteNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	return nextNumber(ctx, r.db, models.QuoteModel{}.TableName(), "quote_number", "Q", tenantID)
}

func (r *GormQuoteRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	return query.Order(quoteSortColumns.orderBy(filter, "created_at"))
}

func (r *GormQuoteRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("(LOWER(quote_number) LIKE ? OR LOWER(title) LIKE ? OR LOWER(customer_name) LIKE ?)",
			pattern, pattern, pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		}
	}
	return query
}

func toDomainQuotes(rows []models.QuoteModel) []quote.Quote {
	quotes := make([]quote.Quote, len(rows))
	for i := range rows {
		quotes[i] = *rows[i].ToDomain()
	}
	return quotes
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Ensure GormQuoteRepository implements quote.Repository
var _ quote.Repository = (*GormQuoteRepository)(nil)
