package workorder

import (
	"context"

	"github.com/google/uuid"

	"github.com/quoteflow/backend/internal/domain/shared"
)

// OrderRepository defines persistence for work orders
type OrderRepository interface {
	// FindByIDForTenant finds an order by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Order, error)

	// FindByQuoteID finds the order materialized from a quote
	FindByQuoteID(ctx context.Context, tenantID, quoteID uuid.UUID) (*Order, error)

	// FindAllForTenant lists orders; Filters["status"] narrows by status
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Order, error)

	// CountForTenant counts orders matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// Create inserts a new order. A second order for the same quote yields ErrAlreadyExists.
	Create(ctx context.Context, o *Order) error

	// SaveWithLock updates status and assignment with an optimistic version check
	SaveWithLock(ctx context.Context, o *Order) error

	// RefreshSnapshot rewrites the quote-derived columns of an order
	RefreshSnapshot(ctx context.Context, o *Order) error

	// DiscardUnlinked deletes an open order, with its ledger, when the ledger
	// holds nothing but the created entry and no quote links to it. Returns
	// false if nothing matched.
	DiscardUnlinked(ctx context.Context, tenantID, id uuid.UUID) (bool, error)

	// GenerateOrderNumber generates the next order number for the tenant
	GenerateOrderNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// ActivityLedger is the append-only audit trail of order mutations.
// It deliberately has no update or delete.
type ActivityLedger interface {
	// Append writes one entry
	Append(ctx context.Context, a *Activity) error

	// ListByOrder returns entries oldest first
	ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID, filter shared.Filter) ([]Activity, error)

	// CountByOrder counts entries for an order
	CountByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (int64, error)
}
