package quote

import (
	"context"

	"github.com/google/uuid"

	"github.com/quoteflow/backend/internal/domain/shared"
)

// Repository defines persistence for quotes and their line items.
// Every method that addresses a single quote takes the tenant explicitly,
// except FindByTokenHash which is how the tenant is discovered on the public path.
type Repository interface {
	// FindByIDForTenant finds a quote with its line items
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Quote, error)

	// FindByTokenHash finds the quote holding the given token digest, in any status
	FindByTokenHash(ctx context.Context, tokenHash string) (*Quote, error)

	// FindAllForTenant lists quotes (without items)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Quote, error)

	// CountForTenant counts quotes matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// FindAcceptedWithoutOrder lists accepted quotes that have no linked order.
	// These are left behind when compensation fails and need operator attention.
	FindAcceptedWithoutOrder(ctx context.Context, tenantID uuid.UUID) ([]Quote, error)

	// Save creates the quote or updates it with an optimistic version check.
	// Line items are deleted and re-inserted as a batch.
	Save(ctx context.Context, q *Quote) error

	// Delete removes a draft quote and its items
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// MarkAccepted atomically moves the quote from sent to accepted and stores the
	// acceptance fields. Returns false if the quote was no longer sent.
	MarkAccepted(ctx context.Context, tenantID, id uuid.UUID, acc Acceptance) (bool, error)

	// RevertAcceptance moves an accepted quote without a linked order back to sent
	// and clears the acceptance fields. Returns false if nothing matched.
	RevertAcceptance(ctx context.Context, tenantID, id uuid.UUID) (bool, error)

	// LinkOrder sets order_id on an accepted quote unless another order is
	// already linked. Returns false if nothing matched.
	LinkOrder(ctx context.Context, tenantID, id, orderID uuid.UUID) (bool, error)

	// GenerateQuoteNumber generates the next quote number for the tenant
	GenerateQuoteNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}
