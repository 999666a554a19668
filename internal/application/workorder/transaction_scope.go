package workorder

import (
	"context"

	"github.com/quoteflow/backend/internal/domain/workorder"
)

// TransactionScope runs order writes and their ledger entries atomically.
// If fn returns an error the transaction is rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes repositories bound to the current transaction
type TransactionalRepositories interface {
	OrderRepo() workorder.OrderRepository
	ActivityRepo() workorder.ActivityLedger
}
