package persistence

import (
	"context"

	"gorm.io/gorm"

	appworkorder "github.com/quoteflow/backend/internal/application/workorder"
	"github.com/quoteflow/backend/internal/domain/workorder"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Repositories handed to fn share the transaction; returning an error rolls
// everything back.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appworkorder.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// OrderRepo returns the order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) OrderRepo() workorder.OrderRepository {
	return NewGormWorkOrderRepository(r.tx)
}

// ActivityRepo returns the ledger scoped to the current transaction.
func (r *gormTransactionalRepositories) ActivityRepo() workorder.ActivityLedger {
	return NewGormActivityLedger(r.tx)
}

var _ appworkorder.TransactionScope = (*GormTransactionScope)(nil)
var _ appworkorder.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
