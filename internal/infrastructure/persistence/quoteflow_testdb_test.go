package persistence

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/quoteflow/backend/internal/domain/quote"
	"github.com/quoteflow/backend/internal/infrastructure/persistence/models"
)

// setupQuoteflowTestDB opens a private in-memory SQLite database with the
// quote and work order tables. A single connection keeps every query on the
// same in-memory database.
func setupQuoteflowTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&models.QuoteModel{},
		&models.QuoteLineItemModel{},
		&models.WorkOrderModel{},
		&models.WorkOrderActivityModel{},
	)
	require.NoError(t, err)

	return db
}

// newStoredQuote builds a draft quote with two items totalling 10000
func newStoredQuote(t *testing.T, tenantID uuid.UUID, number string) *quote.Quote {
	t.Helper()

	q, err := quote.NewQuote(tenantID, number, uuid.New(), "Anna Svensson", "Bathroom renovation")
	require.NoError(t, err)
	require.NoError(t, q.ReplaceItems([]quote.ItemInput{
		{Description: "Tiling", Quantity: decimal.NewFromInt(20), UnitPrice: decimal.NewFromInt(300)},
		{Description: "Plumbing", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(4000)},
	}))
	q.ClearDomainEvents()
	return q
}
