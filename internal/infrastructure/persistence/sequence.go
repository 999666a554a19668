package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// nextNumber generates the next PREFIX-YYYY-NNNNN number for a tenant by
// reading the highest existing one in column of table.
func nextNumber(ctx context.Context, db *gorm.DB, table, column, prefix string, tenantID uuid.UUID) (string, error) {
	yearPrefix := fmt.Sprintf("%s-%d-", prefix, time.Now().Year())

	var last string
	err := db.WithContext(ctx).
		Table(table).
		Select(column).
		Where("tenant_id = ? AND "+column+" LIKE ?", tenantID, yearPrefix+"%").
		Order(column + " DESC").
		Limit(1).
		Row().
		Scan(&last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	var next int64 = 1
	if parts := strings.Split(last, "-"); len(parts) == 3 {
		var num int64
		if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
			next = num + 1
		}
	}

	// Skip numbers taken by concurrent writers
	for i := 0; i < 100; i++ {
		candidate := fmt.Sprintf("%s%05d", yearPrefix, next)
		var count int64
		if err := db.WithContext(ctx).
			Table(table).
			Where("tenant_id = ? AND "+column+" = ?", tenantID, candidate).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		next++
	}
	return "", fmt.Errorf("no free number under %s", yearPrefix)
}
