package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/quoteflow/backend/internal/domain/shared"
)

// TenantAggregateModel holds the columns every tenant-owned aggregate table
// shares. version backs the optimistic lock used by Save and SaveWithLock.
type TenantAggregateModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	Version   int        `gorm:"not null;default:1"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}

// CopyFromAggregate fills the shared columns from a domain aggregate
func (m *TenantAggregateModel) CopyFromAggregate(root shared.TenantAggregateRoot) {
	m.ID = root.ID
	m.TenantID = root.TenantID
	m.CreatedBy = root.CreatedBy
	m.Version = root.Version
	m.CreatedAt = root.CreatedAt
	m.UpdatedAt = root.UpdatedAt
}

// CopyToAggregate restores the shared fields of a domain aggregate. Pending
// domain events are left untouched.
func (m *TenantAggregateModel) CopyToAggregate(root *shared.TenantAggregateRoot) {
	root.ID = m.ID
	root.TenantID = m.TenantID
	root.CreatedBy = m.CreatedBy
	root.Version = m.Version
	root.CreatedAt = m.CreatedAt
	root.UpdatedAt = m.UpdatedAt
}
