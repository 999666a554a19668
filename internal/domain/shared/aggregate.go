package shared

import (
	"time"

	"github.com/google/uuid"
)

// TenantAggregateRoot is embedded by every aggregate owned by an
// organisation. The tenant is passed in by callers, never read from ambient
// state. Version backs optimistic locking in the repositories.
type TenantAggregateRoot struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	CreatedBy *uuid.UUID
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time

	pending []DomainEvent
}

// NewTenantAggregateRoot starts a new aggregate at version 1
func NewTenantAggregateRoot(tenantID uuid.UUID) TenantAggregateRoot {
	now := time.Now()
	return TenantAggregateRoot{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetCreatedBy records the user that created the aggregate
func (a *TenantAggregateRoot) SetCreatedBy(userID uuid.UUID) {
	a.CreatedBy = &userID
}

// Touch bumps UpdatedAt
func (a *TenantAggregateRoot) Touch() {
	a.UpdatedAt = time.Now()
}

// AddDomainEvent queues event until the aggregate is saved
func (a *TenantAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.pending = append(a.pending, event)
}

func (a *TenantAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.pending
}

func (a *TenantAggregateRoot) ClearDomainEvents() {
	a.pending = nil
}
