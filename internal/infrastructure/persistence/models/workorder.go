package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quoteflow/backend/internal/domain/deduction"
	"github.com/quoteflow/backend/internal/domain/workorder"
)

// WorkOrderModel is the persistence model for the Order aggregate root.
type WorkOrderModel struct {
	TenantAggregateModel
	OrderNumber            string           `gorm:"type:varchar(50);not null;uniqueIndex:idx_work_order_tenant_number,priority:2"`
	QuoteID                uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_work_order_tenant_quote,priority:2"`
	CustomerID             uuid.UUID        `gorm:"type:uuid;not null;index"`
	CustomerName           string           `gorm:"type:varchar(200);not null"`
	Title                  string           `gorm:"type:varchar(200);not null"`
	Description            string           `gorm:"type:text"`
	Value                  decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	Status                 workorder.Status `gorm:"type:varchar(30);not null;default:'open';index"`
	AssigneeUserID         *uuid.UUID       `gorm:"type:uuid;index"`
	AssigneeTeamID         *uuid.UUID       `gorm:"type:uuid;index"`
	IncludeROT             bool             `gorm:"column:include_rot;not null;default:false"`
	ROTPersonalID          *string          `gorm:"column:rot_personal_id;type:varchar(13)"`
	ROTOrgID               *string          `gorm:"column:rot_org_id;type:varchar(11)"`
	ROTPropertyDesignation string           `gorm:"column:rot_property_designation;type:varchar(200)"`
	ROTAmount              *decimal.Decimal `gorm:"column:rot_amount;type:decimal(18,4)"`
}

// TableName returns the table name for GORM
func (WorkOrderModel) TableName() string {
	return "work_orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *WorkOrderModel) ToDomain() *workorder.Order {
	o := &workorder.Order{
		OrderNumber:            m.OrderNumber,
		QuoteID:                m.QuoteID,
		CustomerID:             m.CustomerID,
		CustomerName:           m.CustomerName,
		Title:                  m.Title,
		Description:            m.Description,
		Value:                  m.Value,
		Status:                 m.Status,
		Assignment:             workorder.AssignmentFromColumns(m.AssigneeUserID, m.AssigneeTeamID),
		IncludeROT:             m.IncludeROT,
		ROTIdentifier:          deduction.FromColumns(m.ROTPersonalID, m.ROTOrgID),
		ROTPropertyDesignation: m.ROTPropertyDesignation,
		ROTAmount:              m.ROTAmount,
	}
	m.CopyToAggregate(&o.TenantAggregateRoot)
	return o
}

// FromDomain populates the persistence model from a domain Order
func (m *WorkOrderModel) FromDomain(o *workorder.Order) {
	m.CopyFromAggregate(o.TenantAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.QuoteID = o.QuoteID
	m.CustomerID = o.CustomerID
	m.CustomerName = o.CustomerName
	m.Title = o.Title
	m.Description = o.Description
	m.Value = o.Value
	m.Status = o.Status
	m.AssigneeUserID, m.AssigneeTeamID = workorder.AssignmentToColumns(o.Assignment)
	m.IncludeROT = o.IncludeROT
	m.ROTPersonalID, m.ROTOrgID = deduction.ToColumns(o.ROTIdentifier)
	m.ROTPropertyDesignation = o.ROTPropertyDesignation
	m.ROTAmount = o.ROTAmount
}

// WorkOrderModelFromDomain creates a new persistence model from a domain Order
func WorkOrderModelFromDomain(o *workorder.Order) *WorkOrderModel {
	m := &WorkOrderModel{}
	m.FromDomain(o)
	return m
}

// WorkOrderActivityModel is the persistence model for ledger entries.
// Rows are inserted once and never updated.
type WorkOrderActivityModel struct {
	ID           uuid.UUID              `gorm:"type:uuid;primary_key"`
	TenantID     uuid.UUID              `gorm:"type:uuid;not null;index"`
	OrderID      uuid.UUID              `gorm:"type:uuid;not null;index:idx_work_order_activity_order,priority:1"`
	ActorID      *uuid.UUID             `gorm:"type:uuid"`
	ActivityType workorder.ActivityType `gorm:"type:varchar(30);not null"`
	Description  string                 `gorm:"type:text;not null"`
	OldValue     string                 `gorm:"type:varchar(200)"`
	NewValue     string                 `gorm:"type:varchar(200)"`
	CreatedAt    time.Time              `gorm:"not null;index:idx_work_order_activity_order,priority:2"`
}

// TableName returns the table name for GORM
func (WorkOrderActivityModel) TableName() string {
	return "work_order_activities"
}

// ToDomain converts the persistence model to a domain Activity
func (m *WorkOrderActivityModel) ToDomain() workorder.Activity {
	return workorder.Activity{
		ID:          m.ID,
		TenantID:    m.TenantID,
		OrderID:     m.OrderID,
		ActorID:     m.ActorID,
		Type:        m.ActivityType,
		Description: m.Description,
		OldValue:    m.OldValue,
		NewValue:    m.NewValue,
		CreatedAt:   m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain Activity
func (m *WorkOrderActivityModel) FromDomain(a *workorder.Activity) {
	m.ID = a.ID
	m.TenantID = a.TenantID
	m.OrderID = a.OrderID
	m.ActorID = a.ActorID
	m.ActivityType = a.Type
	m.Description = a.Description
	m.OldValue = a.OldValue
	m.NewValue = a.NewValue
	m.CreatedAt = a.CreatedAt
}
