package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quoteflow/backend/internal/domain/deduction"
	"github.com/quoteflow/backend/internal/domain/quote"
)

// QuoteModel is the persistence model for the Quote aggregate root.
type QuoteModel struct {
	TenantAggregateModel
	QuoteNumber            string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_quote_tenant_number,priority:2"`
	CustomerID             uuid.UUID            `gorm:"type:uuid;not null;index"`
	CustomerName           string               `gorm:"type:varchar(200);not null"`
	Title                  string               `gorm:"type:varchar(200);not null"`
	Description            string               `gorm:"type:text"`
	Items                  []QuoteLineItemModel `gorm:"foreignKey:QuoteID;references:ID"`
	TotalAmount            decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	Status                 quote.Status         `gorm:"type:varchar(20);not null;default:'draft';index"`
	AcceptanceToken        *string              `gorm:"type:varchar(64);uniqueIndex"`
	TokenExpiresAt         *time.Time
	SentAt                 *time.Time
	AcceptedAt             *time.Time
	DeclinedAt             *time.Time
	OrderID                *uuid.UUID      `gorm:"type:uuid"`
	IncludeROT             bool            `gorm:"column:include_rot;not null;default:false"`
	ROTPersonalID          *string         `gorm:"column:rot_personal_id;type:varchar(13)"`
	ROTOrgID               *string         `gorm:"column:rot_org_id;type:varchar(11)"`
	ROTPropertyDesignation string          `gorm:"column:rot_property_designation;type:varchar(200)"`
	ROTAmount              *decimal.Decimal `gorm:"column:rot_amount;type:decimal(18,4)"`
	AcceptedClientIP       *string         `gorm:"type:varchar(45)"`
}

// TableName returns the table name for GORM
func (QuoteModel) TableName() string {
	return "quotes"
}

// ToDomain converts the persistence model to a domain Quote
func (m *QuoteModel) ToDomain() *quote.Quote {
	q := &quote.Quote{
		QuoteNumber:            m.QuoteNumber,
		CustomerID:             m.CustomerID,
		CustomerName:           m.CustomerName,
		Title:                  m.Title,
		Description:            m.Description,
		TotalAmount:            m.TotalAmount,
		Status:                 m.Status,
		TokenExpiresAt:         m.TokenExpiresAt,
		SentAt:                 m.SentAt,
		AcceptedAt:             m.AcceptedAt,
		DeclinedAt:             m.DeclinedAt,
		OrderID:                m.OrderID,
		IncludeROT:             m.IncludeROT,
		ROTIdentifier:          deduction.FromColumns(m.ROTPersonalID, m.ROTOrgID),
		ROTPropertyDesignation: m.ROTPropertyDesignation,
		ROTAmount:              m.ROTAmount,
		Items:                  make([]quote.LineItem, len(m.Items)),
	}
	m.CopyToAggregate(&q.TenantAggregateRoot)
	if m.AcceptanceToken != nil {
		q.TokenHash = *m.AcceptanceToken
	}
	if m.AcceptedClientIP != nil {
		q.AcceptedClientIP = *m.AcceptedClientIP
	}
	for i := range m.Items {
		q.Items[i] = m.Items[i].ToDomain()
	}
	return q
}

// FromDomain populates the persistence model from a domain Quote
func (m *QuoteModel) FromDomain(q *quote.Quote) {
	m.CopyFromAggregate(q.TenantAggregateRoot)
	m.QuoteNumber = q.QuoteNumber
	m.CustomerID = q.CustomerID
	m.CustomerName = q.CustomerName
	m.Title = q.Title
	m.Description = q.Description
	m.TotalAmount = q.TotalAmount
	m.Status = q.Status
	m.AcceptanceToken = nullableString(q.TokenHash)
	m.TokenExpiresAt = q.TokenExpiresAt
	m.SentAt = q.SentAt
	m.AcceptedAt = q.AcceptedAt
	m.DeclinedAt = q.DeclinedAt
	m.OrderID = q.OrderID
	m.IncludeROT = q.IncludeROT
	m.ROTPersonalID, m.ROTOrgID = deduction.ToColumns(q.ROTIdentifier)
	m.ROTPropertyDesignation = q.ROTPropertyDesignation
	m.ROTAmount = q.ROTAmount
	m.AcceptedClientIP = nullableString(q.AcceptedClientIP)
	m.Items = make([]QuoteLineItemModel, len(q.Items))
	for i := range q.Items {
		m.Items[i].FromDomain(&q.Items[i])
	}
}

// QuoteModelFromDomain creates a new persistence model from a domain Quote
func QuoteModelFromDomain(q *quote.Quote) *QuoteModel {
	m := &QuoteModel{}
	m.FromDomain(q)
	return m
}

// QuoteLineItemModel is the persistence model for a quote line item.
// Line items are replaced as a batch and so carry no version.
type QuoteLineItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	QuoteID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position    int             `gorm:"not null"`
	Description string          `gorm:"type:varchar(500);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Total       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (QuoteLineItemModel) TableName() string {
	return "quote_line_items"
}

// ToDomain converts the persistence model to a domain LineItem
func (m *QuoteLineItemModel) ToDomain() quote.LineItem {
	return quote.LineItem{
		ID:          m.ID,
		QuoteID:     m.QuoteID,
		Position:    m.Position,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		Total:       m.Total,
		CreatedAt:   m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain LineItem
func (m *QuoteLineItemModel) FromDomain(item *quote.LineItem) {
	m.ID = item.ID
	m.QuoteID = item.QuoteID
	m.Position = item.Position
	m.Description = item.Description
	m.Quantity = item.Quantity
	m.UnitPrice = item.UnitPrice
	m.Total = item.Total
	m.CreatedAt = item.CreatedAt
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
