package acceptance

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AcceptRequest is the body a customer submits to accept a quote
type AcceptRequest struct {
	IdentifierKind      string `json:"identifier_kind" binding:"omitempty,oneof=person company"`
	Identifier          string `json:"identifier" binding:"omitempty,max=20"`
	PropertyDesignation string `json:"property_designation" binding:"omitempty,max=200"`
}

// AcceptInput is everything Accept needs. ClientIP is recorded for audit only.
type AcceptInput struct {
	Token               string
	IdentifierKind      string
	Identifier          string
	PropertyDesignation string
	ClientIP            string
}

// AcceptResult describes the order created for an accepted quote
type AcceptResult struct {
	QuoteID     uuid.UUID        `json:"quote_id"`
	OrderID     uuid.UUID        `json:"order_id"`
	OrderNumber string           `json:"order_number"`
	ROTAmount   *decimal.Decimal `json:"rot_amount,omitempty"`
}
