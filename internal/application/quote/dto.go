package quote

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quoteflow/backend/internal/domain/deduction"
	"github.com/quoteflow/backend/internal/domain/quote"
)

// LineItemInput represents one line item in a create or update request
type LineItemInput struct {
	Description string          `json:"description" binding:"required,min=1,max=500"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
}

// DeductionInput carries the ROT settings chosen by the salesperson.
// The identifier is optional here; the customer supplies it at acceptance.
type DeductionInput struct {
	IncludeROT          bool   `json:"include_rot"`
	IdentifierKind      string `json:"identifier_kind" binding:"omitempty,oneof=person company"`
	Identifier          string `json:"identifier" binding:"omitempty,max=20"`
	PropertyDesignation string `json:"property_designation" binding:"omitempty,max=200"`
}

// CreateQuoteRequest represents a request to create a draft quote
type CreateQuoteRequest struct {
	CustomerID   uuid.UUID       `json:"customer_id" binding:"required"`
	CustomerName string          `json:"customer_name" binding:"required,min=1,max=200"`
	Title        string          `json:"title" binding:"required,min=1,max=200"`
	Description  string          `json:"description" binding:"omitempty,max=4000"`
	Items        []LineItemInput `json:"items" binding:"omitempty,dive"`
	Deduction    DeductionInput  `json:"deduction"`
}

// UpdateQuoteRequest represents a request to edit a quote. Items, when given,
// replace the existing line items as a whole.
type UpdateQuoteRequest struct {
	Title       *string          `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string          `json:"description" binding:"omitempty,max=4000"`
	Items       *[]LineItemInput `json:"items" binding:"omitempty,dive"`
	Deduction   *DeductionInput  `json:"deduction"`
}

// SendQuoteRequest represents a request to issue an acceptance link
type SendQuoteRequest struct {
	TTLDays int `json:"ttl_days" binding:"omitempty,min=1,max=365"`
}

// QuoteListFilter represents filter options for listing quotes
type QuoteListFilter struct {
	Status     string     `form:"status" binding:"omitempty,oneof=draft sent accepted declined"`
	CustomerID string     `form:"customer_id" binding:"omitempty,uuid"`
	Search     string     `form:"search"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// LineItemResponse represents a line item in API responses
type LineItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	Position    int             `json:"position"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// BreakdownResponse represents a deduction breakdown
type BreakdownResponse struct {
	Total          decimal.Decimal `json:"total"`
	LaborPortion   decimal.Decimal `json:"labor_portion"`
	Deduction      decimal.Decimal `json:"deduction"`
	NetPayable     decimal.Decimal `json:"net_payable"`
	Capped         bool            `json:"capped"`
	Currency       string          `json:"currency"`
	DeductionLabel string          `json:"deduction_label"`
	NetLabel       string          `json:"net_payable_label"`
}

// ToBreakdownResponse converts a breakdown to its response DTO
func ToBreakdownResponse(b deduction.Breakdown) BreakdownResponse {
	return BreakdownResponse{
		Total:          b.Total,
		LaborPortion:   b.LaborPortion,
		Deduction:      b.Deduction,
		NetPayable:     b.NetPayable,
		Capped:         b.Capped,
		Currency:       b.Currency,
		DeductionLabel: deduction.FormatAmount(b.Deduction),
		NetLabel:       deduction.FormatAmount(b.NetPayable),
	}
}

// QuoteResponse represents a quote in internal API responses
type QuoteResponse struct {
	ID                     uuid.UUID          `json:"id"`
	TenantID               uuid.UUID          `json:"tenant_id"`
	QuoteNumber            string             `json:"quote_number"`
	CustomerID             uuid.UUID          `json:"customer_id"`
	CustomerName           string             `json:"customer_name"`
	Title                  string             `json:"title"`
	Description            string             `json:"description,omitempty"`
	Items                  []LineItemResponse `json:"items"`
	TotalAmount            decimal.Decimal    `json:"total_amount"`
	Status                 string             `json:"status"`
	IncludeROT             bool               `json:"include_rot"`
	ROTIdentifierKind      string             `json:"rot_identifier_kind,omitempty"`
	ROTIdentifier          string             `json:"rot_identifier,omitempty"`
	ROTPropertyDesignation string             `json:"rot_property_designation,omitempty"`
	ROTAmount              *decimal.Decimal   `json:"rot_amount,omitempty"`
	Deduction              BreakdownResponse  `json:"deduction"`
	TokenExpiresAt         *time.Time         `json:"token_expires_at,omitempty"`
	SentAt                 *time.Time         `json:"sent_at,omitempty"`
	AcceptedAt             *time.Time         `json:"accepted_at,omitempty"`
	DeclinedAt             *time.Time         `json:"declined_at,omitempty"`
	AcceptedClientIP       string             `json:"accepted_client_ip,omitempty"`
	OrderID                *uuid.UUID         `json:"order_id,omitempty"`
	OrderLinkConsistent    bool               `json:"order_link_consistent"`
	CreatedBy              *uuid.UUID         `json:"created_by,omitempty"`
	CreatedAt              time.Time          `json:"created_at"`
	UpdatedAt              time.Time          `json:"updated_at"`
	Version                int                `json:"version"`
}

// QuoteListItemResponse represents a quote in list responses
type QuoteListItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	QuoteNumber  string          `json:"quote_number"`
	CustomerName string          `json:"customer_name"`
	Title        string          `json:"title"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Status       string          `json:"status"`
	IncludeROT   bool            `json:"include_rot"`
	OrderID      *uuid.UUID      `json:"order_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// SendQuoteResponse carries the raw acceptance token. It is returned once and
// never stored.
type SendQuoteResponse struct {
	Token     string        `json:"token"`
	URL       string        `json:"url"`
	ExpiresAt time.Time     `json:"expires_at"`
	Quote     QuoteResponse `json:"quote"`
}

// PublicQuoteResponse is the customer-facing view behind an acceptance link
type PublicQuoteResponse struct {
	QuoteNumber  string             `json:"quote_number"`
	CustomerName string             `json:"customer_name"`
	Title        string             `json:"title"`
	Description  string             `json:"description,omitempty"`
	Items        []LineItemResponse `json:"items"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
	IncludeROT   bool               `json:"include_rot"`
	Deduction    BreakdownResponse  `json:"deduction"`
	// Preset identifier entered by the salesperson, shown for confirmation
	IdentifierKind      string    `json:"identifier_kind,omitempty"`
	Identifier          string    `json:"identifier,omitempty"`
	PropertyDesignation string    `json:"property_designation,omitempty"`
	ExpiresAt           time.Time `json:"expires_at"`
}

func toLineItemResponses(items []quote.LineItem) []LineItemResponse {
	responses := make([]LineItemResponse, len(items))
	for i, item := range items {
		responses[i] = LineItemResponse{
			ID:          item.ID,
			Position:    item.Position,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       item.Total,
		}
	}
	return responses
}

// ToQuoteResponse converts a domain quote to its response DTO
func ToQuoteResponse(q *quote.Quote, policy deduction.Policy) QuoteResponse {
	resp := QuoteResponse{
		ID:                     q.ID,
		TenantID:               q.TenantID,
		QuoteNumber:            q.QuoteNumber,
		CustomerID:             q.CustomerID,
		CustomerName:           q.CustomerName,
		Title:                  q.Title,
		Description:            q.Description,
		Items:                  toLineItemResponses(q.Items),
		TotalAmount:            q.TotalAmount,
		Status:                 string(q.Status),
		IncludeROT:             q.IncludeROT,
		ROTPropertyDesignation: q.ROTPropertyDesignation,
		ROTAmount:              q.ROTAmount,
		Deduction:              ToBreakdownResponse(q.DeductionPreview(policy)),
		TokenExpiresAt:         q.TokenExpiresAt,
		SentAt:                 q.SentAt,
		AcceptedAt:             q.AcceptedAt,
		DeclinedAt:             q.DeclinedAt,
		AcceptedClientIP:       q.AcceptedClientIP,
		OrderID:                q.OrderID,
		OrderLinkConsistent:    true,
		CreatedBy:              q.CreatedBy,
		CreatedAt:              q.CreatedAt,
		UpdatedAt:              q.UpdatedAt,
		Version:                q.Version,
	}
	if q.ROTIdentifier != nil {
		resp.ROTIdentifierKind = string(q.ROTIdentifier.Kind())
		resp.ROTIdentifier = q.ROTIdentifier.Value()
	}
	return resp
}

// ToQuoteListItemResponses converts domain quotes to list responses
func ToQuoteListItemResponses(quotes []quote.Quote) []QuoteListItemResponse {
	responses := make([]QuoteListItemResponse, len(quotes))
	for i := range quotes {
		q := &quotes[i]
		responses[i] = QuoteListItemResponse{
			ID:           q.ID,
			QuoteNumber:  q.QuoteNumber,
			CustomerName: q.CustomerName,
			Title:        q.Title,
			TotalAmount:  q.TotalAmount,
			Status:       string(q.Status),
			IncludeROT:   q.IncludeROT,
			OrderID:      q.OrderID,
			CreatedAt:    q.CreatedAt,
		}
	}
	return responses
}

// ToPublicQuoteResponse converts a resolvable quote to the customer view
func ToPublicQuoteResponse(q *quote.Quote, policy deduction.Policy) PublicQuoteResponse {
	resp := PublicQuoteResponse{
		QuoteNumber:         q.QuoteNumber,
		CustomerName:        q.CustomerName,
		Title:               q.Title,
		Description:         q.Description,
		Items:               toLineItemResponses(q.Items),
		TotalAmount:         q.TotalAmount,
		IncludeROT:          q.IncludeROT,
		Deduction:           ToBreakdownResponse(q.DeductionPreview(policy)),
		PropertyDesignation: q.ROTPropertyDesignation,
	}
	if q.TokenExpiresAt != nil {
		resp.ExpiresAt = *q.TokenExpiresAt
	}
	if q.ROTIdentifier != nil {
		resp.IdentifierKind = string(q.ROTIdentifier.Kind())
		resp.Identifier = q.ROTIdentifier.Value()
	}
	return resp
}

func toItemInputs(items []LineItemInput) []quote.ItemInput {
	inputs := make([]quote.ItemInput, len(items))
	for i, item := range items {
		inputs[i] = quote.ItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}
	return inputs
}

// PreviewDeductionRequest represents a request for a deduction breakdown
type PreviewDeductionRequest struct {
	Total decimal.Decimal `json:"total" binding:"required"`
}
