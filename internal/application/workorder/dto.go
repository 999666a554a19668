package workorder

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quoteflow/backend/internal/domain/workorder"
)

// UpdateStatusRequest represents a request to change an order's status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=open confirmed incomplete ready_to_invoice cancelled_by_customer"`
}

// UpdateAssignmentRequest represents a request to (re)assign an order.
// An empty kind unassigns it.
type UpdateAssignmentRequest struct {
	Kind       string     `json:"kind" binding:"omitempty,oneof=individual team"`
	AssigneeID *uuid.UUID `json:"assignee_id"`
}

// AddNoteRequest represents a request to add a note to an order
type AddNoteRequest struct {
	Note string `json:"note" binding:"required,max=2000"`
}

// OrderListFilter represents filter options for listing orders
type OrderListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=open confirmed incomplete ready_to_invoice cancelled_by_customer"`
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// AssignmentResponse represents an order assignment
type AssignmentResponse struct {
	Kind       string    `json:"kind"`
	AssigneeID uuid.UUID `json:"assignee_id"`
}

// OrderResponse represents a work order in API responses
type OrderResponse struct {
	ID                     uuid.UUID           `json:"id"`
	TenantID               uuid.UUID           `json:"tenant_id"`
	OrderNumber            string              `json:"order_number"`
	QuoteID                uuid.UUID           `json:"quote_id"`
	CustomerID             uuid.UUID           `json:"customer_id"`
	CustomerName           string              `json:"customer_name"`
	Title                  string              `json:"title"`
	Description            string              `json:"description,omitempty"`
	Value                  decimal.Decimal     `json:"value"`
	NetPayable             decimal.Decimal     `json:"net_payable"`
	Status                 string              `json:"status"`
	StatusLabel            string              `json:"status_label"`
	Assignment             *AssignmentResponse `json:"assignment,omitempty"`
	IncludeROT             bool                `json:"include_rot"`
	ROTIdentifierKind      string              `json:"rot_identifier_kind,omitempty"`
	ROTIdentifier          string              `json:"rot_identifier,omitempty"`
	ROTPropertyDesignation string              `json:"rot_property_designation,omitempty"`
	ROTAmount              *decimal.Decimal    `json:"rot_amount,omitempty"`
	CreatedAt              time.Time           `json:"created_at"`
	UpdatedAt              time.Time           `json:"updated_at"`
	Version                int                 `json:"version"`
}

// OrderListItemResponse represents a work order in list responses
type OrderListItemResponse struct {
	ID           uuid.UUID           `json:"id"`
	OrderNumber  string              `json:"order_number"`
	CustomerName string              `json:"customer_name"`
	Title        string              `json:"title"`
	Value        decimal.Decimal     `json:"value"`
	Status       string              `json:"status"`
	Assignment   *AssignmentResponse `json:"assignment,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// ActivityResponse represents a ledger entry
type ActivityResponse struct {
	ID          uuid.UUID  `json:"id"`
	OrderID     uuid.UUID  `json:"order_id"`
	ActorID     *uuid.UUID `json:"actor_id,omitempty"`
	Type        string     `json:"type"`
	Description string     `json:"description"`
	OldValue    string     `json:"old_value,omitempty"`
	NewValue    string     `json:"new_value,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toAssignmentResponse(a workorder.Assignment) *AssignmentResponse {
	if a == nil {
		return nil
	}
	return &AssignmentResponse{Kind: string(a.Kind()), AssigneeID: a.AssigneeID()}
}

// ToOrderResponse converts a domain order to its response DTO
func ToOrderResponse(o *workorder.Order) OrderResponse {
	resp := OrderResponse{
		ID:                     o.ID,
		TenantID:               o.TenantID,
		OrderNumber:            o.OrderNumber,
		QuoteID:                o.QuoteID,
		CustomerID:             o.CustomerID,
		CustomerName:           o.CustomerName,
		Title:                  o.Title,
		Description:            o.Description,
		Value:                  o.Value,
		NetPayable:             o.NetPayable(),
		Status:                 string(o.Status),
		StatusLabel:            o.Status.Label(),
		Assignment:             toAssignmentResponse(o.Assignment),
		IncludeROT:             o.IncludeROT,
		ROTPropertyDesignation: o.ROTPropertyDesignation,
		ROTAmount:              o.ROTAmount,
		CreatedAt:              o.CreatedAt,
		UpdatedAt:              o.UpdatedAt,
		Version:                o.Version,
	}
	if o.ROTIdentifier != nil {
		resp.ROTIdentifierKind = string(o.ROTIdentifier.Kind())
		resp.ROTIdentifier = o.ROTIdentifier.Value()
	}
	return resp
}

// ToOrderListItemResponses converts domain orders to list responses
func ToOrderListItemResponses(orders []workorder.Order) []OrderListItemResponse {
	responses := make([]OrderListItemResponse, len(orders))
	for i := range orders {
		o := &orders[i]
		responses[i] = OrderListItemResponse{
			ID:           o.ID,
			OrderNumber:  o.OrderNumber,
			CustomerName: o.CustomerName,
			Title:        o.Title,
			Value:        o.Value,
			Status:       string(o.Status),
			Assignment:   toAssignmentResponse(o.Assignment),
			CreatedAt:    o.CreatedAt,
		}
	}
	return responses
}

// ToActivityResponses converts ledger entries to response DTOs
func ToActivityResponses(activities []workorder.Activity) []ActivityResponse {
	responses := make([]ActivityResponse, len(activities))
	for i, a := range activities {
		responses[i] = ActivityResponse{
			ID:          a.ID,
			OrderID:     a.OrderID,
			ActorID:     a.ActorID,
			Type:        string(a.Type),
			Description: a.Description,
			OldValue:    a.OldValue,
			NewValue:    a.NewValue,
			CreatedAt:   a.CreatedAt,
		}
	}
	return responses
}
