package workorder

import (
	"github.com/google/uuid"

	"github.com/quoteflow/backend/internal/domain/shared"
)

// AggregateTypeOrder is the aggregate type name used in domain events
const AggregateTypeOrder = "WorkOrder"

const (
	EventTypeOrderCreated       = "WorkOrderCreated"
	EventTypeOrderStatusChanged = "WorkOrderStatusChanged"
	EventTypeOrderAssigned      = "WorkOrderAssigned"
)

// OrderCreatedEvent is raised when an order is materialized from a quote
type OrderCreatedEvent struct {
	shared.EventHeader
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	QuoteID     uuid.UUID `json:"quote_id"`
}

func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		EventHeader: shared.NewEventHeader(EventTypeOrderCreated, AggregateTypeOrder, o.ID, o.TenantID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		QuoteID:         o.QuoteID,
	}
}

// OrderStatusChangedEvent is raised on every status change
type OrderStatusChangedEvent struct {
	shared.EventHeader
	OrderID   uuid.UUID `json:"order_id"`
	OldStatus Status    `json:"old_status"`
	NewStatus Status    `json:"new_status"`
}

func NewOrderStatusChangedEvent(o *Order, previous Status) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		EventHeader: shared.NewEventHeader(EventTypeOrderStatusChanged, AggregateTypeOrder, o.ID, o.TenantID),
		OrderID:         o.ID,
		OldStatus:       previous,
		NewStatus:       o.Status,
	}
}

// OrderAssignedEvent is raised when the assignment changes
type OrderAssignedEvent struct {
	shared.EventHeader
	OrderID  uuid.UUID `json:"order_id"`
	Previous string    `json:"previous"`
	Current  string    `json:"current"`
}

func NewOrderAssignedEvent(o *Order, previous Assignment) *OrderAssignedEvent {
	return &OrderAssignedEvent{
		EventHeader: shared.NewEventHeader(EventTypeOrderAssigned, AggregateTypeOrder, o.ID, o.TenantID),
		OrderID:         o.ID,
		Previous:        DescribeAssignment(previous),
		Current:         DescribeAssignment(o.Assignment),
	}
}
