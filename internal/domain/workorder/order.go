package workorder

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quoteflow/backend/internal/domain/deduction"
	"github.com/quoteflow/backend/internal/domain/quote"
	"github.com/quoteflow/backend/internal/domain/shared"
)

// Status represents the status of a work order
type Status string

const (
	StatusOpen                Status = "open"
	StatusConfirmed           Status = "confirmed"
	StatusIncomplete          Status = "incomplete"
	StatusReadyToInvoice      Status = "ready_to_invoice"
	StatusCancelledByCustomer Status = "cancelled_by_customer"
)

var statusLabels = map[Status]string{
	StatusOpen:                "Open",
	StatusConfirmed:           "Confirmed",
	StatusIncomplete:          "Incomplete",
	StatusReadyToInvoice:      "Ready to invoice",
	StatusCancelledByCustomer: "Cancelled by customer",
}

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	_, ok := statusLabels[s]
	return ok
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Label returns the human readable name used in notifications
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// IsTerminal reports the statuses that usually end an order's life. It is
// informational only and does not restrict transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCancelledByCustomer || s == StatusReadyToInvoice
}

// CanTransitionTo permits any move between known statuses. The usual flow is
// open -> confirmed -> incomplete/ready_to_invoice, with open and
// cancelled_by_customer reachable from anywhere.
func (s Status) CanTransitionTo(target Status) bool {
	return s.IsValid() && target.IsValid()
}

// AllStatuses lists statuses in display order
func AllStatuses() []Status {
	return []Status{StatusOpen, StatusConfirmed, StatusIncomplete, StatusReadyToInvoice, StatusCancelledByCustomer}
}

// Order is a work order materialized from an accepted quote. Customer, value and
// deduction fields are a frozen copy of the quote at acceptance time.
type Order struct {
	shared.TenantAggregateRoot
	OrderNumber  string
	QuoteID      uuid.UUID // provenance
	CustomerID   uuid.UUID
	CustomerName string
	Title        string
	Description  string
	Value        decimal.Decimal
	Status       Status
	Assignment   Assignment

	IncludeROT             bool
	ROTIdentifier          deduction.Identifier
	ROTPropertyDesignation string
	ROTAmount              *decimal.Decimal
}

// NewOrderFromQuote snapshots an accepted quote into a new open order
func NewOrderFromQuote(q *quote.Quote, orderNumber string) (*Order, error) {
	if q == nil {
		return nil, shared.NewDomainError("INVALID_QUOTE", "Quote cannot be nil")
	}
	if q.Status != quote.StatusAccepted {
		return nil, shared.NewDomainError("INVALID_STATE", "Orders can only be created from accepted quotes")
	}
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}

	o := &Order{
		TenantAggregateRoot:    shared.NewTenantAggregateRoot(q.TenantID),
		OrderNumber:            orderNumber,
		QuoteID:                q.ID,
		CustomerID:             q.CustomerID,
		CustomerName:           q.CustomerName,
		Title:                  q.Title,
		Description:            q.Description,
		Value:                  q.TotalAmount,
		Status:                 StatusOpen,
		IncludeROT:             q.IncludeROT,
		ROTIdentifier:          q.ROTIdentifier,
		ROTPropertyDesignation: q.ROTPropertyDesignation,
	}
	if q.ROTAmount != nil {
		amount := *q.ROTAmount
		o.ROTAmount = &amount
	}
	o.CreatedBy = q.CreatedBy

	o.AddDomainEvent(NewOrderCreatedEvent(o))

	return o, nil
}

// RefreshFromQuote copies the accepted quote's terms onto an order left over
// from a rolled-back acceptance. changed is false when nothing differed.
func (o *Order) RefreshFromQuote(q *quote.Quote) (changed bool, err error) {
	if q == nil || q.ID != o.QuoteID || q.TenantID != o.TenantID {
		return false, shared.NewDomainError("INVALID_QUOTE", "Quote does not belong to this order")
	}
	if q.Status != quote.StatusAccepted {
		return false, shared.NewDomainError("INVALID_STATE", "Orders can only be refreshed from accepted quotes")
	}

	fresh, err := NewOrderFromQuote(q, o.OrderNumber)
	if err != nil {
		return false, err
	}
	if o.sameTerms(fresh) {
		return false, nil
	}

	o.CustomerID = fresh.CustomerID
	o.CustomerName = fresh.CustomerName
	o.Title = fresh.Title
	o.Description = fresh.Description
	o.Value = fresh.Value
	o.IncludeROT = fresh.IncludeROT
	o.ROTIdentifier = fresh.ROTIdentifier
	o.ROTPropertyDesignation = fresh.ROTPropertyDesignation
	o.ROTAmount = fresh.ROTAmount
	return true, nil
}

func (o *Order) sameTerms(other *Order) bool {
	return o.CustomerID == other.CustomerID &&
		o.CustomerName == other.CustomerName &&
		o.Title == other.Title &&
		o.Description == other.Description &&
		o.Value.Equal(other.Value) &&
		o.IncludeROT == other.IncludeROT &&
		identifierValue(o.ROTIdentifier) == identifierValue(other.ROTIdentifier) &&
		o.ROTPropertyDesignation == other.ROTPropertyDesignation &&
		equalAmount(o.ROTAmount, other.ROTAmount)
}

func identifierValue(id deduction.Identifier) string {
	if id == nil {
		return ""
	}
	return id.Kind().String() + ":" + id.Value()
}

func equalAmount(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// ChangeStatus moves the order to target and returns the previous status.
// changed is false when target equals the current status.
func (o *Order) ChangeStatus(target Status) (previous Status, changed bool, err error) {
	if !target.IsValid() {
		return o.Status, false, shared.NewDomainError("INVALID_STATUS", "Unknown order status: "+target.String())
	}
	if o.Status == target {
		return o.Status, false, nil
	}
	if !o.Status.CanTransitionTo(target) {
		return o.Status, false, shared.NewDomainError("INVALID_STATE", "Cannot move order from "+o.Status.String()+" to "+target.String())
	}

	previous = o.Status
	o.Status = target
	o.Touch()

	o.AddDomainEvent(NewOrderStatusChangedEvent(o, previous))

	return previous, true, nil
}

// Assign replaces the assignment and returns the previous one. A nil assignment
// unassigns the order.
func (o *Order) Assign(a Assignment) (previous Assignment, changed bool) {
	if SameAssignment(o.Assignment, a) {
		return o.Assignment, false
	}
	previous = o.Assignment
	o.Assignment = a
	o.Touch()

	o.AddDomainEvent(NewOrderAssignedEvent(o, previous))

	return previous, true
}

// IndividualAssignee returns the assigned user, if the order is assigned to one
func (o *Order) IndividualAssignee() *uuid.UUID {
	if ind, ok := o.Assignment.(Individual); ok {
		id := ind.UserID
		return &id
	}
	return nil
}

// NetPayable is the order value minus the deduction snapshot
func (o *Order) NetPayable() decimal.Decimal {
	if o.ROTAmount == nil {
		return o.Value
	}
	return deduction.NetPayable(o.Value, *o.ROTAmount)
}

// ValidateNote trims a free-text note and rejects empty ones
func ValidateNote(note string) (string, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return "", shared.NewValidationError(shared.FieldError{Field: "note", Message: "note cannot be empty"})
	}
	if len(note) > 2000 {
		return "", shared.NewValidationError(shared.FieldError{Field: "note", Message: "note cannot exceed 2000 characters"})
	}
	return note, nil
}
