package quote

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quoteflow/backend/internal/domain/deduction"
	"github.com/quoteflow/backend/internal/domain/shared"
)

// Status represents the lifecycle status of a quote
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusAccepted, StatusDeclined:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether the quote can no longer change
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusDeclined
}

// LineItem is one priced row of a quote. Items are owned by their quote and
// replaced as a whole whenever the quote is edited.
type LineItem struct {
	ID          uuid.UUID
	QuoteID     uuid.UUID
	Position    int
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal // Quantity * UnitPrice
	CreatedAt   time.Time
}

// NewLineItem creates a line item and computes its total
func NewLineItem(quoteID uuid.UUID, position int, description string, quantity, unitPrice decimal.Decimal) (*LineItem, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Line item description cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	return &LineItem{
		ID:          uuid.New(),
		QuoteID:     quoteID,
		Position:    position,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Total:       quantity.Mul(unitPrice),
		CreatedAt:   time.Now(),
	}, nil
}

// ItemInput is the raw data for one line item
type ItemInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// Quote is the aggregate root for a sales quote. The acceptance token is never
// stored in clear text; TokenHash holds its digest.
type Quote struct {
	shared.TenantAggregateRoot
	QuoteNumber  string
	CustomerID   uuid.UUID
	CustomerName string
	Title        string
	Description  string
	Items        []LineItem
	TotalAmount  decimal.Decimal
	Status       Status

	TokenHash      string
	TokenExpiresAt *time.Time
	SentAt         *time.Time
	AcceptedAt     *time.Time
	DeclinedAt     *time.Time

	// OrderID caches the order materialized from this quote. The order's own
	// QuoteID is authoritative.
	OrderID *uuid.UUID

	IncludeROT             bool
	ROTIdentifier          deduction.Identifier
	ROTPropertyDesignation string
	ROTAmount              *decimal.Decimal

	AcceptedClientIP string
}

// NewQuote creates a new draft quote
func NewQuote(tenantID uuid.UUID, quoteNumber string, customerID uuid.UUID, customerName, title string) (*Quote, error) {
	if quoteNumber == "" {
		return nil, shared.NewDomainError("INVALID_QUOTE_NUMBER", "Quote number cannot be empty")
	}
	if len(quoteNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_QUOTE_NUMBER", "Quote number cannot exceed 50 characters")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}

	q := &Quote{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		QuoteNumber:         quoteNumber,
		CustomerID:          customerID,
		CustomerName:        customerName,
		Title:               title,
		Items:               make([]LineItem, 0),
		TotalAmount:         decimal.Zero,
		Status:              StatusDraft,
	}

	q.AddDomainEvent(NewQuoteCreatedEvent(q))

	return q, nil
}

// IsEditable reports whether content and line items may still change
func (q *Quote) IsEditable() bool {
	return q.Status == StatusDraft || q.Status == StatusSent
}

// UpdateDetails changes title and description
func (q *Quote) UpdateDetails(title, description string) error {
	if !q.IsEditable() {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify a quote that is "+q.Status.String())
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	q.Title = title
	q.Description = description
	q.Touch()
	return nil
}

// ReplaceItems discards every line item and builds the new set from inputs
func (q *Quote) ReplaceItems(inputs []ItemInput) error {
	if !q.IsEditable() {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify items of a quote that is "+q.Status.String())
	}

	items := make([]LineItem, 0, len(inputs))
	for i, in := range inputs {
		item, err := NewLineItem(q.ID, i+1, in.Description, in.Quantity, in.UnitPrice)
		if err != nil {
			return err
		}
		items = append(items, *item)
	}

	q.Items = items
	q.recalculateTotal()
	q.Touch()
	return nil
}

// SetDeduction sets the deduction flag and any identifier the salesperson
// already knows. Acceptance may later overwrite the identifier.
func (q *Quote) SetDeduction(include bool, id deduction.Identifier, propertyDesignation string) error {
	if !q.IsEditable() {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify a quote that is "+q.Status.String())
	}
	if id != nil && !deduction.ValidateIdentifier(id.Kind(), id.Value()) {
		return shared.NewValidationError(shared.FieldError{Field: "rot_identifier", Message: "invalid identifier format"})
	}
	q.IncludeROT = include
	if !include {
		id = nil
		propertyDesignation = ""
	}
	q.ROTIdentifier = id
	q.ROTPropertyDesignation = strings.TrimSpace(propertyDesignation)
	q.Touch()
	return nil
}

// IssueToken stores the digest of a freshly issued token and moves the quote to
// sent. Re-issuing while sent rotates the token.
func (q *Quote) IssueToken(tokenHash string, expiresAt time.Time) error {
	if q.Status != StatusDraft && q.Status != StatusSent {
		return shared.NewDomainError("INVALID_STATE", "Cannot send a quote that is "+q.Status.String())
	}
	if len(q.Items) == 0 {
		return shared.NewDomainError("EMPTY_QUOTE", "Cannot send a quote without line items")
	}
	if tokenHash == "" {
		return shared.NewDomainError("INVALID_TOKEN", "Token cannot be empty")
	}

	now := time.Now()
	q.TokenHash = tokenHash
	q.TokenExpiresAt = &expiresAt
	q.Status = StatusSent
	q.SentAt = &now
	q.Touch()

	q.AddDomainEvent(NewQuoteSentEvent(q))

	return nil
}

// CheckResolvable decides whether the acceptance token may be used at now.
// Expiry wins over status so that an expired link always reads as expired.
func (q *Quote) CheckResolvable(now time.Time) error {
	if q.TokenHash == "" || q.TokenExpiresAt == nil {
		return shared.ErrTokenNotFound
	}
	if !now.Before(*q.TokenExpiresAt) {
		return shared.ErrTokenExpired
	}
	if q.Status != StatusSent {
		return shared.ErrAlreadyHandled
	}
	return nil
}

// Acceptance carries every field written by the sent -> accepted transition
type Acceptance struct {
	AcceptedAt          time.Time
	Identifier          deduction.Identifier
	PropertyDesignation string
	ROTAmount           *decimal.Decimal
	ClientIP            string
	// OverridesPreset is set when the customer's identifier replaces a
	// different one entered by the salesperson.
	OverridesPreset bool
}

// PrepareAcceptance computes the acceptance fields without changing the quote.
// claim is required when the quote includes the deduction and ignored otherwise.
func (q *Quote) PrepareAcceptance(claim *deduction.Claim, policy deduction.Policy, now time.Time, clientIP string) (Acceptance, error) {
	if q.Status != StatusSent {
		return Acceptance{}, shared.ErrAlreadyHandled
	}

	acc := Acceptance{
		AcceptedAt: now,
		ClientIP:   clientIP,
	}
	if !q.IncludeROT {
		return acc, nil
	}
	if claim == nil || claim.Identifier == nil {
		return Acceptance{}, shared.NewValidationError(shared.FieldError{Field: "identifier", Message: "identifier is required"})
	}

	amount := policy.Calculate(q.TotalAmount)
	acc.Identifier = claim.Identifier
	acc.PropertyDesignation = claim.PropertyDesignation
	acc.ROTAmount = &amount
	acc.OverridesPreset = q.ROTIdentifier != nil &&
		(q.ROTIdentifier.Kind() != claim.Identifier.Kind() || q.ROTIdentifier.Value() != claim.Identifier.Value())
	return acc, nil
}

// ApplyAcceptance mirrors a persisted acceptance onto the in-memory aggregate
func (q *Quote) ApplyAcceptance(acc Acceptance) {
	q.Status = StatusAccepted
	at := acc.AcceptedAt
	q.AcceptedAt = &at
	q.AcceptedClientIP = acc.ClientIP
	if q.IncludeROT {
		q.ROTIdentifier = acc.Identifier
		q.ROTPropertyDesignation = acc.PropertyDesignation
		q.ROTAmount = acc.ROTAmount
	}
	q.Touch()
}

// LinkOrder records the materialized order. Linking the same order twice is a no-op.
func (q *Quote) LinkOrder(orderID uuid.UUID) error {
	if q.Status != StatusAccepted {
		return shared.NewDomainError("INVALID_STATE", "Only accepted quotes can be linked to an order")
	}
	if q.OrderID != nil {
		if *q.OrderID == orderID {
			return nil
		}
		return shared.NewDomainError("ORDER_ALREADY_LINKED", "Quote is already linked to another order")
	}
	q.OrderID = &orderID
	q.Touch()
	return nil
}

// Decline marks a sent quote as declined
func (q *Quote) Decline() error {
	if q.Status != StatusSent {
		return shared.NewDomainError("INVALID_STATE", "Only sent quotes can be declined")
	}
	now := time.Now()
	q.Status = StatusDeclined
	q.DeclinedAt = &now
	q.Touch()

	q.AddDomainEvent(NewQuoteDeclinedEvent(q))
	return nil
}

// CanDelete reports whether the quote may be removed
func (q *Quote) CanDelete() bool {
	return q.Status == StatusDraft
}

// DeductionPreview returns the breakdown the customer sees for this quote
func (q *Quote) DeductionPreview(policy deduction.Policy) deduction.Breakdown {
	if !q.IncludeROT {
		return deduction.Breakdown{
			Total:        q.TotalAmount,
			LaborPortion: decimal.Zero,
			Deduction:    decimal.Zero,
			NetPayable:   q.TotalAmount,
			Currency:     deduction.Currency,
		}
	}
	return policy.Preview(q.TotalAmount)
}

// IsMaterialized reports whether an order has been linked
func (q *Quote) IsMaterialized() bool {
	return q.OrderID != nil
}

func (q *Quote) recalculateTotal() {
	total := decimal.Zero
	for _, item := range q.Items {
		total = total.Add(item.Total)
	}
	q.TotalAmount = total
}
