package quote

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quoteflow/backend/internal/domain/shared"
)

// AggregateTypeQuote is the aggregate type name used in domain events
const AggregateTypeQuote = "Quote"

const (
	EventTypeQuoteCreated  = "QuoteCreated"
	EventTypeQuoteSent     = "QuoteSent"
	EventTypeQuoteAccepted = "QuoteAccepted"
	EventTypeQuoteDeclined = "QuoteDeclined"
)

// QuoteCreatedEvent is raised when a draft quote is created
type QuoteCreatedEvent struct {
	shared.EventHeader
	QuoteID     uuid.UUID `json:"quote_id"`
	QuoteNumber string    `json:"quote_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
}

func NewQuoteCreatedEvent(q *Quote) *QuoteCreatedEvent {
	return &QuoteCreatedEvent{
		EventHeader: shared.NewEventHeader(EventTypeQuoteCreated, AggregateTypeQuote, q.ID, q.TenantID),
		QuoteID:         q.ID,
		QuoteNumber:     q.QuoteNumber,
		CustomerID:      q.CustomerID,
	}
}

// QuoteSentEvent is raised when an acceptance token is issued
type QuoteSentEvent struct {
	shared.EventHeader
	QuoteID     uuid.UUID `json:"quote_id"`
	QuoteNumber string    `json:"quote_number"`
}

func NewQuoteSentEvent(q *Quote) *QuoteSentEvent {
	return &QuoteSentEvent{
		EventHeader: shared.NewEventHeader(EventTypeQuoteSent, AggregateTypeQuote, q.ID, q.TenantID),
		QuoteID:         q.ID,
		QuoteNumber:     q.QuoteNumber,
	}
}

// QuoteAcceptedEvent is raised once the quote is accepted and its order linked
type QuoteAcceptedEvent struct {
	shared.EventHeader
	QuoteID     uuid.UUID        `json:"quote_id"`
	QuoteNumber string           `json:"quote_number"`
	Title       string           `json:"title"`
	CreatedBy   *uuid.UUID       `json:"created_by,omitempty"`
	OrderID     uuid.UUID        `json:"order_id"`
	OrderNumber string           `json:"order_number"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	ROTAmount   *decimal.Decimal `json:"rot_amount,omitempty"`
}

func NewQuoteAcceptedEvent(q *Quote, orderID uuid.UUID, orderNumber string) *QuoteAcceptedEvent {
	return &QuoteAcceptedEvent{
		EventHeader: shared.NewEventHeader(EventTypeQuoteAccepted, AggregateTypeQuote, q.ID, q.TenantID),
		QuoteID:         q.ID,
		QuoteNumber:     q.QuoteNumber,
		Title:           q.Title,
		CreatedBy:       q.CreatedBy,
		OrderID:         orderID,
		OrderNumber:     orderNumber,
		TotalAmount:     q.TotalAmount,
		ROTAmount:       q.ROTAmount,
	}
}

// QuoteDeclinedEvent is raised when a sent quote is declined
type QuoteDeclinedEvent struct {
	shared.EventHeader
	QuoteID     uuid.UUID `json:"quote_id"`
	QuoteNumber string    `json:"quote_number"`
}

func NewQuoteDeclinedEvent(q *Quote) *QuoteDeclinedEvent {
	return &QuoteDeclinedEvent{
		EventHeader: shared.NewEventHeader(EventTypeQuoteDeclined, AggregateTypeQuote, q.ID, q.TenantID),
		QuoteID:         q.ID,
		QuoteNumber:     q.QuoteNumber,
	}
}

// IdempotencyKey identifies the acceptance itself, so a re-published event for
// the same quote is handled once
func (e *QuoteAcceptedEvent) IdempotencyKey() string {
	return "quote-accepted:" + e.QuoteID.String()
}
