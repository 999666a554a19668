// Package event holds the application's domain event handlers
package event

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/quoteflow/backend/internal/domain/deduction"
	"github.com/quoteflow/backend/internal/domain/notification"
	"github.com/quoteflow/backend/internal/domain/quote"
	"github.com/quoteflow/backend/internal/domain/shared"
)

// QuoteAcceptedNotifier tells the quote's creator that the customer accepted
// it and which order it became
type QuoteAcceptedNotifier struct {
	dispatcher notification.Dispatcher
	logger     *zap.Logger
}

// NewQuoteAcceptedNotifier creates the handler
func NewQuoteAcceptedNotifier(dispatcher notification.Dispatcher, logger *zap.Logger) *QuoteAcceptedNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuoteAcceptedNotifier{dispatcher: dispatcher, logger: logger}
}

// EventTypes implements shared.EventHandler
func (h *QuoteAcceptedNotifier) EventTypes() []string {
	return []string{quote.EventTypeQuoteAccepted}
}

// Handle implements shared.EventHandler
func (h *QuoteAcceptedNotifier) Handle(ctx context.Context, evt shared.DomainEvent) error {
	accepted, ok := evt.(*quote.QuoteAcceptedEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T for %s", evt, quote.EventTypeQuoteAccepted)
	}
	if accepted.CreatedBy == nil {
		h.logger.Debug("accepted quote has no creator, nobody to notify",
			zap.String("quote_id", accepted.QuoteID.String()))
		return nil
	}

	payload := notification.Payload{
		"quote_id":     accepted.QuoteID.String(),
		"quote_number": accepted.QuoteNumber,
		"title":        accepted.Title,
		"order_id":     accepted.OrderID.String(),
		"order_number": accepted.OrderNumber,
		"total_amount": deduction.FormatAmount(accepted.TotalAmount),
	}
	if accepted.ROTAmount != nil {
		payload["rot_amount"] = deduction.FormatAmount(*accepted.ROTAmount)
	}

	h.dispatcher.Dispatch(ctx, notification.Effects{{
		TenantID:    accepted.TenantID(),
		RecipientID: *accepted.CreatedBy,
		Kind:        notification.KindQuoteAccepted,
		Payload:     payload,
		DedupKey:    accepted.IdempotencyKey(),
	}})
	return nil
}

var _ shared.EventHandler = (*QuoteAcceptedNotifier)(nil)
