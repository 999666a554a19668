// Package notification defines the outbound notification contract. Delivery
// mechanics live in infrastructure; the core only emits notices.
package notification

import (
	"context"

	"github.com/google/uuid"
)

// Kind identifies the template a notice is rendered with
type Kind string

const (
	KindOrderStatusChanged Kind = "order.status_changed"
	KindOrderAssigned      Kind = "order.assigned"
	KindQuoteAccepted      Kind = "quote.accepted"
)

// Payload is the template data for a notice
type Payload map[string]string

// Gateway delivers a notice to an internal user. Callers never wait on the
// outcome; an error only means the notice was not handed off.
type Gateway interface {
	Send(ctx context.Context, recipientID uuid.UUID, kind Kind, payload Payload) error
}

// Effect is a notice to send once the state change that caused it has committed
type Effect struct {
	TenantID    uuid.UUID
	RecipientID uuid.UUID
	Kind        Kind
	Payload     Payload
	// DedupKey, when set, suppresses repeated delivery of the same notice
	DedupKey string
}

// Effects is the post-commit list accumulated during one unit of work
type Effects []Effect

// Add appends an effect
func (e *Effects) Add(effect Effect) {
	*e = append(*e, effect)
}

// Dispatcher applies post-commit effects. It never reports failure to the
// caller; the state change that produced the effects already succeeded.
type Dispatcher interface {
	Dispatch(ctx context.Context, effects Effects)
}
