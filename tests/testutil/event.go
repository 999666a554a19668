package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/quoteflow/backend/internal/domain/notification"
	"github.com/quoteflow/backend/internal/domain/shared"
)

// RecordingHandler is a shared.EventHandler that keeps every event it sees.
type RecordingHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
}

// NewRecordingHandler creates a handler subscribed to eventTypes.
func NewRecordingHandler(eventTypes ...string) *RecordingHandler {
	return &RecordingHandler{eventTypes: eventTypes}
}

// EventTypes implements shared.EventHandler.
func (h *RecordingHandler) EventTypes() []string {
	return h.eventTypes
}

// Handle implements shared.EventHandler.
func (h *RecordingHandler) Handle(_ context.Context, evt shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, evt)
	return h.err
}

// Handled returns a copy of the events seen so far.
func (h *RecordingHandler) Handled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]shared.DomainEvent, len(h.handled))
	copy(out, h.handled)
	return out
}

// SetError makes Handle fail with err.
func (h *RecordingHandler) SetError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

// SentNotification is one notice delivered through a RecordingGateway.
type SentNotification struct {
	RecipientID uuid.UUID
	Kind        notification.Kind
	Payload     notification.Payload
}

// RecordingGateway is a notification.Gateway that keeps what it sends.
type RecordingGateway struct {
	mu   sync.Mutex
	sent []SentNotification
	err  error
}

// NewRecordingGateway creates an empty gateway.
func NewRecordingGateway() *RecordingGateway {
	return &RecordingGateway{}
}

// Send implements notification.Gateway.
func (g *RecordingGateway) Send(_ context.Context, recipientID uuid.UUID, kind notification.Kind, payload notification.Payload) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.sent = append(g.sent, SentNotification{RecipientID: recipientID, Kind: kind, Payload: payload})
	return nil
}

// Sent returns a copy of every delivered notice.
func (g *RecordingGateway) Sent() []SentNotification {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]SentNotification, len(g.sent))
	copy(out, g.sent)
	return out
}

// SentTo returns the notices delivered to recipientID.
func (g *RecordingGateway) SentTo(recipientID uuid.UUID) []SentNotification {
	var out []SentNotification
	for _, n := range g.Sent() {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out
}

// SetError makes Send fail with err. nil restores delivery.
func (g *RecordingGateway) SetError(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

// Close implements io.Closer.
func (g *RecordingGateway) Close() error {
	return nil
}

var _ notification.Gateway = (*RecordingGateway)(nil)
