package notification

import (
	"time"

	"github.com/google/uuid"

	"github.com/quoteflow/backend/internal/domain/notification"
)

// Meta describes a published message
type Meta struct {
	ID            string    `json:"id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Producer      string    `json:"producer,omitempty"`
	Time          time.Time `json:"time"`
	Type          string    `json:"type"`
}

// Envelope is the wire format of every notification message
type Envelope struct {
	Meta Meta    `json:"meta"`
	Data Message `json:"data"`
}

// Message is the notice itself. Rendering is left to the consumer.
type Message struct {
	RecipientID string               `json:"recipient_id"`
	Kind        notification.Kind    `json:"kind"`
	Payload     notification.Payload `json:"payload"`
}

// RoutingKey returns the topic routing key for a kind
func RoutingKey(kind notification.Kind) string {
	return "notification." + string(kind)
}

func newEnvelope(producer, correlationID string, recipientID uuid.UUID, kind notification.Kind, payload notification.Payload, now time.Time) Envelope {
	return Envelope{
		Meta: Meta{
			ID:            uuid.NewString(),
			CorrelationID: correlationID,
			Producer:      producer,
			Time:          now.UTC(),
			Type:          string(kind) + ".v1",
		},
		Data: Message{
			RecipientID: recipientID.String(),
			Kind:        kind,
			Payload:     payload,
		},
	}
}
