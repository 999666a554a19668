package workorder

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType classifies ledger entries
type ActivityType string

const (
	ActivityCreated           ActivityType = "created"
	ActivityStatusChanged     ActivityType = "status_changed"
	ActivityAssignmentChanged ActivityType = "assignment_changed"
	ActivityNoteAdded         ActivityType = "note_added"
)

// Activity is an append-only ledger entry describing one mutation of an order
type Activity struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	OrderID     uuid.UUID
	ActorID     *uuid.UUID
	Type        ActivityType
	Description string
	OldValue    string
	NewValue    string
	CreatedAt   time.Time
}

func newActivity(o *Order, actorID *uuid.UUID, t ActivityType, description, oldValue, newValue string) *Activity {
	return &Activity{
		ID:          uuid.New(),
		TenantID:    o.TenantID,
		OrderID:     o.ID,
		ActorID:     actorID,
		Type:        t,
		Description: description,
		OldValue:    oldValue,
		NewValue:    newValue,
		CreatedAt:   time.Now(),
	}
}

// NewCreatedActivity records materialization of the order from its quote
func NewCreatedActivity(o *Order) *Activity {
	return newActivity(o, nil, ActivityCreated,
		"Order "+o.OrderNumber+" created from accepted quote", "", o.Status.String())
}

// NewStatusChangedActivity records a status move from previous to the current status
func NewStatusChangedActivity(o *Order, actorID *uuid.UUID, previous Status) *Activity {
	return newActivity(o, actorID, ActivityStatusChanged,
		"Status changed from "+previous.Label()+" to "+o.Status.Label(),
		previous.String(), o.Status.String())
}

// NewAssignmentChangedActivity records an assignment change
func NewAssignmentChangedActivity(o *Order, actorID *uuid.UUID, previous Assignment) *Activity {
	return newActivity(o, actorID, ActivityAssignmentChanged,
		"Assignment changed",
		DescribeAssignment(previous), DescribeAssignment(o.Assignment))
}

// NewNoteActivity records a free-text note. The note must already be validated.
func NewNoteActivity(o *Order, actorID *uuid.UUID, note string) *Activity {
	return newActivity(o, actorID, ActivityNoteAdded, note, "", "")
}
