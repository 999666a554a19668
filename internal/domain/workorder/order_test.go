package workorder

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quoteflow/backend/internal/domain/deduction"
	"github.com/quoteflow/backend/internal/domain/quote"
)

func acceptedQuote(t *testing.T, includeROT bool) *quote.Quote {
	t.Helper()
	q, err := quote.NewQuote(uuid.New(), "Q-1", uuid.New(), "Erik Lund", "Kitchen")
	require.NoError(t, err)
	require.NoError(t, q.ReplaceItems([]quote.ItemInput{
		{Description: "Carpentry", Quantity: decimal.NewFromInt(20), UnitPrice: decimal.NewFromInt(500)},
	}))
	require.NoError(t, q.SetDeduction(includeROT, nil, ""))
	require.NoError(t, q.IssueToken("digest", time.Now().Add(time.Hour)))

	var claim *deduction.Claim
	if includeROT {
		claim = &deduction.Claim{Identifier: deduction.Person{NationalID: "811228-9874"}, PropertyDesignation: "Lund 3:4"}
	}
	acc, err := q.PrepareAcceptance(claim, deduction.DefaultPolicy(), time.Now(), "")
	require.NoError(t, err)
	q.ApplyAcceptance(acc)
	return q
}

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	o, err := NewOrderFromQuote(acceptedQuote(t, true), "WO-2026-00001")
	require.NoError(t, err)
	return o
}

func TestStatus(t *testing.T) {
	for _, s := range AllStatuses() {
		assert.True(t, s.IsValid())
		assert.NotEqual(t, string(s), s.Label(), "label for %s", s)
	}
	assert.False(t, Status("shipped").IsValid())
	assert.Equal(t, "Ready to invoice", StatusReadyToInvoice.Label())
}

func TestStatus_CanTransitionTo_AnyToAny(t *testing.T) {
	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			assert.True(t, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
		assert.False(t, from.CanTransitionTo(Status("bogus")))
	}
}

func TestNewOrderFromQuote(t *testing.T) {
	t.Run("snapshots quote fields", func(t *testing.T) {
		q := acceptedQuote(t, true)
		o, err := NewOrderFromQuote(q, "WO-1")
		require.NoError(t, err)

		assert.Equal(t, q.TenantID, o.TenantID)
		assert.Equal(t, q.ID, o.QuoteID)
		assert.Equal(t, q.CustomerID, o.CustomerID)
		assert.Equal(t, "Kitchen", o.Title)
		assert.True(t, o.Value.Equal(decimal.NewFromInt(10000)))
		assert.Equal(t, StatusOpen, o.Status)
		assert.Nil(t, o.Assignment)
		assert.True(t, o.IncludeROT)
		assert.Equal(t, deduction.Person{NationalID: "811228-9874"}, o.ROTIdentifier)
		require.NotNil(t, o.ROTAmount)
		assert.True(t, o.ROTAmount.Equal(decimal.NewFromInt(3500)))
		assert.True(t, o.NetPayable().Equal(decimal.NewFromInt(6500)))
	})

	t.Run("snapshot is not aliased to the quote", func(t *testing.T) {
		q := acceptedQuote(t, true)
		o, err := NewOrderFromQuote(q, "WO-1")
		require.NoError(t, err)
		changed := decimal.NewFromInt(1)
		q.ROTAmount = &changed
		assert.True(t, o.ROTAmount.Equal(decimal.NewFromInt(3500)))
	})

	t.Run("rejects quote that is not accepted", func(t *testing.T) {
		q, err := quote.NewQuote(uuid.New(), "Q-1", uuid.New(), "x", "y")
		require.NoError(t, err)
		_, err = NewOrderFromQuote(q, "WO-1")
		assert.Error(t, err)
	})

	t.Run("rejects empty order number", func(t *testing.T) {
		_, err := NewOrderFromQuote(acceptedQuote(t, false), "")
		assert.Error(t, err)
	})
}

func TestOrder_RefreshFromQuote(t *testing.T) {
	t.Run("stale order takes the accepted terms", func(t *testing.T) {
		q := acceptedQuote(t, true)
		o, err := NewOrderFromQuote(q, "WO-2026-00004")
		require.NoError(t, err)
		assignee := uuid.New()
		o.Assignment = Individual{UserID: assignee}

		// what the order looked like after an earlier, rolled-back acceptance
		o.Title = "Old kitchen"
		o.Value = decimal.NewFromInt(1000)
		o.ROTIdentifier = deduction.Person{NationalID: "19800101-1234"}
		stale := decimal.NewFromInt(300)
		o.ROTAmount = &stale

		changed, err := o.RefreshFromQuote(q)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, "Kitchen", o.Title)
		assert.True(t, o.Value.Equal(decimal.NewFromInt(10000)))
		assert.Equal(t, deduction.Person{NationalID: "811228-9874"}, o.ROTIdentifier)
		require.NotNil(t, o.ROTAmount)
		assert.True(t, o.ROTAmount.Equal(decimal.NewFromInt(3500)))

		assert.Equal(t, "WO-2026-00004", o.OrderNumber)
		assert.Equal(t, StatusOpen, o.Status)
		assert.Equal(t, Individual{UserID: assignee}, o.Assignment)

		changed, err = o.RefreshFromQuote(q)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("deduction dropped on the quote", func(t *testing.T) {
		o := newTestOrder(t)
		q := acceptedQuote(t, false)
		o.TenantID, o.QuoteID = q.TenantID, q.ID

		changed, err := o.RefreshFromQuote(q)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.False(t, o.IncludeROT)
		assert.Nil(t, o.ROTIdentifier)
		assert.Nil(t, o.ROTAmount)
	})

	t.Run("rejects another quote", func(t *testing.T) {
		o := newTestOrder(t)
		_, err := o.RefreshFromQuote(acceptedQuote(t, true))
		assert.Error(t, err)
	})

	t.Run("rejects quote that is not accepted", func(t *testing.T) {
		q, err := quote.NewQuote(uuid.New(), "Q-1", uuid.New(), "x", "y")
		require.NoError(t, err)
		o := newTestOrder(t)
		o.TenantID, o.QuoteID = q.TenantID, q.ID

		_, err = o.RefreshFromQuote(q)
		assert.Error(t, err)
	})
}

func TestOrder_ChangeStatus(t *testing.T) {
	o := newTestOrder(t)
	o.ClearDomainEvents()

	prev, changed, err := o.ChangeStatus(StatusConfirmed)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusOpen, prev)
	assert.Equal(t, StatusConfirmed, o.Status)
	assert.Len(t, o.GetDomainEvents(), 1)

	t.Run("same status is a no-op", func(t *testing.T) {
		_, changed, err := o.ChangeStatus(StatusConfirmed)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("cancelled order can be reopened", func(t *testing.T) {
		_, _, err := o.ChangeStatus(StatusCancelledByCustomer)
		require.NoError(t, err)
		prev, changed, err := o.ChangeStatus(StatusOpen)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, StatusCancelledByCustomer, prev)
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		_, _, err := o.ChangeStatus(Status("lost"))
		assert.Error(t, err)
	})
}

func TestOrder_Assign(t *testing.T) {
	o := newTestOrder(t)
	userID := uuid.New()

	prev, changed := o.Assign(Individual{UserID: userID})
	assert.True(t, changed)
	assert.Nil(t, prev)
	require.NotNil(t, o.IndividualAssignee())
	assert.Equal(t, userID, *o.IndividualAssignee())

	_, changed = o.Assign(Individual{UserID: userID})
	assert.False(t, changed)

	teamID := uuid.New()
	prev, changed = o.Assign(Team{TeamID: teamID})
	assert.True(t, changed)
	assert.Equal(t, Individual{UserID: userID}, prev)
	assert.Nil(t, o.IndividualAssignee())

	prev, changed = o.Assign(nil)
	assert.True(t, changed)
	assert.Equal(t, Team{TeamID: teamID}, prev)
}

func TestAssignmentColumns(t *testing.T) {
	id := uuid.New()

	u, team := AssignmentToColumns(Individual{UserID: id})
	assert.Equal(t, Individual{UserID: id}, AssignmentFromColumns(u, team))
	assert.Nil(t, team)

	u, team = AssignmentToColumns(Team{TeamID: id})
	assert.Nil(t, u)
	assert.Equal(t, Team{TeamID: id}, AssignmentFromColumns(u, team))

	u, team = AssignmentToColumns(nil)
	assert.Nil(t, AssignmentFromColumns(u, team))
}

func TestNewAssignment(t *testing.T) {
	a, ok := NewAssignment(AssigneeIndividual, uuid.New())
	assert.True(t, ok)
	assert.Equal(t, AssigneeIndividual, a.Kind())

	_, ok = NewAssignment(AssigneeTeam, uuid.Nil)
	assert.False(t, ok)

	a, ok = NewAssignment("", uuid.Nil)
	assert.True(t, ok)
	assert.Nil(t, a)

	_, ok = NewAssignment("robot", uuid.New())
	assert.False(t, ok)
}

func TestActivities(t *testing.T) {
	o := newTestOrder(t)
	actor := uuid.New()

	created := NewCreatedActivity(o)
	assert.Equal(t, ActivityCreated, created.Type)
	assert.Equal(t, "open", created.NewValue)
	assert.Nil(t, created.ActorID)

	prev, _, err := o.ChangeStatus(StatusReadyToInvoice)
	require.NoError(t, err)
	a := NewStatusChangedActivity(o, &actor, prev)
	assert.Equal(t, ActivityStatusChanged, a.Type)
	assert.Equal(t, "open", a.OldValue)
	assert.Equal(t, "ready_to_invoice", a.NewValue)
	assert.Equal(t, o.ID, a.OrderID)
	assert.Equal(t, o.TenantID, a.TenantID)
	assert.Contains(t, a.Description, "Ready to invoice")

	before, _ := o.Assign(Team{TeamID: uuid.New()})
	as := NewAssignmentChangedActivity(o, &actor, before)
	assert.Equal(t, "unassigned", as.OldValue)
	assert.Contains(t, as.NewValue, "team:")
}

func TestValidateNote(t *testing.T) {
	n, err := ValidateNote("  customer called  ")
	require.NoError(t, err)
	assert.Equal(t, "customer called", n)

	_, err = ValidateNote("   ")
	assert.Error(t, err)
}
