package workorder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quoteflow/backend/internal/domain/deduction"
	"github.com/quoteflow/backend/internal/domain/notification"
	"github.com/quoteflow/backend/internal/domain/quote"
	"github.com/quoteflow/backend/internal/domain/shared"
	"github.com/quoteflow/backend/internal/domain/workorder"
)

type serviceFixture struct {
	svc        *Service
	orders     *MockOrderRepository
	activities *MockActivityLedger
	dispatcher *MockDispatcher
}

func newFixture() *serviceFixture {
	orders := new(MockOrderRepository)
	activities := new(MockActivityLedger)
	dispatcher := new(MockDispatcher)
	scope := &passthroughScope{orders: orders, activities: activities}
	return &serviceFixture{
		svc:        NewService(orders, activities, scope, dispatcher, nil),
		orders:     orders,
		activities: activities,
		dispatcher: dispatcher,
	}
}

func createTestOrder(tenantID uuid.UUID) *workorder.Order {
	return &workorder.Order{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderNumber:         "WO-2026-00001",
		QuoteID:             uuid.New(),
		CustomerID:          uuid.New(),
		CustomerName:        "Anna Svensson",
		Title:               "Bathroom",
		Value:               decimal.NewFromInt(10000),
		Status:              workorder.StatusOpen,
	}
}

func acceptedQuote(t *testing.T, tenantID uuid.UUID) *quote.Quote {
	t.Helper()
	q, err := quote.NewQuote(tenantID, "Q-1", uuid.New(), "Anna", "Roof")
	require.NoError(t, err)
	require.NoError(t, q.ReplaceItems([]quote.ItemInput{{Description: "Roofing", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(50000)}}))
	require.NoError(t, q.IssueToken("d", time.Now().Add(time.Hour)))
	acc, err := q.PrepareAcceptance(nil, deduction.DefaultPolicy(), time.Now(), "")
	require.NoError(t, err)
	q.ApplyAcceptance(acc)
	return q
}

func TestService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	actorID := uuid.New()

	t.Run("appends one activity and notifies individual assignee", func(t *testing.T) {
		f := newFixture()
		order := createTestOrder(tenantID)
		assignee := uuid.New()
		order.Assignment = workorder.Individual{UserID: assignee}

		f.orders.On("FindByIDForTenant", ctx, tenantID, order.ID).Return(order, nil)
		f.orders.On("SaveWithLock", ctx, order).Return(nil)
		f.activities.On("Append", ctx, mock.MatchedBy(func(a *workorder.Activity) bool {
			return a.Type == workorder.ActivityStatusChanged &&
				a.OldValue == "open" && a.NewValue == "confirmed" &&
				a.ActorID != nil && *a.ActorID == actorID
		})).Return(nil).Once()
		f.dispatcher.On("Dispatch", ctx, mock.MatchedBy(func(effects notification.Effects) bool {
			return len(effects) == 1 &&
				effects[0].RecipientID == assignee &&
				effects[0].Kind == notification.KindOrderStatusChanged &&
				effects[0].Payload["old_status"] == "Open" &&
				effects[0].Payload["new_status"] == "Confirmed"
		})).Return().Once()

		resp, err := f.svc.UpdateStatus(ctx, tenantID, order.ID, workorder.StatusConfirmed, actorID)
		require.NoError(t, err)
		assert.Equal(t, "confirmed", resp.Status)

		f.orders.AssertExpectations(t)
		f.activities.AssertExpectations(t)
		f.dispatcher.AssertExpectations(t)
	})

	t.Run("team assignment writes activity without notification", func(t *testing.T) {
		f := newFixture()
		order := createTestOrder(tenantID)
		order.Assignment = workorder.Team{TeamID: uuid.New()}

		f.orders.On("FindByIDForTenant", ctx, tenantID, order.ID).Return(order, nil)
		f.orders.On("SaveWithLock", ctx, order).Return(nil)
		f.activities.On("Append", ctx, mock.AnythingOfType("*workorder.Activity")).Return(nil).Once()

		_, err := f.svc.UpdateStatus(ctx, tenantID, order.ID, workorder.StatusCancelledByCustomer, actorID)
		require.NoError(t, err)
		f.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
		f.activities.AssertNumberOfCalls(t, "Append", 1)
	})

	t.Run("same status writes nothing", func(t *testing.T) {
		f := newFixture()
		order := createTestOrder(tenantID)
		f.orders.On("FindByIDForTenant", ctx, tenantID, order.ID).Return(order, nil)

		_, err := f.svc.UpdateStatus(ctx, tenantID, order.ID, workorder.StatusOpen, actorID)
		require.NoError(t, err)
		f.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		f.activities.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("ledger failure aborts without notifying", func(t *testing.T) {
		f := newFixture()
		order := createTestOrder(tenantID)
		order.Assignment = workorder.Individual{UserID: uuid.New()}
		f.orders.On("FindByIDForTenant", ctx, tenantID, order.ID).Return(order, nil)
		f.orders.On("SaveWithLock", ctx, order).Return(nil)
		f.activities.On("Append", ctx, mock.Anything).Return(errors.New("disk full"))

		_, err := f.svc.UpdateStatus(ctx, tenantID, order.ID, workorder.StatusConfirmed, actorID)
		assert.Error(t, err)
		f.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	})

	t.Run("order not found", func(t *testing.T) {
		f := newFixture()
		id := uuid.New()
		f.orders.On("FindByIDForTenant", ctx, tenantID, id).Return(nil, shared.ErrNotFound)

		_, err := f.svc.UpdateStatus(ctx, tenantID, id, workorder.StatusConfirmed, actorID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		f := newFixture()
		order := createTestOrder(tenantID)
		f.orders.On("FindByIDForTenant", ctx, tenantID, order.ID).Return(order, nil)

		_, err := f.svc.UpdateStatus(ctx, tenantID, order.ID, workorder.Status("gone"), actorID)
		assert.Error(t, err)
	})
}

func TestService_UpdateAssignment(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("notifies new individual assignee", func(t *testing.T) {
		f := newFixture()
		order := createTestOrder(tenantID)
		assignee := uuid.New()

		f.orders.On("FindByIDForTenant", ctx, tenantID, order.ID).Return(order, nil)
		f.orders.On("SaveWithLock", ctx, order).Return(nil)
		f.activities.On("Append", ctx, mock.MatchedBy(func(a *workorder.Activity) bool {
			return a.Type == workorder.ActivityAssignmentChanged && a.OldValue == "unassigned"
		})).Return(nil)
		f.dispatcher.On("Dispatch", ctx, mock.MatchedBy(func(effects notification.Effects) bool {
			return len(effects) == 1 && effects[0].Kind == notification.KindOrderAssigned && effects[0].RecipientID == assignee
		})).Return()

		resp, err := f.svc.UpdateAssignment(ctx, tenantID, order.ID, workorder.Individual{UserID: assignee}, uuid.Nil)
		require.NoError(t, err)
		require.NotNil(t, resp.Assignment)
		assert.Equal(t, assignee, resp.Assignment.AssigneeID)
		f.dispatcher.AssertExpectations(t)
	})

	t.Run("unchanged assignment is a no-op", func(t *testing.T) {
		f := newFixture()
		order := createTestOrder(tenantID)
		team := workorder.Team{TeamID: uuid.New()}
		order.Assignment = team
		f.orders.On("FindByIDForTenant", ctx, tenantID, order.ID).Return(order, nil)

		_, err := f.svc.UpdateAssignment(ctx, tenantID, order.ID, team, uuid.Nil)
		require.NoError(t, err)
		f.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("concurrent modification surfaces", func(t *testing.T) {
		f := newFixture()
		order := createTestOrder(tenantID)
		conflict := shared.NewDomainError("CONCURRENT_MODIFICATION", "modified")
		f.orders.On("FindByIDForTenant", ctx, tenantID, order.ID).Return(order, nil)
		f.orders.On("SaveWithLock", ctx, order).Return(conflict)

		_, err := f.svc.UpdateAssignment(ctx, tenantID, order.ID, workorder.Team{TeamID: uuid.New()}, uuid.Nil)
		assert.ErrorIs(t, err, conflict)
		f.activities.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})
}

func TestService_AddNote(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	f := newFixture()
	order := createTestOrder(tenantID)

	f.orders.On("FindByIDForTenant", ctx, tenantID, order.ID).Return(order, nil)
	f.activities.On("Append", ctx, mock.MatchedBy(func(a *workorder.Activity) bool {
		return a.Type == workorder.ActivityNoteAdded && a.Description == "Customer wants a call first"
	})).Return(nil)

	resp, err := f.svc.AddNote(ctx, tenantID, order.ID, " Customer wants a call first ", uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "note_added", resp.Type)

	_, err = f.svc.AddNote(ctx, tenantID, order.ID, "  ", uuid.New())
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestService_MaterializeFromQuote(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("creates order and created activity", func(t *testing.T) {
		f := newFixture()
		q := acceptedQuote(t, tenantID)

		f.orders.On("FindByQuoteID", ctx, tenantID, q.ID).Return(nil, shared.ErrNotFound)
		f.orders.On("GenerateOrderNumber", ctx, tenantID).Return("WO-2026-00007", nil)
		f.orders.On("Create", ctx, mock.MatchedBy(func(o *workorder.Order) bool {
			return o.QuoteID == q.ID && o.Status == workorder.StatusOpen && o.OrderNumber == "WO-2026-00007"
		})).Return(nil)
		f.activities.On("Append", ctx, mock.MatchedBy(func(a *workorder.Activity) bool {
			return a.Type == workorder.ActivityCreated
		})).Return(nil)

		order, reused, err := f.svc.MaterializeFromQuote(ctx, q)
		require.NoError(t, err)
		assert.False(t, reused)
		assert.True(t, order.Value.Equal(decimal.NewFromInt(50000)))
		assert.Empty(t, order.GetDomainEvents(), "events are cleared after publishing")
	})

	t.Run("reuses existing order for the quote", func(t *testing.T) {
		f := newFixture()
		q := acceptedQuote(t, tenantID)
		existing := createTestOrder(tenantID)
		existing.QuoteID = q.ID

		f.orders.On("FindByQuoteID", ctx, tenantID, q.ID).Return(existing, nil)
		f.orders.On("RefreshSnapshot", ctx, mock.MatchedBy(func(o *workorder.Order) bool {
			return o.ID == existing.ID && o.Value.Equal(decimal.NewFromInt(50000)) &&
				o.CustomerID == q.CustomerID && o.Title == "Roof"
		})).Return(nil)

		order, reused, err := f.svc.MaterializeFromQuote(ctx, q)
		require.NoError(t, err)
		assert.True(t, reused)
		assert.Equal(t, existing.ID, order.ID)
		assert.Equal(t, "WO-2026-00001", order.OrderNumber)
		assert.True(t, order.Value.Equal(q.TotalAmount))
		f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.orders.AssertExpectations(t)
	})

	t.Run("reused order already matching the quote is not rewritten", func(t *testing.T) {
		f := newFixture()
		q := acceptedQuote(t, tenantID)
		existing, err := workorder.NewOrderFromQuote(q, "WO-2026-00003")
		require.NoError(t, err)
		existing.ClearDomainEvents()

		f.orders.On("FindByQuoteID", ctx, tenantID, q.ID).Return(existing, nil)

		order, reused, err := f.svc.MaterializeFromQuote(ctx, q)
		require.NoError(t, err)
		assert.True(t, reused)
		assert.Same(t, existing, order)
		f.orders.AssertNotCalled(t, "RefreshSnapshot", mock.Anything, mock.Anything)
	})

	t.Run("refresh conflict aborts", func(t *testing.T) {
		f := newFixture()
		q := acceptedQuote(t, tenantID)
		existing := createTestOrder(tenantID)
		existing.QuoteID = q.ID

		f.orders.On("FindByQuoteID", ctx, tenantID, q.ID).Return(existing, nil)
		f.orders.On("RefreshSnapshot", ctx, existing).
			Return(shared.NewDomainError("CONCURRENT_MODIFICATION", "The order has been modified by another user"))

		_, _, err := f.svc.MaterializeFromQuote(ctx, q)
		assert.Error(t, err)
	})

	t.Run("lookup error aborts", func(t *testing.T) {
		f := newFixture()
		q := acceptedQuote(t, tenantID)
		f.orders.On("FindByQuoteID", ctx, tenantID, q.ID).Return(nil, errors.New("connection reset"))

		_, _, err := f.svc.MaterializeFromQuote(ctx, q)
		assert.Error(t, err)
	})
}

func TestService_DiscardUnlinked(t *testing.T) {
	ctx := context.Background()
	tenantID, orderID := uuid.New(), uuid.New()
	f := newFixture()
	f.orders.On("DiscardUnlinked", ctx, tenantID, orderID).Return(true, nil)

	discarded, err := f.svc.DiscardUnlinked(ctx, tenantID, orderID)
	require.NoError(t, err)
	assert.True(t, discarded)
}

func TestService_ListActivities(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	f := newFixture()
	order := createTestOrder(tenantID)

	f.orders.On("FindByIDForTenant", ctx, tenantID, order.ID).Return(order, nil)
	f.activities.On("ListByOrder", ctx, tenantID, order.ID, mock.AnythingOfType("shared.Filter")).
		Return([]workorder.Activity{*workorder.NewCreatedActivity(order)}, nil)
	f.activities.On("CountByOrder", ctx, tenantID, order.ID).Return(int64(1), nil)

	items, total, err := f.svc.ListActivities(ctx, tenantID, order.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "created", items[0].Type)
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	f := newFixture()

	f.orders.On("FindAllForTenant", ctx, tenantID, mock.MatchedBy(func(fl shared.Filter) bool {
		return fl.Filters["status"] == "confirmed" && fl.Page == 2
	})).Return([]workorder.Order{*createTestOrder(tenantID)}, nil)
	f.orders.On("CountForTenant", ctx, tenantID, mock.Anything).Return(int64(21), nil)

	items, total, err := f.svc.List(ctx, tenantID, OrderListFilter{Status: "confirmed", Page: 2})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, int64(21), total)
}
