package quote

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quoteflow/backend/internal/domain/deduction"
	"github.com/quoteflow/backend/internal/domain/quote"
	"github.com/quoteflow/backend/internal/domain/shared"
	"github.com/quoteflow/backend/internal/domain/workorder"
)

func newTestService(repo *MockQuoteRepository, orders *MockOrderLookup) *Service {
	gw := NewTokenGateway(repo, 30, nil).WithClock(func() time.Time { return fixedNow })
	return NewService(repo, gw, orders, deduction.DefaultPolicy(), "https://offers.example.se/", nil)
}

func acceptQuote(t *testing.T, q *quote.Quote) {
	t.Helper()
	require.NoError(t, q.IssueToken("digest", time.Now().Add(time.Hour)))
	acc, err := q.PrepareAcceptance(nil, deduction.DefaultPolicy(), time.Now(), "")
	require.NoError(t, err)
	q.ApplyAcceptance(acc)
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	userID := uuid.New()

	t.Run("creates draft with items and preset identifier", func(t *testing.T) {
		repo := new(MockQuoteRepository)
		svc := newTestService(repo, nil)

		repo.On("GenerateQuoteNumber", ctx, tenantID).Return("Q-2026-00042", nil)
		repo.On("Save", ctx, mock.AnythingOfType("*quote.Quote")).Return(nil)

		resp, err := svc.Create(ctx, tenantID, userID, CreateQuoteRequest{
			CustomerID:   uuid.New(),
			CustomerName: "Anna Svensson",
			Title:        "Facade painting",
			Items: []LineItemInput{
				{Description: "Painting", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(5000)},
			},
			Deduction: DeductionInput{
				IncludeROT:          true,
				IdentifierKind:      "person",
				Identifier:          "198001011234",
				PropertyDesignation: "Uppsala Kungsängen 1:2",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "Q-2026-00042", resp.QuoteNumber)
		assert.Equal(t, "draft", resp.Status)
		assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(10000)))
		assert.Equal(t, "19800101-1234", resp.ROTIdentifier)
		assert.True(t, resp.Deduction.Deduction.Equal(decimal.NewFromInt(3500)))
		require.NotNil(t, resp.CreatedBy)
		assert.Equal(t, userID, *resp.CreatedBy)
	})

	t.Run("invalid preset identifier", func(t *testing.T) {
		repo := new(MockQuoteRepository)
		svc := newTestService(repo, nil)
		repo.On("GenerateQuoteNumber", ctx, tenantID).Return("Q-2026-00043", nil)

		_, err := svc.Create(ctx, tenantID, userID, CreateQuoteRequest{
			CustomerID:   uuid.New(),
			CustomerName: "Anna",
			Title:        "Roof",
			Deduction:    DeductionInput{IncludeROT: true, IdentifierKind: "person", Identifier: "12345"},
		})
		assert.ErrorIs(t, err, shared.ErrValidation)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := new(MockQuoteRepository)
	svc := newTestService(repo, nil)
	q := createTestQuote(t, tenantID)

	repo.On("FindByIDForTenant", ctx, tenantID, q.ID).Return(q, nil)
	repo.On("Save", ctx, q).Return(nil)

	items := []LineItemInput{
		{Description: "Demolition", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(4000)},
		{Description: "Tiling", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(2000)},
	}
	title := "Bathroom"
	resp, err := svc.Update(ctx, tenantID, q.ID, UpdateQuoteRequest{Title: &title, Items: &items})
	require.NoError(t, err)
	assert.Equal(t, "Bathroom", resp.Title)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, 1, resp.Items[0].Position)
	assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(10000)))
}

func TestService_GetByID_OrderLink(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("consistent link", func(t *testing.T) {
		repo := new(MockQuoteRepository)
		orders := new(MockOrderLookup)
		svc := newTestService(repo, orders)
		q := createTestQuote(t, tenantID)
		acceptQuote(t, q)
		orderID := uuid.New()
		require.NoError(t, q.LinkOrder(orderID))

		repo.On("FindByIDForTenant", ctx, tenantID, q.ID).Return(q, nil)
		orders.On("FindByQuoteID", ctx, tenantID, q.ID).Return(&workorder.Order{
			TenantAggregateRoot: shared.TenantAggregateRoot{ID: orderID},
			QuoteID:             q.ID,
		}, nil)

		resp, err := svc.GetByID(ctx, tenantID, q.ID)
		require.NoError(t, err)
		assert.True(t, resp.OrderLinkConsistent)
	})

	t.Run("stale link reported", func(t *testing.T) {
		repo := new(MockQuoteRepository)
		orders := new(MockOrderLookup)
		svc := newTestService(repo, orders)
		q := createTestQuote(t, tenantID)
		acceptQuote(t, q)
		require.NoError(t, q.LinkOrder(uuid.New()))

		repo.On("FindByIDForTenant", ctx, tenantID, q.ID).Return(q, nil)
		orders.On("FindByQuoteID", ctx, tenantID, q.ID).Return(nil, shared.ErrNotFound)

		resp, err := svc.GetByID(ctx, tenantID, q.ID)
		require.NoError(t, err)
		assert.False(t, resp.OrderLinkConsistent)
	})

	t.Run("accepted without order", func(t *testing.T) {
		repo := new(MockQuoteRepository)
		orders := new(MockOrderLookup)
		svc := newTestService(repo, orders)
		q := createTestQuote(t, tenantID)
		acceptQuote(t, q)

		repo.On("FindByIDForTenant", ctx, tenantID, q.ID).Return(q, nil)
		orders.On("FindByQuoteID", ctx, tenantID, q.ID).Return(nil, shared.ErrNotFound)

		resp, err := svc.GetByID(ctx, tenantID, q.ID)
		require.NoError(t, err)
		assert.False(t, resp.OrderLinkConsistent)
	})

	t.Run("draft needs no lookup", func(t *testing.T) {
		repo := new(MockQuoteRepository)
		orders := new(MockOrderLookup)
		svc := newTestService(repo, orders)
		q := createTestQuote(t, tenantID)
		repo.On("FindByIDForTenant", ctx, tenantID, q.ID).Return(q, nil)

		resp, err := svc.GetByID(ctx, tenantID, q.ID)
		require.NoError(t, err)
		assert.True(t, resp.OrderLinkConsistent)
		orders.AssertNotCalled(t, "FindByQuoteID", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_Send(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := new(MockQuoteRepository)
	svc := newTestService(repo, nil)
	q := createTestQuote(t, tenantID)

	repo.On("FindByIDForTenant", ctx, tenantID, q.ID).Return(q, nil)
	repo.On("Save", ctx, q).Return(nil)

	resp, err := svc.Send(ctx, tenantID, q.ID, SendQuoteRequest{TTLDays: 14})
	require.NoError(t, err)
	assert.Equal(t, "https://offers.example.se/quotes/"+resp.Token, resp.URL)
	assert.Equal(t, fixedNow.Add(14*24*time.Hour), resp.ExpiresAt)
	assert.Equal(t, "sent", resp.Quote.Status)
}

func TestService_AcceptanceURL(t *testing.T) {
	svc := NewService(nil, nil, nil, deduction.DefaultPolicy(), "", nil)
	assert.Equal(t, "/quotes/abc", svc.AcceptanceURL("abc"))
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("draft", func(t *testing.T) {
		repo := new(MockQuoteRepository)
		svc := newTestService(repo, nil)
		q := createTestQuote(t, tenantID)
		repo.On("FindByIDForTenant", ctx, tenantID, q.ID).Return(q, nil)
		repo.On("Delete", ctx, tenantID, q.ID).Return(nil)

		require.NoError(t, svc.Delete(ctx, tenantID, q.ID))
		repo.AssertExpectations(t)
	})

	t.Run("sent quote is kept", func(t *testing.T) {
		repo := new(MockQuoteRepository)
		svc := newTestService(repo, nil)
		q := createTestQuote(t, tenantID)
		require.NoError(t, q.IssueToken("digest", time.Now().Add(time.Hour)))
		repo.On("FindByIDForTenant", ctx, tenantID, q.ID).Return(q, nil)

		err := svc.Delete(ctx, tenantID, q.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_Decline(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := new(MockQuoteRepository)
	svc := newTestService(repo, nil)
	q := createTestQuote(t, tenantID)
	require.NoError(t, q.IssueToken("digest", time.Now().Add(time.Hour)))

	repo.On("FindByIDForTenant", ctx, tenantID, q.ID).Return(q, nil)
	repo.On("Save", ctx, q).Return(nil)

	resp, err := svc.Decline(ctx, tenantID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "declined", resp.Status)
	assert.NotNil(t, resp.DeclinedAt)
}

func TestService_ListInconsistent(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := new(MockQuoteRepository)
	svc := newTestService(repo, nil)
	q := createTestQuote(t, tenantID)
	acceptQuote(t, q)

	repo.On("FindAcceptedWithoutOrder", ctx, tenantID).Return([]quote.Quote{*q}, nil)

	items, err := svc.ListInconsistent(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "accepted", items[0].Status)
	assert.Nil(t, items[0].OrderID)
}

func TestService_PreviewDeduction(t *testing.T) {
	svc := newTestService(new(MockQuoteRepository), nil)

	b := svc.PreviewDeduction(decimal.NewFromInt(200000))
	assert.True(t, b.Deduction.Equal(decimal.NewFromInt(50000)))
	assert.True(t, b.NetPayable.Equal(decimal.NewFromInt(150000)))
	assert.True(t, b.Capped)
	assert.Equal(t, "SEK", b.Currency)
}
