package acceptance

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appquote "github.com/quoteflow/backend/internal/application/quote"
	"github.com/quoteflow/backend/internal/domain/deduction"
	"github.com/quoteflow/backend/internal/domain/quote"
	"github.com/quoteflow/backend/internal/domain/shared"
	"github.com/quoteflow/backend/internal/domain/workorder"
)

// memQuotes keeps one quote and applies the conditional writes under a lock,
// the way a single UPDATE ... WHERE status = 'sent' behaves.
type memQuotes struct {
	MockQuoteRepository
	mu sync.Mutex
	q  quote.Quote
}

func (r *memQuotes) FindByTokenHash(_ context.Context, hash string) (*quote.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.q.TokenHash != hash {
		return nil, shared.ErrNotFound
	}
	cp := r.q
	return &cp, nil
}

func (r *memQuotes) MarkAccepted(_ context.Context, _, _ uuid.UUID, acc quote.Acceptance) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.q.Status != quote.StatusSent {
		return false, nil
	}
	r.q.ApplyAcceptance(acc)
	return true, nil
}

func (r *memQuotes) LinkOrder(_ context.Context, _, _, orderID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.q.Status != quote.StatusAccepted || (r.q.OrderID != nil && *r.q.OrderID != orderID) {
		return false, nil
	}
	r.q.OrderID = &orderID
	return true, nil
}

func (r *memQuotes) RevertAcceptance(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.q.Status != quote.StatusAccepted || r.q.OrderID != nil {
		return false, nil
	}
	r.q.Status = quote.StatusSent
	r.q.AcceptedAt = nil
	return true, nil
}

// memOrders creates at most one order per quote
type memOrders struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*workorder.Order
	fail   bool
}

func (m *memOrders) MaterializeFromQuote(_ context.Context, q *quote.Quote) (*workorder.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return nil, false, errors.New("order store unavailable")
	}
	if o, ok := m.orders[q.ID]; ok {
		if _, err := o.RefreshFromQuote(q); err != nil {
			return nil, false, err
		}
		return o, true, nil
	}
	o, err := workorder.NewOrderFromQuote(q, "WO-2026-00001")
	if err != nil {
		return nil, false, err
	}
	m.orders[q.ID] = o
	return o, false, nil
}

func (m *memOrders) DiscardUnlinked(_ context.Context, _, orderID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for quoteID, o := range m.orders {
		if o.ID == orderID {
			delete(m.orders, quoteID)
			return true, nil
		}
	}
	return false, nil
}

func setupMemory(t *testing.T) (*Orchestrator, *memQuotes, *memOrders, string) {
	t.Helper()
	q, err := quote.NewQuote(uuid.New(), "Q-2026-00099", uuid.New(), "Lena Berg", "Garage roof")
	require.NoError(t, err)
	require.NoError(t, q.ReplaceItems([]quote.ItemInput{
		{Description: "Roofing", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(200000)},
	}))
	require.NoError(t, q.SetDeduction(true, nil, ""))

	quotes := &memQuotes{q: *q}
	gw := appquote.NewTokenGateway(quotes, 30, nil)
	quotes.On("FindByIDForTenant", mock.Anything, mock.Anything, mock.Anything).Return(&quotes.q, nil)
	quotes.On("Save", mock.Anything, mock.Anything).Return(nil)
	token, _, _, err := gw.Issue(context.Background(), q.TenantID, q.ID, 0)
	require.NoError(t, err)

	orders := &memOrders{orders: map[uuid.UUID]*workorder.Order{}}
	return NewOrchestrator(quotes, gw, orders, deduction.DefaultPolicy(), nil), quotes, orders, token
}

func acceptInput(token string) AcceptInput {
	return AcceptInput{
		Token:               token,
		IdentifierKind:      "person",
		Identifier:          "19800101-1234",
		PropertyDesignation: "Borås Hästen 2:7",
	}
}

func TestOrchestrator_ConcurrentAccept(t *testing.T) {
	orch, quotes, orders, token := setupMemory(t)

	const workers = 16
	var (
		wg        sync.WaitGroup
		successes int
		handled   int
		mu        sync.Mutex
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := orch.Accept(context.Background(), acceptInput(token))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, shared.ErrAlreadyHandled):
				handled++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, handled)
	assert.Len(t, orders.orders, 1)

	order := orders.orders[quotes.q.ID]
	require.NotNil(t, quotes.q.OrderID)
	assert.Equal(t, order.ID, *quotes.q.OrderID)
	assert.Equal(t, quotes.q.ID, order.QuoteID)
	assert.True(t, order.ROTAmount.Equal(decimal.NewFromInt(50000)))
}

func TestOrchestrator_ResolveAfterAcceptance(t *testing.T) {
	orch, _, _, token := setupMemory(t)

	_, err := orch.Accept(context.Background(), acceptInput(token))
	require.NoError(t, err)

	_, err = orch.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, shared.ErrAlreadyHandled)

	_, err = orch.Accept(context.Background(), acceptInput(token))
	assert.ErrorIs(t, err, shared.ErrAlreadyHandled)
}

func TestOrchestrator_RetryAfterRollbackReusesOrder(t *testing.T) {
	orch, quotes, orders, token := setupMemory(t)

	// an earlier attempt created the order but was rolled back before linking
	o := &workorder.Order{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(quotes.q.TenantID),
		OrderNumber:         "WO-2026-00001",
		QuoteID:             quotes.q.ID,
		Status:              workorder.StatusOpen,
	}
	orders.orders[quotes.q.ID] = o

	_, err := orch.Accept(context.Background(), acceptInput(token))
	require.NoError(t, err)
	assert.Len(t, orders.orders, 1)
	assert.Equal(t, o.ID, *quotes.q.OrderID)

	// the leftover takes the terms of the quote as accepted now
	assert.True(t, o.Value.Equal(decimal.NewFromInt(200000)))
	assert.True(t, o.IncludeROT)
	require.NotNil(t, o.ROTAmount)
	assert.True(t, o.ROTAmount.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, "19800101-1234", o.ROTIdentifier.Value())
	assert.Equal(t, "Borås Hästen 2:7", o.ROTPropertyDesignation)
}

func TestOrchestrator_FailedMaterializationLeavesQuoteSent(t *testing.T) {
	orch, quotes, orders, token := setupMemory(t)
	orders.fail = true

	_, err := orch.Accept(context.Background(), acceptInput(token))
	var transient *TransientError
	require.True(t, errors.As(err, &transient))
	assert.Equal(t, quote.StatusSent, quotes.q.Status)

	orders.fail = false
	result, err := orch.Accept(context.Background(), acceptInput(token))
	require.NoError(t, err)
	assert.Equal(t, *quotes.q.OrderID, result.OrderID)
}
