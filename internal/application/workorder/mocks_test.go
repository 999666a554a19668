package workorder

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/quoteflow/backend/internal/domain/notification"
	"github.com/quoteflow/backend/internal/domain/shared"
	"github.com/quoteflow/backend/internal/domain/workorder"
)

// MockOrderRepository is a mock implementation of workorder.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*workorder.Order, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workorder.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByQuoteID(ctx context.Context, tenantID, quoteID uuid.UUID) (*workorder.Order, error) {
	args := m.Called(ctx, tenantID, quoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workorder.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]workorder.Order, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]workorder.Order), args.Error(1)
}

func (m *MockOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) Create(ctx context.Context, o *workorder.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, o *workorder.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) RefreshSnapshot(ctx context.Context, o *workorder.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) DiscardUnlinked(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) GenerateOrderNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

// MockActivityLedger is a mock implementation of workorder.ActivityLedger
type MockActivityLedger struct {
	mock.Mock
}

func (m *MockActivityLedger) Append(ctx context.Context, a *workorder.Activity) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockActivityLedger) ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID, filter shared.Filter) ([]workorder.Activity, error) {
	args := m.Called(ctx, tenantID, orderID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]workorder.Activity), args.Error(1)
}

func (m *MockActivityLedger) CountByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, orderID)
	return args.Get(0).(int64), args.Error(1)
}

// MockDispatcher records dispatched effects
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, effects notification.Effects) {
	m.Called(ctx, effects)
}

// passthroughScope runs fn against the mocks without a real transaction
type passthroughScope struct {
	orders     *MockOrderRepository
	activities *MockActivityLedger
}

func (s *passthroughScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *passthroughScope) OrderRepo() workorder.OrderRepository   { return s.orders }
func (s *passthroughScope) ActivityRepo() workorder.ActivityLedger { return s.activities }
