package acceptance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/quoteflow/backend/internal/domain/quote"
	"github.com/quoteflow/backend/internal/domain/shared"
	"github.com/quoteflow/backend/internal/domain/workorder"
)

// MockQuoteRepository is a mock implementation of quote.Repository
type MockQuoteRepository struct {
	mock.Mock
}

func (m *MockQuoteRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*quote.Quote, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quote.Quote), args.Error(1)
}

func (m *MockQuoteRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*quote.Quote, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quote.Quote), args.Error(1)
}

func (m *MockQuoteRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]quote.Quote, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]quote.Quote), args.Error(1)
}

func (m *MockQuoteRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuoteRepository) FindAcceptedWithoutOrder(ctx context.Context, tenantID uuid.UUID) ([]quote.Quote, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]quote.Quote), args.Error(1)
}

func (m *MockQuoteRepository) Save(ctx context.Context, q *quote.Quote) error {
	return m.Called(ctx, q).Error(0)
}

func (m *MockQuoteRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockQuoteRepository) MarkAccepted(ctx context.Context, tenantID, id uuid.UUID, acc quote.Acceptance) (bool, error) {
	args := m.Called(ctx, tenantID, id, acc)
	return args.Bool(0), args.Error(1)
}

func (m *MockQuoteRepository) RevertAcceptance(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockQuoteRepository) LinkOrder(ctx context.Context, tenantID, id, orderID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, id, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockQuoteRepository) GenerateQuoteNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

// MockTokenResolver is a mock implementation of TokenResolver
type MockTokenResolver struct {
	mock.Mock
	now time.Time
}

func (m *MockTokenResolver) Resolve(ctx context.Context, token string) (*quote.Quote, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quote.Quote), args.Error(1)
}

func (m *MockTokenResolver) Now() time.Time {
	return m.now
}

// MockOrderMaterializer is a mock implementation of OrderMaterializer
type MockOrderMaterializer struct {
	mock.Mock
}

func (m *MockOrderMaterializer) MaterializeFromQuote(ctx context.Context, q *quote.Quote) (*workorder.Order, bool, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*workorder.Order), args.Bool(1), args.Error(2)
}

func (m *MockOrderMaterializer) DiscardUnlinked(ctx context.Context, tenantID, orderID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, orderID)
	return args.Bool(0), args.Error(1)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// spyRecorder counts outcomes
type spyRecorder struct {
	mu       sync.Mutex
	accepted int
	rejected []string
}

func (s *spyRecorder) RecordAccepted(context.Context, *decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accepted++
}

func (s *spyRecorder) RecordRejected(_ context.Context, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected = append(s.rejected, reason)
}
