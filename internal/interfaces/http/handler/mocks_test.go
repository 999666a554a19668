package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quoteflow/backend/internal/application/acceptance"
	appquote "github.com/quoteflow/backend/internal/application/quote"
	appworkorder "github.com/quoteflow/backend/internal/application/workorder"
	"github.com/quoteflow/backend/internal/domain/workorder"
	"github.com/quoteflow/backend/internal/interfaces/http/dto"
	"github.com/quoteflow/backend/internal/interfaces/http/middleware"
)

var (
	testTenantID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	testUserID   = uuid.MustParse("00000000-0000-0000-0000-0000000000aa")
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// setupTestRouter returns an engine whose requests carry the test tenant and user
func setupTestRouter() *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.TenantIDKey, testTenantID)
		c.Set(middleware.UserIDKey, testUserID)
		c.Next()
	})
	return router
}

func doJSON(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// MockAcceptanceService implements AcceptanceService for testing
type MockAcceptanceService struct {
	mock.Mock
}

func (m *MockAcceptanceService) Resolve(ctx context.Context, token string) (*appquote.PublicQuoteResponse, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appquote.PublicQuoteResponse), args.Error(1)
}

func (m *MockAcceptanceService) Accept(ctx context.Context, in acceptance.AcceptInput) (*acceptance.AcceptResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*acceptance.AcceptResult), args.Error(1)
}

// MockQuoteService implements QuoteService for testing
type MockQuoteService struct {
	mock.Mock
}

func (m *MockQuoteService) Create(ctx context.Context, tenantID, userID uuid.UUID, req appquote.CreateQuoteRequest) (*appquote.QuoteResponse, error) {
	args := m.Called(ctx, tenantID, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appquote.QuoteResponse), args.Error(1)
}

func (m *MockQuoteService) Update(ctx context.Context, tenantID, quoteID uuid.UUID, req appquote.UpdateQuoteRequest) (*appquote.QuoteResponse, error) {
	args := m.Called(ctx, tenantID, quoteID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appquote.QuoteResponse), args.Error(1)
}

func (m *MockQuoteService) GetByID(ctx context.Context, tenantID, quoteID uuid.UUID) (*appquote.QuoteResponse, error) {
	args := m.Called(ctx, tenantID, quoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appquote.QuoteResponse), args.Error(1)
}

func (m *MockQuoteService) List(ctx context.Context, tenantID uuid.UUID, filter appquote.QuoteListFilter) ([]appquote.QuoteListItemResponse, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]appquote.QuoteListItemResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockQuoteService) Delete(ctx context.Context, tenantID, quoteID uuid.UUID) error {
	args := m.Called(ctx, tenantID, quoteID)
	return args.Error(0)
}

func (m *MockQuoteService) Send(ctx context.Context, tenantID, quoteID uuid.UUID, req appquote.SendQuoteRequest) (*appquote.SendQuoteResponse, error) {
	args := m.Called(ctx, tenantID, quoteID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appquote.SendQuoteResponse), args.Error(1)
}

func (m *MockQuoteService) Decline(ctx context.Context, tenantID, quoteID uuid.UUID) (*appquote.QuoteResponse, error) {
	args := m.Called(ctx, tenantID, quoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appquote.QuoteResponse), args.Error(1)
}

func (m *MockQuoteService) ListInconsistent(ctx context.Context, tenantID uuid.UUID) ([]appquote.QuoteListItemResponse, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]appquote.QuoteListItemResponse), args.Error(1)
}

// MockOrderService implements OrderService for testing
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*appworkorder.OrderResponse, error) {
	args := m.Called(ctx, tenantID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appworkorder.OrderResponse), args.Error(1)
}

func (m *MockOrderService) List(ctx context.Context, tenantID uuid.UUID, filter appworkorder.OrderListFilter) ([]appworkorder.OrderListItemResponse, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]appworkorder.OrderListItemResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderService) ListActivities(ctx context.Context, tenantID, orderID uuid.UUID, page, pageSize int) ([]appworkorder.ActivityResponse, int64, error) {
	args := m.Called(ctx, tenantID, orderID, page, pageSize)
	return args.Get(0).([]appworkorder.ActivityResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, tenantID, orderID uuid.UUID, newStatus workorder.Status, actorID uuid.UUID) (*appworkorder.OrderResponse, error) {
	args := m.Called(ctx, tenantID, orderID, newStatus, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appworkorder.OrderResponse), args.Error(1)
}

func (m *MockOrderService) UpdateAssignment(ctx context.Context, tenantID, orderID uuid.UUID, assignment workorder.Assignment, actorID uuid.UUID) (*appworkorder.OrderResponse, error) {
	args := m.Called(ctx, tenantID, orderID, assignment, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appworkorder.OrderResponse), args.Error(1)
}

func (m *MockOrderService) AddNote(ctx context.Context, tenantID, orderID uuid.UUID, note string, actorID uuid.UUID) (*appworkorder.ActivityResponse, error) {
	args := m.Called(ctx, tenantID, orderID, note, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appworkorder.ActivityResponse), args.Error(1)
}

// MockDeductionPreviewer implements DeductionPreviewer for testing
type MockDeductionPreviewer struct {
	mock.Mock
}

func (m *MockDeductionPreviewer) PreviewDeduction(total decimal.Decimal) appquote.BreakdownResponse {
	args := m.Called(total)
	return args.Get(0).(appquote.BreakdownResponse)
}
