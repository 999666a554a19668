package quote

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quoteflow/backend/internal/domain/deduction"
	"github.com/quoteflow/backend/internal/domain/quote"
	"github.com/quoteflow/backend/internal/domain/shared"
	"github.com/quoteflow/backend/internal/domain/workorder"
)

// OrderLookup finds the order materialized from a quote
type OrderLookup interface {
	FindByQuoteID(ctx context.Context, tenantID, quoteID uuid.UUID) (*workorder.Order, error)
}

// Service handles quote management for salespeople
type Service struct {
	repo           quote.Repository
	tokens         *TokenGateway
	orders         OrderLookup
	policy         deduction.Policy
	publicBaseURL  string
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewService creates a new quote Service
func NewService(
	repo quote.Repository,
	tokens *TokenGateway,
	orders OrderLookup,
	policy deduction.Policy,
	publicBaseURL string,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:          repo,
		tokens:        tokens,
		orders:        orders,
		policy:        policy,
		publicBaseURL: publicBaseURL,
		logger:        logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new draft quote
func (s *Service) Create(ctx context.Context, tenantID, userID uuid.UUID, req CreateQuoteRequest) (*QuoteResponse, error) {
	number, err := s.repo.GenerateQuoteNumber(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	q, err := quote.NewQuote(tenantID, number, req.CustomerID, req.CustomerName, req.Title)
	if err != nil {
		return nil, err
	}
	if userID != uuid.Nil {
		q.SetCreatedBy(userID)
	}
	if req.Description != "" {
		if err := q.UpdateDetails(q.Title, req.Description); err != nil {
			return nil, err
		}
	}
	if len(req.Items) > 0 {
		if err := q.ReplaceItems(toItemInputs(req.Items)); err != nil {
			return nil, err
		}
	}
	if err := applyDeduction(q, req.Deduction); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, q); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, q)

	response := ToQuoteResponse(q, s.policy)
	return &response, nil
}

// Update edits a draft or sent quote. Given items replace the current ones.
func (s *Service) Update(ctx context.Context, tenantID, quoteID uuid.UUID, req UpdateQuoteRequest) (*QuoteResponse, error) {
	q, err := s.repo.FindByIDForTenant(ctx, tenantID, quoteID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil || req.Description != nil {
		title, description := q.Title, q.Description
		if req.Title != nil {
			title = *req.Title
		}
		if req.Description != nil {
			description = *req.Description
		}
		if err := q.UpdateDetails(title, description); err != nil {
			return nil, err
		}
	}
	if req.Items != nil {
		if err := q.ReplaceItems(toItemInputs(*req.Items)); err != nil {
			return nil, err
		}
	}
	if req.Deduction != nil {
		if err := applyDeduction(q, *req.Deduction); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, q); err != nil {
		return nil, err
	}

	response := ToQuoteResponse(q, s.policy)
	return &response, nil
}

// GetByID retrieves a quote. The cached order link is checked against the
// order's own quote reference, which wins on disagreement.
func (s *Service) GetByID(ctx context.Context, tenantID, quoteID uuid.UUID) (*QuoteResponse, error) {
	q, err := s.repo.FindByIDForTenant(ctx, tenantID, quoteID)
	if err != nil {
		return nil, err
	}

	response := ToQuoteResponse(q, s.policy)
	consistent, err := s.checkOrderLink(ctx, q)
	if err != nil {
		return nil, err
	}
	response.OrderLinkConsistent = consistent
	return &response, nil
}

// List retrieves quotes with filtering and pagination
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter QuoteListFilter) ([]QuoteListItemResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.CustomerID != "" {
		domainFilter.Filters["customer_id"] = filter.CustomerID
	}

	quotes, err := s.repo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToQuoteListItemResponses(quotes), total, nil
}

// Delete removes a draft quote
func (s *Service) Delete(ctx context.Context, tenantID, quoteID uuid.UUID) error {
	q, err := s.repo.FindByIDForTenant(ctx, tenantID, quoteID)
	if err != nil {
		return err
	}
	if !q.CanDelete() {
		return shared.NewDomainError("INVALID_STATE", "Only draft quotes can be deleted")
	}
	return s.repo.Delete(ctx, tenantID, quoteID)
}

// Send issues an acceptance link for the quote. The raw token is only part of
// this response.
func (s *Service) Send(ctx context.Context, tenantID, quoteID uuid.UUID, req SendQuoteRequest) (*SendQuoteResponse, error) {
	token, expiresAt, q, err := s.tokens.Issue(ctx, tenantID, quoteID, req.TTLDays)
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, q)

	return &SendQuoteResponse{
		Token:     token,
		URL:       s.AcceptanceURL(token),
		ExpiresAt: expiresAt,
		Quote:     ToQuoteResponse(q, s.policy),
	}, nil
}

// AcceptanceURL builds the customer-facing link for a token
func (s *Service) AcceptanceURL(token string) string {
	base := strings.TrimRight(s.publicBaseURL, "/")
	if base == "" {
		return "/quotes/" + url.PathEscape(token)
	}
	joined, err := url.JoinPath(base, "quotes", token)
	if err != nil {
		return base + "/quotes/" + url.PathEscape(token)
	}
	return joined
}

// Decline marks a sent quote as declined on the customer's behalf
func (s *Service) Decline(ctx context.Context, tenantID, quoteID uuid.UUID) (*QuoteResponse, error) {
	q, err := s.repo.FindByIDForTenant(ctx, tenantID, quoteID)
	if err != nil {
		return nil, err
	}
	if err := q.Decline(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, q); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, q)

	response := ToQuoteResponse(q, s.policy)
	return &response, nil
}

// ListInconsistent lists accepted quotes that have no linked order
func (s *Service) ListInconsistent(ctx context.Context, tenantID uuid.UUID) ([]QuoteListItemResponse, error) {
	quotes, err := s.repo.FindAcceptedWithoutOrder(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return ToQuoteListItemResponses(quotes), nil
}

// PreviewDeduction computes the deduction breakdown for an arbitrary total
func (s *Service) PreviewDeduction(total decimal.Decimal) BreakdownResponse {
	return ToBreakdownResponse(s.policy.Preview(total))
}

func (s *Service) checkOrderLink(ctx context.Context, q *quote.Quote) (bool, error) {
	if q.Status != quote.StatusAccepted {
		return q.OrderID == nil, nil
	}
	if s.orders == nil {
		return q.OrderID != nil, nil
	}

	order, err := s.orders.FindByQuoteID(ctx, q.TenantID, q.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			if q.OrderID != nil {
				s.logger.Warn("quote links an order that does not reference it",
					zap.String("tenant_id", q.TenantID.String()),
					zap.String("quote_id", q.ID.String()),
					zap.String("order_id", q.OrderID.String()))
			}
			return false, nil
		}
		return false, err
	}

	if q.OrderID == nil || *q.OrderID != order.ID {
		s.logger.Warn("quote order link disagrees with order provenance",
			zap.String("tenant_id", q.TenantID.String()),
			zap.String("quote_id", q.ID.String()),
			zap.String("order_id", order.ID.String()))
		return false, nil
	}
	return true, nil
}

func (s *Service) publishEvents(ctx context.Context, q *quote.Quote) {
	events := q.GetDomainEvents()
	q.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish quote events",
			zap.String("quote_id", q.ID.String()),
			zap.Error(err))
	}
}

func applyDeduction(q *quote.Quote, in DeductionInput) error {
	var id deduction.Identifier
	if in.IncludeROT && strings.TrimSpace(in.Identifier) != "" {
		parsed, err := deduction.ParseIdentifier(deduction.Kind(in.IdentifierKind), in.Identifier)
		if err != nil {
			return err
		}
		id = parsed
	}
	return q.SetDeduction(in.IncludeROT, id, in.PropertyDesignation)
}
