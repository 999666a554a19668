package workorder

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quoteflow/backend/internal/domain/notification"
	"github.com/quoteflow/backend/internal/domain/quote"
	"github.com/quoteflow/backend/internal/domain/shared"
	"github.com/quoteflow/backend/internal/domain/workorder"
)

// Service handles work order operations. Every state-affecting write stores the
// order and exactly one ledger entry in the same transaction, then hands any
// resulting notices to the dispatcher after commit.
type Service struct {
	orderRepo      workorder.OrderRepository
	ledger         workorder.ActivityLedger
	txScope        TransactionScope
	dispatcher     notification.Dispatcher
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewService creates a new work order Service
func NewService(
	orderRepo workorder.OrderRepository,
	ledger workorder.ActivityLedger,
	txScope TransactionScope,
	dispatcher notification.Dispatcher,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orderRepo:  orderRepo,
		ledger:     ledger,
		txScope:    txScope,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GetByID retrieves an order by ID
func (s *Service) GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// List retrieves orders with filtering and pagination
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter OrderListFilter) ([]OrderListItemResponse, int64, error) {
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

	orders, err := s.orderRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToOrderListItemResponses(orders), total, nil
}

// ListActivities returns the ledger of an order, oldest first
func (s *Service) ListActivities(ctx context.Context, tenantID, orderID uuid.UUID, page, pageSize int) ([]ActivityResponse, int64, error) {
	if _, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID); err != nil {
		return nil, 0, err
	}

	filter := shared.DefaultFilter()
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 {
		filter.PageSize = pageSize
	}

	activities, err := s.ledger.ListByOrder(ctx, tenantID, orderID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.ledger.CountByOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, 0, err
	}
	return ToActivityResponses(activities), total, nil
}

// UpdateStatus moves an order to newStatus. Any known status may follow any other.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, orderID uuid.UUID, newStatus workorder.Status, actorID uuid.UUID) (*OrderResponse, error) {
	var (
		updated *workorder.Order
		effects notification.Effects
	)

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.OrderRepo().FindByIDForTenant(ctx, tenantID, orderID)
		if err != nil {
			return err
		}

		previous, changed, err := order.ChangeStatus(newStatus)
		if err != nil {
			return err
		}
		updated = order
		if !changed {
			return nil
		}

		if err := repos.OrderRepo().SaveWithLock(ctx, order); err != nil {
			return err
		}
		activity := workorder.NewStatusChangedActivity(order, actorRef(actorID), previous)
		if err := repos.ActivityRepo().Append(ctx, activity); err != nil {
			return err
		}

		if assignee := order.IndividualAssignee(); assignee != nil {
			effects.Add(notification.Effect{
				TenantID:    tenantID,
				RecipientID: *assignee,
				Kind:        notification.KindOrderStatusChanged,
				Payload: notification.Payload{
					"order_id":     order.ID.String(),
					"order_number": order.OrderNumber,
					"title":        order.Title,
					"old_status":   previous.Label(),
					"new_status":   order.Status.Label(),
				},
				DedupKey: "activity:" + activity.ID.String(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, updated, effects)

	response := ToOrderResponse(updated)
	return &response, nil
}

// UpdateAssignment assigns the order to an individual or a team, or unassigns it
func (s *Service) UpdateAssignment(ctx context.Context, tenantID, orderID uuid.UUID, assignment workorder.Assignment, actorID uuid.UUID) (*OrderResponse, error) {
	var (
		updated *workorder.Order
		effects notification.Effects
	)

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.OrderRepo().FindByIDForTenant(ctx, tenantID, orderID)
		if err != nil {
			return err
		}

		previous, changed := order.Assign(assignment)
		updated = order
		if !changed {
			return nil
		}

		if err := repos.OrderRepo().SaveWithLock(ctx, order); err != nil {
			return err
		}
		activity := workorder.NewAssignmentChangedActivity(order, actorRef(actorID), previous)
		if err := repos.ActivityRepo().Append(ctx, activity); err != nil {
			return err
		}

		if assignee := order.IndividualAssignee(); assignee != nil {
			effects.Add(notification.Effect{
				TenantID:    tenantID,
				RecipientID: *assignee,
				Kind:        notification.KindOrderAssigned,
				Payload: notification.Payload{
					"order_id":     order.ID.String(),
					"order_number": order.OrderNumber,
					"title":        order.Title,
					"status":       order.Status.Label(),
				},
				DedupKey: "activity:" + activity.ID.String(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, updated, effects)

	response := ToOrderResponse(updated)
	return &response, nil
}

// AddNote appends a note entry to the order's ledger
func (s *Service) AddNote(ctx context.Context, tenantID, orderID uuid.UUID, note string, actorID uuid.UUID) (*ActivityResponse, error) {
	text, err := workorder.ValidateNote(note)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	activity := workorder.NewNoteActivity(order, actorRef(actorID), text)
	if err := s.ledger.Append(ctx, activity); err != nil {
		return nil, err
	}

	responses := ToActivityResponses([]workorder.Activity{*activity})
	return &responses[0], nil
}

// MaterializeFromQuote creates the order for an accepted quote together with its
// created entry. If an order already exists for the quote it is brought in line
// with the quote and returned instead, with reused set.
func (s *Service) MaterializeFromQuote(ctx context.Context, q *quote.Quote) (order *workorder.Order, reused bool, err error) {
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.OrderRepo().FindByQuoteID(ctx, q.TenantID, q.ID)
		if err == nil {
			// Left behind by a rolled-back acceptance; the quote may have
			// changed since, so the order takes its terms again.
			changed, err := existing.RefreshFromQuote(q)
			if err != nil {
				return err
			}
			if changed {
				if err := repos.OrderRepo().RefreshSnapshot(ctx, existing); err != nil {
					return err
				}
				s.logger.Info("reused order refreshed from quote",
					zap.String("order_id", existing.ID.String()),
					zap.String("quote_id", q.ID.String()))
			}
			order = existing
			reused = true
			return nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		number, err := repos.OrderRepo().GenerateOrderNumber(ctx, q.TenantID)
		if err != nil {
			return err
		}
		created, err := workorder.NewOrderFromQuote(q, number)
		if err != nil {
			return err
		}
		if err := repos.OrderRepo().Create(ctx, created); err != nil {
			return err
		}
		if err := repos.ActivityRepo().Append(ctx, workorder.NewCreatedActivity(created)); err != nil {
			return err
		}
		order = created
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if !reused {
		s.publishEvents(ctx, order)
	}
	return order, reused, nil
}

// DiscardUnlinked removes an order whose acceptance was rolled back, as long as
// nobody has worked on it yet
func (s *Service) DiscardUnlinked(ctx context.Context, tenantID, orderID uuid.UUID) (bool, error) {
	return s.orderRepo.DiscardUnlinked(ctx, tenantID, orderID)
}

// FindByQuoteID returns the order whose provenance is quoteID
func (s *Service) FindByQuoteID(ctx context.Context, tenantID, quoteID uuid.UUID) (*workorder.Order, error) {
	return s.orderRepo.FindByQuoteID(ctx, tenantID, quoteID)
}

func (s *Service) afterCommit(ctx context.Context, order *workorder.Order, effects notification.Effects) {
	if len(effects) > 0 && s.dispatcher != nil {
		s.dispatcher.Dispatch(ctx, effects)
	}
	s.publishEvents(ctx, order)
}

func (s *Service) publishEvents(ctx context.Context, order *workorder.Order) {
	if order == nil {
		return
	}
	events := order.GetDomainEvents()
	order.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish work order events",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
	}
}

func actorRef(actorID uuid.UUID) *uuid.UUID {
	if actorID == uuid.Nil {
		return nil
	}
	return &actorID
}
