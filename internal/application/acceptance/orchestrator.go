package acceptance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appquote "github.com/quoteflow/backend/internal/application/quote"
	"github.com/quoteflow/backend/internal/domain/deduction"
	"github.com/quoteflow/backend/internal/domain/quote"
	"github.com/quoteflow/backend/internal/domain/shared"
	"github.com/quoteflow/backend/internal/domain/workorder"
)

const defaultCompensationTimeout = 10 * time.Second

// TokenResolver resolves acceptance tokens to quotes
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*quote.Quote, error)
	Now() time.Time
}

// OrderMaterializer creates, or finds, the order for an accepted quote and
// discards it again when the acceptance is rolled back
type OrderMaterializer interface {
	MaterializeFromQuote(ctx context.Context, q *quote.Quote) (*workorder.Order, bool, error)
	DiscardUnlinked(ctx context.Context, tenantID, orderID uuid.UUID) (bool, error)
}

// Orchestrator turns a customer's acceptance into a work order. It holds no
// state between calls; the quote's status column is the only guard.
type Orchestrator struct {
	quotes         quote.Repository
	tokens         TokenResolver
	orders         OrderMaterializer
	policy         deduction.Policy
	eventPublisher shared.EventPublisher
	recorder       Recorder
	compensateIn   time.Duration
	logger         *zap.Logger
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(
	quotes quote.Repository,
	tokens TokenResolver,
	orders OrderMaterializer,
	policy deduction.Policy,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		quotes:       quotes,
		tokens:       tokens,
		orders:       orders,
		policy:       policy,
		recorder:     noopRecorder{},
		compensateIn: defaultCompensationTimeout,
		logger:       logger,
	}
}

// SetEventPublisher sets the publisher for QuoteAccepted events
func (o *Orchestrator) SetEventPublisher(publisher shared.EventPublisher) {
	o.eventPublisher = publisher
}

// SetCompensationTimeout bounds how long reverting a failed acceptance may take
func (o *Orchestrator) SetCompensationTimeout(d time.Duration) {
	if d > 0 {
		o.compensateIn = d
	}
}

// SetRecorder sets the metrics recorder
func (o *Orchestrator) SetRecorder(r Recorder) {
	if r == nil {
		r = noopRecorder{}
	}
	o.recorder = r
}

// Resolve returns the customer view of the quote behind token
func (o *Orchestrator) Resolve(ctx context.Context, token string) (*appquote.PublicQuoteResponse, error) {
	q, err := o.tokens.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	response := appquote.ToPublicQuoteResponse(q, o.policy)
	return &response, nil
}

// Accept accepts the quote behind in.Token and materializes its work order.
//
// Errors: token errors from the resolver, a VALIDATION_FAILED domain error
// (quote untouched), ErrAlreadyHandled when another request won the status
// guard, *TransientError after a successful rollback, and
// *FatalInconsistencyError when the rollback failed too.
func (o *Orchestrator) Accept(ctx context.Context, in AcceptInput) (*AcceptResult, error) {
	q, err := o.tokens.Resolve(ctx, in.Token)
	if err != nil {
		o.recorder.RecordRejected(ctx, rejectionReason(err))
		return nil, err
	}

	var claim *deduction.Claim
	if q.IncludeROT {
		c, err := deduction.ParseClaim(deduction.Kind(in.IdentifierKind), in.Identifier, in.PropertyDesignation)
		if err != nil {
			o.recorder.RecordRejected(ctx, ReasonValidation)
			return nil, err
		}
		claim = &c
	}

	acc, err := q.PrepareAcceptance(claim, o.policy, o.tokens.Now(), in.ClientIP)
	if err != nil {
		o.recorder.RecordRejected(ctx, rejectionReason(err))
		return nil, err
	}

	won, err := o.quotes.MarkAccepted(ctx, q.TenantID, q.ID, acc)
	if err != nil {
		o.recorder.RecordRejected(ctx, ReasonTransient)
		return nil, &TransientError{QuoteID: q.ID, Err: err}
	}
	if !won {
		o.recorder.RecordRejected(ctx, ReasonAlreadyHandled)
		return nil, shared.ErrAlreadyHandled
	}
	q.ApplyAcceptance(acc)

	log := o.logger.With(
		zap.String("tenant_id", q.TenantID.String()),
		zap.String("quote_id", q.ID.String()),
	)
	if acc.OverridesPreset {
		log.Info("customer identifier replaced the preset identifier",
			zap.String("identifier_kind", acc.Identifier.Kind().String()))
	}

	order, reused, err := o.orders.MaterializeFromQuote(ctx, q)
	if err != nil {
		return nil, o.compensate(ctx, q, nil, in.Token, err)
	}

	linked, err := o.quotes.LinkOrder(ctx, q.TenantID, q.ID, order.ID)
	if err == nil && !linked {
		err = errNotLinked
	}
	if err != nil && o.linkStored(ctx, q, order.ID) {
		log.Warn("order link reported a failure but was stored", zap.Error(err))
		err = nil
	}
	if err != nil {
		return nil, o.compensate(ctx, q, order, in.Token, err)
	}
	if err := q.LinkOrder(order.ID); err != nil {
		log.Warn("in-memory order link rejected", zap.Error(err))
	}

	log.Info("quote accepted",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.Bool("order_reused", reused))

	o.recorder.RecordAccepted(ctx, acc.ROTAmount, acc.OverridesPreset)
	o.publishAccepted(ctx, q, order)

	return &AcceptResult{
		QuoteID:     q.ID,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		ROTAmount:   acc.ROTAmount,
	}, nil
}

// linkStored re-reads the quote after LinkOrder failed. A write that committed
// but lost its acknowledgement leaves the quote linked to orderID.
func (o *Orchestrator) linkStored(ctx context.Context, q *quote.Quote, orderID uuid.UUID) bool {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.compensateIn)
	defer cancel()

	current, err := o.quotes.FindByIDForTenant(cctx, q.TenantID, q.ID)
	if err != nil {
		return false
	}
	return current.Status == quote.StatusAccepted &&
		current.OrderID != nil && *current.OrderID == orderID
}

// compensate moves the quote back to sent after a failure past the status guard.
// An order created for it is discarded first, while the quote still blocks other
// acceptances. It runs detached from ctx so a cancelled request still rolls back.
func (o *Orchestrator) compensate(ctx context.Context, q *quote.Quote, order *workorder.Order, token string, cause error) error {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.compensateIn)
	defer cancel()

	if order != nil {
		discarded, err := o.orders.DiscardUnlinked(cctx, q.TenantID, order.ID)
		if err != nil || !discarded {
			// a leftover order is brought up to date by the next acceptance
			o.logger.Warn("unlinked order kept after rollback",
				zap.String("tenant_id", q.TenantID.String()),
				zap.String("order_id", order.ID.String()),
				zap.Error(err))
		}
	}

	reverted, err := o.quotes.RevertAcceptance(cctx, q.TenantID, q.ID)
	if err == nil && !reverted {
		err = errNotReverted
	}
	if err != nil {
		o.recorder.RecordRejected(ctx, ReasonFatal)
		o.logger.Error("acceptance compensation failed, quote needs manual repair",
			zap.String("tenant_id", q.TenantID.String()),
			zap.String("quote_id", q.ID.String()),
			zap.String("token_digest_prefix", digestPrefix(token)),
			zap.NamedError("cause", cause),
			zap.NamedError("compensation_error", err))
		return &FatalInconsistencyError{
			TenantID:        q.TenantID,
			QuoteID:         q.ID,
			Cause:           cause,
			CompensationErr: err,
		}
	}

	o.recorder.RecordRejected(ctx, ReasonTransient)
	o.logger.Warn("acceptance rolled back",
		zap.String("tenant_id", q.TenantID.String()),
		zap.String("quote_id", q.ID.String()),
		zap.Error(cause))
	return &TransientError{QuoteID: q.ID, Err: cause}
}

func (o *Orchestrator) publishAccepted(ctx context.Context, q *quote.Quote, order *workorder.Order) {
	if o.eventPublisher == nil {
		return
	}
	event := quote.NewQuoteAcceptedEvent(q, order.ID, order.OrderNumber)
	if err := o.eventPublisher.Publish(ctx, event); err != nil {
		o.logger.Warn("failed to publish quote accepted event",
			zap.String("quote_id", q.ID.String()),
			zap.Error(err))
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, shared.ErrTokenNotFound):
		return ReasonTokenNotFound
	case errors.Is(err, shared.ErrTokenExpired):
		return ReasonTokenExpired
	case errors.Is(err, shared.ErrAlreadyHandled):
		return ReasonAlreadyHandled
	case errors.Is(err, shared.ErrValidation):
		return ReasonValidation
	default:
		return ReasonTransient
	}
}

func digestPrefix(token string) string {
	digest := appquote.HashToken(token)
	return digest[:12]
}

var _ TokenResolver = (*appquote.TokenGateway)(nil)
