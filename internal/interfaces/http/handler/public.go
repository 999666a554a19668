package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quoteflow/backend/internal/application/acceptance"
	appquote "github.com/quoteflow/backend/internal/application/quote"
	"github.com/quoteflow/backend/internal/domain/shared"
	"github.com/quoteflow/backend/internal/infrastructure/logger"
	"github.com/quoteflow/backend/internal/interfaces/http/dto"
	"github.com/quoteflow/backend/internal/interfaces/http/middleware"
)

// AcceptanceService is what the public endpoints need from the orchestrator
type AcceptanceService interface {
	Resolve(ctx context.Context, token string) (*appquote.PublicQuoteResponse, error)
	Accept(ctx context.Context, in acceptance.AcceptInput) (*acceptance.AcceptResult, error)
}

// PublicQuoteHandler serves the customer-facing acceptance link. Customers
// learn only whether an offer is available, never why it is not.
type PublicQuoteHandler struct {
	BaseHandler
	acceptance AcceptanceService
}

// NewPublicQuoteHandler creates a new PublicQuoteHandler
func NewPublicQuoteHandler(svc AcceptanceService) *PublicQuoteHandler {
	return &PublicQuoteHandler{acceptance: svc}
}

// Get godoc
// @Summary      Show a quote behind an acceptance link
// @Tags         public
// @Produce      json
// @Param        token path string true "Acceptance token"
// @Success      200 {object} dto.Response{data=appquote.PublicQuoteResponse}
// @Failure      410 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /public/quotes/{token} [get]
func (h *PublicQuoteHandler) Get(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	response, err := h.acceptance.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.publicError(c, err)
		return
	}
	h.Success(c, response)
}

// Accept godoc
// @Summary      Accept a quote
// @Description  Accepts the quote behind the link and creates its work order
// @Tags         public
// @Accept       json
// @Produce      json
// @Param        token path string true "Acceptance token"
// @Param        request body acceptance.AcceptRequest true "Deduction details"
// @Success      200 {object} dto.Response{data=acceptance.AcceptResult}
// @Failure      410 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /public/quotes/{token}/accept [post]
func (h *PublicQuoteHandler) Accept(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	var req acceptance.AcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, dto.NewValidationErrorResponse(
			shared.ErrValidation.Message,
			middleware.GetRequestID(c),
			middleware.ValidationDetails(err),
		))
		return
	}

	result, err := h.acceptance.Accept(c.Request.Context(), acceptance.AcceptInput{
		Token:               c.Param("token"),
		IdentifierKind:      req.IdentifierKind,
		Identifier:          req.Identifier,
		PropertyDesignation: req.PropertyDesignation,
		ClientIP:            c.ClientIP(),
	})
	if err != nil {
		h.publicError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *PublicQuoteHandler) publicError(c *gin.Context, err error) {
	log := logger.Ctx(c.Request.Context())
	requestID := middleware.GetRequestID(c)

	var (
		fatal     *acceptance.FatalInconsistencyError
		transient *acceptance.TransientError
		domainErr *shared.DomainError
	)
	switch {
	case errors.As(err, &fatal):
		log.Error("acceptance left quote inconsistent",
			zap.String("tenant_id", fatal.TenantID.String()),
			zap.String("quote_id", fatal.QuoteID.String()),
			zap.NamedError("cause", fatal.Cause),
			zap.NamedError("compensation_error", fatal.CompensationErr))
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeInternal, dto.MessageInternal, requestID))

	case errors.As(err, &transient):
		log.Warn("acceptance rolled back", zap.String("quote_id", transient.QuoteID.String()), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeRetryLater, dto.MessageRetryLater, requestID))

	case errors.Is(err, shared.ErrTokenNotFound),
		errors.Is(err, shared.ErrTokenExpired),
		errors.Is(err, shared.ErrAlreadyHandled):
		c.JSON(http.StatusGone, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeOfferUnavailable, dto.MessageOfferUnavailable, requestID))

	case errors.Is(err, shared.ErrValidation) && errors.As(err, &domainErr):
		c.JSON(http.StatusUnprocessableEntity, dto.NewValidationErrorResponse(
			domainErr.Message, requestID, toValidationDetails(domainErr.Details)))

	default:
		log.Error("public quote request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeInternal, dto.MessageInternal, requestID))
	}
}
