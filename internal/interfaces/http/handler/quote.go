package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appquote "github.com/quoteflow/backend/internal/application/quote"
	"github.com/quoteflow/backend/internal/interfaces/http/middleware"
)

// QuoteService is the quote management surface used by QuoteHandler
type QuoteService interface {
	Create(ctx context.Context, tenantID, userID uuid.UUID, req appquote.CreateQuoteRequest) (*appquote.QuoteResponse, error)
	Update(ctx context.Context, tenantID, quoteID uuid.UUID, req appquote.UpdateQuoteRequest) (*appquote.QuoteResponse, error)
	GetByID(ctx context.Context, tenantID, quoteID uuid.UUID) (*appquote.QuoteResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter appquote.QuoteListFilter) ([]appquote.QuoteListItemResponse, int64, error)
	Delete(ctx context.Context, tenantID, quoteID uuid.UUID) error
	Send(ctx context.Context, tenantID, quoteID uuid.UUID, req appquote.SendQuoteRequest) (*appquote.SendQuoteResponse, error)
	Decline(ctx context.Context, tenantID, quoteID uuid.UUID) (*appquote.QuoteResponse, error)
	ListInconsistent(ctx context.Context, tenantID uuid.UUID) ([]appquote.QuoteListItemResponse, error)
}

// QuoteHandler handles quote management endpoints
type QuoteHandler struct {
	BaseHandler
	quotes QuoteService
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(quotes QuoteService) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

// Create godoc
// @Summary      Create a draft quote
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Param        request body appquote.CreateQuoteRequest true "Quote"
// @Success      201 {object} dto.Response{data=appquote.QuoteResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /quotes [post]
func (h *QuoteHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req appquote.CreateQuoteRequest
	if !h.bindJSON(c, &req) {
		return
	}

	response, err := h.quotes.Create(c.Request.Context(), tenantID, middleware.GetUserID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, response)
}

// List godoc
// @Summary      List quotes
// @Tags         quotes
// @Produce      json
// @Param        status query string false "draft, sent, accepted or declined"
// @Param        customer_id query string false "Customer ID"
// @Param        search query string false "Matches number, title or customer"
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]appquote.QuoteListItemResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /quotes [get]
func (h *QuoteHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter appquote.QuoteListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	items, total, err := h.quotes.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageOrDefault(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, items, total, page, pageSize)
}

// GetByID returns one quote with its deduction breakdown
func (h *QuoteHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	quoteID, ok := h.pathID(c)
	if !ok {
		return
	}

	response, err := h.quotes.GetByID(c.Request.Context(), tenantID, quoteID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, response)
}

// Update edits a draft or sent quote; items replace the existing set
func (h *QuoteHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	quoteID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req appquote.UpdateQuoteRequest
	if !h.bindJSON(c, &req) {
		return
	}

	response, err := h.quotes.Update(c.Request.Context(), tenantID, quoteID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, response)
}

// Delete removes a draft quote
func (h *QuoteHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	quoteID, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.quotes.Delete(c.Request.Context(), tenantID, quoteID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Send godoc
// @Summary      Send a quote
// @Description  Issues a fresh acceptance link. The token is only returned here.
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Param        id path string true "Quote ID"
// @Param        request body appquote.SendQuoteRequest false "Link lifetime"
// @Success      200 {object} dto.Response{data=appquote.SendQuoteResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /quotes/{id}/send [post]
func (h *QuoteHandler) Send(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	quoteID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req appquote.SendQuoteRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}

	response, err := h.quotes.Send(c.Request.Context(), tenantID, quoteID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, response)
}

// Decline records the customer's refusal of a sent quote
func (h *QuoteHandler) Decline(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	quoteID, ok := h.pathID(c)
	if !ok {
		return
	}

	response, err := h.quotes.Decline(c.Request.Context(), tenantID, quoteID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, response)
}

// ListInconsistent lists accepted quotes without a linked order, for operators
func (h *QuoteHandler) ListInconsistent(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	items, err := h.quotes.ListInconsistent(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

func pageOrDefault(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return page, pageSize
}
