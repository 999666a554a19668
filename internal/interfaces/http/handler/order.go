package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appworkorder "github.com/quoteflow/backend/internal/application/workorder"
	"github.com/quoteflow/backend/internal/domain/shared"
	"github.com/quoteflow/backend/internal/domain/workorder"
	"github.com/quoteflow/backend/internal/interfaces/http/dto"
	"github.com/quoteflow/backend/internal/interfaces/http/middleware"
)

// OrderService is the work order surface used by OrderHandler
type OrderService interface {
	GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*appworkorder.OrderResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter appworkorder.OrderListFilter) ([]appworkorder.OrderListItemResponse, int64, error)
	ListActivities(ctx context.Context, tenantID, orderID uuid.UUID, page, pageSize int) ([]appworkorder.ActivityResponse, int64, error)
	UpdateStatus(ctx context.Context, tenantID, orderID uuid.UUID, newStatus workorder.Status, actorID uuid.UUID) (*appworkorder.OrderResponse, error)
	UpdateAssignment(ctx context.Context, tenantID, orderID uuid.UUID, assignment workorder.Assignment, actorID uuid.UUID) (*appworkorder.OrderResponse, error)
	AddNote(ctx context.Context, tenantID, orderID uuid.UUID, note string, actorID uuid.UUID) (*appworkorder.ActivityResponse, error)
}

// OrderHandler handles work order endpoints
type OrderHandler struct {
	BaseHandler
	orders OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// List godoc
// @Summary      List work orders
// @Tags         orders
// @Produce      json
// @Param        status query string false "Order status"
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]appworkorder.OrderListItemResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter appworkorder.OrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	items, total, err := h.orders.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageOrDefault(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, items, total, page, pageSize)
}

// GetByID returns one order
func (h *OrderHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c)
	if !ok {
		return
	}

	response, err := h.orders.GetByID(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, response)
}

// UpdateStatus godoc
// @Summary      Change an order's status
// @Description  Any status may follow any other. Each change appends one ledger entry.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body appworkorder.UpdateStatusRequest true "New status"
// @Success      200 {object} dto.Response{data=appworkorder.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req appworkorder.UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	response, err := h.orders.UpdateStatus(c.Request.Context(), tenantID, orderID,
		workorder.Status(req.Status), middleware.GetUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, response)
}

// UpdateAssignment assigns the order to an individual or a team; an empty
// kind unassigns it
func (h *OrderHandler) UpdateAssignment(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req appworkorder.UpdateAssignmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	var assigneeID uuid.UUID
	if req.AssigneeID != nil {
		assigneeID = *req.AssigneeID
	}
	assignment, valid := workorder.NewAssignment(workorder.AssigneeKind(req.Kind), assigneeID)
	if !valid {
		h.HandleError(c, shared.NewValidationError(shared.FieldError{
			Field:   "assignee_id",
			Message: "This field is required",
		}))
		return
	}

	response, err := h.orders.UpdateAssignment(c.Request.Context(), tenantID, orderID, assignment, middleware.GetUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, response)
}

// AddNote appends a note to the order's ledger
func (h *OrderHandler) AddNote(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req appworkorder.AddNoteRequest
	if !h.bindJSON(c, &req) {
		return
	}

	response, err := h.orders.AddNote(c.Request.Context(), tenantID, orderID, req.Note, middleware.GetUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, response)
}

// ListActivities returns the order's ledger, oldest first
func (h *OrderHandler) ListActivities(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c)
	if !ok {
		return
	}
	req := dto.DefaultListRequest()
	if !h.bindQuery(c, &req) {
		return
	}

	items, total, err := h.orders.ListActivities(c.Request.Context(), tenantID, orderID, req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, req.Page, req.PageSize)
}
