package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	appquote "github.com/quoteflow/backend/internal/application/quote"
	"github.com/quoteflow/backend/internal/domain/shared"
)

// DeductionPreviewer computes a breakdown without touching any quote
type DeductionPreviewer interface {
	PreviewDeduction(total decimal.Decimal) appquote.BreakdownResponse
}

// DeductionHandler serves the deduction preview for quote editors
type DeductionHandler struct {
	BaseHandler
	previewer DeductionPreviewer
}

// NewDeductionHandler creates a new DeductionHandler
func NewDeductionHandler(previewer DeductionPreviewer) *DeductionHandler {
	return &DeductionHandler{previewer: previewer}
}

// Preview godoc
// @Summary      Preview a ROT deduction
// @Tags         deductions
// @Accept       json
// @Produce      json
// @Param        request body appquote.PreviewDeductionRequest true "Quote total"
// @Success      200 {object} dto.Response{data=appquote.BreakdownResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /deductions/preview [post]
func (h *DeductionHandler) Preview(c *gin.Context) {
	var req appquote.PreviewDeductionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if req.Total.IsNegative() {
		h.HandleError(c, shared.NewValidationError(shared.FieldError{
			Field:   "total",
			Message: "Must not be negative",
		}))
		return
	}
	h.Success(c, h.previewer.PreviewDeduction(req.Total))
}
