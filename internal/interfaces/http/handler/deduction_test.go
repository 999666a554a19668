package handler

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appquote "github.com/quoteflow/backend/internal/application/quote"
)

func TestDeductionHandler_Preview(t *testing.T) {
	previewer := new(MockDeductionPreviewer)
	previewer.On("PreviewDeduction", mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromInt(100000))
	})).Return(appquote.BreakdownResponse{
		Total:      decimal.NewFromInt(100000),
		Deduction:  decimal.NewFromInt(15000),
		NetPayable: decimal.NewFromInt(85000),
		Currency:   "SEK",
	})

	router := setupTestRouter()
	router.POST("/deductions/preview", NewDeductionHandler(previewer).Preview)

	w := doJSON(router, http.MethodPost, "/deductions/preview", map[string]string{"total": "100000"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"net_payable":"85000"`)
	previewer.AssertExpectations(t)
}

func TestDeductionHandler_Preview_Negative(t *testing.T) {
	previewer := new(MockDeductionPreviewer)
	router := setupTestRouter()
	router.POST("/deductions/preview", NewDeductionHandler(previewer).Preview)

	w := doJSON(router, http.MethodPost, "/deductions/preview", map[string]string{"total": "-1"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	info := decodeResponse(t, w).Error
	require.Len(t, info.Details, 1)
	assert.Equal(t, "total", info.Details[0].Field)
	previewer.AssertNotCalled(t, "PreviewDeduction", mock.Anything)
}
