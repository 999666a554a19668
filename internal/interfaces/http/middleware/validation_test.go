package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quoteflow/backend/internal/interfaces/http/dto"
)

type validationItem struct {
	Description string `json:"description" binding:"required"`
}

type validationRequest struct {
	Kind  string           `json:"identifier_kind" binding:"required,oneof=person company"`
	Note  string           `json:"note" binding:"max=3"`
	Items []validationItem `json:"items" binding:"dive"`
	Count int              `json:"count"`
}

func bindDetails(t *testing.T, body string) []dto.ValidationDetail {
	t.Helper()
	SetupValidator()

	var captured []dto.ValidationDetail
	r := gin.New()
	r.POST("/x", func(c *gin.Context) {
		var req validationRequest
		err := c.ShouldBindJSON(&req)
		require.Error(t, err)
		captured = ValidationDetails(err)
		HandleValidationError(c, err)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	return captured
}

func TestValidationDetails_JSONFieldNames(t *testing.T) {
	details := bindDetails(t, `{"identifier_kind":"robot","note":"long","items":[{"description":""}]}`)

	assert.ElementsMatch(t, []dto.ValidationDetail{
		{Field: "identifier_kind", Message: "Must be one of: person company"},
		{Field: "note", Message: "Must be at most 3 characters"},
		{Field: "items[0].description", Message: "This field is required"},
	}, details)
}

func TestValidationDetails_TypeMismatch(t *testing.T) {
	details := bindDetails(t, `{"identifier_kind":"person","count":"many"}`)
	assert.Equal(t, []dto.ValidationDetail{{Field: "count", Message: "Invalid value type"}}, details)
}

func TestValidationDetails_Malformed(t *testing.T) {
	details := bindDetails(t, `{not json`)
	assert.Equal(t, []dto.ValidationDetail{{Field: "body", Message: "Malformed request body"}}, details)
}
