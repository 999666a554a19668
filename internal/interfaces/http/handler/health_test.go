package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthOf(t *testing.T, checks map[string]HealthCheck) (int, HealthResponse) {
	t.Helper()
	router := gin.New()
	router.GET("/health", NewHealthHandler("1.2.3", checks).Health)

	w := doJSON(router, http.MethodGet, "/health", nil)
	var resp struct {
		Data HealthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp.Data
}

func TestHealthHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: refused") }

	t.Run("no checks", func(t *testing.T) {
		code, resp := healthOf(t, nil)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "1.2.3", resp.Version)
		assert.Empty(t, resp.Checks)
	})

	t.Run("all up", func(t *testing.T) {
		code, resp := healthOf(t, map[string]HealthCheck{"database": ok, "redis": ok})
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, map[string]string{"database": "up", "redis": "up"}, resp.Checks)
	})

	t.Run("one down", func(t *testing.T) {
		code, resp := healthOf(t, map[string]HealthCheck{"database": ok, "redis": down})
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "down", resp.Checks["redis"])
	})

	t.Run("checks get a deadline", func(t *testing.T) {
		var hasDeadline bool
		_, _ = healthOf(t, map[string]HealthCheck{"database": func(ctx context.Context) error {
			_, hasDeadline = ctx.Deadline()
			return nil
		}})
		assert.True(t, hasDeadline)
	})
}
