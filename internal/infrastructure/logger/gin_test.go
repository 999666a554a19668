package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGinMiddleware_LogsRequest(t *testing.T) {
	log, logs := observed()
	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set("request_id", "req-9") })
	router.Use(GinMiddleware(log))
	router.GET("/api/v1/orders/:id", func(c *gin.Context) {
		GetGinLogger(c).Info("inside handler")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders/42", nil))

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "req-9", logs.All()[0].ContextMap()["request_id"])

	entry := logs.All()[1]
	assert.Equal(t, "HTTP Request", entry.Message)
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "/api/v1/orders/42", fields["path"])
	assert.Equal(t, "/api/v1/orders/:id", fields["route"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
}

func TestGinMiddleware_LevelByStatus(t *testing.T) {
	log, logs := observed()
	router := gin.New()
	router.Use(GinMiddleware(log))
	router.GET("/bad", func(c *gin.Context) { c.Status(http.StatusUnprocessableEntity) })
	router.GET("/fail", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bad", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[1].Level)
}

func TestGinMiddleware_RedactsToken(t *testing.T) {
	log, logs := observed()
	router := gin.New()
	router.Use(GinMiddleware(log, WithRedactedParams("token")))
	router.POST("/api/v1/public/quotes/:token/accept", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodPost, "/api/v1/public/quotes/s3cr3t-token-value/accept", nil))

	require.Equal(t, 1, logs.Len())
	path := logs.All()[0].ContextMap()["path"].(string)
	assert.Equal(t, "/api/v1/public/quotes/[redacted]/accept", path)
	assert.NotContains(t, path, "s3cr3t")
}

func TestGinMiddleware_SkipPaths(t *testing.T) {
	log, logs := observed()
	router := gin.New()
	router.Use(GinMiddleware(log, WithSkipPaths("/health")))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, 0, logs.Len())
}

func TestRecovery(t *testing.T) {
	log, logs := observed()
	router := gin.New()
	router.Use(Recovery(log))
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"INTERNAL_ERROR","message":"An unexpected error occurred"}}`, w.Body.String())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Panic recovered", logs.All()[0].Message)
}

func TestGetGinLogger_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))
}
