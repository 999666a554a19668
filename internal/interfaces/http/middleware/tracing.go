package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const redactedValue = "[redacted]"

// TracingConfig holds configuration for the tracing middleware
type TracingConfig struct {
	ServiceName string
	// Provider defaults to the global tracer provider
	Provider trace.TracerProvider
	// SkipPaths are not traced, e.g. health checks
	SkipPaths []string
}

// Tracing starts a server span per request with otelgin
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	opts := []otelgin.Option{
		otelgin.WithFilter(func(r *http.Request) bool {
			_, skipped := skip[r.URL.Path]
			return !skipped
		}),
	}
	if cfg.Provider != nil {
		opts = append(opts, otelgin.WithTracerProvider(cfg.Provider))
	}
	return otelgin.Middleware(cfg.ServiceName, opts...)
}

// SpanEnricher adds request, tenant and user IDs to the current span and
// rewrites url.path with the named path parameters redacted. It runs after
// Tracing and Authenticate, and marks error responses when the handler is done.
func SpanEnricher(redactedParams ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		if path, changed := redactParams(c, redactedParams); changed {
			span.SetAttributes(attribute.String("url.path", path))
		}
		if id := GetRequestID(c); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		if tenantID, ok := GetTenantID(c); ok {
			span.SetAttributes(attribute.String("tenant_id", tenantID.String()))
		}
		if userID := GetUserID(c); userID != uuid.Nil {
			span.SetAttributes(attribute.String("user_id", userID.String()))
		}

		c.Next()

		if status := c.Writer.Status(); status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

func redactParams(c *gin.Context, names []string) (string, bool) {
	path := c.Request.URL.Path
	changed := false
	for _, name := range names {
		if v := c.Param(name); v != "" {
			path = strings.Replace(path, v, redactedValue, 1)
			changed = true
		}
	}
	return path, changed
}
