package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ginLoggerKey    = "logger"
	ginRequestIDKey = "request_id"
	redacted        = "[redacted]"
)

type ginOptions struct {
	sensitiveParams map[string]struct{}
	skipPaths       map[string]struct{}
}

// GinOption configures GinMiddleware
type GinOption func(*ginOptions)

// WithRedactedParams hides the values of the named route parameters in the
// logged path, e.g. the acceptance token in /public/quotes/:token
func WithRedactedParams(names ...string) GinOption {
	return func(o *ginOptions) {
		for _, n := range names {
			o.sensitiveParams[n] = struct{}{}
		}
	}
}

// WithSkipPaths suppresses access logs for the given routes, e.g. health checks
func WithSkipPaths(paths ...string) GinOption {
	return func(o *ginOptions) {
		for _, p := range paths {
			o.skipPaths[p] = struct{}{}
		}
	}
}

// GinMiddleware logs one entry per request and stores a request-scoped logger
// in the gin context
func GinMiddleware(logger *zap.Logger, opts ...GinOption) gin.HandlerFunc {
	o := &ginOptions{
		sensitiveParams: map[string]struct{}{},
		skipPaths:       map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(o)
	}

	return func(c *gin.Context) {
		start := time.Now()

		reqLogger := logger.With(
			zap.String("request_id", c.GetString(ginRequestIDKey)),
			zap.String("method", c.Request.Method),
		)
		c.Set(ginLoggerKey, reqLogger)

		c.Next()

		route := c.FullPath()
		if _, skip := o.skipPaths[route]; skip {
			return
		}

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("path", redactPath(c, o.sensitiveParams)),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		reqLogger = WithTraceContext(c.Request.Context(), reqLogger)
		switch {
		case status >= http.StatusInternalServerError:
			reqLogger.Error("HTTP Request", fields...)
		case status >= http.StatusBadRequest:
			reqLogger.Warn("HTTP Request", fields...)
		default:
			reqLogger.Info("HTTP Request", fields...)
		}
	}
}

func redactPath(c *gin.Context, sensitive map[string]struct{}) string {
	path := c.Request.URL.Path
	for _, p := range c.Params {
		if _, ok := sensitive[p.Key]; ok && p.Value != "" {
			path = strings.Replace(path, p.Value, redacted, 1)
		}
	}
	return path
}

// Recovery turns a handler panic into a 500 with the standard error body
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				WithTraceContext(c.Request.Context(), logger).Error("Panic recovered",
					zap.String("request_id", c.GetString(ginRequestIDKey)),
					zap.String("method", c.Request.Method),
					zap.String("route", c.FullPath()),
					zap.Any("error", r),
					zap.Stack("stacktrace"),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "INTERNAL_ERROR",
						"message": "An unexpected error occurred",
					},
				})
			}
		}()
		c.Next()
	}
}

// GetGinLogger returns the request-scoped logger stored by GinMiddleware
func GetGinLogger(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(ginLoggerKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return zap.NewNop()
}
