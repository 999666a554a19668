package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	_ "github.com/quoteflow/backend/docs"

	"github.com/quoteflow/backend/internal/infrastructure/auth"
	"github.com/quoteflow/backend/internal/infrastructure/config"
	"github.com/quoteflow/backend/internal/infrastructure/logger"
	"github.com/quoteflow/backend/internal/interfaces/http/dto"
	"github.com/quoteflow/backend/internal/interfaces/http/handler"
	"github.com/quoteflow/backend/internal/interfaces/http/middleware"
)

const healthPath = "/health"

// Handlers are the endpoint handlers mounted by NewEngine
type Handlers struct {
	Public     *handler.PublicQuoteHandler
	Quotes     *handler.QuoteHandler
	Orders     *handler.OrderHandler
	Deductions *handler.DeductionHandler
	Health     *handler.HealthHandler
}

// Options configures the middleware chain
type Options struct {
	Logger *zap.Logger
	HTTP   config.HTTPConfig
	Auth   middleware.AuthConfig
	// PublicLimiter throttles the acceptance endpoints per client IP
	PublicLimiter *middleware.RateLimiter
	// APILimiter throttles internal endpoints; nil disables it
	APILimiter *middleware.RateLimiter
	// Tracing is skipped when nil
	Tracing *middleware.TracingConfig
	// Meter enables HTTP metrics when set
	Meter metric.Meter
	// Swagger serves the API documentation under /swagger
	Swagger bool
}

// NewEngine builds the gin engine with the middleware chain and all routes
func NewEngine(opts Options, h Handlers) (*gin.Engine, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(middleware.RequestID(log))
	engine.Use(logger.Recovery(log))
	if opts.Tracing != nil {
		tracing := *opts.Tracing
		tracing.SkipPaths = append(tracing.SkipPaths, healthPath)
		engine.Use(middleware.Tracing(tracing))
	}
	if opts.Meter != nil {
		metrics, err := middleware.HTTPMetrics(opts.Meter)
		if err != nil {
			return nil, err
		}
		engine.Use(metrics)
	}
	engine.Use(logger.GinMiddleware(log,
		logger.WithRedactedParams("token"),
		logger.WithSkipPaths(healthPath),
	))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(middleware.CORSConfigFrom(opts.HTTP)))
	if opts.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeBadRequest, "Method not allowed", middleware.GetRequestID(c)))
	})

	if h.Health != nil {
		engine.GET(healthPath, h.Health.Health)
	}
	if opts.Swagger {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	groups := []*routeGroup{internalRoutes(opts, h)}
	if h.Public != nil {
		groups = append(groups, publicRoutes(opts, h.Public))
	}
	mountAPI(engine, groups...)

	return engine, nil
}

func publicRoutes(opts Options, public *handler.PublicQuoteHandler) *routeGroup {
	g := &routeGroup{prefix: "/public"}
	if opts.PublicLimiter != nil {
		g.use(middleware.RateLimit(opts.PublicLimiter, middleware.ClientIPKey))
	}
	g.use(middleware.SpanEnricher("token"))

	g.add(http.MethodGet, "/quotes/:token", "", public.Get)
	g.add(http.MethodPost, "/quotes/:token/accept", "", public.Accept)
	return g
}

func internalRoutes(opts Options, h Handlers) *routeGroup {
	g := &routeGroup{}
	g.use(middleware.Authenticate(opts.Auth), middleware.SpanEnricher())
	if opts.APILimiter != nil {
		g.use(middleware.RateLimit(opts.APILimiter, tenantKey))
	}

	if h.Deductions != nil {
		g.add(http.MethodPost, "/deductions/preview", auth.PermissionQuoteRead, h.Deductions.Preview)
	}

	if q := h.Quotes; q != nil {
		g.add(http.MethodGet, "/quotes", auth.PermissionQuoteRead, q.List)
		g.add(http.MethodPost, "/quotes", auth.PermissionQuoteWrite, q.Create)
		g.add(http.MethodGet, "/quotes/inconsistent", auth.PermissionQuoteRead, q.ListInconsistent)
		g.add(http.MethodGet, "/quotes/:id", auth.PermissionQuoteRead, q.GetByID)
		g.add(http.MethodPut, "/quotes/:id", auth.PermissionQuoteWrite, q.Update)
		g.add(http.MethodDelete, "/quotes/:id", auth.PermissionQuoteWrite, q.Delete)
		g.add(http.MethodPost, "/quotes/:id/send", auth.PermissionQuoteWrite, q.Send)
		g.add(http.MethodPost, "/quotes/:id/decline", auth.PermissionQuoteWrite, q.Decline)
	}

	if o := h.Orders; o != nil {
		g.add(http.MethodGet, "/orders", auth.PermissionOrderRead, o.List)
		g.add(http.MethodGet, "/orders/:id", auth.PermissionOrderRead, o.GetByID)
		g.add(http.MethodGet, "/orders/:id/activities", auth.PermissionOrderRead, o.ListActivities)
		g.add(http.MethodPut, "/orders/:id/status", auth.PermissionOrderWrite, o.UpdateStatus)
		g.add(http.MethodPut, "/orders/:id/assignment", auth.PermissionOrderAssign, o.UpdateAssignment)
		g.add(http.MethodPost, "/orders/:id/notes", auth.PermissionOrderWrite, o.AddNote)
	}
	return g
}

// tenantKey limits internal callers per tenant and IP
func tenantKey(c *gin.Context) string {
	if tenantID, ok := middleware.GetTenantID(c); ok {
		return tenantID.String() + ":" + c.ClientIP()
	}
	return c.ClientIP()
}
