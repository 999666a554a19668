package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/quoteflow/backend/internal/application/acceptance"
	appevent "github.com/quoteflow/backend/internal/application/event"
	appquote "github.com/quoteflow/backend/internal/application/quote"
	appworkorder "github.com/quoteflow/backend/internal/application/workorder"
	"github.com/quoteflow/backend/internal/domain/deduction"
	"github.com/quoteflow/backend/internal/infrastructure/auth"
	"github.com/quoteflow/backend/internal/infrastructure/cache"
	"github.com/quoteflow/backend/internal/infrastructure/config"
	"github.com/quoteflow/backend/internal/infrastructure/event"
	"github.com/quoteflow/backend/internal/infrastructure/logger"
	"github.com/quoteflow/backend/internal/infrastructure/notification"
	"github.com/quoteflow/backend/internal/infrastructure/persistence"
	"github.com/quoteflow/backend/internal/infrastructure/scheduler"
	"github.com/quoteflow/backend/internal/infrastructure/telemetry"
	"github.com/quoteflow/backend/internal/interfaces/http/handler"
	"github.com/quoteflow/backend/internal/interfaces/http/middleware"
	"github.com/quoteflow/backend/internal/interfaces/http/router"
)

//	@title			Quoteflow API
//	@version		1.0
//	@description	Quotes, customer acceptance links and the work orders they become
//	@BasePath		/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

const serviceName = "quoteflow"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.FromAppConfig(cfg))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Quoteflow",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", telemetry.ServiceVersion),
	)

	ctx := context.Background()

	// Telemetry
	telCfg := telemetry.FromAppConfig(cfg.Telemetry)
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	log = loggerProvider.Bridge(log, serviceName, logger.ParseLevel(cfg.Log.Level))
	meter := meterProvider.Meter(serviceName)
	acceptanceMetrics, err := telemetry.NewAcceptanceMetrics(meter)
	if err != nil {
		log.Fatal("Failed to register acceptance metrics", zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL),
	)
	db, err := persistence.Open(ctx, &cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:  cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		FullSQL:  cfg.Telemetry.DBLogFullSQL,
		DBName:   cfg.Database.DBName,
		Provider: tracerProvider.Provider(),
	}, log); err != nil {
		log.Fatal("Failed to enable database tracing", zap.Error(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		if _, err := telemetry.RegisterPoolMetrics(meter, sqlDB); err != nil {
			log.Warn("Failed to register pool metrics", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	// Idempotency store shared by notification de-duplication and event handlers
	store, err := cache.OpenIdempotencyStore(ctx, cfg.Redis, cfg.App.Env == "production", log)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Notifications
	gateway, err := notification.NewGateway(cfg.Notification, serviceName, log)
	if err != nil {
		log.Fatal("Failed to create notification gateway", zap.Error(err))
	}
	dispatcher := notification.NewDispatcher(gateway, store, notification.DispatcherConfig{
		SendTimeout: cfg.Notification.SendTimeout,
		DedupTTL:    cfg.Notification.DedupTTL,
	}, log.Named("dispatcher"))
	dispatcher.SetRecorder(acceptanceMetrics)

	// Domain events
	bus := event.NewInMemoryEventBus(log.Named("events"))
	bus.Subscribe(event.NewIdempotentHandler(
		appevent.NewQuoteAcceptedNotifier(dispatcher, log),
		store,
		log,
		event.WithTTL(cfg.Notification.DedupTTL),
	))
	if err := bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Application services
	policy, err := deduction.NewPolicy(cfg.Deduction.LaborShare, cfg.Deduction.Rate, cfg.Deduction.Cap)
	if err != nil {
		log.Fatal("Invalid deduction configuration", zap.Error(err))
	}

	quoteRepo := persistence.NewGormQuoteRepository(db.DB)
	orderRepo := persistence.NewGormWorkOrderRepository(db.DB)
	ledger := persistence.NewGormActivityLedger(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	orderService := appworkorder.NewService(orderRepo, ledger, txScope, dispatcher, log.Named("workorder"))
	orderService.SetEventPublisher(bus)

	tokens := appquote.NewTokenGateway(quoteRepo, cfg.Acceptance.TokenTTLDays, log.Named("tokens"))
	quoteService := appquote.NewService(quoteRepo, tokens, orderService, policy, cfg.Acceptance.PublicBaseURL, log.Named("quote"))
	quoteService.SetEventPublisher(bus)

	orchestrator := acceptance.NewOrchestrator(quoteRepo, tokens, orderService, policy, log.Named("acceptance"))
	orchestrator.SetEventPublisher(bus)
	orchestrator.SetRecorder(acceptanceMetrics)
	orchestrator.SetCompensationTimeout(cfg.Acceptance.CompensationLimit)

	linkAudit := scheduler.NewLinkAuditScheduler(quoteRepo, acceptanceMetrics, log.Named("link_audit"), scheduler.LinkAuditConfig{
		Enabled:     !cfg.Acceptance.LinkAuditDisabled,
		Interval:    cfg.Acceptance.LinkAuditInterval,
		GracePeriod: cfg.Acceptance.LinkAuditGrace,
	})

	// HTTP
	middleware.SetupValidator()

	checks := map[string]handler.HealthCheck{
		"database": db.Ping,
	}
	if pinger, ok := store.(interface{ Ping(context.Context) error }); ok {
		checks["redis"] = pinger.Ping
	}

	serverCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()

	publicLimiter := middleware.NewRateLimiter(cfg.Acceptance.PublicRateLimit, cfg.Acceptance.PublicRateWindow)
	go publicLimiter.Run(serverCtx)

	var apiLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		apiLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		go apiLimiter.Run(serverCtx)
	}

	engine, err := router.NewEngine(router.Options{
		Logger: log,
		HTTP:   cfg.HTTP,
		Auth: middleware.AuthConfig{
			JWTService:          auth.NewJWTService(cfg.JWT),
			AllowHeaderFallback: cfg.App.Env == "development",
			Logger:              log,
		},
		PublicLimiter: publicLimiter,
		APILimiter:    apiLimiter,
		Tracing: &middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Provider:    tracerProvider.Provider(),
		},
		Meter:   meter,
		Swagger: cfg.HTTP.SwaggerEnabled,
	}, router.Handlers{
		Public:     handler.NewPublicQuoteHandler(orchestrator),
		Quotes:     handler.NewQuoteHandler(quoteService),
		Orders:     handler.NewOrderHandler(orderService),
		Deductions: handler.NewDeductionHandler(quoteService),
		Health:     handler.NewHealthHandler(telemetry.ServiceVersion, checks),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	if err := linkAudit.Start(serverCtx); err != nil {
		log.Fatal("Failed to start link audit", zap.Error(err))
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	stopBackground()
	if err := linkAudit.Stop(shutdownCtx); err != nil {
		log.Warn("Link audit stop failed", zap.Error(err))
	}

	// Requests are drained; let in-flight notifications finish before closing their transports
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus stop failed", zap.Error(err))
	}
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		log.Warn("Pending notifications abandoned", zap.Error(err))
	}
	closeAll(log, gateway, store)

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Tracer shutdown failed", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Meter shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintln(os.Stderr, "Logger provider shutdown failed:", err)
	}
}

func closeAll(log *zap.Logger, closers ...any) {
	for _, c := range closers {
		closer, ok := c.(interface{ Close() error })
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			log.Warn("Close failed", zap.Error(err))
		}
	}
}
