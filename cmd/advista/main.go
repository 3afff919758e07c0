package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/advista/advista/internal/app"
	"github.com/advista/advista/internal/authz"
	"github.com/advista/advista/internal/brands"
	"github.com/advista/advista/internal/campaigns"
	"github.com/advista/advista/internal/identity"
	"github.com/advista/advista/internal/observability"
	"github.com/advista/advista/internal/platform/cache"
	"github.com/advista/advista/internal/platform/db"
	"github.com/advista/advista/internal/reports"
	"github.com/advista/advista/internal/shared"
	"github.com/advista/advista/jobs"
)

// metricsObserver bridges authorization decisions into Prometheus counters.
type metricsObserver struct {
	metrics *observability.Metrics
}

func (o metricsObserver) ObserveDecision(_ context.Context, _ authz.Subject, module, action string, d authz.Decision) {
	o.metrics.ObserveDecision(module, action, string(d.Reason))
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "advista_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()

	authzRepo := authz.NewRepository(dbpool)
	engine := authz.NewEngine(authzRepo, authzRepo,
		authz.SlogDecisionLogger{Logger: logger},
		metricsObserver{metrics: metrics},
	)
	authzMiddleware := authz.Middleware{Engine: engine, Logger: logger}
	permissionsHandler := authz.NewHandler(logger, authzRepo, authzRepo, authzRepo, auditLogger)

	identityRepo := identity.NewRepository(dbpool)
	identityService := identity.NewService(identityRepo)
	authHandler := identity.NewHandler(logger, identityService, sessionManager, csrfManager)

	campaignsRepo := campaigns.NewRepository(dbpool)
	campaignsService := campaigns.NewService(campaignsRepo, engine)
	campaignsHandler := campaigns.NewHandler(logger, campaignsService)

	brandsRepo := brands.NewRepository(dbpool)
	brandsService := brands.NewService(brandsRepo, engine)
	brandsHandler := brands.NewHandler(logger, brandsService)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	reportsRepo := reports.NewRepository(dbpool)
	reportsService := reports.NewService(reportsRepo, engine, jobsClient)
	reportsHandler := reports.NewHandler(logger, reportsService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		IdentityService:    identityService,
		AuthHandler:        authHandler,
		AuthzMiddleware:    authzMiddleware,
		PermissionsHandler: permissionsHandler,
		CampaignsHandler:   campaignsHandler,
		BrandsHandler:      brandsHandler,
		ReportsHandler:     reportsHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
