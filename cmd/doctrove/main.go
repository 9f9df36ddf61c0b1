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

	"github.com/doctrove/doctrove/internal/app"
	"github.com/doctrove/doctrove/internal/audit"
	"github.com/doctrove/doctrove/internal/auth"
	"github.com/doctrove/doctrove/internal/compliance"
	"github.com/doctrove/doctrove/internal/files"
	"github.com/doctrove/doctrove/internal/observability"
	"github.com/doctrove/doctrove/internal/platform/cache"
	"github.com/doctrove/doctrove/internal/platform/db"
	"github.com/doctrove/doctrove/internal/roles"
	"github.com/doctrove/doctrove/internal/shared"
	"github.com/doctrove/doctrove/internal/users"
)

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

	sessionManager := shared.NewSessionManager(redisClient, "doctrove_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	queueClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	auditStore := audit.NewStore(dbpool)
	recorder := audit.NewRecorder(queueClient, auditStore, logger)
	auditService := audit.NewService(auditStore)
	auditHandler := audit.NewHandler(logger, auditService)

	rolesRepo := roles.NewRepository(dbpool)
	permCache := roles.NewCache(redisClient, cfg.PermCacheTTL)
	rolesService := roles.NewService(rolesRepo, permCache)
	rbacMiddleware := roles.Middleware{Service: rolesService, Logger: logger}
	rolesHandler := roles.NewHandler(logger, rolesService, rbacMiddleware)
	permissionsHandler := roles.NewPermissionsHandler(rbacMiddleware)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, rolesService)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	authService := auth.NewService(usersRepo)
	authHandler := auth.NewHandler(logger, authService, csrfManager)

	metrics := observability.NewMetrics()

	filesRepo := files.NewRepository(dbpool)
	filesService := files.NewService(filesRepo, recorder, metrics)
	lockManager := files.NewLockManager(filesRepo, rolesService, recorder)
	filesHandler := files.NewHandler(logger, filesService, lockManager, rbacMiddleware)

	complianceRepo := compliance.NewRepository(dbpool)
	complianceService := compliance.NewService(complianceRepo, recorder)
	complianceHandler := compliance.NewHandler(logger, complianceService, rbacMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		Principals:         usersService,
		AuthHandler:        authHandler,
		RolesHandler:       rolesHandler,
		PermissionsHandler: permissionsHandler,
		UsersHandler:       usersHandler,
		FilesHandler:       filesHandler,
		ComplianceHandler:  complianceHandler,
		AuditHandler:       auditHandler,
		RBACMiddleware:     rbacMiddleware,
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
