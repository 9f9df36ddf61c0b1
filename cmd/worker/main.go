package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/doctrove/doctrove/internal/app"
	"github.com/doctrove/doctrove/internal/audit"
	"github.com/doctrove/doctrove/internal/compliance"
	jobmetrics "github.com/doctrove/doctrove/internal/jobs"
	"github.com/doctrove/doctrove/internal/platform/db"
	"github.com/doctrove/doctrove/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	auditStore := audit.NewStore(pool)
	complianceRepo := compliance.NewRepository(pool)
	metrics := jobmetrics.NewMetrics(nil)
	sweeper := jobs.NewSweeper(complianceRepo, auditStore, metrics, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: audit.TaskTypeRecord, Handler: auditStore.HandleRecordTask},
			{Type: jobs.TaskTypeAuditSweep, Handler: sweeper.HandleSweepTask},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.AuditSweepCron, Task: jobs.NewAuditSweepTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
