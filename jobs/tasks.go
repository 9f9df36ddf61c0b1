package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/doctrove/doctrove/internal/compliance"
	jobmetrics "github.com/doctrove/doctrove/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeAuditSweep is the task type for the audit retention sweep.
	TaskTypeAuditSweep = "audit:sweep"
)

// NewAuditSweepTask constructs the retention sweep task. It carries no
// payload; the sweep always covers every tenant.
func NewAuditSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeAuditSweep, nil)
}

// AuditSweeper removes one tenant's audit events older than the cutoff.
type AuditSweeper interface {
	Sweep(ctx context.Context, tenantID int64, cutoff time.Time) (int64, error)
}

// RetentionSource yields the per-tenant retention windows.
type RetentionSource interface {
	ListRetention(ctx context.Context) ([]compliance.Retention, error)
}

// Sweeper prunes audit events past each tenant's retention window. Tenants
// whose compliance mode raised the retention floor keep their events longer.
type Sweeper struct {
	retention RetentionSource
	store     AuditSweeper
	metrics   *jobmetrics.Metrics
	logger    *slog.Logger
}

// NewSweeper constructs a Sweeper.
func NewSweeper(retention RetentionSource, store AuditSweeper, metrics *jobmetrics.Metrics, logger *slog.Logger) *Sweeper {
	return &Sweeper{retention: retention, store: store, metrics: metrics, logger: logger}
}

// HandleSweepTask processes TaskTypeAuditSweep tasks. A failure on one
// tenant does not stop the sweep for the rest.
func (s *Sweeper) HandleSweepTask(ctx context.Context, t *asynq.Task) error {
	tracker := s.metrics.Track("audit_sweep")
	return tracker.End(s.run(ctx))
}

func (s *Sweeper) run(ctx context.Context) error {
	windows, err := s.retention.ListRetention(ctx)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	var lastErr error
	for _, window := range windows {
		if window.Days <= 0 {
			continue
		}
		cutoff := now.AddDate(0, 0, -window.Days)
		removed, err := s.store.Sweep(ctx, window.TenantID, cutoff)
		if err != nil {
			s.logger.Error("audit sweep failed",
				slog.Int64("tenant_id", window.TenantID), slog.Any("error", err))
			lastErr = err
			continue
		}
		if removed > 0 {
			s.metrics.AddPurged(window.TenantID, removed)
			s.logger.Info("audit sweep pruned events",
				slog.Int64("tenant_id", window.TenantID), slog.Int64("removed", removed))
		}
	}
	return lastErr
}
