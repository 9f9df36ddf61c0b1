package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskTypeRecord is the asynq task type carrying one audit event.
const TaskTypeRecord = "audit:record"

// NewRecordTask wraps an event into an asynq task.
func NewRecordTask(event Event) (*asynq.Task, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRecord, payload), nil
}

// Store persists events into audit_events.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a Store backed by the provided pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Insert writes one event row. Duplicate ids are ignored so task retries
// stay idempotent.
func (s *Store) Insert(ctx context.Context, event Event) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO audit_events (id, tenant_id, actor_id, action, resource_type, resource_id, outcome, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		event.ID, event.TenantID, event.Actor, event.Action, event.ResourceType, event.ResourceID, event.Outcome, event.At)
	return err
}

// Sweep deletes events for one tenant older than the cutoff and reports the
// number of rows removed.
func (s *Store) Sweep(ctx context.Context, tenantID int64, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM audit_events WHERE tenant_id = $1 AND occurred_at < $2`, tenantID, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// HandleRecordTask processes TaskTypeRecord tasks on the worker.
func (s *Store) HandleRecordTask(ctx context.Context, t *asynq.Task) error {
	var event Event
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		return asynq.SkipRetry
	}
	return s.Insert(ctx, event)
}

// Recorder emits audit events. When a queue client is configured events are
// enqueued for the worker; otherwise, or when enqueueing fails, the event is
// written synchronously. Recording never fails the audited operation.
type Recorder struct {
	client *asynq.Client
	store  *Store
	logger *slog.Logger
}

// NewRecorder constructs a Recorder. The asynq client may be nil.
func NewRecorder(client *asynq.Client, store *Store, logger *slog.Logger) *Recorder {
	return &Recorder{client: client, store: store, logger: logger}
}

// Record emits one event, filling in the id and timestamp when absent.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if r == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	if r.client != nil {
		task, err := NewRecordTask(event)
		if err == nil {
			if _, err := r.client.EnqueueContext(ctx, task, asynq.Queue("default")); err == nil {
				return
			}
		}
	}

	if r.store != nil {
		if err := r.store.Insert(ctx, event); err != nil && r.logger != nil {
			r.logger.Error("record audit event", slog.String("action", event.Action), slog.Any("error", err))
		}
	}
}
