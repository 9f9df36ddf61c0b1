package compliance

import (
	"context"
	"errors"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doctrove/doctrove/internal/platform/db"
	"github.com/doctrove/doctrove/internal/shared"
)

// Repository defines persistence operations for compliance settings.
type Repository interface {
	GetSettings(ctx context.Context, tenantID int64) (*Settings, error)
	SaveSettings(ctx context.Context, settings *Settings) error
	// ReplaceAtomically rewrites the row under a row lock so a mode change
	// and its derived locked fields land in one transaction.
	ReplaceAtomically(ctx context.Context, tenantID int64, mutate func(*Settings) error) (*Settings, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const settingsColumns = `tenant_id, mode, mfa_required, audit_logging, public_sharing, export_logging,
	retention_days, session_timeout_minutes, locked_fields`

// GetSettings fetches one tenant's compliance row.
func (r *PGRepository) GetSettings(ctx context.Context, tenantID int64) (*Settings, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+settingsColumns+` FROM compliance_settings WHERE tenant_id = $1`, tenantID)
	return scanSettings(row)
}

// SaveSettings rewrites one tenant's compliance row.
func (r *PGRepository) SaveSettings(ctx context.Context, settings *Settings) error {
	return saveSettings(ctx, r.pool, settings)
}

// ReplaceAtomically loads the row FOR UPDATE, applies mutate, and writes the
// result in the same transaction.
func (r *PGRepository) ReplaceAtomically(ctx context.Context, tenantID int64, mutate func(*Settings) error) (*Settings, error) {
	var result *Settings
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+settingsColumns+` FROM compliance_settings WHERE tenant_id = $1 FOR UPDATE`, tenantID)
		settings, err := scanSettings(row)
		if err != nil {
			return err
		}
		if err := mutate(settings); err != nil {
			return err
		}
		if err := saveSettings(ctx, tx, settings); err != nil {
			return err
		}
		result = settings
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Retention is one tenant's audit retention window.
type Retention struct {
	TenantID int64
	Days     int
}

// ListRetention returns every tenant's retention window for the sweep job.
func (r *PGRepository) ListRetention(ctx context.Context) ([]Retention, error) {
	rows, err := r.pool.Query(ctx, `SELECT tenant_id, retention_days FROM compliance_settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Retention
	for rows.Next() {
		var ret Retention
		if err := rows.Scan(&ret.TenantID, &ret.Days); err != nil {
			return nil, err
		}
		out = append(out, ret)
	}
	return out, rows.Err()
}

// execer matches the Exec shape shared by pool and transaction handles.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func saveSettings(ctx context.Context, conn execer, settings *Settings) error {
	locked := make([]string, 0, len(settings.LockedFields))
	for field := range settings.LockedFields {
		locked = append(locked, field)
	}
	sort.Strings(locked)
	_, err := conn.Exec(ctx, `UPDATE compliance_settings SET
			mode = $2,
			mfa_required = $3,
			audit_logging = $4,
			public_sharing = $5,
			export_logging = $6,
			retention_days = $7,
			session_timeout_minutes = $8,
			locked_fields = $9,
			updated_at = NOW()
		WHERE tenant_id = $1`,
		settings.TenantID, string(settings.Mode), settings.MFARequired, settings.AuditLogging,
		settings.PublicSharing, settings.ExportLogging, settings.RetentionDays,
		settings.SessionTimeoutMinutes, locked)
	return err
}

func scanSettings(row interface{ Scan(dest ...any) error }) (*Settings, error) {
	var s Settings
	var mode string
	var locked []string
	if err := row.Scan(&s.TenantID, &mode, &s.MFARequired, &s.AuditLogging, &s.PublicSharing,
		&s.ExportLogging, &s.RetentionDays, &s.SessionTimeoutMinutes, &locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	parsed, ok := ParseMode(mode)
	if !ok {
		parsed = ModeStandard
	}
	s.Mode = parsed
	s.LockedFields = make(map[string]struct{}, len(locked))
	for _, field := range locked {
		s.LockedFields[field] = struct{}{}
	}
	return &s, nil
}

var _ Repository = (*PGRepository)(nil)
