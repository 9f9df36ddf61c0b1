package files

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doctrove/doctrove/internal/authz"
	"github.com/doctrove/doctrove/internal/shared"
)

// Repository defines persistence operations for file records. Lock state
// transitions are compare-and-set: the WHERE predicate on the current lock
// flag is what makes concurrent transitions race-safe.
type Repository interface {
	GetFile(ctx context.Context, id int64) (*File, error)
	ListFiles(ctx context.Context, tenantID int64) ([]File, error)
	AcquireLock(ctx context.Context, fileID, lockedBy int64, requiredRole, passwordHash string) (bool, error)
	ReleaseLock(ctx context.Context, fileID int64) (bool, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const fileColumns = `id, tenant_id, COALESCE(parent_id, 0), COALESCE(department_id, 0), owner_id, name,
	visibility, is_folder, is_company_folder, is_locked, COALESCE(locked_by, 0),
	COALESCE(lock_required_role, ''), COALESCE(lock_password_hash, ''), created_at, updated_at`

// GetFile fetches a file record by id.
func (r *PGRepository) GetFile(ctx context.Context, id int64) (*File, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+fileColumns+` FROM files WHERE id = $1`, id)
	var f File
	var visibility string
	err := row.Scan(&f.ID, &f.TenantID, &f.ParentID, &f.DepartmentID, &f.OwnerID, &f.Name,
		&visibility, &f.IsFolder, &f.IsCompanyFolder, &f.IsLocked, &f.LockedBy,
		&f.LockRequiredRole, &f.LockPasswordHash, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	f.Visibility = parseVisibility(visibility)
	return &f, nil
}

// ListFiles returns every record owned by one tenant.
func (r *PGRepository) ListFiles(ctx context.Context, tenantID int64) ([]File, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+fileColumns+` FROM files WHERE tenant_id = $1 ORDER BY is_folder DESC, name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []File
	for rows.Next() {
		var f File
		var visibility string
		if err := rows.Scan(&f.ID, &f.TenantID, &f.ParentID, &f.DepartmentID, &f.OwnerID, &f.Name,
			&visibility, &f.IsFolder, &f.IsCompanyFolder, &f.IsLocked, &f.LockedBy,
			&f.LockRequiredRole, &f.LockPasswordHash, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		f.Visibility = parseVisibility(visibility)
		out = append(out, f)
	}
	return out, rows.Err()
}

// AcquireLock transitions Unlocked -> Locked. Returns false without error
// when another caller won the race.
func (r *PGRepository) AcquireLock(ctx context.Context, fileID, lockedBy int64, requiredRole, passwordHash string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE files SET
			is_locked = true,
			locked_by = $2,
			lock_required_role = NULLIF($3, ''),
			lock_password_hash = NULLIF($4, ''),
			updated_at = NOW()
		WHERE id = $1 AND NOT is_locked`, fileID, lockedBy, requiredRole, passwordHash)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ReleaseLock transitions Locked -> Unlocked and clears all lock fields.
func (r *PGRepository) ReleaseLock(ctx context.Context, fileID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE files SET
			is_locked = false,
			locked_by = NULL,
			lock_required_role = NULL,
			lock_password_hash = NULL,
			updated_at = NOW()
		WHERE id = $1 AND is_locked`, fileID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func parseVisibility(raw string) authz.Visibility {
	if raw == string(authz.VisibilityPrivate) {
		return authz.VisibilityPrivate
	}
	return authz.VisibilityDepartment
}

var _ Repository = (*PGRepository)(nil)
