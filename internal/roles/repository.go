package roles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doctrove/doctrove/internal/authz"
	"github.com/doctrove/doctrove/internal/shared"
)

// Repository defines persistence operations for the role catalog.
type Repository interface {
	FindRole(ctx context.Context, tenantID int64, name string) (*Role, error)
	GetRole(ctx context.Context, id int64) (*Role, error)
	ListRoles(ctx context.Context, tenantID int64) ([]Role, error)
	CreateRole(ctx context.Context, role Role) (*Role, error)
	DeleteRole(ctx context.Context, id int64) error
	ListGrants(ctx context.Context, roleID int64) ([]Grant, error)
	UpsertGrant(ctx context.Context, grant Grant) error
	DeleteGrant(ctx context.Context, roleID int64, permission authz.Permission) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const roleColumns = `id, COALESCE(tenant_id, 0), name, base_role, is_system, created_at, updated_at`

// FindRole resolves a role by name: the tenant's custom role when one
// exists, otherwise the global system role of that name.
func (r *PGRepository) FindRole(ctx context.Context, tenantID int64, name string) (*Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles
		WHERE lower(name) = lower($1) AND (tenant_id = $2 OR tenant_id IS NULL)
		ORDER BY tenant_id NULLS LAST LIMIT 1`, strings.TrimSpace(name), tenantID)
	return scanRole(row)
}

// GetRole fetches a role by id.
func (r *PGRepository) GetRole(ctx context.Context, id int64) (*Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
	return scanRole(row)
}

// ListRoles returns the system roles plus the tenant's custom roles.
func (r *PGRepository) ListRoles(ctx context.Context, tenantID int64) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles
		WHERE tenant_id = $1 OR tenant_id IS NULL ORDER BY is_system DESC, name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Role
	for rows.Next() {
		role, err := scanRoleFromRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *role)
	}
	return out, rows.Err()
}

// CreateRole inserts a custom role. A duplicate name within the tenant
// surfaces as a validation error.
func (r *PGRepository) CreateRole(ctx context.Context, role Role) (*Role, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO roles (tenant_id, name, base_role, is_system, created_at, updated_at)
		VALUES (NULLIF($1, 0), $2, $3, false, NOW(), NOW())
		RETURNING `+roleColumns, role.TenantID, role.Name, role.BaseRole.String())
	created, err := scanRole(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: role name already in use", shared.ErrValidation)
		}
		return nil, err
	}
	return created, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// DeleteRole removes a custom role and its grant rows.
func (r *PGRepository) DeleteRole(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1 AND NOT is_system`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListGrants returns the sparse override rows for a role.
func (r *PGRepository) ListGrants(ctx context.Context, roleID int64) ([]Grant, error) {
	rows, err := r.pool.Query(ctx, `SELECT role_id, permission, granted FROM permission_grants WHERE role_id = $1`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Grant
	for rows.Next() {
		var g Grant
		var perm string
		if err := rows.Scan(&g.RoleID, &perm, &g.Granted); err != nil {
			return nil, err
		}
		g.Permission = authz.Permission(perm)
		out = append(out, g)
	}
	return out, rows.Err()
}

// UpsertGrant writes one override row.
func (r *PGRepository) UpsertGrant(ctx context.Context, grant Grant) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO permission_grants (role_id, permission, granted)
		VALUES ($1, $2, $3)
		ON CONFLICT (role_id, permission) DO UPDATE SET granted = EXCLUDED.granted`,
		grant.RoleID, string(grant.Permission), grant.Granted)
	return err
}

// DeleteGrant removes an override row, restoring the inherited default.
func (r *PGRepository) DeleteGrant(ctx context.Context, roleID int64, permission authz.Permission) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM permission_grants WHERE role_id = $1 AND permission = $2`, roleID, string(permission))
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRole(row rowScanner) (*Role, error) {
	return scanRoleFromRows(row)
}

func scanRoleFromRows(row rowScanner) (*Role, error) {
	var role Role
	var baseRole string
	if err := row.Scan(&role.ID, &role.TenantID, &role.Name, &baseRole, &role.IsSystem, &role.CreatedAt, &role.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	base, ok := authz.ParseBaseRole(baseRole)
	if !ok {
		return nil, fmt.Errorf("roles: unknown base role %q for role %d", baseRole, role.ID)
	}
	role.BaseRole = base
	return &role, nil
}

var _ Repository = (*PGRepository)(nil)
