package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doctrove/doctrove/internal/shared"
)

// Repository defines persistence operations for user accounts.
type Repository interface {
	GetUser(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context, tenantID int64) ([]User, error)
	AllowedDepartments(ctx context.Context, userID int64) ([]int64, error)
	AllowedTenants(ctx context.Context, userID int64) ([]int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, tenant_id, email, password_hash, role_name, COALESCE(department_id, 0), status, created_at, updated_at`

// GetUser fetches a user by id.
func (r *PGRepository) GetUser(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return scanUser(row)
}

// ListUsers returns one tenant's accounts.
func (r *PGRepository) ListUsers(ctx context.Context, tenantID int64) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE tenant_id = $1 ORDER BY email`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *user)
	}
	return out, rows.Err()
}

// AllowedDepartments returns the explicit cross-department allow-list.
func (r *PGRepository) AllowedDepartments(ctx context.Context, userID int64) ([]int64, error) {
	return r.listIDs(ctx, `SELECT department_id FROM user_department_access WHERE user_id = $1`, userID)
}

// AllowedTenants returns the explicit cross-tenant allow-list.
func (r *PGRepository) AllowedTenants(ctx context.Context, userID int64) ([]int64, error) {
	return r.listIDs(ctx, `SELECT tenant_id FROM user_tenant_access WHERE user_id = $1`, userID)
}

func (r *PGRepository) listIDs(ctx context.Context, query string, userID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanUser(row interface{ Scan(dest ...any) error }) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.RoleName,
		&u.DepartmentID, &u.Status, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

var _ Repository = (*PGRepository)(nil)
