package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/doctrove/doctrove/internal/authz"
	"github.com/doctrove/doctrove/internal/shared"
)

type stubRepo struct {
	users       map[int64]*User
	departments map[int64][]int64
	tenants     map[int64][]int64
}

func newStubRepo(users ...*User) *stubRepo {
	r := &stubRepo{
		users:       make(map[int64]*User),
		departments: make(map[int64][]int64),
		tenants:     make(map[int64][]int64),
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *stubRepo) GetUser(ctx context.Context, id int64) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *stubRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *stubRepo) ListUsers(ctx context.Context, tenantID int64) ([]User, error) {
	var out []User
	for _, u := range r.users {
		if u.TenantID == tenantID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubRepo) AllowedDepartments(ctx context.Context, userID int64) ([]int64, error) {
	return r.departments[userID], nil
}

func (r *stubRepo) AllowedTenants(ctx context.Context, userID int64) ([]int64, error) {
	return r.tenants[userID], nil
}

var _ Repository = (*stubRepo)(nil)

type staticCatalog map[string]authz.BaseRole

func (c staticCatalog) BaseRoleFor(ctx context.Context, tenantID int64, roleName string) (authz.BaseRole, error) {
	base, ok := c[roleName]
	if !ok {
		return authz.RoleEmployee, shared.ErrNotFound
	}
	return base, nil
}

func TestResolvePrincipal(t *testing.T) {
	repo := newStubRepo(&User{
		ID: 7, TenantID: 1, Email: "lena@example.com", RoleName: "team-lead",
		DepartmentID: 3, Status: StatusActive,
	})
	repo.departments[7] = []int64{4, 5}
	repo.tenants[7] = []int64{2}
	svc := NewService(repo, staticCatalog{"team-lead": authz.RoleManager})

	p, err := svc.ResolvePrincipal(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, int64(7), p.UserID)
	require.Equal(t, int64(1), p.TenantID)
	require.Equal(t, "team-lead", p.RoleName)
	require.Equal(t, authz.RoleManager, p.Role)
	require.Equal(t, int64(3), p.DepartmentID)
	require.False(t, p.Suspended)

	require.Contains(t, p.AllowedDepartmentIDs, int64(4))
	require.Contains(t, p.AllowedDepartmentIDs, int64(5))
	require.Contains(t, p.AllowedTenantIDs, int64(2))
}

func TestResolvePrincipalSuspended(t *testing.T) {
	repo := newStubRepo(&User{ID: 7, TenantID: 1, RoleName: "employee", Status: StatusSuspended})
	svc := NewService(repo, staticCatalog{"employee": authz.RoleEmployee})

	p, err := svc.ResolvePrincipal(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, p.Suspended)
	require.False(t, authz.InScope(p, 1), "suspended principals fail every scope check")
}

func TestResolvePrincipalUnknownUser(t *testing.T) {
	svc := NewService(newStubRepo(), staticCatalog{})
	_, err := svc.ResolvePrincipal(context.Background(), 99)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestResolvePrincipalUnknownRole(t *testing.T) {
	repo := newStubRepo(&User{ID: 7, TenantID: 1, RoleName: "ghost", Status: StatusActive})
	svc := NewService(repo, staticCatalog{})

	_, err := svc.ResolvePrincipal(context.Background(), 7)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListUsersScopedToCallerTenant(t *testing.T) {
	repo := newStubRepo(
		&User{ID: 1, TenantID: 1, Email: "a@example.com"},
		&User{ID: 2, TenantID: 2, Email: "b@example.com"},
	)
	svc := NewService(repo, staticCatalog{})

	caller := authz.Principal{UserID: 1, TenantID: 1, Role: authz.RoleAdmin}
	list, err := svc.ListUsers(context.Background(), caller)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, int64(1), list[0].ID)
}
