package users

import (
	"context"

	"github.com/doctrove/doctrove/internal/authz"
)

// RoleResolver maps a role name within a tenant to its hierarchy tier.
type RoleResolver interface {
	BaseRoleFor(ctx context.Context, tenantID int64, roleName string) (authz.BaseRole, error)
}

// Service handles user lookups and principal resolution.
type Service struct {
	repo    Repository
	catalog RoleResolver
}

// NewService builds Service instance.
func NewService(repo Repository, catalog RoleResolver) *Service {
	return &Service{repo: repo, catalog: catalog}
}

// ListUsers returns the caller's tenant accounts.
func (s *Service) ListUsers(ctx context.Context, caller authz.Principal) ([]User, error) {
	return s.repo.ListUsers(ctx, caller.TenantID)
}

// ResolvePrincipal builds the immutable per-request principal from persisted
// user state: home tenant, anchored role tier, department memberships and
// the explicit cross-tenant/cross-department allow-lists.
func (s *Service) ResolvePrincipal(ctx context.Context, userID int64) (authz.Principal, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return authz.Principal{}, err
	}

	base, err := s.catalog.BaseRoleFor(ctx, user.TenantID, user.RoleName)
	if err != nil {
		return authz.Principal{}, err
	}

	departments, err := s.repo.AllowedDepartments(ctx, userID)
	if err != nil {
		return authz.Principal{}, err
	}
	tenants, err := s.repo.AllowedTenants(ctx, userID)
	if err != nil {
		return authz.Principal{}, err
	}

	principal := authz.Principal{
		UserID:               user.ID,
		TenantID:             user.TenantID,
		RoleName:             user.RoleName,
		Role:                 base,
		DepartmentID:         user.DepartmentID,
		AllowedDepartmentIDs: toSet(departments),
		AllowedTenantIDs:     toSet(tenants),
		Suspended:            user.Status == StatusSuspended,
	}
	return principal, nil
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
