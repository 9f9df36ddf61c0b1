package roles

import (
	"context"
	"fmt"
	"strings"

	"github.com/doctrove/doctrove/internal/authz"
	"github.com/doctrove/doctrove/internal/shared"
)

// Service is the role catalog: it resolves effective permission sets and
// owns every role/grant mutation.
type Service struct {
	repo  Repository
	cache *Cache
}

// NewService constructs a Service. The cache may be nil, in which case every
// resolve hits the repository.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Resolve computes the effective permission set for a role within a tenant.
// Tenant scope is checked before any lookup; out-of-scope requests surface
// as not found so existence never leaks across tenants.
func (s *Service) Resolve(ctx context.Context, caller authz.Principal, tenantID int64, roleName string) (PermissionSet, error) {
	if !authz.InScope(caller, tenantID) {
		return nil, shared.ErrNotFound
	}
	return s.cache.Resolve(ctx, tenantID, roleName, func(ctx context.Context) (PermissionSet, error) {
		return s.resolveUncached(ctx, tenantID, roleName)
	})
}

// ResolveForPrincipal resolves the principal's own role.
func (s *Service) ResolveForPrincipal(ctx context.Context, p authz.Principal) (PermissionSet, error) {
	return s.Resolve(ctx, p, p.TenantID, p.RoleName)
}

// HasPermission reports the final boolean for one permission key on the
// principal's own role. SuperAdmin always holds every permission.
func (s *Service) HasPermission(ctx context.Context, p authz.Principal, perm authz.Permission) (bool, error) {
	if p.Suspended {
		return false, nil
	}
	if p.Role == authz.RoleSuperAdmin {
		return true, nil
	}
	set, err := s.ResolveForPrincipal(ctx, p)
	if err != nil {
		return false, err
	}
	return set.Has(perm), nil
}

// BaseRoleFor resolves a role name to its hierarchy tier within a tenant.
func (s *Service) BaseRoleFor(ctx context.Context, tenantID int64, roleName string) (authz.BaseRole, error) {
	role, err := s.repo.FindRole(ctx, tenantID, roleName)
	if err != nil {
		return authz.RoleEmployee, err
	}
	return role.BaseRole, nil
}

func (s *Service) resolveUncached(ctx context.Context, tenantID int64, roleName string) (PermissionSet, error) {
	role, err := s.repo.FindRole(ctx, tenantID, roleName)
	if err != nil {
		return nil, err
	}

	set := make(PermissionSet, len(authz.AllPermissions()))

	// SuperAdmin is not overridable: grants are rejected at write time and
	// ignored here should any exist.
	if role.BaseRole == authz.RoleSuperAdmin {
		for _, p := range authz.AllPermissions() {
			set[p] = ResolvedPermission{Granted: true, Inherited: true}
		}
		return set, nil
	}

	for _, p := range authz.AllPermissions() {
		set[p] = ResolvedPermission{Granted: authz.DefaultGrant(role.BaseRole, p), Inherited: true}
	}

	grants, err := s.repo.ListGrants(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	for _, g := range grants {
		if !g.Permission.Valid() {
			continue
		}
		set[g.Permission] = ResolvedPermission{Granted: g.Granted, Inherited: false}
	}
	return set, nil
}

// ListRoles returns the roles visible to the caller: system roles plus the
// caller's tenant-custom roles.
func (s *Service) ListRoles(ctx context.Context, caller authz.Principal) ([]Role, error) {
	return s.repo.ListRoles(ctx, caller.TenantID)
}

// CreateRole adds a tenant-custom role anchored to a base tier. The base
// role is immutable after creation.
func (s *Service) CreateRole(ctx context.Context, caller authz.Principal, name, baseRoleName string) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name required", shared.ErrValidation)
	}
	base, ok := authz.ParseBaseRole(baseRoleName)
	if !ok {
		return nil, fmt.Errorf("%w: unknown base role %q", shared.ErrValidation, baseRoleName)
	}
	role, err := s.repo.CreateRole(ctx, Role{TenantID: caller.TenantID, Name: name, BaseRole: base})
	if err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, caller.TenantID, name); err != nil {
		return nil, err
	}
	return role, nil
}

// DeleteRole removes a tenant-custom role. System roles are never deletable.
func (s *Service) DeleteRole(ctx context.Context, caller authz.Principal, roleID int64) error {
	role, err := s.roleInScope(ctx, caller, roleID)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return fmt.Errorf("%w: system roles cannot be deleted", shared.ErrValidation)
	}
	if err := s.repo.DeleteRole(ctx, roleID); err != nil {
		return err
	}
	return s.cache.Invalidate(ctx, role.TenantID, role.Name)
}

// SetGrant writes one override row and invalidates the cached set before
// returning. Grants on SuperAdmin-tier or system roles are rejected.
func (s *Service) SetGrant(ctx context.Context, caller authz.Principal, roleID int64, perm authz.Permission, granted bool) error {
	if !perm.Valid() {
		return fmt.Errorf("%w: unknown permission %q", shared.ErrValidation, perm)
	}
	role, err := s.roleInScope(ctx, caller, roleID)
	if err != nil {
		return err
	}
	if role.BaseRole == authz.RoleSuperAdmin {
		return fmt.Errorf("%w: superadmin permissions are not overridable", shared.ErrValidation)
	}
	if role.IsSystem {
		return fmt.Errorf("%w: system roles are immutable", shared.ErrValidation)
	}
	if err := s.repo.UpsertGrant(ctx, Grant{RoleID: roleID, Permission: perm, Granted: granted}); err != nil {
		return err
	}
	return s.cache.Invalidate(ctx, role.TenantID, role.Name)
}

// ClearGrant deletes an override row, restoring the inherited default.
func (s *Service) ClearGrant(ctx context.Context, caller authz.Principal, roleID int64, perm authz.Permission) error {
	if !perm.Valid() {
		return fmt.Errorf("%w: unknown permission %q", shared.ErrValidation, perm)
	}
	role, err := s.roleInScope(ctx, caller, roleID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteGrant(ctx, roleID, perm); err != nil {
		return err
	}
	return s.cache.Invalidate(ctx, role.TenantID, role.Name)
}

// roleInScope fetches a role and hides cross-tenant rows behind not-found.
func (s *Service) roleInScope(ctx context.Context, caller authz.Principal, roleID int64) (*Role, error) {
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if role.TenantID != 0 && !authz.InScope(caller, role.TenantID) {
		return nil, shared.ErrNotFound
	}
	return role, nil
}
