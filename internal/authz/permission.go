package authz

// Permission identifies an atomic capability. The set is closed: unknown keys
// are rejected at the catalog boundary instead of silently accepted.
type Permission string

const (
	PermFilesView     Permission = "files.view"
	PermFilesUpload   Permission = "files.upload"
	PermFilesDownload Permission = "files.download"
	PermFilesRename   Permission = "files.rename"
	PermFilesDelete   Permission = "files.delete"
	PermFilesShare    Permission = "files.share"
	PermFilesLock     Permission = "files.lock"
	PermFilesUnlock   Permission = "files.unlock"

	PermRequestsCreate Permission = "requests.create"
	PermRequestsView   Permission = "requests.view"
	PermRequestsManage Permission = "requests.manage"

	PermRolesView Permission = "roles.view"
	PermRolesEdit Permission = "roles.edit"

	PermUsersView Permission = "users.view"
	PermUsersEdit Permission = "users.edit"

	PermAuditView Permission = "audit.view"

	PermComplianceView Permission = "compliance.view"
	PermComplianceEdit Permission = "compliance.edit"

	PermTenantsManage Permission = "tenants.manage"
)

var allPermissions = []Permission{
	PermFilesView,
	PermFilesUpload,
	PermFilesDownload,
	PermFilesRename,
	PermFilesDelete,
	PermFilesShare,
	PermFilesLock,
	PermFilesUnlock,
	PermRequestsCreate,
	PermRequestsView,
	PermRequestsManage,
	PermRolesView,
	PermRolesEdit,
	PermUsersView,
	PermUsersEdit,
	PermAuditView,
	PermComplianceView,
	PermComplianceEdit,
	PermTenantsManage,
}

// AllPermissions returns every known permission key in stable order.
func AllPermissions() []Permission {
	out := make([]Permission, len(allPermissions))
	copy(out, allPermissions)
	return out
}

var permissionSet = func() map[Permission]struct{} {
	set := make(map[Permission]struct{}, len(allPermissions))
	for _, p := range allPermissions {
		set[p] = struct{}{}
	}
	return set
}()

// Valid reports whether p is a known permission key.
func (p Permission) Valid() bool {
	_, ok := permissionSet[p]
	return ok
}

// Group returns the dotted prefix, e.g. "files" for "files.lock".
func (p Permission) Group() string {
	for i := 0; i < len(p); i++ {
		if p[i] == '.' {
			return string(p[:i])
		}
	}
	return string(p)
}

var employeeDefaults = map[Permission]struct{}{
	PermFilesView:      {},
	PermFilesUpload:    {},
	PermFilesDownload:  {},
	PermRequestsCreate: {},
	PermRequestsView:   {},
}

// DefaultGrant returns the base-role default for one permission key.
// SuperAdmin holds everything, Admin everything except tenant management,
// Manager the file and request groups plus role viewing, Employee a
// read/upload subset.
func DefaultGrant(role BaseRole, p Permission) bool {
	switch role {
	case RoleSuperAdmin:
		return true
	case RoleAdmin:
		return p != PermTenantsManage
	case RoleManager:
		if p.Group() == "files" || p.Group() == "requests" {
			return true
		}
		return p == PermRolesView
	case RoleEmployee:
		_, ok := employeeDefaults[p]
		return ok
	default:
		return false
	}
}

// DefaultGrants materialises the full default table for a base role.
func DefaultGrants(role BaseRole) map[Permission]bool {
	out := make(map[Permission]bool, len(allPermissions))
	for _, p := range allPermissions {
		out[p] = DefaultGrant(role, p)
	}
	return out
}
