package roles

import (
	"time"

	"github.com/doctrove/doctrove/internal/authz"
)

// Role is a named permission profile. System roles (TenantID == 0) are
// global and immutable; custom roles belong to exactly one tenant and anchor
// to a base tier from which they inherit their default permission set.
type Role struct {
	ID        int64
	TenantID  int64 // zero for system roles
	Name      string
	BaseRole  authz.BaseRole
	IsSystem  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Grant is one sparse override row. Absence of a row for a permission means
// the base-role default applies.
type Grant struct {
	RoleID     int64
	Permission authz.Permission
	Granted    bool
}

// ResolvedPermission is the effective value for one permission key after
// merging defaults with overrides. Inherited is informational for the UI;
// authorization decisions consult only Granted.
type ResolvedPermission struct {
	Granted   bool `json:"granted"`
	Inherited bool `json:"inherited"`
}

// PermissionSet maps every known permission key to its resolved value.
type PermissionSet map[authz.Permission]ResolvedPermission

// Has reports the final boolean for one permission key.
func (ps PermissionSet) Has(p authz.Permission) bool {
	return ps[p].Granted
}
