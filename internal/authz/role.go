package authz

import (
	"fmt"
	"strings"
)

// BaseRole is one of the four fixed system tiers. Custom roles anchor to a
// base role and never escape its hierarchy position.
type BaseRole int

const (
	RoleEmployee BaseRole = iota
	RoleManager
	RoleAdmin
	RoleSuperAdmin
)

var roleNames = map[BaseRole]string{
	RoleEmployee:   "employee",
	RoleManager:    "manager",
	RoleAdmin:      "admin",
	RoleSuperAdmin: "superadmin",
}

// String returns the canonical lowercase role name.
func (r BaseRole) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("baserole(%d)", int(r))
}

// Valid reports whether the value is one of the four defined tiers.
func (r BaseRole) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// AtLeast reports whether r sits at or above other in the hierarchy.
func (r BaseRole) AtLeast(other BaseRole) bool {
	return r >= other
}

// ParseBaseRole resolves a role tier by name, case-insensitively.
func ParseBaseRole(name string) (BaseRole, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "employee":
		return RoleEmployee, true
	case "manager":
		return RoleManager, true
	case "admin":
		return RoleAdmin, true
	case "superadmin", "super_admin":
		return RoleSuperAdmin, true
	}
	return RoleEmployee, false
}
