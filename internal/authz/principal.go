package authz

// Principal is the resolved identity for one request. It is built once from
// persisted user state at session resolution time and never mutated afterwards.
type Principal struct {
	UserID   int64
	TenantID int64

	// RoleName is the assigned role (system or tenant-custom); Role is the
	// base tier that anchors it in the hierarchy.
	RoleName string
	Role     BaseRole

	// DepartmentID is the primary department, zero when unassigned.
	DepartmentID int64

	AllowedDepartmentIDs map[int64]struct{}
	AllowedTenantIDs     map[int64]struct{}

	Suspended bool
}

// MemberOfDepartment reports whether the principal may see department-scoped
// records for the given department, either as primary member or via an
// explicit allow-list entry.
func (p Principal) MemberOfDepartment(departmentID int64) bool {
	if departmentID == 0 {
		return true
	}
	if p.DepartmentID == departmentID {
		return true
	}
	_, ok := p.AllowedDepartmentIDs[departmentID]
	return ok
}
