package authz

// InScope reports whether the principal may touch data owned by the target
// tenant. This is the single choke point against cross-tenant leakage: every
// read or write of tenant-owned rows must pass it before any lookup, and a
// false result must surface to the caller as if the resource did not exist.
//
// The predicate is pure and carries no cache: allow-lists can change between
// requests.
func InScope(p Principal, targetTenantID int64) bool {
	if p.Suspended {
		return false
	}
	if p.Role == RoleSuperAdmin {
		return true
	}
	if p.TenantID == targetTenantID {
		return true
	}
	_, ok := p.AllowedTenantIDs[targetTenantID]
	return ok
}
