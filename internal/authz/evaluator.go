package authz

// Operation enumerates file actions the evaluator can rule on.
type Operation string

const (
	OpView       Operation = "view"
	OpDownload   Operation = "download"
	OpUploadInto Operation = "upload_into"
	OpRename     Operation = "rename"
	OpDelete     Operation = "delete"
	OpShare      Operation = "share"
	OpLock       Operation = "lock"
	OpUnlock     Operation = "unlock"
)

// Valid reports whether op is a known operation.
func (op Operation) Valid() bool {
	switch op {
	case OpView, OpDownload, OpUploadInto, OpRename, OpDelete, OpShare, OpLock, OpUnlock:
		return true
	}
	return false
}

// Visibility is a file or folder's declared access class.
type Visibility string

const (
	VisibilityDepartment Visibility = "department"
	VisibilityPrivate    Visibility = "private"
)

// FileInfo carries the record fields the evaluator rules on. The files
// package converts its persisted records into this shape.
type FileInfo struct {
	ID              int64
	TenantID        int64
	DepartmentID    int64 // zero means root-level, inherited from the tenant
	OwnerID         int64
	Visibility      Visibility
	IsFolder        bool
	IsCompanyFolder bool
	IsLocked        bool
}

// DenyReason explains a negative decision. Callers must collapse reasons to a
// generic not-found shape across tenant boundaries; within the owning tenant
// the specific reason may be surfaced.
type DenyReason string

const (
	DenyNone             DenyReason = ""
	DenyOutOfScope       DenyReason = "out_of_tenant_scope"
	DenyPrivate          DenyReason = "private_file"
	DenyDepartment       DenyReason = "department_restricted"
	DenyLocked           DenyReason = "file_locked"
	DenyInsufficientRole DenyReason = "insufficient_role"
	DenyNotOwner         DenyReason = "not_owner"
)

// Decision is the evaluator verdict for one (principal, file, operation).
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func allow() Decision            { return Decision{Allowed: true} }
func deny(r DenyReason) Decision { return Decision{Allowed: false, Reason: r} }

// Evaluate decides view/download/modify/delete/share/lock eligibility for one
// file. It is a pure function of its inputs: no clock, no randomness, no
// side effects, so it is safe to call any number of times per request.
//
// Resolution order: tenant scope first (cheapest and most load-bearing),
// then the visibility gate, then per-operation refinement.
func Evaluate(p Principal, f FileInfo, op Operation) Decision {
	if !InScope(p, f.TenantID) {
		return deny(DenyOutOfScope)
	}

	if d := visibilityGate(p, f); !d.Allowed {
		return d
	}

	switch op {
	case OpDelete:
		if !p.Role.AtLeast(RoleAdmin) && p.UserID != f.OwnerID {
			return deny(DenyNotOwner)
		}
		if f.IsLocked {
			return deny(DenyLocked)
		}
	case OpShare:
		if !p.Role.AtLeast(RoleManager) && p.UserID != f.OwnerID {
			return deny(DenyInsufficientRole)
		}
	case OpLock, OpUnlock:
		// Employee can never lock or unlock through the general capability
		// check. Owner and locker overrides apply only inside the lock
		// manager's own unlock eligibility.
		if !p.Role.AtLeast(RoleManager) {
			return deny(DenyInsufficientRole)
		}
	case OpRename, OpUploadInto:
		if f.IsLocked {
			return deny(DenyLocked)
		}
	}

	return allow()
}

func visibilityGate(p Principal, f FileInfo) Decision {
	if p.UserID == f.OwnerID || p.Role.AtLeast(RoleAdmin) {
		return allow()
	}
	switch f.Visibility {
	case VisibilityPrivate:
		return deny(DenyPrivate)
	default:
		if f.IsCompanyFolder || p.MemberOfDepartment(f.DepartmentID) {
			return allow()
		}
		return deny(DenyDepartment)
	}
}
