package files

import (
	"time"

	"github.com/doctrove/doctrove/internal/authz"
)

// File represents a stored file or folder record. TenantID is immutable
// after creation and is never taken from client input: authorization always
// cross-checks it against the principal's scope.
type File struct {
	ID           int64
	TenantID     int64
	ParentID     int64 // zero for root-level records
	DepartmentID int64 // zero means root-level, inherited from the tenant
	OwnerID      int64
	Name         string
	Visibility   authz.Visibility
	IsFolder     bool

	// IsCompanyFolder marks a folder as visible to the whole tenant
	// regardless of department.
	IsCompanyFolder bool

	// Lock state, mutated only through the lock manager.
	IsLocked         bool
	LockedBy         int64
	LockRequiredRole string // role name raising the unlock bar, empty when unset
	LockPasswordHash string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Info converts the record into the evaluator's input shape.
func (f File) Info() authz.FileInfo {
	return authz.FileInfo{
		ID:              f.ID,
		TenantID:        f.TenantID,
		DepartmentID:    f.DepartmentID,
		OwnerID:         f.OwnerID,
		Visibility:      f.Visibility,
		IsFolder:        f.IsFolder,
		IsCompanyFolder: f.IsCompanyFolder,
		IsLocked:        f.IsLocked,
	}
}
