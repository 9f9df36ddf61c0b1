package users

import "time"

// Account status values.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// User represents a stored user account with its tenant and department
// memberships.
type User struct {
	ID           int64
	TenantID     int64
	Email        string
	PasswordHash string
	RoleName     string
	DepartmentID int64 // zero when unassigned
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
