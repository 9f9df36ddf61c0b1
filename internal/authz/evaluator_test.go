package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func employee(userID int64) Principal {
	return Principal{UserID: userID, TenantID: 1, Role: RoleEmployee, DepartmentID: 3}
}

func deptFile(ownerID int64) FileInfo {
	return FileInfo{ID: 100, TenantID: 1, DepartmentID: 3, OwnerID: ownerID, Visibility: VisibilityDepartment}
}

func TestEvaluateCrossTenantCollapsesToOutOfScope(t *testing.T) {
	p := employee(7)
	f := deptFile(7)
	f.TenantID = 2

	for _, op := range []Operation{OpView, OpDownload, OpDelete, OpShare, OpLock, OpUnlock, OpRename, OpUploadInto} {
		d := Evaluate(p, f, op)
		require.False(t, d.Allowed, "op %s", op)
		require.Equal(t, DenyOutOfScope, d.Reason, "op %s", op)
	}
}

func TestEvaluatePrivateFileOwnerOnly(t *testing.T) {
	f := deptFile(7)
	f.Visibility = VisibilityPrivate

	owner := employee(7)
	require.True(t, Evaluate(owner, f, OpView).Allowed)

	stranger := employee(8)
	d := Evaluate(stranger, f, OpView)
	require.False(t, d.Allowed)
	require.Equal(t, DenyPrivate, d.Reason)

	admin := Principal{UserID: 9, TenantID: 1, Role: RoleAdmin}
	require.True(t, Evaluate(admin, f, OpView).Allowed, "admin bypasses the visibility gate")
}

func TestEvaluateDepartmentVisibility(t *testing.T) {
	f := deptFile(7)

	sameDept := employee(8)
	require.True(t, Evaluate(sameDept, f, OpView).Allowed)

	otherDept := employee(8)
	otherDept.DepartmentID = 4
	d := Evaluate(otherDept, f, OpView)
	require.False(t, d.Allowed)
	require.Equal(t, DenyDepartment, d.Reason)

	allowListed := employee(8)
	allowListed.DepartmentID = 4
	allowListed.AllowedDepartmentIDs = map[int64]struct{}{3: {}}
	require.True(t, Evaluate(allowListed, f, OpView).Allowed)
}

func TestEvaluateCompanyFolderVisibleAcrossDepartments(t *testing.T) {
	f := deptFile(7)
	f.IsFolder = true
	f.IsCompanyFolder = true

	otherDept := employee(8)
	otherDept.DepartmentID = 4
	require.True(t, Evaluate(otherDept, f, OpView).Allowed)
}

func TestEvaluateDelete(t *testing.T) {
	f := deptFile(7)

	owner := employee(7)
	require.True(t, Evaluate(owner, f, OpDelete).Allowed)

	colleague := employee(8)
	d := Evaluate(colleague, f, OpDelete)
	require.False(t, d.Allowed)
	require.Equal(t, DenyNotOwner, d.Reason)

	admin := Principal{UserID: 9, TenantID: 1, Role: RoleAdmin}
	require.True(t, Evaluate(admin, f, OpDelete).Allowed)

	f.IsLocked = true
	d = Evaluate(owner, f, OpDelete)
	require.False(t, d.Allowed, "locked files cannot be deleted, even by the owner")
	require.Equal(t, DenyLocked, d.Reason)
}

func TestEvaluateShare(t *testing.T) {
	f := deptFile(7)

	owner := employee(7)
	require.True(t, Evaluate(owner, f, OpShare).Allowed, "owner shares regardless of tier")

	colleague := employee(8)
	d := Evaluate(colleague, f, OpShare)
	require.False(t, d.Allowed)
	require.Equal(t, DenyInsufficientRole, d.Reason)

	manager := Principal{UserID: 9, TenantID: 1, Role: RoleManager, DepartmentID: 3}
	require.True(t, Evaluate(manager, f, OpShare).Allowed)
}

func TestEvaluateLockRequiresManager(t *testing.T) {
	f := deptFile(7)

	owner := employee(7)
	d := Evaluate(owner, f, OpLock)
	require.False(t, d.Allowed, "owning the file does not grant the lock capability")
	require.Equal(t, DenyInsufficientRole, d.Reason)

	manager := Principal{UserID: 9, TenantID: 1, Role: RoleManager, DepartmentID: 3}
	require.True(t, Evaluate(manager, f, OpLock).Allowed)
	require.True(t, Evaluate(manager, f, OpUnlock).Allowed)
}

func TestEvaluateMutationsBlockedWhileLocked(t *testing.T) {
	f := deptFile(7)
	f.IsLocked = true

	owner := employee(7)
	for _, op := range []Operation{OpRename, OpUploadInto} {
		d := Evaluate(owner, f, op)
		require.False(t, d.Allowed, "op %s", op)
		require.Equal(t, DenyLocked, d.Reason, "op %s", op)
	}

	// Reads stay open while locked.
	require.True(t, Evaluate(owner, f, OpView).Allowed)
	require.True(t, Evaluate(owner, f, OpDownload).Allowed)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	p := employee(7)
	f := deptFile(8)
	first := Evaluate(p, f, OpView)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Evaluate(p, f, OpView))
	}
}

func TestOperationValid(t *testing.T) {
	require.True(t, OpView.Valid())
	require.True(t, OpUnlock.Valid())
	require.False(t, Operation("move").Valid())
	require.False(t, Operation("").Valid())
}
