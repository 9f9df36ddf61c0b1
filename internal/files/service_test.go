package files

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/doctrove/doctrove/internal/authz"
	"github.com/doctrove/doctrove/internal/shared"
)

func TestCheckInvalidOperation(t *testing.T) {
	svc := NewService(newMemoryRepo(testFile(9)), nil, nil)

	_, err := svc.Check(context.Background(), principal(5, authz.RoleEmployee), 100, "teleport")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCheckCrossTenantIsNotFound(t *testing.T) {
	f := testFile(9)
	f.TenantID = 2
	svc := NewService(newMemoryRepo(f), nil, nil)

	_, err := svc.Check(context.Background(), principal(5, authz.RoleEmployee), 100, authz.OpView)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCheckSurfacesReasonInScope(t *testing.T) {
	f := testFile(9)
	f.Visibility = authz.VisibilityPrivate
	svc := NewService(newMemoryRepo(f), nil, nil)

	d, err := svc.Check(context.Background(), principal(5, authz.RoleEmployee), 100, authz.OpView)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, authz.DenyPrivate, d.Reason)
}

func TestGetFileForbiddenWhenNotVisible(t *testing.T) {
	f := testFile(9)
	f.Visibility = authz.VisibilityPrivate
	svc := NewService(newMemoryRepo(f), nil, nil)

	_, err := svc.GetFile(context.Background(), principal(5, authz.RoleEmployee), 100)
	require.ErrorIs(t, err, shared.ErrForbidden)

	got, err := svc.GetFile(context.Background(), principal(9, authz.RoleEmployee), 100)
	require.NoError(t, err)
	require.Equal(t, int64(100), got.ID)
}

func TestListVisibleFiltersByDepartment(t *testing.T) {
	own := testFile(5)
	own.ID = 100

	otherDept := testFile(9)
	otherDept.ID = 101
	otherDept.DepartmentID = 4

	private := testFile(9)
	private.ID = 102
	private.Visibility = authz.VisibilityPrivate

	company := testFile(9)
	company.ID = 103
	company.DepartmentID = 4
	company.IsFolder = true
	company.IsCompanyFolder = true

	foreign := testFile(9)
	foreign.ID = 104
	foreign.TenantID = 2

	svc := NewService(newMemoryRepo(own, otherDept, private, company, foreign), nil, nil)

	visible, err := svc.ListVisible(context.Background(), principal(5, authz.RoleEmployee))
	require.NoError(t, err)

	ids := make(map[int64]bool, len(visible))
	for _, f := range visible {
		ids[f.ID] = true
	}
	require.True(t, ids[100], "own department file")
	require.False(t, ids[101], "foreign department file hidden")
	require.False(t, ids[102], "someone else's private file hidden")
	require.True(t, ids[103], "company folder visible across departments")
	require.False(t, ids[104], "foreign tenant rows never listed")
}

func TestListVisibleAdminSeesEverythingInTenant(t *testing.T) {
	otherDept := testFile(9)
	otherDept.ID = 101
	otherDept.DepartmentID = 4

	private := testFile(9)
	private.ID = 102
	private.Visibility = authz.VisibilityPrivate

	svc := NewService(newMemoryRepo(otherDept, private), nil, nil)

	visible, err := svc.ListVisible(context.Background(), principal(7, authz.RoleAdmin))
	require.NoError(t, err)
	require.Len(t, visible, 2)
}
