package roles

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/doctrove/doctrove/internal/authz"
	"github.com/doctrove/doctrove/internal/shared"
)

func guardStatus(t *testing.T, mw func(http.Handler) http.Handler, p *authz.Principal) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if p != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), *p))
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	rr := httptest.NewRecorder()
	mw(next).ServeHTTP(rr, req)
	return rr.Code
}

func TestRequireAny(t *testing.T) {
	repo := newStubRepo()
	repo.addRole(Role{TenantID: 0, Name: "manager", BaseRole: authz.RoleManager, IsSystem: true})
	mw := Middleware{Service: NewService(repo, nil)}

	p := manager(1)
	require.Equal(t, http.StatusNoContent, guardStatus(t, mw.RequireAny(authz.PermRolesView), &p))
	require.Equal(t, http.StatusNoContent, guardStatus(t, mw.RequireAny(authz.PermRolesEdit, authz.PermRolesView), &p),
		"one held permission is enough")
	require.Equal(t, http.StatusForbidden, guardStatus(t, mw.RequireAny(authz.PermRolesEdit), &p))
	require.Equal(t, http.StatusUnauthorized, guardStatus(t, mw.RequireAny(authz.PermRolesView), nil))
}

func TestRequireAll(t *testing.T) {
	repo := newStubRepo()
	repo.addRole(Role{TenantID: 0, Name: "manager", BaseRole: authz.RoleManager, IsSystem: true})
	repo.addRole(Role{TenantID: 0, Name: "admin", BaseRole: authz.RoleAdmin, IsSystem: true})
	mw := Middleware{Service: NewService(repo, nil)}

	a := admin(1)
	require.Equal(t, http.StatusNoContent, guardStatus(t, mw.RequireAll(authz.PermRolesView, authz.PermRolesEdit), &a))

	// A manager holds roles.view but not roles.edit: any-of passes, all-of does not.
	m := manager(1)
	require.Equal(t, http.StatusNoContent, guardStatus(t, mw.RequireAny(authz.PermRolesView, authz.PermRolesEdit), &m))
	require.Equal(t, http.StatusForbidden, guardStatus(t, mw.RequireAll(authz.PermRolesView, authz.PermRolesEdit), &m))

	require.Equal(t, http.StatusUnauthorized, guardStatus(t, mw.RequireAll(authz.PermRolesView), nil))
}
