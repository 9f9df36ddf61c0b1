package roles

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/doctrove/doctrove/internal/authz"
	"github.com/doctrove/doctrove/internal/platform/httpx"
	"github.com/doctrove/doctrove/internal/shared"
)

// Handler wires HTTP endpoints for role catalog management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	rbac      Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		rbac:      rbac,
	}
}

// MountRoutes registers role routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(authz.PermRolesView, authz.PermRolesEdit))
		r.Get("/", h.listRoles)
		r.Get("/{roleID}/permissions", h.resolvePermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(authz.PermRolesEdit))
		r.Post("/", h.createRole)
		r.Delete("/{roleID}", h.deleteRole)
	})
	// Grant mutations reshape the permission matrix itself, so the caller
	// must hold both catalog permissions, not just one of them.
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(authz.PermRolesView, authz.PermRolesEdit))
		r.Put("/{roleID}/grants", h.setGrant)
		r.Delete("/{roleID}/grants/{permission}", h.clearGrant)
	})
}

type roleResponse struct {
	ID       int64  `json:"id"`
	TenantID int64  `json:"tenant_id,omitempty"`
	Name     string `json:"name"`
	BaseRole string `json:"base_role"`
	IsSystem bool   `json:"is_system"`
}

func toRoleResponse(role Role) roleResponse {
	return roleResponse{
		ID:       role.ID,
		TenantID: role.TenantID,
		Name:     role.Name,
		BaseRole: role.BaseRole.String(),
		IsSystem: role.IsSystem,
	}
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	list, err := h.service.ListRoles(r.Context(), principal)
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]roleResponse, 0, len(list))
	for _, role := range list {
		out = append(out, toRoleResponse(role))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": out})
}

type createRoleRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=64"`
	BaseRole string `json:"base_role" validate:"required"`
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	var req createRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := h.service.CreateRole(r.Context(), principal, req.Name, req.BaseRole)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toRoleResponse(*role))
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	roleID, err := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	if err := h.service.DeleteRole(r.Context(), principal, roleID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) resolvePermissions(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	roleID, err := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	role, err := h.service.roleInScope(r.Context(), principal, roleID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	tenantID := role.TenantID
	if tenantID == 0 {
		tenantID = principal.TenantID
	}
	set, err := h.service.Resolve(r.Context(), principal, tenantID, role.Name)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"role":        toRoleResponse(*role),
		"permissions": set,
	})
}

type setGrantRequest struct {
	Permission string `json:"permission" validate:"required"`
	Granted    *bool  `json:"granted" validate:"required"`
}

func (h *Handler) setGrant(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	roleID, err := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	var req setGrantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.SetGrant(r.Context(), principal, roleID, authz.Permission(req.Permission), *req.Granted); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearGrant(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	roleID, err := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	perm := authz.Permission(chi.URLParam(r, "permission"))
	if err := h.service.ClearGrant(r.Context(), principal, roleID, perm); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PermissionsHandler lists the closed permission catalog.
type PermissionsHandler struct {
	rbac Middleware
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{rbac: rbac}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(authz.PermRolesView))
		r.Get("/", h.listPermissions)
	})
}

type permissionEntry struct {
	Key   string `json:"key"`
	Group string `json:"group"`
	Label string `json:"label"`
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	titler := cases.Title(language.English)
	out := make([]permissionEntry, 0, len(authz.AllPermissions()))
	for _, p := range authz.AllPermissions() {
		label := titler.String(strings.ReplaceAll(string(p), ".", " "))
		out = append(out, permissionEntry{Key: string(p), Group: p.Group(), Label: label})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": out})
}
