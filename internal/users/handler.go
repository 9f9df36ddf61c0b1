package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/doctrove/doctrove/internal/authz"
	"github.com/doctrove/doctrove/internal/platform/httpx"
	"github.com/doctrove/doctrove/internal/roles"
	"github.com/doctrove/doctrove/internal/shared"
)

// Handler wires HTTP endpoints for user listings.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    roles.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac roles.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers user routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(authz.PermUsersView, authz.PermUsersEdit))
		r.Get("/", h.listUsers)
	})
}

type userResponse struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	RoleName     string `json:"role_name"`
	DepartmentID int64  `json:"department_id,omitempty"`
	Status       string `json:"status"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	list, err := h.service.ListUsers(r.Context(), principal)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]userResponse, 0, len(list))
	for _, u := range list {
		out = append(out, userResponse{
			ID:           u.ID,
			Email:        u.Email,
			RoleName:     u.RoleName,
			DepartmentID: u.DepartmentID,
			Status:       u.Status,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": out})
}
