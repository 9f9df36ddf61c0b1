package files

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/doctrove/doctrove/internal/authz"
	"github.com/doctrove/doctrove/internal/platform/httpx"
	"github.com/doctrove/doctrove/internal/roles"
	"github.com/doctrove/doctrove/internal/shared"
)

// Handler wires HTTP endpoints for file access checks and locking.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	locks     *LockManager
	validator *validator.Validate
	rbac      roles.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, locks *LockManager, rbac roles.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		locks:     locks,
		validator: validator.New(),
		rbac:      rbac,
	}
}

// MountRoutes registers file routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(authz.PermFilesView))
		r.Get("/", h.listFiles)
		r.Get("/{fileID}", h.getFile)
		r.Post("/{fileID}/check", h.check)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(authz.PermFilesLock))
		r.Post("/{fileID}/lock", h.lock)
	})
	// Unlock is not permission-gated here: owner and locker overrides are
	// decided inside the lock manager and must stay reachable for any
	// authenticated principal.
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(authz.PermFilesView))
		r.Post("/{fileID}/unlock", h.unlock)
	})
}

type fileResponse struct {
	ID              int64  `json:"id"`
	ParentID        int64  `json:"parent_id,omitempty"`
	DepartmentID    int64  `json:"department_id,omitempty"`
	OwnerID         int64  `json:"owner_id"`
	Name            string `json:"name"`
	Visibility      string `json:"visibility"`
	IsFolder        bool   `json:"is_folder"`
	IsCompanyFolder bool   `json:"is_company_folder"`
	IsLocked        bool   `json:"is_locked"`
	LockedBy        int64  `json:"locked_by,omitempty"`
}

func toFileResponse(f File) fileResponse {
	return fileResponse{
		ID:              f.ID,
		ParentID:        f.ParentID,
		DepartmentID:    f.DepartmentID,
		OwnerID:         f.OwnerID,
		Name:            f.Name,
		Visibility:      string(f.Visibility),
		IsFolder:        f.IsFolder,
		IsCompanyFolder: f.IsCompanyFolder,
		IsLocked:        f.IsLocked,
		LockedBy:        f.LockedBy,
	}
}

func (h *Handler) listFiles(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	list, err := h.service.ListVisible(r.Context(), principal)
	if err != nil {
		h.logger.Error("list files", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]fileResponse, 0, len(list))
	for _, f := range list {
		out = append(out, toFileResponse(f))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"files": out})
}

func (h *Handler) getFile(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	fileID, err := parseFileID(r)
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	file, err := h.service.GetFile(r.Context(), principal, fileID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toFileResponse(*file))
}

type checkRequest struct {
	Operation string `json:"operation" validate:"required"`
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	fileID, err := parseFileID(r)
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	var req checkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	decision, err := h.service.Check(r.Context(), principal, fileID, authz.Operation(req.Operation))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"allowed": decision.Allowed,
		"reason":  string(decision.Reason),
	})
}

type lockRequest struct {
	Password     string `json:"password,omitempty"`
	RequiredRole string `json:"required_role,omitempty"`
}

func (h *Handler) lock(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	fileID, err := parseFileID(r)
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	var req lockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.locks.Lock(r.Context(), principal, fileID, req.Password, req.RequiredRole); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type unlockRequest struct {
	Password string `json:"password,omitempty"`
}

func (h *Handler) unlock(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	fileID, err := parseFileID(r)
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	var req unlockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.locks.Unlock(r.Context(), principal, fileID, req.Password); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseFileID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "fileID"), 10, 64)
}
