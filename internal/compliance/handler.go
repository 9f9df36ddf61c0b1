package compliance

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/doctrove/doctrove/internal/authz"
	"github.com/doctrove/doctrove/internal/platform/httpx"
	"github.com/doctrove/doctrove/internal/roles"
	"github.com/doctrove/doctrove/internal/shared"
)

// Handler wires HTTP endpoints for compliance settings.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	rbac      roles.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac roles.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		rbac:      rbac,
	}
}

// MountRoutes registers compliance routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(authz.PermComplianceView, authz.PermComplianceEdit))
		r.Get("/", h.getSettings)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(authz.PermComplianceEdit))
		r.Put("/settings", h.updateSetting)
		r.Put("/mode", h.changeMode)
	})
}

type settingsResponse struct {
	TenantID              int64    `json:"tenant_id"`
	Mode                  string   `json:"mode"`
	MFARequired           bool     `json:"mfa_required"`
	AuditLogging          bool     `json:"audit_logging"`
	PublicSharing         bool     `json:"public_sharing"`
	ExportLogging         bool     `json:"export_logging"`
	RetentionDays         int      `json:"retention_days"`
	SessionTimeoutMinutes int      `json:"session_timeout_minutes"`
	LockedFields          []string `json:"locked_fields"`
}

func toSettingsResponse(s *Settings) settingsResponse {
	locked := make([]string, 0, len(s.LockedFields))
	for field := range s.LockedFields {
		locked = append(locked, field)
	}
	sort.Strings(locked)
	return settingsResponse{
		TenantID:              s.TenantID,
		Mode:                  string(s.Mode),
		MFARequired:           s.MFARequired,
		AuditLogging:          s.AuditLogging,
		PublicSharing:         s.PublicSharing,
		ExportLogging:         s.ExportLogging,
		RetentionDays:         s.RetentionDays,
		SessionTimeoutMinutes: s.SessionTimeoutMinutes,
		LockedFields:          locked,
	}
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	settings, err := h.service.GetSettings(r.Context(), principal, principal.TenantID)
	if err != nil {
		h.logger.Error("get compliance settings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toSettingsResponse(settings))
}

type updateSettingRequest struct {
	Field string `json:"field" validate:"required"`
	Value any    `json:"value"`
}

func (h *Handler) updateSetting(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	var req updateSettingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	settings, err := h.service.UpdateSetting(r.Context(), principal, req.Field, req.Value)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toSettingsResponse(settings))
}

type changeModeRequest struct {
	Mode string `json:"mode" validate:"required"`
}

func (h *Handler) changeMode(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	var req changeModeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	settings, err := h.service.ChangeMode(r.Context(), principal, principal.TenantID, req.Mode)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toSettingsResponse(settings))
}
