package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/doctrove/doctrove/internal/audit"
	"github.com/doctrove/doctrove/internal/auth"
	"github.com/doctrove/doctrove/internal/authz"
	"github.com/doctrove/doctrove/internal/compliance"
	"github.com/doctrove/doctrove/internal/files"
	"github.com/doctrove/doctrove/internal/observability"
	"github.com/doctrove/doctrove/internal/roles"
	"github.com/doctrove/doctrove/internal/shared"
	"github.com/doctrove/doctrove/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Principals     PrincipalResolver

	AuthHandler        *auth.Handler
	RolesHandler       *roles.Handler
	PermissionsHandler *roles.PermissionsHandler
	UsersHandler       *users.Handler
	FilesHandler       *files.Handler
	ComplianceHandler  *compliance.Handler
	AuditHandler       *audit.Handler

	RBACMiddleware roles.Middleware
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with Doctrove defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Principals:     params.Principals,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/api", func(r chi.Router) {
		r.Use(requireAuthenticated)

		r.Route("/roles", params.RolesHandler.MountRoutes)
		r.Route("/permissions", params.PermissionsHandler.MountRoutes)
		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/files", params.FilesHandler.MountRoutes)
		r.Route("/compliance", params.ComplianceHandler.MountRoutes)
		r.Route("/audit", func(r chi.Router) {
			r.Use(params.RBACMiddleware.RequireAny(authz.PermAuditView))
			params.AuditHandler.MountRoutes(r)
		})
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

// requireAuthenticated rejects requests that never resolved a principal.
func requireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := shared.PrincipalFromContext(r.Context()); !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
