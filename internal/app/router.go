package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/advista/advista/internal/authz"
	"github.com/advista/advista/internal/brands"
	"github.com/advista/advista/internal/campaigns"
	"github.com/advista/advista/internal/identity"
	"github.com/advista/advista/internal/observability"
	"github.com/advista/advista/internal/reports"
	"github.com/advista/advista/internal/shared"
	"github.com/advista/advista/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	IdentityService *identity.Service
	AuthHandler     *identity.Handler

	AuthzMiddleware    authz.Middleware
	PermissionsHandler *authz.Handler

	CampaignsHandler *campaigns.Handler
	BrandsHandler    *brands.Handler
	ReportsHandler   *reports.Handler
	JobHandler       *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with AdVista defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
		Subject:        identity.SubjectMiddleware(params.IdentityService, params.Logger),
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
	r.Route("/campaigns", params.CampaignsHandler.MountRoutes)
	r.Route("/brands", params.BrandsHandler.MountRoutes)
	r.Route("/reports", params.ReportsHandler.MountRoutes)
	r.Route("/permissions", func(r chi.Router) {
		params.PermissionsHandler.MountRoutes(r, params.AuthzMiddleware)
	})
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
