package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	compliancehttp "github.com/ngtax/ngtax/internal/compliance/http"
	filinghttp "github.com/ngtax/ngtax/internal/filing/http"
	"github.com/ngtax/ngtax/internal/observability"
	"github.com/ngtax/ngtax/internal/platform/httpx"
	taxhttp "github.com/ngtax/ngtax/internal/tax/http"
	"github.com/ngtax/ngtax/jobs"
	"github.com/ngtax/ngtax/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	TaxHandler        *taxhttp.Handler
	FilingHandler     *filinghttp.Handler
	ComplianceHandler *compliancehttp.Handler
	ReportHandler     *report.Handler
	JobHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router with the API middleware stack.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if params.TaxHandler != nil {
		params.TaxHandler.MountRoutes(r)
		hash := ""
		if params.Config != nil {
			hash = params.Config.AdminTokenHash
		}
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(RequireAdmin(hash, params.Logger))
			params.TaxHandler.MountAdminRoutes(r)
		})
	}
	if params.FilingHandler != nil {
		var extra []func(chi.Router)
		if params.ComplianceHandler != nil {
			extra = append(extra, params.ComplianceHandler.MountEntityRoutes)
		}
		params.FilingHandler.MountRoutes(r, extra...)
	}
	if params.ReportHandler != nil {
		r.Route("/report", params.ReportHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", r.Method+" "+r.URL.Path)
	})
	return r
}
