package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zishinew/Hearth-AI/internal/http/handlers"
	"github.com/zishinew/Hearth-AI/internal/infra"
	"github.com/zishinew/Hearth-AI/internal/middleware"
)

// NewRouter wires the API routes. Audit submission sits behind the rate
// limiter because each submission fans out into model calls.
func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.CORS(cfg.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1", func(r chi.Router) {
		r.With(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute)).
			Post("/audits", app.SubmitAudit)
		r.Post("/images/analyze", app.AnalyzeImage)
		r.Get("/jobs/{job_id}", app.JobStatus)
		r.Get("/reports/{report_id}", app.GetReport)
		r.Get("/reports/by-address", app.GetReportByAddress)
		r.Post("/reports/{report_id}/renovations/{gallery_index}", app.RequestRenovation)
		r.Get("/reports/{report_id}/renovations/download", app.DownloadRenovations)
	})

	return r
}
