package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/contractguard/auditor/internal/audit"
	"github.com/contractguard/auditor/internal/repository"
)

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(
	auditSvc *audit.Service,
	runRepo *repository.RunRepo,
	discRepo *repository.DiscrepancyRepo,
) http.Handler {
	h := &Handlers{
		auditSvc: auditSvc,
		runRepo:  runRepo,
		discRepo: discRepo,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Route("/api/v1", func(r chi.Router) {
		// Audits.
		r.Post("/audits", h.RunAudit)
		r.Get("/audits", h.ListRuns)
		r.Get("/audits/{id}", h.GetRun)

		// Discrepancies.
		r.Get("/discrepancies", h.ListDiscrepancies)
		r.Get("/discrepancies/summary", h.GetDiscrepancySummary)

		// Dashboard.
		r.Get("/dashboard", h.GetDashboard)
	})

	return r
}
