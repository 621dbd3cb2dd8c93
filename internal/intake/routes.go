package intake

import "github.com/go-chi/chi/v5"

// Register mounts the intake routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/fillable-form", h.FillableForm)
	r.Post("/submit-report", h.SubmitReport)
	r.Options("/submit-report", h.SubmitOptions)
	r.Get("/view-pdf/*", h.ViewPDF)
	r.Get("/health", h.Health)
	r.Get("/reports/export.xlsx", h.ExportXLSX)
}
