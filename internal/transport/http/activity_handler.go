package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"promopulse/internal/exporter"
	"promopulse/internal/services"
	"promopulse/pkg/contracts/domain"
)

// ActivityHandler serves the operational activity log
type ActivityHandler struct {
	activity *services.ActivityLog
	logger   *slog.Logger
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activity *services.ActivityLog, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{
		activity: activity,
		logger:   logger.With(slog.String("component", "activity_handler")),
	}
}

// Routes returns the activity routes
func (h *ActivityHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/export", h.Export)
	r.Delete("/", h.Clear)
	return r
}

// List handles GET /api/activity?level=&category=
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	level := domain.ActivityLevel(r.URL.Query().Get("level"))
	category := r.URL.Query().Get("category")

	entries := h.activity.Entries(level, category)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"entries": entries,
			"count":   len(entries),
		},
	})
}

// Export handles GET /api/activity/export, streaming the log as CSV
func (h *ActivityHandler) Export(w http.ResponseWriter, r *http.Request) {
	level := domain.ActivityLevel(r.URL.Query().Get("level"))
	category := r.URL.Query().Get("category")
	entries := h.activity.Entries(level, category)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="activity.csv"`)
	if err := exporter.Stream(w, exporter.ActivityHeaders(), exporter.ActivityRecords(entries)); err != nil {
		h.logger.ErrorContext(r.Context(), "activity export failed",
			slog.String("error", err.Error()))
	}
}

// Clear handles DELETE /api/activity
func (h *ActivityHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.activity.Clear()
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
	})
}
