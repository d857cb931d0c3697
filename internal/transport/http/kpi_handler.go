package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "promopulse/internal/errors"
	"promopulse/internal/exporter"
	"promopulse/internal/services"
)

// KPIHandler serves KPI snapshots of the current dataset
type KPIHandler struct {
	service      *services.KPIService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewKPIHandler creates a new KPI handler
func NewKPIHandler(service *services.KPIService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *KPIHandler {
	return &KPIHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "kpi_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the KPI routes
func (h *KPIHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetSnapshot)
	r.Get("/export", h.Export)
	return r
}

// GetSnapshot handles GET /api/kpi
func (h *KPIHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   snapshot,
	})
}

// Export handles GET /api/kpi/export, streaming the snapshot as CSV
func (h *KPIHandler) Export(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="kpi_`+snapshot.DatasetID[:8]+`.csv"`)
	if err := exporter.Stream(w, exporter.SnapshotHeaders(), exporter.SnapshotRecords(snapshot)); err != nil {
		h.logger.ErrorContext(r.Context(), "kpi export failed",
			slog.String("error", err.Error()))
	}
}
