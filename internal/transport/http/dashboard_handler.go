package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "promopulse/internal/errors"
	"promopulse/internal/services"
)

// DashboardHandler serves the role-specific dashboard views
type DashboardHandler struct {
	service      *services.DashboardService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service *services.DashboardService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/executive", h.GetExecutive)
	r.Get("/manager", h.GetManager)
	return r
}

// GetExecutive handles GET /api/dashboard/executive
func (h *DashboardHandler) GetExecutive(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Executive(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
	})
}

// GetManager handles GET /api/dashboard/manager
func (h *DashboardHandler) GetManager(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Manager(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
	})
}
