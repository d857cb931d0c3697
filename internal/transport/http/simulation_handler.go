package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "promopulse/internal/errors"
	custommw "promopulse/internal/middleware"
	"promopulse/internal/services"
	"promopulse/pkg/contracts/domain"
)

// SimulationHandler runs what-if discount scenarios
type SimulationHandler struct {
	service      *services.SimulationService
	validate     *custommw.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewSimulationHandler creates a new simulation handler
func NewSimulationHandler(service *services.SimulationService, validate *custommw.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *SimulationHandler {
	return &SimulationHandler{
		service:      service,
		validate:     validate,
		logger:       logger.With(slog.String("component", "simulation_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the simulation routes
func (h *SimulationHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Run)
	return r
}

// simulationRequest is the body of POST /api/simulation
type simulationRequest struct {
	Label    string          `json:"label" validate:"max=120"`
	Scenario domain.Scenario `json:"scenario"`
}

// Run handles POST /api/simulation
func (h *SimulationHandler) Run(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req simulationRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validate.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "running simulation",
		slog.String("request_id", reqID),
		slog.String("label", req.Label),
		slog.Float64("global_discount_pct", req.Scenario.GlobalDiscountPct),
		slog.Int("segment_overrides", len(req.Scenario.SegmentDiscounts)))

	projection, err := h.service.Run(r.Context(), req.Scenario, req.Label)
	if err != nil {
		h.logger.WarnContext(r.Context(), "simulation rejected",
			slog.String("request_id", reqID),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   projection,
	})
}
