package services

import (
	"context"
	"log/slog"

	"promopulse/internal/middleware"
	"promopulse/internal/simulator"
	"promopulse/pkg/contracts/domain"
)

// SimulationBroadcaster pushes simulation results to connected dashboards.
type SimulationBroadcaster interface {
	BroadcastSimulationComplete(scenario string, revenueDelta float64, traceID string)
}

// SimulationService evaluates what-if discount scenarios against the
// current dataset's KPI baseline. Evaluations never mutate the dataset.
type SimulationService struct {
	data     *DataService
	kpis     *KPIService
	sim      *simulator.Simulator
	hub      SimulationBroadcaster
	activity *ActivityLog
	logger   *slog.Logger
}

// NewSimulationService creates a new simulation service
func NewSimulationService(data *DataService, kpis *KPIService, sim *simulator.Simulator, hub SimulationBroadcaster, logger *slog.Logger) *SimulationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SimulationService{
		data:   data,
		kpis:   kpis,
		sim:    sim,
		hub:    hub,
		logger: logger.With(slog.String("component", "service.simulation")),
	}
}

// SetActivityLog attaches an activity log. Optional; recording is a
// no-op until one is set.
func (s *SimulationService) SetActivityLog(activity *ActivityLog) {
	s.activity = activity
}

// Run validates and evaluates a scenario against the current baseline.
// Out-of-bounds discounts are rejected before any projection math runs.
func (s *SimulationService) Run(ctx context.Context, scenario domain.Scenario, label string) (*domain.Projection, error) {
	if err := s.sim.Validate(scenario); err != nil {
		middleware.RecordSimulationMetrics(ctx, 0, err)
		return nil, err
	}

	dataset, err := s.data.Current(ctx)
	if err != nil {
		return nil, err
	}
	baseline, err := s.kpis.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	projection, err := s.sim.Evaluate(ctx, baseline, dataset, scenario)
	middleware.RecordSimulationMetrics(ctx, len(scenario.SegmentDiscounts), err)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Simulation evaluated",
		slog.String("dataset_id", dataset.ID),
		slog.Float64("global_discount_pct", scenario.GlobalDiscountPct),
		slog.Int("segment_overrides", len(scenario.SegmentDiscounts)),
		slog.Float64("revenue_delta", projection.RevenueDelta))

	if label == "" {
		label = "ad-hoc"
	}
	if s.hub != nil {
		s.hub.BroadcastSimulationComplete(label, projection.RevenueDelta, middleware.GetReqID(ctx))
	}
	if s.activity != nil {
		s.activity.Recordf(domain.ActivityInfo, domain.ActivityCategorySimulation,
			"scenario %s evaluated: revenue delta %.2f AED", label, projection.RevenueDelta)
	}
	return projection, nil
}
