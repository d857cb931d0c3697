package services

import (
	"context"
	"log/slog"
	"sync"

	"promopulse/internal/kpi"
	"promopulse/pkg/contracts/domain"
)

// KPIService computes KPI snapshots for the current dataset. Snapshots
// are pure functions of a dataset, so one is cached per dataset ID and
// recomputed only when the dataset changes.
type KPIService struct {
	data   *DataService
	engine *kpi.Engine
	logger *slog.Logger

	mu       sync.Mutex
	cachedID string
	cached   *domain.KPISnapshot
}

// NewKPIService creates a new KPI service
func NewKPIService(data *DataService, engine *kpi.Engine, logger *slog.Logger) *KPIService {
	if logger == nil {
		logger = slog.Default()
	}
	return &KPIService{
		data:   data,
		engine: engine,
		logger: logger.With(slog.String("component", "service.kpi")),
	}
}

// Snapshot returns the KPI snapshot of the current dataset
func (s *KPIService) Snapshot(ctx context.Context) (*domain.KPISnapshot, error) {
	dataset, err := s.data.Current(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil && s.cachedID == dataset.ID {
		return s.cached, nil
	}

	snapshot, err := s.engine.Compute(ctx, dataset)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "KPI snapshot computed",
		slog.String("dataset_id", dataset.ID),
		slog.Float64("total_revenue", snapshot.TotalRevenue),
		slog.Int("orders", snapshot.Orders))

	s.cachedID = dataset.ID
	s.cached = snapshot
	return snapshot, nil
}

// Invalidate drops the cached snapshot
func (s *KPIService) Invalidate() {
	s.mu.Lock()
	s.cachedID = ""
	s.cached = nil
	s.mu.Unlock()
}
