package simulator

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promopulse/internal/config"
	"promopulse/pkg/contracts/domain"
)

func testSimulationConfig() config.SimulationConfig {
	return config.SimulationConfig{
		DefaultElasticity: 1.5,
		MaxUpliftFactor:   2.0,
		MinUpliftFactor:   1.0,
		MarginFloorPct:    5,
		MaxDiscountPct:    70,
	}
}

func simDataset() *domain.Dataset {
	ts := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	return &domain.Dataset{
		ID: "ds-sim",
		Transactions: []domain.Transaction{
			{OrderID: "ORD-1", Timestamp: ts, ProductID: "SKU-1", Category: "Electronics", Quantity: 10, UnitPrice: 100, UnitCost: 60, Revenue: 1000},
			{OrderID: "ORD-2", Timestamp: ts, ProductID: "SKU-2", Category: "Grocery", Quantity: 20, UnitPrice: 10, UnitCost: 6, Revenue: 200},
		},
		Inventory: []domain.InventoryRecord{
			{ProductID: "SKU-1", Category: "Electronics", StockOnHand: 12, Status: domain.StockHealthy},
			{ProductID: "SKU-2", Category: "Grocery", StockOnHand: 500, Status: domain.StockHealthy},
		},
	}
}

func simBaseline() *domain.KPISnapshot {
	return &domain.KPISnapshot{
		DatasetID:    "ds-sim",
		TotalRevenue: 1200,
		Units:        30,
		GrossMargin:  40,
	}
}

func TestSimulator_Validate(t *testing.T) {
	sim := New(testSimulationConfig(), slog.Default())

	tests := []struct {
		name     string
		scenario domain.Scenario
		wantErr  bool
	}{
		{"zero discount", domain.Scenario{GlobalDiscountPct: 0}, false},
		{"mid-range discount", domain.Scenario{GlobalDiscountPct: 25}, false},
		{"discount at cap", domain.Scenario{GlobalDiscountPct: 70}, false},
		{"discount above cap", domain.Scenario{GlobalDiscountPct: 70.1}, true},
		{"negative discount", domain.Scenario{GlobalDiscountPct: -5}, true},
		{"segment above cap", domain.Scenario{SegmentDiscounts: map[string]float64{"Electronics": 90}}, true},
		{"segment within cap", domain.Scenario{SegmentDiscounts: map[string]float64{"Electronics": 30}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sim.Validate(tt.scenario)
			if tt.wantErr {
				require.Error(t, err)
				var oob *DiscountOutOfBoundsError
				assert.ErrorAs(t, err, &oob)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSimulator_ZeroDiscountIsIdentity(t *testing.T) {
	sim := New(testSimulationConfig(), slog.Default())

	projection, err := sim.Evaluate(context.Background(), simBaseline(), simDataset(), domain.Scenario{GlobalDiscountPct: 0})
	require.NoError(t, err)

	require.Len(t, projection.Segments, 2)
	for _, seg := range projection.Segments {
		assert.Equal(t, 1.0, seg.UpliftFactor, "0%% discount must yield uplift exactly 1.0")
		assert.Equal(t, seg.BaselineUnits, seg.ProjectedUnits)
		assert.Equal(t, seg.BaselineRevenue, seg.ProjectedRevenue)
	}
	assert.Equal(t, projection.Baseline.TotalRevenue, projection.ProjectedRevenue)
	assert.Zero(t, projection.RevenueDelta)
	assert.Zero(t, projection.UnitsDelta)
}

func TestSimulator_UpliftMath(t *testing.T) {
	sim := New(testSimulationConfig(), slog.Default())

	// 20% discount, elasticity 1.5: uplift = 1 + 1.5*0.2 = 1.3
	projection, err := sim.Evaluate(context.Background(), simBaseline(), simDataset(),
		domain.Scenario{SegmentDiscounts: map[string]float64{"Grocery": 20}})
	require.NoError(t, err)

	var grocery domain.SegmentProjection
	for _, seg := range projection.Segments {
		if seg.Segment == "Grocery" {
			grocery = seg
		}
	}

	assert.Equal(t, 1.3, grocery.UpliftFactor)
	assert.Equal(t, 1.3, grocery.RawUpliftFactor)
	assert.False(t, grocery.CappedByUplift)
	assert.Equal(t, int64(26), grocery.ProjectedUnits)
	// 200 * (26/20) * 0.8
	assert.InDelta(t, 208.0, grocery.ProjectedRevenue, 0.01)
}

func TestSimulator_UpliftClampedAtCap(t *testing.T) {
	sim := New(testSimulationConfig(), slog.Default())

	// 70% discount: raw uplift = 1 + 1.5*0.7 = 2.05, cap is 2.0
	projection, err := sim.Evaluate(context.Background(), simBaseline(), simDataset(),
		domain.Scenario{SegmentDiscounts: map[string]float64{"Grocery": 70}})
	require.NoError(t, err)

	var grocery domain.SegmentProjection
	for _, seg := range projection.Segments {
		if seg.Segment == "Grocery" {
			grocery = seg
		}
	}

	assert.Equal(t, 2.05, grocery.RawUpliftFactor)
	assert.Equal(t, 2.0, grocery.UpliftFactor, "clamped exactly at the cap")
	assert.True(t, grocery.CappedByUplift)
}

func TestSimulator_StockCap(t *testing.T) {
	sim := New(testSimulationConfig(), slog.Default())

	// Electronics: 10 units baseline, 30% discount -> uplift 1.45 ->
	// 15 units projected, but only 12 in stock.
	projection, err := sim.Evaluate(context.Background(), simBaseline(), simDataset(),
		domain.Scenario{SegmentDiscounts: map[string]float64{"Electronics": 30}})
	require.NoError(t, err)

	var electronics domain.SegmentProjection
	for _, seg := range projection.Segments {
		if seg.Segment == "Electronics" {
			electronics = seg
		}
	}

	assert.Equal(t, int64(12), electronics.ProjectedUnits)
	assert.True(t, electronics.CappedByStock)
}

func TestSimulator_MarginFloor(t *testing.T) {
	sim := New(testSimulationConfig(), slog.Default())

	// Electronics margin is 40%; a 50% discount would take it to -10,
	// floored at 5.
	projection, err := sim.Evaluate(context.Background(), simBaseline(), simDataset(),
		domain.Scenario{SegmentDiscounts: map[string]float64{"Electronics": 50}})
	require.NoError(t, err)

	var electronics domain.SegmentProjection
	for _, seg := range projection.Segments {
		if seg.Segment == "Electronics" {
			electronics = seg
		}
	}

	assert.Equal(t, 5.0, electronics.ProjectedMargin)
	assert.True(t, electronics.MarginFloorHit)
}

func TestSimulator_ZeroDiscountKeepsMarginBelowFloor(t *testing.T) {
	sim := New(testSimulationConfig(), slog.Default())

	// A thin 2% baseline margin sits below the 5% floor. With no
	// discount the baseline margin must survive unclamped.
	ts := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	ds := &domain.Dataset{
		ID: "ds-thin",
		Transactions: []domain.Transaction{
			{OrderID: "ORD-1", Timestamp: ts, ProductID: "SKU-1", Category: "Grocery", Quantity: 10, UnitPrice: 100, UnitCost: 98, Revenue: 1000},
		},
	}
	baseline := &domain.KPISnapshot{DatasetID: "ds-thin", TotalRevenue: 1000, Units: 10, GrossMargin: 2}

	projection, err := sim.Evaluate(context.Background(), baseline, ds, domain.Scenario{GlobalDiscountPct: 0})
	require.NoError(t, err)

	require.Len(t, projection.Segments, 1)
	seg := projection.Segments[0]
	assert.Equal(t, 2.0, seg.ProjectedMargin)
	assert.False(t, seg.MarginFloorHit)
}

func TestSimulator_OutOfBoundsRejectedBeforeComputation(t *testing.T) {
	sim := New(testSimulationConfig(), slog.Default())

	projection, err := sim.Evaluate(context.Background(), simBaseline(), simDataset(),
		domain.Scenario{GlobalDiscountPct: 120})

	require.Error(t, err)
	assert.Nil(t, projection)
}

func TestSimulator_Deterministic(t *testing.T) {
	sim := New(testSimulationConfig(), slog.Default())
	scenario := domain.Scenario{GlobalDiscountPct: 15}

	first, err := sim.Evaluate(context.Background(), simBaseline(), simDataset(), scenario)
	require.NoError(t, err)
	second, err := sim.Evaluate(context.Background(), simBaseline(), simDataset(), scenario)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSimulator_SegmentElasticityOverride(t *testing.T) {
	cfg := testSimulationConfig()
	cfg.Elasticity = map[string]float64{"Grocery": 0.5}
	sim := New(cfg, slog.Default())

	projection, err := sim.Evaluate(context.Background(), simBaseline(), simDataset(),
		domain.Scenario{SegmentDiscounts: map[string]float64{"Grocery": 20}})
	require.NoError(t, err)

	for _, seg := range projection.Segments {
		if seg.Segment == "Grocery" {
			// uplift = 1 + 0.5*0.2
			assert.Equal(t, 1.1, seg.UpliftFactor)
		}
	}
}
