// Package simulator evaluates what-if discount scenarios against a
// baseline KPI snapshot. The uplift rule is multiplicative:
//
//	uplift = 1 + elasticity * discount
//
// with discount as a fraction, clamped to the configured uplift bounds,
// available stock, and the margin floor. Evaluation is deterministic;
// there is no randomness anywhere in the projection.
package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"promopulse/internal/config"
	"promopulse/pkg/contracts/domain"
)

// DiscountOutOfBoundsError rejects scenarios whose discount falls
// outside the configured range before any computation happens.
type DiscountOutOfBoundsError struct {
	Segment  string
	Discount float64
	Max      float64
}

func (e *DiscountOutOfBoundsError) Error() string {
	return fmt.Sprintf("discount %.1f%% for segment %q outside [0, %.1f]", e.Discount, e.Segment, e.Max)
}

// Simulator applies the configured uplift rule table.
type Simulator struct {
	cfg    config.SimulationConfig
	logger *slog.Logger
}

// New creates a simulator with the given rule configuration.
func New(cfg config.SimulationConfig, logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "simulator")),
	}
}

// Validate rejects out-of-bounds scenario inputs. A scenario passes when
// its global discount and every segment discount sit inside
// [0, MaxDiscountPct].
func (s *Simulator) Validate(scenario domain.Scenario) error {
	check := func(segment string, discount float64) error {
		if discount < 0 || discount > s.cfg.MaxDiscountPct || math.IsNaN(discount) {
			return &DiscountOutOfBoundsError{Segment: segment, Discount: discount, Max: s.cfg.MaxDiscountPct}
		}
		return nil
	}

	if err := check("global", scenario.GlobalDiscountPct); err != nil {
		return err
	}

	segments := make([]string, 0, len(scenario.SegmentDiscounts))
	for segment := range scenario.SegmentDiscounts {
		segments = append(segments, segment)
	}
	sort.Strings(segments)
	for _, segment := range segments {
		if err := check(segment, scenario.SegmentDiscounts[segment]); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate projects a scenario against the baseline snapshot. Segments
// are the baseline's category mix entries; each gets its own discount,
// elasticity and clamps. A 0% discount yields an uplift factor of
// exactly 1.0.
func (s *Simulator) Evaluate(ctx context.Context, baseline *domain.KPISnapshot, ds *domain.Dataset, scenario domain.Scenario) (*domain.Projection, error) {
	if baseline == nil {
		return nil, fmt.Errorf("evaluate: nil baseline snapshot")
	}
	if err := s.Validate(scenario); err != nil {
		return nil, err
	}

	projection := &domain.Projection{Baseline: *baseline}

	segments := s.segmentBaselines(baseline, ds)
	stock := stockBySegment(ds)

	totalRevenue := decimal.Zero
	totalMarginValue := decimal.Zero
	var totalUnits int64

	for _, seg := range segments {
		sp := s.evaluateSegment(seg, scenario, stock[seg.name])
		projection.Segments = append(projection.Segments, sp)

		totalRevenue = totalRevenue.Add(decimal.NewFromFloat(sp.ProjectedRevenue))
		totalUnits += sp.ProjectedUnits
		totalMarginValue = totalMarginValue.Add(
			decimal.NewFromFloat(sp.ProjectedRevenue).Mul(decimal.NewFromFloat(sp.ProjectedMargin)).Div(decimal.NewFromInt(100)))
	}

	projection.ProjectedRevenue = money(totalRevenue)
	projection.ProjectedUnits = totalUnits
	projection.RevenueDelta = money(totalRevenue.Sub(decimal.NewFromFloat(baseline.TotalRevenue)))
	projection.UnitsDelta = totalUnits - baseline.Units
	if totalRevenue.IsPositive() {
		projection.ProjectedMargin = money(totalMarginValue.Div(totalRevenue).Mul(decimal.NewFromInt(100)))
	}

	s.logger.InfoContext(ctx, "scenario evaluated",
		slog.Float64("global_discount_pct", scenario.GlobalDiscountPct),
		slog.Int("segments", len(projection.Segments)),
		slog.Float64("projected_revenue", projection.ProjectedRevenue),
		slog.Float64("revenue_delta", projection.RevenueDelta))

	return projection, nil
}

// segmentBaseline is the per-category baseline the uplift applies to.
type segmentBaseline struct {
	name      string
	units     int64
	revenue   float64
	marginPct float64
}

// segmentBaselines derives per-category units, revenue and margin from
// the dataset when available, falling back to the snapshot's category
// mix. Segments come out sorted by name so projections are stable.
func (s *Simulator) segmentBaselines(baseline *domain.KPISnapshot, ds *domain.Dataset) []segmentBaseline {
	if ds != nil && len(ds.Transactions) > 0 {
		type agg struct {
			units   int64
			revenue decimal.Decimal
			cost    decimal.Decimal
		}
		byCategory := make(map[string]*agg)
		for _, tx := range ds.Transactions {
			key := tx.Category
			if key == "" {
				key = "Unknown"
			}
			a, ok := byCategory[key]
			if !ok {
				a = &agg{revenue: decimal.Zero, cost: decimal.Zero}
				byCategory[key] = a
			}
			a.units += tx.Quantity
			a.revenue = a.revenue.Add(decimal.NewFromFloat(tx.Revenue))
			a.cost = a.cost.Add(decimal.NewFromFloat(tx.UnitCost).Mul(decimal.NewFromInt(tx.Quantity)))
		}

		segments := make([]segmentBaseline, 0, len(byCategory))
		for name, a := range byCategory {
			seg := segmentBaseline{name: name, units: a.units, revenue: money(a.revenue)}
			if a.revenue.IsPositive() {
				seg.marginPct = money(a.revenue.Sub(a.cost).Div(a.revenue).Mul(decimal.NewFromInt(100)))
			}
			segments = append(segments, seg)
		}
		sort.Slice(segments, func(i, j int) bool { return segments[i].name < segments[j].name })
		return segments
	}

	segments := make([]segmentBaseline, 0, len(baseline.CategoryMix))
	for _, entry := range baseline.CategoryMix {
		segments = append(segments, segmentBaseline{
			name:      entry.Key,
			revenue:   entry.Revenue,
			marginPct: baseline.GrossMargin,
		})
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].name < segments[j].name })
	return segments
}

// stockBySegment sums available stock per category. Zero means no
// inventory data for that segment, in which case the stock cap is not
// applied.
func stockBySegment(ds *domain.Dataset) map[string]int64 {
	stock := make(map[string]int64)
	if ds == nil {
		return stock
	}
	for _, rec := range ds.Inventory {
		key := rec.Category
		if key == "" {
			key = "Unknown"
		}
		if rec.StockOnHand > 0 {
			stock[key] += rec.StockOnHand
		}
	}
	return stock
}

// evaluateSegment applies the uplift rule and the three clamps for one
// segment.
func (s *Simulator) evaluateSegment(seg segmentBaseline, scenario domain.Scenario, availableStock int64) domain.SegmentProjection {
	discount := scenario.DiscountFor(seg.name)
	elasticity := s.cfg.ElasticityFor(seg.name)

	sp := domain.SegmentProjection{
		Segment:         seg.name,
		DiscountPct:     discount,
		Elasticity:      elasticity,
		BaselineUnits:   seg.units,
		BaselineRevenue: seg.revenue,
	}

	// uplift = 1 + elasticity * discount, with discount as a fraction.
	raw := decimal.NewFromInt(1).Add(
		decimal.NewFromFloat(elasticity).Mul(decimal.NewFromFloat(discount).Div(decimal.NewFromInt(100))))
	sp.RawUpliftFactor = round4(raw)

	uplift := raw
	if ceiling := decimal.NewFromFloat(s.cfg.MaxUpliftFactor); uplift.GreaterThan(ceiling) {
		uplift = ceiling
		sp.CappedByUplift = true
	}
	if floor := decimal.NewFromFloat(s.cfg.MinUpliftFactor); uplift.LessThan(floor) {
		uplift = floor
	}
	sp.UpliftFactor = round4(uplift)

	projectedUnits := decimal.NewFromInt(seg.units).Mul(uplift).Round(0).IntPart()
	if availableStock > 0 && projectedUnits > availableStock {
		projectedUnits = availableStock
		sp.CappedByStock = true
	}
	sp.ProjectedUnits = projectedUnits

	// Revenue scales with units and the new discount; margin gives up
	// the discount points from the baseline.
	discountKeep := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(discount).Div(decimal.NewFromInt(100)))
	var unitScale decimal.Decimal
	if seg.units > 0 {
		unitScale = decimal.NewFromInt(projectedUnits).Div(decimal.NewFromInt(seg.units))
	} else {
		unitScale = uplift
	}
	sp.ProjectedRevenue = money(decimal.NewFromFloat(seg.revenue).Mul(unitScale).Mul(discountKeep))

	// The floor only applies when a discount moved the margin; a 0%
	// scenario keeps the baseline margin untouched.
	margin := decimal.NewFromFloat(seg.marginPct).Sub(decimal.NewFromFloat(discount))
	if floor := decimal.NewFromFloat(s.cfg.MarginFloorPct); discount > 0 && margin.LessThan(floor) {
		margin = floor
		sp.MarginFloorHit = true
	}
	sp.ProjectedMargin = money(margin)

	return sp
}

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func round4(d decimal.Decimal) float64 {
	f, _ := d.Round(4).Float64()
	return f
}
