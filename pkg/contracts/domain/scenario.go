package domain

// Scenario is one what-if evaluation request: a discount percentage per
// segment (category), with an optional global discount applied to
// segments not listed. Scenarios are ephemeral; they exist only for the
// duration of one evaluation.
type Scenario struct {
	GlobalDiscountPct float64            `json:"global_discount_pct" validate:"gte=0"`
	SegmentDiscounts  map[string]float64 `json:"segment_discounts,omitempty" validate:"dive,gte=0"`
}

// DiscountFor returns the discount percentage applying to a segment.
func (s Scenario) DiscountFor(segment string) float64 {
	if d, ok := s.SegmentDiscounts[segment]; ok {
		return d
	}
	return s.GlobalDiscountPct
}

// Projection is the outcome of evaluating a Scenario against a baseline
// snapshot. Deterministic: the same scenario and baseline always produce
// the same projection.
type Projection struct {
	Baseline KPISnapshot         `json:"baseline"`
	Segments []SegmentProjection `json:"segments"`

	ProjectedRevenue float64 `json:"projected_revenue"`
	ProjectedUnits   int64   `json:"projected_units"`
	ProjectedMargin  float64 `json:"projected_margin_pct"`
	RevenueDelta     float64 `json:"revenue_delta"`
	UnitsDelta       int64   `json:"units_delta"`
}

// SegmentProjection carries the per-segment uplift math and the clamps
// that were applied to it.
type SegmentProjection struct {
	Segment          string  `json:"segment"`
	DiscountPct      float64 `json:"discount_pct"`
	Elasticity       float64 `json:"elasticity"`
	UpliftFactor     float64 `json:"uplift_factor"`
	RawUpliftFactor  float64 `json:"raw_uplift_factor"`
	BaselineUnits    int64   `json:"baseline_units"`
	ProjectedUnits   int64   `json:"projected_units"`
	BaselineRevenue  float64 `json:"baseline_revenue"`
	ProjectedRevenue float64 `json:"projected_revenue"`
	ProjectedMargin  float64 `json:"projected_margin_pct"`
	CappedByUplift   bool    `json:"capped_by_uplift"`
	CappedByStock    bool    `json:"capped_by_stock"`
	MarginFloorHit   bool    `json:"margin_floor_hit"`
}
