package domain

import "time"

// KPISnapshot is the full set of named metrics computed from one cleaned
// dataset. It is a pure function of that dataset: recomputing from the
// same dataset yields a value-for-value identical snapshot. Snapshots are
// never persisted as authoritative state.
type KPISnapshot struct {
	DatasetID    string    `json:"dataset_id"`
	ComputedAt   time.Time `json:"computed_at"`
	TotalRevenue float64   `json:"total_revenue"`
	TotalCost    float64   `json:"total_cost"`
	GrossMargin  float64   `json:"gross_margin_pct"`
	Orders       int       `json:"orders"`
	Units        int64     `json:"units"`
	AvgOrderAED  float64   `json:"avg_order_value"`
	AvgDiscount  float64   `json:"avg_discount_pct"`

	StockoutRate    float64 `json:"stockout_rate"`
	CriticalSKUs    int     `json:"critical_skus"`
	LowStockSKUs    int     `json:"low_stock_skus"`
	TrackedSKUs     int     `json:"tracked_skus"`
	ActiveCampaigns int     `json:"active_campaigns"`

	CityMix     []MixEntry     `json:"city_mix"`
	ChannelMix  []MixEntry     `json:"channel_mix"`
	CategoryMix []MixEntry     `json:"category_mix"`
	DailySeries []SeriesPoint  `json:"daily_revenue"`
	HourlyLoad  []SeriesPoint  `json:"hourly_revenue"`
	WeekdayLoad []SeriesPoint  `json:"weekday_revenue"`
	TopStores   []RankedEntity `json:"top_stores"`
	TopProducts []RankedEntity `json:"top_products"`
}

// MixEntry is one slice of a share breakdown (by city, channel, category).
type MixEntry struct {
	Key      string  `json:"key"`
	Revenue  float64 `json:"revenue"`
	Orders   int     `json:"orders"`
	SharePct float64 `json:"share_pct"`
}

// SeriesPoint is one point of a time-bucketed revenue series. Label is a
// date, an hour of day, or a weekday name depending on the series.
type SeriesPoint struct {
	Label   string  `json:"label"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

// RankedEntity is one row of a top-N ranking.
type RankedEntity struct {
	ID       string  `json:"id"`
	Revenue  float64 `json:"revenue"`
	Orders   int     `json:"orders"`
	Units    int64   `json:"units"`
	AvgOrder float64 `json:"avg_order_value"`
}
