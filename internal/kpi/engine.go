// Package kpi computes the named business metrics of a cleaned dataset.
// Every metric is a pure function of the dataset: no state carries
// between calls, and recomputation always yields the same snapshot.
package kpi

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"promopulse/pkg/contracts/domain"
)

// Engine computes KPI snapshots.
type Engine struct {
	logger *slog.Logger
	topN   int
	now    func() time.Time
}

// EngineConfig holds configuration options for the Engine.
type EngineConfig struct {
	TopN int // ranking length for top stores / top products
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{TopN: 10}
}

// NewEngine creates a KPI engine with the given configuration.
func NewEngine(logger *slog.Logger, cfg EngineConfig) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 10
	}
	return &Engine{
		logger: logger.With(slog.String("component", "kpi_engine")),
		topN:   cfg.TopN,
		now:    time.Now,
	}
}

// Compute derives the full KPI snapshot from a cleaned dataset. Only
// ComputedAt depends on the wall clock; every metric is determined by
// the dataset alone.
func (e *Engine) Compute(ctx context.Context, ds *domain.Dataset) (*domain.KPISnapshot, error) {
	if ds == nil {
		return nil, fmt.Errorf("compute: nil dataset")
	}

	snapshot := &domain.KPISnapshot{
		DatasetID:  ds.ID,
		ComputedAt: e.now(),
	}

	e.computeTotals(ds.Transactions, snapshot)
	e.computeStock(ds.Inventory, snapshot)
	e.computeCampaigns(ds, snapshot)

	snapshot.CityMix = e.mixBy(ds.Transactions, snapshot.TotalRevenue, func(tx domain.Transaction) string { return string(tx.City) })
	snapshot.ChannelMix = e.mixBy(ds.Transactions, snapshot.TotalRevenue, func(tx domain.Transaction) string { return string(tx.Channel) })
	snapshot.CategoryMix = e.mixBy(ds.Transactions, snapshot.TotalRevenue, func(tx domain.Transaction) string { return tx.Category })

	snapshot.DailySeries = e.seriesBy(ds.Transactions, func(tx domain.Transaction) (string, bool) {
		if tx.Timestamp.IsZero() {
			return "", false
		}
		return tx.Timestamp.Format("2006-01-02"), true
	})
	snapshot.HourlyLoad = e.seriesBy(ds.Transactions, func(tx domain.Transaction) (string, bool) {
		if tx.Timestamp.IsZero() {
			return "", false
		}
		return fmt.Sprintf("%02d:00", tx.Timestamp.Hour()), true
	})
	snapshot.WeekdayLoad = e.weekdaySeries(ds.Transactions)

	snapshot.TopStores = e.rankBy(ds.Transactions, func(tx domain.Transaction) string { return tx.StoreID })
	snapshot.TopProducts = e.rankBy(ds.Transactions, func(tx domain.Transaction) string { return tx.ProductID })

	e.logger.InfoContext(ctx, "KPI snapshot computed",
		slog.String("dataset_id", ds.ID),
		slog.Int("transactions", len(ds.Transactions)),
		slog.Float64("total_revenue", snapshot.TotalRevenue),
		slog.Int("orders", snapshot.Orders))

	return snapshot, nil
}

func (e *Engine) computeTotals(txs []domain.Transaction, snapshot *domain.KPISnapshot) {
	revenue := decimal.Zero
	cost := decimal.Zero
	discountSum := decimal.Zero
	orders := make(map[string]bool)

	for _, tx := range txs {
		revenue = revenue.Add(decimal.NewFromFloat(tx.Revenue))
		cost = cost.Add(decimal.NewFromFloat(tx.UnitCost).Mul(decimal.NewFromInt(tx.Quantity)))
		discountSum = discountSum.Add(decimal.NewFromFloat(tx.DiscountPct))
		snapshot.Units += tx.Quantity
		orders[tx.OrderID] = true
	}

	snapshot.TotalRevenue = money(revenue)
	snapshot.TotalCost = money(cost)
	snapshot.Orders = len(orders)

	if revenue.IsPositive() {
		margin := revenue.Sub(cost).Div(revenue).Mul(decimal.NewFromInt(100))
		snapshot.GrossMargin = money(margin)
	}
	if snapshot.Orders > 0 {
		snapshot.AvgOrderAED = money(revenue.Div(decimal.NewFromInt(int64(snapshot.Orders))))
	}
	if len(txs) > 0 {
		snapshot.AvgDiscount = money(discountSum.Div(decimal.NewFromInt(int64(len(txs)))))
	}
}

func (e *Engine) computeStock(inventory []domain.InventoryRecord, snapshot *domain.KPISnapshot) {
	snapshot.TrackedSKUs = len(inventory)
	for _, rec := range inventory {
		switch rec.Status {
		case domain.StockCritical:
			snapshot.CriticalSKUs++
		case domain.StockLow:
			snapshot.LowStockSKUs++
		}
	}
	if snapshot.TrackedSKUs > 0 {
		rate := decimal.NewFromInt(int64(snapshot.CriticalSKUs)).
			Div(decimal.NewFromInt(int64(snapshot.TrackedSKUs))).
			Mul(decimal.NewFromInt(100))
		snapshot.StockoutRate = money(rate)
	}
}

// computeCampaigns counts campaigns active at the dataset's latest
// transaction timestamp, falling back to the load time for datasets
// without timestamps.
func (e *Engine) computeCampaigns(ds *domain.Dataset, snapshot *domain.KPISnapshot) {
	var ref time.Time
	for _, tx := range ds.Transactions {
		if tx.Timestamp.After(ref) {
			ref = tx.Timestamp
		}
	}
	if ref.IsZero() {
		ref = ds.LoadedAt
	}

	for _, c := range ds.Campaigns {
		if c.ActiveAt(ref) {
			snapshot.ActiveCampaigns++
		}
	}
}

type bucket struct {
	revenue decimal.Decimal
	units   int64
	orders  map[string]bool
}

func groupBy(txs []domain.Transaction, keyFn func(domain.Transaction) string) map[string]*bucket {
	buckets := make(map[string]*bucket)
	for _, tx := range txs {
		key := keyFn(tx)
		if key == "" {
			key = "Unknown"
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{revenue: decimal.Zero, orders: make(map[string]bool)}
			buckets[key] = b
		}
		b.revenue = b.revenue.Add(decimal.NewFromFloat(tx.Revenue))
		b.units += tx.Quantity
		b.orders[tx.OrderID] = true
	}
	return buckets
}

// mixBy computes a revenue share breakdown, sorted by revenue descending
// with the key as tiebreaker so equal datasets produce equal mixes.
func (e *Engine) mixBy(txs []domain.Transaction, totalRevenue float64, keyFn func(domain.Transaction) string) []domain.MixEntry {
	buckets := groupBy(txs, keyFn)

	mix := make([]domain.MixEntry, 0, len(buckets))
	for key, b := range buckets {
		entry := domain.MixEntry{
			Key:     key,
			Revenue: money(b.revenue),
			Orders:  len(b.orders),
		}
		if totalRevenue > 0 {
			entry.SharePct = money(b.revenue.Div(decimal.NewFromFloat(totalRevenue)).Mul(decimal.NewFromInt(100)))
		}
		mix = append(mix, entry)
	}

	sort.Slice(mix, func(i, j int) bool {
		if mix[i].Revenue != mix[j].Revenue {
			return mix[i].Revenue > mix[j].Revenue
		}
		return mix[i].Key < mix[j].Key
	})
	return mix
}

// seriesBy buckets revenue by a derived label. Rows without a label
// (zero timestamps) are skipped.
func (e *Engine) seriesBy(txs []domain.Transaction, labelFn func(domain.Transaction) (string, bool)) []domain.SeriesPoint {
	buckets := make(map[string]*bucket)
	for _, tx := range txs {
		label, ok := labelFn(tx)
		if !ok {
			continue
		}
		b, found := buckets[label]
		if !found {
			b = &bucket{revenue: decimal.Zero, orders: make(map[string]bool)}
			buckets[label] = b
		}
		b.revenue = b.revenue.Add(decimal.NewFromFloat(tx.Revenue))
		b.orders[tx.OrderID] = true
	}

	series := make([]domain.SeriesPoint, 0, len(buckets))
	for label, b := range buckets {
		series = append(series, domain.SeriesPoint{
			Label:   label,
			Revenue: money(b.revenue),
			Orders:  len(b.orders),
		})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Label < series[j].Label })
	return series
}

// weekdaySeries reports revenue per weekday in calendar order, Monday
// first, including zero-revenue days so charts keep a stable axis.
func (e *Engine) weekdaySeries(txs []domain.Transaction) []domain.SeriesPoint {
	weekdays := []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	}

	buckets := make(map[string]*bucket)
	hasTimestamps := false
	for _, tx := range txs {
		if tx.Timestamp.IsZero() {
			continue
		}
		hasTimestamps = true
		label := tx.Timestamp.Weekday().String()
		b, ok := buckets[label]
		if !ok {
			b = &bucket{revenue: decimal.Zero, orders: make(map[string]bool)}
			buckets[label] = b
		}
		b.revenue = b.revenue.Add(decimal.NewFromFloat(tx.Revenue))
		b.orders[tx.OrderID] = true
	}

	if !hasTimestamps {
		return nil
	}

	series := make([]domain.SeriesPoint, 0, len(weekdays))
	for _, day := range weekdays {
		point := domain.SeriesPoint{Label: day.String()}
		if b, ok := buckets[day.String()]; ok {
			point.Revenue = money(b.revenue)
			point.Orders = len(b.orders)
		}
		series = append(series, point)
	}
	return series
}

func (e *Engine) rankBy(txs []domain.Transaction, keyFn func(domain.Transaction) string) []domain.RankedEntity {
	buckets := groupBy(txs, keyFn)

	ranked := make([]domain.RankedEntity, 0, len(buckets))
	for key, b := range buckets {
		entity := domain.RankedEntity{
			ID:      key,
			Revenue: money(b.revenue),
			Orders:  len(b.orders),
			Units:   b.units,
		}
		if entity.Orders > 0 {
			entity.AvgOrder = money(b.revenue.Div(decimal.NewFromInt(int64(entity.Orders))))
		}
		ranked = append(ranked, entity)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Revenue != ranked[j].Revenue {
			return ranked[i].Revenue > ranked[j].Revenue
		}
		return ranked[i].ID < ranked[j].ID
	})

	if len(ranked) > e.topN {
		ranked = ranked[:e.topN]
	}
	return ranked
}

// money rounds a decimal amount to fils precision for stable output.
func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
