package dataprocessing

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// DefaultSampleSeed keeps demo datasets reproducible across runs.
const DefaultSampleSeed = 42

// SampleGenerator produces seeded demo datasets. The sales table is
// deliberately messy (alias city spellings, missing quantities, negative
// prices, duplicates) so the cleaning pipeline has real work to do.
// The same seed always yields the same tables.
type SampleGenerator struct {
	logger *slog.Logger
}

// NewSampleGenerator creates a sample data generator.
func NewSampleGenerator(logger *slog.Logger) *SampleGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &SampleGenerator{logger: logger.With(slog.String("component", "sample_generator"))}
}

var (
	sampleCities     = []string{"Dubai", "DXB", "Abu Dhabi", "AUH", "Sharjah", "SHJ", "dubai"}
	sampleChannels   = []string{"App", "Web", "Marketplace", "app", "WEB"}
	sampleFulfill    = []string{"warehouse", "3pl", "warehouse", "warehouse", ""}
	sampleCategories = []string{"Electronics", "Grocery", "Fashion", "Beauty", "Home"}
)

// Sales generates a messy sales table with the given row count.
func (g *SampleGenerator) Sales(seed int64, rows int) *RawTable {
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	table := &RawTable{
		Source: fmt.Sprintf("sample-sales-%d", seed),
		Headers: []string{
			"order_id", "order_time", "product_id", "store_id", "city", "channel",
			"fulfillment", "category", "qty", "selling_price_aed", "unit_cost_aed", "discount_pct",
		},
	}

	for i := 0; len(table.Rows) < rows; i++ {
		orderID := fmt.Sprintf("ORD-%06d", i+1)
		productID := fmt.Sprintf("SKU-%03d", rng.Intn(120)+1)
		storeID := fmt.Sprintf("ST-%02d", rng.Intn(12)+1)
		ts := start.Add(time.Duration(rng.Intn(30*24*60)) * time.Minute)

		price := 10 + rng.Float64()*490
		cost := price * (0.4 + rng.Float64()*0.3)
		qty := rng.Intn(5) + 1
		discount := float64(rng.Intn(8) * 5)

		qtyCell := fmt.Sprintf("%d", qty)
		priceCell := fmt.Sprintf("%.2f", price)
		tsCell := ts.Format("2006-01-02 15:04:05")

		// Inject dirt on a deterministic fraction of rows.
		switch roll := rng.Float64(); {
		case roll < 0.03:
			qtyCell = ""
		case roll < 0.05:
			qtyCell = fmt.Sprintf("%d", -qty)
		case roll < 0.07:
			priceCell = fmt.Sprintf("%.2f", -price)
		case roll < 0.08:
			priceCell = ""
		case roll < 0.09:
			tsCell = "not-a-date"
		}

		table.Rows = append(table.Rows, []string{
			orderID, tsCell, productID, storeID,
			sampleCities[rng.Intn(len(sampleCities))],
			sampleChannels[rng.Intn(len(sampleChannels))],
			sampleFulfill[rng.Intn(len(sampleFulfill))],
			sampleCategories[rng.Intn(len(sampleCategories))],
			qtyCell, priceCell, fmt.Sprintf("%.2f", cost), fmt.Sprintf("%.0f", discount),
		})

		// Occasional duplicate of the row just written. Duplicates
		// count against the requested row total.
		if len(table.Rows) < rows && rng.Float64() < 0.02 {
			dup := make([]string, len(table.Rows[len(table.Rows)-1]))
			copy(dup, table.Rows[len(table.Rows)-1])
			table.Rows = append(table.Rows, dup)
		}
	}

	g.logger.Info("sample sales generated",
		slog.Int64("seed", seed),
		slog.Int("rows", len(table.Rows)))

	return table
}

// Inventory generates a stock snapshot covering the sample SKU range.
func (g *SampleGenerator) Inventory(seed int64, skus int) *RawTable {
	rng := rand.New(rand.NewSource(seed + 1))

	table := &RawTable{
		Source: fmt.Sprintf("sample-inventory-%d", seed),
		Headers: []string{
			"snapshot_date", "product_id", "store_id", "category",
			"stock_on_hand", "reorder_point", "lead_time_days",
		},
	}

	for i := 0; i < skus; i++ {
		stock := rng.Intn(260) - 10 // a few stockouts
		table.Rows = append(table.Rows, []string{
			"2025-06-30",
			fmt.Sprintf("SKU-%03d", i+1),
			fmt.Sprintf("ST-%02d", rng.Intn(12)+1),
			sampleCategories[rng.Intn(len(sampleCategories))],
			fmt.Sprintf("%d", stock),
			fmt.Sprintf("%d", rng.Intn(60)+20),
			fmt.Sprintf("%d", rng.Intn(10)+2),
		})
	}

	return table
}

// Campaigns generates a small set of promo campaigns.
func (g *SampleGenerator) Campaigns(seed int64) *RawTable {
	rng := rand.New(rand.NewSource(seed + 2))

	table := &RawTable{
		Source: fmt.Sprintf("sample-campaigns-%d", seed),
		Headers: []string{
			"campaign_id", "start_date", "end_date", "city", "channel",
			"category", "discount_pct", "promo_budget_aed",
		},
	}

	names := []string{"SummerSale", "EidOffers", "BackToSchool", "WeekendFlash", "AppExclusive"}
	for i, name := range names {
		startDay := rng.Intn(20) + 1
		table.Rows = append(table.Rows, []string{
			fmt.Sprintf("CMP-%02d-%s", i+1, name),
			fmt.Sprintf("2025-06-%02d", startDay),
			fmt.Sprintf("2025-06-%02d", startDay+rng.Intn(9)+1),
			sampleCities[rng.Intn(3)],
			sampleChannels[rng.Intn(3)],
			sampleCategories[rng.Intn(len(sampleCategories))],
			fmt.Sprintf("%d", (rng.Intn(6)+1)*5),
			fmt.Sprintf("%d", (rng.Intn(40)+10)*1000),
		})
	}

	return table
}
