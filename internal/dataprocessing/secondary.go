package dataprocessing

import (
	"log/slog"
	"strings"
	"time"

	"promopulse/internal/config"
	"promopulse/pkg/contracts/domain"
)

// Secondary datasets (inventory snapshots, promo campaigns) enrich the
// KPI snapshot but are optional: a sales-only upload still produces a
// complete dashboard. Rows that cannot be parsed are skipped with a log
// line rather than an issue entry; the issue log belongs to sales data.

// ParseInventory converts a raw table into inventory records. Stock
// status is derived from on-hand stock and the reorder point; missing
// reorder points fall back to the configured default.
func (l *Loader) ParseInventory(table *RawTable) ([]domain.InventoryRecord, error) {
	cols := indexHeaders(table.Headers)

	records := make([]domain.InventoryRecord, 0, len(table.Rows))
	for i, row := range table.Rows {
		productID := cellAny(cols, row, "product_id", "sku")
		if productID == "" {
			l.logger.Warn("inventory row skipped, no product id",
				slog.String("source", table.Source), slog.Int("row", i+2))
			continue
		}

		rec := domain.InventoryRecord{
			ProductID:    productID,
			StoreID:      cellAny(cols, row, "store_id", "store"),
			City:         domain.City(cellAny(cols, row, "city")),
			Channel:      domain.Channel(cellAny(cols, row, "channel")),
			Category:     cellAny(cols, row, "category"),
			ReorderPoint: l.cfg.DefaultReorder,
			LeadTimeDays: l.cfg.DefaultLeadDays,
		}

		if raw := cellAny(cols, row, "snapshot_date", "date"); raw != "" {
			for _, layout := range config.DefaultTimeFormats() {
				if ts, err := time.Parse(layout, raw); err == nil {
					rec.SnapshotDate = ts
					break
				}
			}
		}

		if v, err := parseNumber(cellAny(cols, row, "stock_on_hand", "stock", "on_hand")); err == nil {
			rec.StockOnHand = int64(v)
		}
		if v, err := parseNumber(cellAny(cols, row, "reorder_point")); err == nil {
			rec.ReorderPoint = int64(v)
		}
		if v, err := parseNumber(cellAny(cols, row, "lead_time_days", "lead_time")); err == nil {
			rec.LeadTimeDays = int(v)
		}

		rec.Status = domain.StatusFor(rec.StockOnHand, rec.ReorderPoint)
		records = append(records, rec)
	}

	l.logger.Info("inventory parsed",
		slog.String("source", table.Source),
		slog.Int("records", len(records)))

	return records, nil
}

// ParseCampaigns converts a raw table into campaign records.
func (l *Loader) ParseCampaigns(table *RawTable) ([]domain.Campaign, error) {
	cols := indexHeaders(table.Headers)

	campaigns := make([]domain.Campaign, 0, len(table.Rows))
	for i, row := range table.Rows {
		id := cellAny(cols, row, "campaign_id", "campaign", "name")
		if id == "" {
			l.logger.Warn("campaign row skipped, no campaign id",
				slog.String("source", table.Source), slog.Int("row", i+2))
			continue
		}

		c := domain.Campaign{
			CampaignID: id,
			City:       domain.City(cellAny(cols, row, "city")),
			Channel:    domain.Channel(cellAny(cols, row, "channel")),
			Category:   cellAny(cols, row, "category"),
		}

		for _, layout := range config.DefaultTimeFormats() {
			if ts, err := time.Parse(layout, cellAny(cols, row, "start_date")); err == nil {
				c.StartDate = ts
				break
			}
		}
		for _, layout := range config.DefaultTimeFormats() {
			if ts, err := time.Parse(layout, cellAny(cols, row, "end_date")); err == nil {
				c.EndDate = ts
				break
			}
		}

		if v, err := parseNumber(cellAny(cols, row, "discount_pct", "discount")); err == nil {
			c.DiscountPct = v
		}
		if v, err := parseNumber(cellAny(cols, row, "promo_budget_aed", "budget")); err == nil {
			c.BudgetAED = v
		}

		campaigns = append(campaigns, c)
	}

	l.logger.Info("campaigns parsed",
		slog.String("source", table.Source),
		slog.Int("records", len(campaigns)))

	return campaigns, nil
}

func indexHeaders(headers []string) map[string]int {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[normalizeHeader(h)] = i
	}
	return index
}

// cellAny returns the first non-empty cell among the candidate headers.
func cellAny(cols map[string]int, row []string, names ...string) string {
	for _, name := range names {
		if i, ok := cols[name]; ok && i < len(row) {
			if v := strings.TrimSpace(row[i]); v != "" {
				return v
			}
		}
	}
	return ""
}
