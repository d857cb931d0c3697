package exporter

import (
	"strconv"
	"time"

	"promopulse/pkg/contracts/domain"
)

// TransactionHeaders returns the column order for cleaned data exports.
func TransactionHeaders() []string {
	return []string{
		"order_id", "order_time", "product_id", "store_id", "city",
		"channel", "fulfillment", "category", "qty", "selling_price_aed",
		"unit_cost_aed", "discount_pct", "revenue",
	}
}

// TransactionRecords renders cleaned transactions in export column order.
func TransactionRecords(txs []domain.Transaction) [][]string {
	records := make([][]string, 0, len(txs))
	for _, tx := range txs {
		ts := ""
		if !tx.Timestamp.IsZero() {
			ts = tx.Timestamp.Format(time.RFC3339)
		}
		records = append(records, []string{
			tx.OrderID,
			ts,
			tx.ProductID,
			tx.StoreID,
			string(tx.City),
			string(tx.Channel),
			string(tx.Fulfillment),
			tx.Category,
			strconv.FormatInt(tx.Quantity, 10),
			formatAmount(tx.UnitPrice),
			formatAmount(tx.UnitCost),
			formatAmount(tx.DiscountPct),
			formatAmount(tx.Revenue),
		})
	}
	return records
}

// IssueHeaders returns the column order for issue log exports.
func IssueHeaders() []string {
	return []string{"row", "record_key", "field", "original", "corrected", "rule", "severity", "timestamp"}
}

// IssueRecords renders the append-only issue log in export column order.
func IssueRecords(issues []domain.CleaningIssue) [][]string {
	records := make([][]string, 0, len(issues))
	for _, issue := range issues {
		records = append(records, []string{
			strconv.Itoa(issue.Row),
			issue.RecordKey,
			issue.Field,
			issue.Original,
			issue.Corrected,
			string(issue.Rule),
			string(issue.Severity),
			issue.Timestamp.Format(time.RFC3339),
		})
	}
	return records
}

// SnapshotHeaders returns the column order for KPI exports.
func SnapshotHeaders() []string {
	return []string{"metric", "value"}
}

// SnapshotRecords renders a KPI snapshot as metric/value rows.
func SnapshotRecords(s *domain.KPISnapshot) [][]string {
	records := [][]string{
		{"dataset_id", s.DatasetID},
		{"computed_at", s.ComputedAt.Format(time.RFC3339)},
		{"total_revenue", formatAmount(s.TotalRevenue)},
		{"total_cost", formatAmount(s.TotalCost)},
		{"gross_margin_pct", formatAmount(s.GrossMargin)},
		{"orders", strconv.Itoa(s.Orders)},
		{"units", strconv.FormatInt(s.Units, 10)},
		{"avg_order_value", formatAmount(s.AvgOrderAED)},
		{"avg_discount_pct", formatAmount(s.AvgDiscount)},
		{"stockout_rate", formatAmount(s.StockoutRate)},
		{"critical_skus", strconv.Itoa(s.CriticalSKUs)},
		{"low_stock_skus", strconv.Itoa(s.LowStockSKUs)},
		{"tracked_skus", strconv.Itoa(s.TrackedSKUs)},
		{"active_campaigns", strconv.Itoa(s.ActiveCampaigns)},
	}
	for _, entry := range s.CityMix {
		records = append(records, []string{"city_revenue:" + entry.Key, formatAmount(entry.Revenue)})
	}
	for _, entry := range s.ChannelMix {
		records = append(records, []string{"channel_revenue:" + entry.Key, formatAmount(entry.Revenue)})
	}
	for _, entry := range s.CategoryMix {
		records = append(records, []string{"category_revenue:" + entry.Key, formatAmount(entry.Revenue)})
	}
	return records
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
