package domain

import "time"

// InventoryRecord is a point-in-time stock snapshot for a product at a store.
type InventoryRecord struct {
	SnapshotDate time.Time   `json:"snapshot_date" csv:"snapshot_date"`
	ProductID    string      `json:"product_id" csv:"product_id" validate:"required"`
	StoreID      string      `json:"store_id" csv:"store_id" validate:"required"`
	City         City        `json:"city,omitempty" csv:"city"`
	Channel      Channel     `json:"channel,omitempty" csv:"channel"`
	Category     string      `json:"category,omitempty" csv:"category"`
	StockOnHand  int64       `json:"stock_on_hand" csv:"stock_on_hand"`
	ReorderPoint int64       `json:"reorder_point" csv:"reorder_point"`
	LeadTimeDays int         `json:"lead_time_days" csv:"lead_time_days"`
	Status       StockStatus `json:"stock_status" csv:"stock_status"`
}

// StockStatus classifies stock health relative to the reorder point.
type StockStatus string

const (
	StockCritical StockStatus = "Critical"
	StockLow      StockStatus = "Low"
	StockHealthy  StockStatus = "Healthy"
)

// StatusFor derives the stock status from on-hand stock and reorder point.
// Zero or negative stock is a stockout and classified Critical.
func StatusFor(stockOnHand, reorderPoint int64) StockStatus {
	switch {
	case stockOnHand <= 0:
		return StockCritical
	case stockOnHand <= reorderPoint:
		return StockLow
	default:
		return StockHealthy
	}
}
