package domain

import (
	"time"
)

// Transaction represents a single retail sale event after cleaning.
// A transaction is immutable once it enters the cleaned dataset;
// corrections happen on copies during cleaning, each with an issue entry.
type Transaction struct {
	OrderID     string      `json:"order_id" csv:"order_id" validate:"required"`
	Timestamp   time.Time   `json:"timestamp" csv:"order_time"`
	ProductID   string      `json:"product_id" csv:"product_id" validate:"required"`
	StoreID     string      `json:"store_id,omitempty" csv:"store_id"`
	City        City        `json:"city" csv:"city"`
	Channel     Channel     `json:"channel" csv:"channel"`
	Fulfillment Fulfillment `json:"fulfillment" csv:"fulfillment"`
	Category    string      `json:"category,omitempty" csv:"category"`
	Quantity    int64       `json:"qty" csv:"qty" validate:"min=0"`
	UnitPrice   float64     `json:"selling_price_aed" csv:"selling_price_aed" validate:"min=0"`
	UnitCost    float64     `json:"unit_cost_aed,omitempty" csv:"unit_cost_aed"`
	DiscountPct float64     `json:"discount_pct" csv:"discount_pct"`
	Revenue     float64     `json:"revenue" csv:"revenue"`
}

// City is a normalized UAE emirate name.
type City string

const (
	CityDubai    City = "Dubai"
	CityAbuDhabi City = "Abu Dhabi"
	CitySharjah  City = "Sharjah"
	CityUnknown  City = "Unknown"
)

// Channel represents the sales channel of a transaction.
type Channel string

const (
	ChannelApp         Channel = "App"
	ChannelWeb         Channel = "Web"
	ChannelMarketplace Channel = "Marketplace"
	ChannelUnknown     Channel = "Unknown"
)

// Fulfillment represents who fulfilled the order.
type Fulfillment string

const (
	FulfillmentWarehouse Fulfillment = "warehouse"
	Fulfillment3PL       Fulfillment = "3pl"
)

// Cities lists the recognized normalized city values.
func Cities() []City {
	return []City{CityDubai, CityAbuDhabi, CitySharjah}
}

// Channels lists the recognized channel values.
func Channels() []Channel {
	return []Channel{ChannelApp, ChannelWeb, ChannelMarketplace}
}

// Dataset is a cleaned, immutable collection of retail data plus the
// issue log produced while cleaning it. KPI snapshots and simulations
// are pure functions of a Dataset.
type Dataset struct {
	ID           string            `json:"id"`
	Source       string            `json:"source"`
	LoadedAt     time.Time         `json:"loaded_at"`
	Transactions []Transaction     `json:"transactions"`
	Inventory    []InventoryRecord `json:"inventory,omitempty"`
	Campaigns    []Campaign        `json:"campaigns,omitempty"`
	Issues       []CleaningIssue   `json:"issues"`
	RawRows      int               `json:"raw_rows"`
	DroppedRows  int               `json:"dropped_rows"`
}
