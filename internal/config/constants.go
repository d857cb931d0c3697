package config

import "time"

// Application constants for the PromoPulse system
const (
	AppName    = "PromoPulse"
	AppVersion = "1.0.0"

	// EnvPrefix is the prefix for all environment variables.
	EnvPrefix = "PROMOPULSE"

	// DefaultConfigFile is the YAML config looked up next to the binary.
	DefaultConfigFile = "promopulse.yml"

	// Upload constraints
	MaxUploadBytes    = 50 << 20 // 50 MiB
	DefaultHTTPClient = 30 * time.Second

	// WebSocket timings
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// File locations (relative to the data dir)
	DefaultUploadsDir = "uploads"
	DefaultExportsDir = "exports"
)

// Logical field names understood by the cleaning pipeline. The column
// mapping config translates these to the actual headers of an upload.
const (
	FieldOrderID     = "order_id"
	FieldTimestamp   = "order_time"
	FieldProductID   = "product_id"
	FieldStoreID     = "store_id"
	FieldCity        = "city"
	FieldChannel     = "channel"
	FieldFulfillment = "fulfillment"
	FieldCategory    = "category"
	FieldQuantity    = "qty"
	FieldUnitPrice   = "selling_price_aed"
	FieldUnitCost    = "unit_cost_aed"
	FieldDiscount    = "discount_pct"
)

// RequiredFields are the logical fields a sales upload must map. A file
// whose mapping cannot resolve any of these fails fast before row work.
func RequiredFields() []string {
	return []string{FieldOrderID, FieldProductID, FieldQuantity, FieldUnitPrice}
}

// DefaultColumnMapping maps logical fields to their conventional headers.
// Each value lists the primary header; the loader also accepts the
// aliases in headerAliases when the primary is absent.
func DefaultColumnMapping() map[string]string {
	return map[string]string{
		FieldOrderID:     "order_id",
		FieldTimestamp:   "order_time",
		FieldProductID:   "product_id",
		FieldStoreID:     "store_id",
		FieldCity:        "city",
		FieldChannel:     "channel",
		FieldFulfillment: "fulfillment",
		FieldCategory:    "category",
		FieldQuantity:    "qty",
		FieldUnitPrice:   "selling_price_aed",
		FieldUnitCost:    "unit_cost_aed",
		FieldDiscount:    "discount_pct",
	}
}

// HeaderAliases lists fallback headers per logical field, matched after
// the configured mapping fails to resolve a column.
func HeaderAliases() map[string][]string {
	return map[string][]string{
		FieldTimestamp: {"order_date", "date", "timestamp"},
		FieldQuantity:  {"quantity", "units"},
		FieldUnitPrice: {"price", "unit_price", "selling_price"},
		FieldUnitCost:  {"cost", "unit_cost"},
		FieldDiscount:  {"discount"},
	}
}

// DefaultCityAliases maps raw city spellings to normalized emirate names.
func DefaultCityAliases() map[string]string {
	return map[string]string{
		"DXB":       "Dubai",
		"Dubai":     "Dubai",
		"DUBAI":     "Dubai",
		"dubai":     "Dubai",
		"AUH":       "Abu Dhabi",
		"Abu Dhabi": "Abu Dhabi",
		"ABU DHABI": "Abu Dhabi",
		"abudhabi":  "Abu Dhabi",
		"SHJ":       "Sharjah",
		"Sharjah":   "Sharjah",
		"SHARJAH":   "Sharjah",
		"sharjah":   "Sharjah",
	}
}

// DefaultTimeFormats lists the timestamp layouts tried in order.
func DefaultTimeFormats() []string {
	return []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
		"02/01/2006 15:04",
		"02/01/2006",
	}
}
