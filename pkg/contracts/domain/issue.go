package domain

import "time"

// CleaningIssue records a single correction or rejection made while
// cleaning raw input. The issue log is append-only: exactly one entry
// per correction, and transactions are never silently mutated.
type CleaningIssue struct {
	Row       int           `json:"row" csv:"row"`
	RecordKey string        `json:"record_key,omitempty" csv:"record_key"`
	Field     string        `json:"field" csv:"field"`
	Original  string        `json:"original" csv:"original"`
	Corrected string        `json:"corrected,omitempty" csv:"corrected"`
	Rule      CleaningRule  `json:"rule" csv:"rule"`
	Severity  IssueSeverity `json:"severity" csv:"severity"`
	Timestamp time.Time     `json:"timestamp" csv:"timestamp"`
}

// CleaningRule identifies which rule produced an issue entry.
type CleaningRule string

const (
	RuleMissingRequiredField CleaningRule = "missing_required_field"
	RuleNegativePriceReject  CleaningRule = "negative_price_reject"
	RuleZeroPriceReject      CleaningRule = "zero_price_reject"
	RuleNegativeQtyCorrected CleaningRule = "negative_qty_corrected"
	RuleMissingQtyFilled     CleaningRule = "missing_qty_filled"
	RuleMissingPriceFilled   CleaningRule = "missing_price_filled"
	RuleMissingDiscountZero  CleaningRule = "missing_discount_zeroed"
	RuleInvalidTimestamp     CleaningRule = "invalid_timestamp"
	RuleCityNormalized       CleaningRule = "city_normalized"
	RuleChannelNormalized    CleaningRule = "channel_normalized"
	RuleFulfillmentDefaulted CleaningRule = "fulfillment_defaulted"
	RuleDuplicateDropped     CleaningRule = "duplicate_dropped"
	RuleRevenueOutlier       CleaningRule = "revenue_outlier"
	RuleDiscountOutOfRange   CleaningRule = "discount_out_of_range"
)

// IssueSeverity classifies how an issue was resolved.
type IssueSeverity string

const (
	// SeverityCorrected means the field was fixed and the row kept.
	SeverityCorrected IssueSeverity = "corrected"
	// SeverityDropped means the row was excluded from the cleaned table.
	SeverityDropped IssueSeverity = "dropped"
	// SeverityFlagged means the row was kept unchanged but looks suspect.
	SeverityFlagged IssueSeverity = "flagged"
)
