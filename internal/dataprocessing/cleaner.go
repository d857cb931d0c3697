package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"promopulse/internal/config"
	"promopulse/pkg/contracts/domain"
)

// Cleaner applies the data rescue rules to a raw table. Every
// correction or rejection appends exactly one issue entry; rows are
// never silently mutated.
type Cleaner struct {
	cfg    config.CleaningConfig
	logger *slog.Logger
	now    func() time.Time
}

// CleanResult carries the cleaned transactions plus the issue log for
// one cleaning run.
type CleanResult struct {
	Transactions []domain.Transaction
	Issues       []domain.CleaningIssue
	RawRows      int
	DroppedRows  int
}

// NewCleaner creates a cleaner with the given configuration.
func NewCleaner(cfg config.CleaningConfig, logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "cleaner")),
		now:    time.Now,
	}
}

// candidate is a parsed row awaiting second-pass decisions.
type candidate struct {
	row           int
	tx            domain.Transaction
	needPriceFill bool
}

// Clean runs the rule pipeline over a raw table. Malformed individual
// rows never abort the run; only an unresolvable column mapping does,
// and that is checked by the loader before Clean is called.
func (c *Cleaner) Clean(ctx context.Context, table *RawTable, columns ColumnMap) (*CleanResult, error) {
	if table == nil || columns == nil {
		return nil, fmt.Errorf("clean: nil table or column map")
	}

	result := &CleanResult{RawRows: len(table.Rows)}
	candidates := make([]candidate, 0, len(table.Rows))
	var validPrices []float64

	for i, row := range table.Rows {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		// Data rows are numbered from 2: row 1 is the header.
		rowNum := i + 2

		cand, prices, drop := c.parseRow(result, rowNum, row, columns)
		if drop {
			result.DroppedRows++
			continue
		}
		validPrices = append(validPrices, prices...)
		candidates = append(candidates, cand)
	}

	median := medianOf(validPrices)

	seen := make(map[string]bool, len(candidates))
	for _, cand := range candidates {
		tx := cand.tx

		if cand.needPriceFill {
			if median <= 0 {
				c.issue(result, cand.row, tx.OrderID, config.FieldUnitPrice, "", "",
					domain.RuleMissingPriceFilled, domain.SeverityDropped)
				result.DroppedRows++
				continue
			}
			tx.UnitPrice = median
			c.issue(result, cand.row, tx.OrderID, config.FieldUnitPrice, "",
				formatFloat(median), domain.RuleMissingPriceFilled, domain.SeverityCorrected)
		}

		key := tx.OrderID + "\x00" + tx.ProductID
		if seen[key] {
			c.issue(result, cand.row, tx.OrderID, config.FieldOrderID,
				fmt.Sprintf("%s/%s", tx.OrderID, tx.ProductID), "",
				domain.RuleDuplicateDropped, domain.SeverityDropped)
			result.DroppedRows++
			continue
		}
		seen[key] = true

		tx.Revenue = tx.UnitPrice * float64(tx.Quantity) * (1 - tx.DiscountPct/100)
		result.Transactions = append(result.Transactions, tx)
	}

	c.flagRevenueOutliers(result)

	c.logger.InfoContext(ctx, "cleaning complete",
		slog.String("source", table.Source),
		slog.Int("raw_rows", result.RawRows),
		slog.Int("cleaned_rows", len(result.Transactions)),
		slog.Int("dropped_rows", result.DroppedRows),
		slog.Int("issues", len(result.Issues)))

	return result, nil
}

// parseRow parses one raw row. It returns drop=true when the row was
// rejected; prices collects valid unit prices for the median fill.
func (c *Cleaner) parseRow(result *CleanResult, rowNum int, row []string, columns ColumnMap) (candidate, []float64, bool) {
	var cand candidate
	cand.row = rowNum

	orderID := columns.Get(row, config.FieldOrderID)
	productID := columns.Get(row, config.FieldProductID)
	if orderID == "" {
		c.issue(result, rowNum, "", config.FieldOrderID, "", "",
			domain.RuleMissingRequiredField, domain.SeverityDropped)
		return cand, nil, true
	}
	if productID == "" {
		c.issue(result, rowNum, orderID, config.FieldProductID, "", "",
			domain.RuleMissingRequiredField, domain.SeverityDropped)
		return cand, nil, true
	}

	tx := domain.Transaction{
		OrderID:   orderID,
		ProductID: productID,
		StoreID:   columns.Get(row, config.FieldStoreID),
		Category:  columns.Get(row, config.FieldCategory),
	}

	if columns.Has(config.FieldTimestamp) {
		raw := columns.Get(row, config.FieldTimestamp)
		ts, ok := c.parseTimestamp(raw)
		if !ok {
			c.issue(result, rowNum, orderID, config.FieldTimestamp, raw, "",
				domain.RuleInvalidTimestamp, domain.SeverityDropped)
			return cand, nil, true
		}
		tx.Timestamp = ts
	}

	// Quantity: missing values are filled, negative ones flipped.
	rawQty := columns.Get(row, config.FieldQuantity)
	qty, qtyErr := parseNumber(rawQty)
	switch {
	case rawQty == "" || qtyErr != nil:
		tx.Quantity = c.cfg.FillMissingQty
		c.issue(result, rowNum, orderID, config.FieldQuantity, rawQty,
			strconv.FormatInt(tx.Quantity, 10), domain.RuleMissingQtyFilled, domain.SeverityCorrected)
	case qty < 0:
		tx.Quantity = int64(math.Abs(qty))
		c.issue(result, rowNum, orderID, config.FieldQuantity, rawQty,
			strconv.FormatInt(tx.Quantity, 10), domain.RuleNegativeQtyCorrected, domain.SeverityCorrected)
	default:
		tx.Quantity = int64(qty)
	}

	// Price: negative and zero prices reject the whole row.
	var prices []float64
	rawPrice := columns.Get(row, config.FieldUnitPrice)
	price, priceErr := parseNumber(rawPrice)
	switch {
	case rawPrice == "" || priceErr != nil:
		cand.needPriceFill = true
	case price < 0:
		c.issue(result, rowNum, orderID, config.FieldUnitPrice, rawPrice, "",
			domain.RuleNegativePriceReject, domain.SeverityDropped)
		return cand, nil, true
	case price == 0:
		c.issue(result, rowNum, orderID, config.FieldUnitPrice, rawPrice, "",
			domain.RuleZeroPriceReject, domain.SeverityDropped)
		return cand, nil, true
	default:
		tx.UnitPrice = price
		prices = append(prices, price)
	}

	if columns.Has(config.FieldUnitCost) {
		if cost, err := parseNumber(columns.Get(row, config.FieldUnitCost)); err == nil {
			tx.UnitCost = cost
		}
	}

	if columns.Has(config.FieldDiscount) {
		rawDiscount := columns.Get(row, config.FieldDiscount)
		discount, discountErr := parseNumber(rawDiscount)
		switch {
		case rawDiscount == "" || discountErr != nil:
			c.issue(result, rowNum, orderID, config.FieldDiscount, rawDiscount, "0",
				domain.RuleMissingDiscountZero, domain.SeverityCorrected)
		case discount < 0:
			c.issue(result, rowNum, orderID, config.FieldDiscount, rawDiscount, "0",
				domain.RuleDiscountOutOfRange, domain.SeverityCorrected)
		case discount > c.cfg.MaxDiscountPct:
			tx.DiscountPct = c.cfg.MaxDiscountPct
			c.issue(result, rowNum, orderID, config.FieldDiscount, rawDiscount,
				formatFloat(c.cfg.MaxDiscountPct), domain.RuleDiscountOutOfRange, domain.SeverityCorrected)
		default:
			tx.DiscountPct = discount
		}
	}

	tx.City = c.normalizeCity(result, rowNum, orderID, row, columns)
	tx.Channel = c.normalizeChannel(result, rowNum, orderID, row, columns)
	tx.Fulfillment = c.normalizeFulfillment(result, rowNum, orderID, row, columns)

	cand.tx = tx
	return cand, prices, false
}

func (c *Cleaner) normalizeCity(result *CleanResult, rowNum int, orderID string, row []string, columns ColumnMap) domain.City {
	if !columns.Has(config.FieldCity) {
		return domain.CityUnknown
	}
	raw := columns.Get(row, config.FieldCity)

	aliases := c.cfg.CityAliases
	if len(aliases) == 0 {
		aliases = config.DefaultCityAliases()
	}

	if canonical, ok := aliases[raw]; ok {
		if canonical != raw {
			c.issue(result, rowNum, orderID, config.FieldCity, raw, canonical,
				domain.RuleCityNormalized, domain.SeverityCorrected)
		}
		return domain.City(canonical)
	}

	// Retry with a relaxed key before giving up.
	relaxed := strings.ToLower(strings.ReplaceAll(raw, " ", ""))
	for alias, canonical := range aliases {
		if strings.ToLower(strings.ReplaceAll(alias, " ", "")) == relaxed {
			c.issue(result, rowNum, orderID, config.FieldCity, raw, canonical,
				domain.RuleCityNormalized, domain.SeverityCorrected)
			return domain.City(canonical)
		}
	}

	c.issue(result, rowNum, orderID, config.FieldCity, raw, string(domain.CityUnknown),
		domain.RuleCityNormalized, domain.SeverityCorrected)
	return domain.CityUnknown
}

func (c *Cleaner) normalizeChannel(result *CleanResult, rowNum int, orderID string, row []string, columns ColumnMap) domain.Channel {
	if !columns.Has(config.FieldChannel) {
		return domain.ChannelUnknown
	}
	raw := columns.Get(row, config.FieldChannel)

	for _, ch := range domain.Channels() {
		if strings.EqualFold(raw, string(ch)) {
			if raw != string(ch) {
				c.issue(result, rowNum, orderID, config.FieldChannel, raw, string(ch),
					domain.RuleChannelNormalized, domain.SeverityCorrected)
			}
			return ch
		}
	}

	c.issue(result, rowNum, orderID, config.FieldChannel, raw, string(domain.ChannelUnknown),
		domain.RuleChannelNormalized, domain.SeverityCorrected)
	return domain.ChannelUnknown
}

func (c *Cleaner) normalizeFulfillment(result *CleanResult, rowNum int, orderID string, row []string, columns ColumnMap) domain.Fulfillment {
	if !columns.Has(config.FieldFulfillment) {
		return domain.FulfillmentWarehouse
	}
	raw := columns.Get(row, config.FieldFulfillment)

	switch strings.ToLower(raw) {
	case string(domain.FulfillmentWarehouse):
		return domain.FulfillmentWarehouse
	case string(domain.Fulfillment3PL):
		return domain.Fulfillment3PL
	}

	c.issue(result, rowNum, orderID, config.FieldFulfillment, raw,
		string(domain.FulfillmentWarehouse), domain.RuleFulfillmentDefaulted, domain.SeverityCorrected)
	return domain.FulfillmentWarehouse
}

// flagRevenueOutliers appends log-only entries for rows whose revenue
// falls outside the configured percentile fences. Flagged rows stay in
// the cleaned table.
func (c *Cleaner) flagRevenueOutliers(result *CleanResult) {
	n := len(result.Transactions)
	if n < 3 {
		return
	}

	revenues := make([]float64, n)
	for i, tx := range result.Transactions {
		revenues[i] = tx.Revenue
	}
	sort.Float64s(revenues)

	low := revenues[int(c.cfg.OutlierLowPct*float64(n-1))]
	high := revenues[int(math.Ceil(c.cfg.OutlierHighPct*float64(n-1)))]

	for _, tx := range result.Transactions {
		if tx.Revenue < low || tx.Revenue > high {
			c.issue(result, 0, tx.OrderID, "revenue", formatFloat(tx.Revenue), "",
				domain.RuleRevenueOutlier, domain.SeverityFlagged)
		}
	}
}

func (c *Cleaner) issue(result *CleanResult, row int, key, field, original, corrected string, rule domain.CleaningRule, severity domain.IssueSeverity) {
	result.Issues = append(result.Issues, domain.CleaningIssue{
		Row:       row,
		RecordKey: key,
		Field:     field,
		Original:  original,
		Corrected: corrected,
		Rule:      rule,
		Severity:  severity,
		Timestamp: c.now(),
	})
}

func (c *Cleaner) parseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	formats := c.cfg.TimeFormats
	if len(formats) == 0 {
		formats = config.DefaultTimeFormats()
	}
	for _, layout := range formats {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// parseNumber parses a numeric cell, tolerating thousand separators.
func parseNumber(raw string) (float64, error) {
	if raw == "" {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""), 64)
}

func medianOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
