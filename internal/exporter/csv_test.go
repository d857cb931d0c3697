package exporter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promopulse/pkg/contracts/domain"
)

func TestCSVWriter_WriteSimpleCSV(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir, nil)

	path, err := writer.WriteSimpleCSV("cleaned.csv",
		[]string{"order_id", "qty"},
		[][]string{{"ORD-1", "2"}, {"ORD-2", "1"}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cleaned.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM), "expected UTF-8 BOM prefix")

	content := string(bytes.TrimPrefix(data, utf8BOM))
	lines := strings.Split(strings.TrimSpace(content), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "order_id,qty", lines[0])
	assert.Equal(t, "ORD-1,2", lines[1])
}

func TestCSVWriter_AppendSkipsHeaders(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir, nil)

	_, err := writer.WriteSimpleCSV("issues.csv",
		[]string{"row", "rule"},
		[][]string{{"2", "missing_qty_filled"}})
	require.NoError(t, err)

	_, err = writer.WriteCSV("issues.csv", WriteOptions{
		Headers: []string{"row", "rule"},
		Records: [][]string{{"3", "city_normalized"}},
		Append:  true,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "issues.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(bytes.TrimPrefix(data, utf8BOM))), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "3,city_normalized", lines[2])
}

func TestStream_WritesBOMAndRecords(t *testing.T) {
	var buf bytes.Buffer
	err := Stream(&buf, []string{"metric", "value"}, [][]string{{"orders", "42"}})
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))
	assert.Contains(t, buf.String(), "orders,42")
}

func TestTransactionRecords_ColumnOrder(t *testing.T) {
	txs := []domain.Transaction{{
		OrderID:     "ORD-1001",
		Timestamp:   time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC),
		ProductID:   "SKU-9",
		StoreID:     "ST-2",
		City:        domain.CityDubai,
		Channel:     domain.ChannelApp,
		Fulfillment: domain.FulfillmentWarehouse,
		Category:    "Grocery",
		Quantity:    2,
		UnitPrice:   49.5,
		DiscountPct: 10,
		Revenue:     89.1,
	}}

	records := TransactionRecords(txs)
	require.Len(t, records, 1)
	require.Len(t, records[0], len(TransactionHeaders()))
	assert.Equal(t, "ORD-1001", records[0][0])
	assert.Equal(t, "2025-06-10T14:30:00Z", records[0][1])
	assert.Equal(t, "Dubai", records[0][4])
	assert.Equal(t, "2", records[0][8])
	assert.Equal(t, "89.1", records[0][12])
}

func TestIssueRecords_RendersRuleAndSeverity(t *testing.T) {
	issues := []domain.CleaningIssue{{
		Row:       4,
		RecordKey: "ORD-7",
		Field:     "qty",
		Original:  "-3",
		Corrected: "3",
		Rule:      domain.RuleNegativeQtyCorrected,
		Severity:  domain.SeverityCorrected,
		Timestamp: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC),
	}}

	records := IssueRecords(issues)
	require.Len(t, records, 1)
	assert.Equal(t, []string{
		"4", "ORD-7", "qty", "-3", "3",
		"negative_qty_corrected", "corrected", "2025-06-10T09:00:00Z",
	}, records[0])
}

func TestSnapshotRecords_IncludesMixEntries(t *testing.T) {
	snapshot := &domain.KPISnapshot{
		DatasetID:    "ds-1",
		ComputedAt:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		TotalRevenue: 1234.56,
		Orders:       10,
		CityMix:      []domain.MixEntry{{Key: "Dubai", Revenue: 800}},
	}

	records := SnapshotRecords(snapshot)
	assert.Contains(t, records, []string{"total_revenue", "1234.56"})
	assert.Contains(t, records, []string{"city_revenue:Dubai", "800"})
}
