package dataprocessing

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promopulse/internal/config"
)

func TestLoader_ReadCSV(t *testing.T) {
	loader := NewLoader(testCleaningConfig(), slog.Default())

	csvData := "order_id,product_id,qty,selling_price_aed\nORD-1,SKU-1,2,100.50\nORD-2,SKU-2,1,49.99\n"
	table, err := loader.ReadCSV(strings.NewReader(csvData), "upload.csv")

	require.NoError(t, err)
	assert.Equal(t, "upload.csv", table.Source)
	assert.Equal(t, []string{"order_id", "product_id", "qty", "selling_price_aed"}, table.Headers)
	assert.Len(t, table.Rows, 2)
}

func TestLoader_ReadCSV_StripsBOM(t *testing.T) {
	loader := NewLoader(testCleaningConfig(), slog.Default())

	csvData := "\uFEFForder_id,product_id,qty,selling_price_aed\nORD-1,SKU-1,1,10\n"
	table, err := loader.ReadCSV(strings.NewReader(csvData), "upload.csv")

	require.NoError(t, err)
	assert.Equal(t, "order_id", table.Headers[0])
}

func TestLoader_ReadCSV_EmptyFile(t *testing.T) {
	loader := NewLoader(testCleaningConfig(), slog.Default())

	_, err := loader.ReadCSV(strings.NewReader(""), "empty.csv")
	assert.Error(t, err)
}

func TestLoader_ResolveColumns(t *testing.T) {
	tests := []struct {
		name      string
		headers   []string
		wantErr   bool
		wantField string
	}{
		{
			name:    "exact headers",
			headers: []string{"order_id", "product_id", "qty", "selling_price_aed"},
		},
		{
			name:    "aliased headers",
			headers: []string{"order_id", "product_id", "quantity", "price"},
		},
		{
			name:    "case and spacing tolerated",
			headers: []string{"Order ID", "Product-ID", "Qty", "Selling Price AED"},
		},
		{
			name:      "missing price column fails fast",
			headers:   []string{"order_id", "product_id", "qty"},
			wantErr:   true,
			wantField: config.FieldUnitPrice,
		},
		{
			name:      "missing order id fails fast",
			headers:   []string{"product_id", "qty", "selling_price_aed"},
			wantErr:   true,
			wantField: config.FieldOrderID,
		},
	}

	loader := NewLoader(testCleaningConfig(), slog.Default())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			columns, err := loader.ResolveColumns(tt.headers)

			if tt.wantErr {
				require.Error(t, err)
				var missing *MissingColumnError
				require.ErrorAs(t, err, &missing)
				assert.Equal(t, tt.wantField, missing.Field)
				return
			}

			require.NoError(t, err)
			for _, field := range config.RequiredFields() {
				assert.True(t, columns.Has(field), "field %s should resolve", field)
			}
		})
	}
}

func TestColumnMap_Get(t *testing.T) {
	columns := ColumnMap{"qty": 1}

	assert.Equal(t, "5", columns.Get([]string{"ORD-1", " 5 "}, "qty"))
	assert.Equal(t, "", columns.Get([]string{"ORD-1"}, "qty"), "short row")
	assert.Equal(t, "", columns.Get([]string{"ORD-1", "5"}, "price"), "unmapped field")
}

func TestLoader_ParseInventory(t *testing.T) {
	loader := NewLoader(testCleaningConfig(), slog.Default())

	table := &RawTable{
		Source:  "inventory.csv",
		Headers: []string{"snapshot_date", "product_id", "store_id", "stock_on_hand", "reorder_point"},
		Rows: [][]string{
			{"2025-06-30", "SKU-1", "ST-01", "120", "40"},
			{"2025-06-30", "SKU-2", "ST-01", "0", "40"},
			{"2025-06-30", "SKU-3", "ST-01", "25", "40"},
			{"2025-06-30", "", "ST-01", "10", "40"},
		},
	}

	records, err := loader.ParseInventory(table)
	require.NoError(t, err)
	require.Len(t, records, 3, "row without product id is skipped")

	assert.Equal(t, "Healthy", string(records[0].Status))
	assert.Equal(t, "Critical", string(records[1].Status))
	assert.Equal(t, "Low", string(records[2].Status))
}

func TestLoader_ParseCampaigns(t *testing.T) {
	loader := NewLoader(testCleaningConfig(), slog.Default())

	table := &RawTable{
		Source:  "campaigns.csv",
		Headers: []string{"campaign_id", "start_date", "end_date", "discount_pct", "promo_budget_aed"},
		Rows: [][]string{
			{"CMP-01", "2025-06-01", "2025-06-10", "15", "25000"},
		},
	}

	campaigns, err := loader.ParseCampaigns(table)
	require.NoError(t, err)
	require.Len(t, campaigns, 1)

	assert.Equal(t, "CMP-01", campaigns[0].CampaignID)
	assert.Equal(t, 15.0, campaigns[0].DiscountPct)
	assert.Equal(t, 9, campaigns[0].DurationDays())
}
