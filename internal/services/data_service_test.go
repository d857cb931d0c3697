package services

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promopulse/internal/config"
	"promopulse/pkg/contracts/domain"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Paths: config.PathsConfig{
			DataDir:    dir,
			UploadsDir: filepath.Join(dir, "uploads"),
			ExportsDir: filepath.Join(dir, "exports"),
		},
		Cleaning: config.CleaningConfig{
			MaxDiscountPct:  100,
			OutlierLowPct:   0.01,
			OutlierHighPct:  0.99,
			FillMissingQty:  1,
			DefaultReorder:  50,
			DefaultLeadDays: 7,
		},
		Simulation: config.SimulationConfig{
			DefaultElasticity: 1.5,
			MaxUpliftFactor:   2.0,
			MinUpliftFactor:   1.0,
			MarginFloorPct:    5,
			MaxDiscountPct:    70,
		},
	}
}

type recordingHub struct {
	loaded   int
	progress int
	errors   int
}

func (h *recordingHub) BroadcastDatasetLoaded(source string, rows, dropped, issues int) { h.loaded++ }
func (h *recordingHub) BroadcastCleaningProgress(step string, current, total int, message string) {
	h.progress++
}
func (h *recordingHub) BroadcastError(code, message string, recoverable bool) { h.errors++ }

const salesCSV = `order_id,order_time,product_id,store_id,city,channel,fulfillment,category,qty,selling_price_aed,unit_cost_aed,discount_pct
ORD-1,2025-06-01 10:00:00,SKU-1,ST-1,Dubai,App,warehouse,Grocery,2,100,60,10
ORD-2,2025-06-01 11:00:00,SKU-2,ST-1,DXB,Web,3pl,Electronics,1,250,150,0
ORD-3,2025-06-02 09:30:00,SKU-1,ST-2,Sharjah,Marketplace,warehouse,Grocery,3,100,60,5
`

func TestDataService_LoadSalesUpload(t *testing.T) {
	hub := &recordingHub{}
	svc := NewDataService(testConfig(t), hub, nil)

	summary, err := svc.LoadSalesUpload(context.Background(), "june_sales.csv", strings.NewReader(salesCSV))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.RawRows)
	assert.Equal(t, 3, summary.CleanRows)
	assert.Equal(t, 0, summary.DroppedRows)
	assert.InDelta(t, 100.0, summary.RescueRatePct, 0.001)
	assert.Equal(t, 1, hub.loaded)
	assert.Equal(t, 1, hub.progress)

	dataset, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Len(t, dataset.Transactions, 3)
	// DXB alias is normalized, producing the only issue
	assert.Equal(t, 1, summary.IssuesByRule[string(domain.RuleCityNormalized)])
}

func TestDataService_LoadSalesUpload_RejectsUnknownExtension(t *testing.T) {
	svc := NewDataService(testConfig(t), nil, nil)

	_, err := svc.LoadSalesUpload(context.Background(), "sales.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidFileType)
}

func TestDataService_CurrentWithoutDataset(t *testing.T) {
	svc := NewDataService(testConfig(t), nil, nil)

	_, err := svc.Current(context.Background())
	assert.ErrorIs(t, err, ErrNoDataset)

	_, err = svc.Summary(context.Background())
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestDataService_AttachInventoryRequiresDataset(t *testing.T) {
	svc := NewDataService(testConfig(t), nil, nil)

	inventoryCSV := "product_id,store_id,stock_on_hand,reorder_point\nSKU-1,ST-1,5,50\n"
	_, err := svc.AttachInventoryUpload(context.Background(), "stock.csv", strings.NewReader(inventoryCSV))
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestDataService_AttachLeavesHandedOutDatasetsFrozen(t *testing.T) {
	svc := NewDataService(testConfig(t), nil, nil)

	_, err := svc.LoadSalesUpload(context.Background(), "sales.csv", strings.NewReader(salesCSV))
	require.NoError(t, err)

	before, err := svc.Current(context.Background())
	require.NoError(t, err)
	require.Empty(t, before.Inventory)

	inventoryCSV := "product_id,store_id,stock_on_hand,reorder_point\nSKU-1,ST-1,5,50\n"
	_, err = svc.AttachInventoryUpload(context.Background(), "stock.csv", strings.NewReader(inventoryCSV))
	require.NoError(t, err)

	// The pointer handed out earlier is never written again.
	assert.Empty(t, before.Inventory)

	after, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, before.ID, after.ID)
	assert.Len(t, after.Inventory, 1)
	assert.Equal(t, before.Source, after.Source)
	assert.Len(t, after.Transactions, len(before.Transactions))
}

func TestDataService_LoadSample(t *testing.T) {
	svc := NewDataService(testConfig(t), nil, nil)

	summary, err := svc.LoadSample(context.Background(), 42, 500)
	require.NoError(t, err)

	assert.Equal(t, 500, summary.RawRows)
	assert.Greater(t, summary.CleanRows, 400)
	assert.Equal(t, 120, summary.InventoryRecords)
	assert.Equal(t, 5, summary.Campaigns)
	assert.Greater(t, summary.IssueCount, 0, "sample data is intentionally dirty")

	dataset, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, dataset.Inventory)
	assert.NotEmpty(t, dataset.Campaigns)
}

func TestDataService_LoadSampleIsDeterministic(t *testing.T) {
	first := NewDataService(testConfig(t), nil, nil)
	second := NewDataService(testConfig(t), nil, nil)

	a, err := first.LoadSample(context.Background(), 42, 300)
	require.NoError(t, err)
	b, err := second.LoadSample(context.Background(), 42, 300)
	require.NoError(t, err)

	assert.Equal(t, a.CleanRows, b.CleanRows)
	assert.Equal(t, a.IssueCount, b.IssueCount)
	assert.Equal(t, a.IssuesByRule, b.IssuesByRule)
}

func TestDataService_IssuesFilter(t *testing.T) {
	svc := NewDataService(testConfig(t), nil, nil)
	_, err := svc.LoadSample(context.Background(), 42, 500)
	require.NoError(t, err)

	all, err := svc.Issues(context.Background(), "", "")
	require.NoError(t, err)
	require.NotEmpty(t, all)

	dropped, err := svc.Issues(context.Background(), string(domain.SeverityDropped), "")
	require.NoError(t, err)
	for _, issue := range dropped {
		assert.Equal(t, domain.SeverityDropped, issue.Severity)
	}
	assert.Less(t, len(dropped), len(all))

	cityIssues, err := svc.Issues(context.Background(), "", string(domain.RuleCityNormalized))
	require.NoError(t, err)
	for _, issue := range cityIssues {
		assert.Equal(t, domain.RuleCityNormalized, issue.Rule)
	}
}

func TestDataService_Clear(t *testing.T) {
	svc := NewDataService(testConfig(t), nil, nil)
	_, err := svc.LoadSample(context.Background(), 42, 100)
	require.NoError(t, err)

	svc.Clear(context.Background())
	_, err = svc.Current(context.Background())
	assert.ErrorIs(t, err, ErrNoDataset)
}
