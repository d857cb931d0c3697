package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promopulse/internal/kpi"
)

func newTestKPIService(t *testing.T) (*DataService, *KPIService) {
	t.Helper()
	data := NewDataService(testConfig(t), nil, nil)
	engine := kpi.NewEngine(nil, kpi.DefaultEngineConfig())
	return data, NewKPIService(data, engine, nil)
}

func TestKPIService_SnapshotRequiresDataset(t *testing.T) {
	_, svc := newTestKPIService(t)

	_, err := svc.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestKPIService_SnapshotIsCachedPerDataset(t *testing.T) {
	data, svc := newTestKPIService(t)
	_, err := data.LoadSample(context.Background(), 42, 300)
	require.NoError(t, err)

	first, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	second, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second, "same dataset should return the cached snapshot")

	// A new dataset invalidates the cache
	_, err = data.LoadSample(context.Background(), 7, 300)
	require.NoError(t, err)
	third, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.DatasetID, third.DatasetID)
}

func TestKPIService_SnapshotRecomputedAfterInventoryAttach(t *testing.T) {
	data, svc := newTestKPIService(t)

	_, err := data.LoadSalesUpload(context.Background(), "sales.csv", strings.NewReader(salesCSV))
	require.NoError(t, err)

	before, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, before.TrackedSKUs)
	assert.Zero(t, before.StockoutRate)

	inventoryCSV := "product_id,store_id,stock_on_hand,reorder_point\nSKU-1,ST-1,0,50\nSKU-2,ST-1,-3,50\n"
	_, err = data.AttachInventoryUpload(context.Background(), "stock.csv", strings.NewReader(inventoryCSV))
	require.NoError(t, err)

	after, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, before.DatasetID, after.DatasetID, "attaching inventory installs a new dataset")
	assert.Equal(t, 2, after.TrackedSKUs)
	assert.Equal(t, 2, after.CriticalSKUs)
	assert.InDelta(t, 100.0, after.StockoutRate, 0.001)
}

func TestKPIService_Invalidate(t *testing.T) {
	data, svc := newTestKPIService(t)
	_, err := data.LoadSample(context.Background(), 42, 200)
	require.NoError(t, err)

	first, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	svc.Invalidate()
	second, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, first.TotalRevenue, second.TotalRevenue, "recomputation is deterministic")
	assert.Equal(t, first.CityMix, second.CityMix)
}
