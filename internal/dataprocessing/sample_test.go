package dataprocessing

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleGenerator_Deterministic(t *testing.T) {
	gen := NewSampleGenerator(slog.Default())

	a := gen.Sales(DefaultSampleSeed, 200)
	b := gen.Sales(DefaultSampleSeed, 200)

	require.Equal(t, len(a.Rows), len(b.Rows))
	assert.Equal(t, a.Rows, b.Rows, "same seed must produce identical tables")

	c := gen.Sales(DefaultSampleSeed+1, 200)
	assert.NotEqual(t, a.Rows, c.Rows, "different seeds should differ")
}

func TestSampleGenerator_SalesRowCountIsExact(t *testing.T) {
	gen := NewSampleGenerator(slog.Default())

	for _, rows := range []int{1, 50, 500} {
		table := gen.Sales(DefaultSampleSeed, rows)
		assert.Len(t, table.Rows, rows, "duplicates count against the requested total")
	}

	// Injected duplicates still appear within the budget.
	table := gen.Sales(DefaultSampleSeed, 500)
	seen := make(map[string]int)
	dupes := 0
	for _, row := range table.Rows {
		key := row[0] + "|" + row[2]
		seen[key]++
		if seen[key] == 2 {
			dupes++
		}
	}
	assert.Greater(t, dupes, 0, "sample should contain duplicate (order, product) rows")
}

func TestSampleGenerator_SalesSurviveCleaning(t *testing.T) {
	gen := NewSampleGenerator(slog.Default())
	table := gen.Sales(DefaultSampleSeed, 500)

	loader := NewLoader(testCleaningConfig(), slog.Default())
	columns, err := loader.ResolveColumns(table.Headers)
	require.NoError(t, err)

	cleaner := NewCleaner(testCleaningConfig(), slog.Default())
	result, err := cleaner.Clean(context.Background(), table, columns)
	require.NoError(t, err)

	// The generator injects dirt, so the rescue log must have entries
	// and most rows must survive.
	assert.NotEmpty(t, result.Issues)
	assert.Greater(t, len(result.Transactions), 400)
	assert.Equal(t, len(table.Rows), result.RawRows)
}

func TestSampleGenerator_SecondaryTables(t *testing.T) {
	gen := NewSampleGenerator(slog.Default())
	loader := NewLoader(testCleaningConfig(), slog.Default())

	inv, err := loader.ParseInventory(gen.Inventory(DefaultSampleSeed, 120))
	require.NoError(t, err)
	assert.Len(t, inv, 120)

	campaigns, err := loader.ParseCampaigns(gen.Campaigns(DefaultSampleSeed))
	require.NoError(t, err)
	assert.Len(t, campaigns, 5)
}
