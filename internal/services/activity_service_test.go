package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promopulse/pkg/contracts/domain"
)

func TestActivityLog_RecordAndList(t *testing.T) {
	log := NewActivityLog(10, nil)

	log.Record(domain.ActivityInfo, domain.ActivityCategoryDataset, "first")
	log.Record(domain.ActivityWarning, domain.ActivityCategorySimulation, "second")
	log.Recordf(domain.ActivityError, domain.ActivityCategorySystem, "third %d", 3)

	entries := log.Entries("", "")
	require.Len(t, entries, 3)
	assert.Equal(t, "third 3", entries[0].Message, "newest first")
	assert.Equal(t, "first", entries[2].Message)
	assert.Equal(t, 3, log.Len())
}

func TestActivityLog_Filters(t *testing.T) {
	log := NewActivityLog(10, nil)
	log.Record(domain.ActivityInfo, domain.ActivityCategoryDataset, "loaded")
	log.Record(domain.ActivityWarning, domain.ActivityCategoryDataset, "partial")
	log.Record(domain.ActivityInfo, domain.ActivityCategorySimulation, "evaluated")

	byLevel := log.Entries(domain.ActivityInfo, "")
	require.Len(t, byLevel, 2)

	byCategory := log.Entries("", domain.ActivityCategoryDataset)
	require.Len(t, byCategory, 2)

	both := log.Entries(domain.ActivityWarning, domain.ActivityCategoryDataset)
	require.Len(t, both, 1)
	assert.Equal(t, "partial", both[0].Message)
}

func TestActivityLog_RingEviction(t *testing.T) {
	log := NewActivityLog(5, nil)
	for i := 0; i < 8; i++ {
		log.Record(domain.ActivityInfo, domain.ActivityCategorySystem, fmt.Sprintf("event %d", i))
	}

	entries := log.Entries("", "")
	require.Len(t, entries, 5, "capacity bounds the ring")
	assert.Equal(t, "event 7", entries[0].Message)
	assert.Equal(t, "event 3", entries[4].Message, "oldest surviving entry")
}

func TestActivityLog_Clear(t *testing.T) {
	log := NewActivityLog(5, nil)
	log.Record(domain.ActivityInfo, domain.ActivityCategorySystem, "event")
	require.Equal(t, 1, log.Len())

	log.Clear()
	assert.Equal(t, 0, log.Len())
	assert.Empty(t, log.Entries("", ""))
}

func TestActivityLog_DataServiceRecordsLoads(t *testing.T) {
	svc := NewDataService(testConfig(t), nil, nil)
	log := NewActivityLog(10, nil)
	svc.SetActivityLog(log)

	_, err := svc.LoadSample(context.Background(), 42, 200)
	require.NoError(t, err)

	entries := log.Entries("", domain.ActivityCategoryDataset)
	require.NotEmpty(t, entries)
	assert.Contains(t, entries[0].Message, "loaded")
}
