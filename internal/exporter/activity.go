package exporter

import (
	"time"

	"promopulse/pkg/contracts/domain"
)

// ActivityHeaders returns the CSV column headers for activity log exports.
func ActivityHeaders() []string {
	return []string{"time", "level", "category", "message"}
}

// ActivityRecords converts activity entries to CSV records.
func ActivityRecords(entries []domain.ActivityEntry) [][]string {
	records := make([][]string, 0, len(entries))
	for _, e := range entries {
		records = append(records, []string{
			e.Time.Format(time.RFC3339),
			string(e.Level),
			e.Category,
			e.Message,
		})
	}
	return records
}
