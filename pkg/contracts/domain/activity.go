package domain

import "time"

// ActivityEntry is one line of the operational activity log shown on
// the dashboards. The log is a bounded ring: old entries are evicted,
// never mutated.
type ActivityEntry struct {
	Time     time.Time     `json:"time" csv:"time"`
	Level    ActivityLevel `json:"level" csv:"level"`
	Category string        `json:"category" csv:"category"`
	Message  string        `json:"message" csv:"message"`
}

// ActivityLevel classifies an activity entry.
type ActivityLevel string

const (
	ActivityInfo    ActivityLevel = "info"
	ActivityWarning ActivityLevel = "warning"
	ActivityError   ActivityLevel = "error"
)

// Activity categories used across the services.
const (
	ActivityCategoryDataset    = "dataset"
	ActivityCategorySimulation = "simulation"
	ActivityCategoryExport     = "export"
	ActivityCategorySystem     = "system"
)
