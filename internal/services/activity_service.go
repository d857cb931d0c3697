package services

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"promopulse/pkg/contracts/domain"
)

// DefaultActivityCapacity bounds the ring when no capacity is given.
const DefaultActivityCapacity = 500

// ActivityLog keeps a bounded, append-only ring of operational events
// for the dashboards. Recording never blocks and never fails; when the
// ring is full the oldest entry is evicted.
type ActivityLog struct {
	mu      sync.RWMutex
	entries []domain.ActivityEntry
	next    int
	full    bool
	logger  *slog.Logger
	now     func() time.Time
}

// NewActivityLog creates an activity log holding up to capacity entries.
func NewActivityLog(capacity int, logger *slog.Logger) *ActivityLog {
	if capacity <= 0 {
		capacity = DefaultActivityCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityLog{
		entries: make([]domain.ActivityEntry, capacity),
		logger:  logger.With(slog.String("component", "service.activity")),
		now:     time.Now,
	}
}

// Record appends one entry, evicting the oldest when the ring is full.
func (l *ActivityLog) Record(level domain.ActivityLevel, category, message string) {
	l.mu.Lock()
	l.entries[l.next] = domain.ActivityEntry{
		Time:     l.now().UTC(),
		Level:    level,
		Category: category,
		Message:  message,
	}
	l.next++
	if l.next == len(l.entries) {
		l.next = 0
		l.full = true
	}
	l.mu.Unlock()
}

// Recordf is Record with fmt.Sprintf formatting.
func (l *ActivityLog) Recordf(level domain.ActivityLevel, category, format string, args ...interface{}) {
	l.Record(level, category, fmt.Sprintf(format, args...))
}

// Entries returns logged entries newest first, optionally filtered by
// level and category. Empty filter values match everything.
func (l *ActivityLog) Entries(level domain.ActivityLevel, category string) []domain.ActivityEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	size := l.next
	if l.full {
		size = len(l.entries)
	}

	out := make([]domain.ActivityEntry, 0, size)
	for i := 0; i < size; i++ {
		// Walk backwards from the most recent slot.
		idx := l.next - 1 - i
		if idx < 0 {
			idx += len(l.entries)
		}
		e := l.entries[idx]
		if level != "" && e.Level != level {
			continue
		}
		if category != "" && e.Category != category {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Len reports how many entries are currently held.
func (l *ActivityLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.full {
		return len(l.entries)
	}
	return l.next
}

// Clear empties the ring.
func (l *ActivityLog) Clear() {
	l.mu.Lock()
	l.next = 0
	l.full = false
	l.mu.Unlock()
}
