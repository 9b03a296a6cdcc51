package notifications

import (
	"fmt"
	"time"

	"github.com/mcdev12/nexora/go/internal/models"
)

// parseClock parses "HH:MM" into minutes after midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// InQuietHours reports whether now falls inside the window. A window whose end is
// before its start wraps past midnight; an empty window never matches.
func InQuietHours(q models.QuietHours, now time.Time) bool {
	if !q.Enabled {
		return false
	}
	start, err := parseClock(q.StartTime)
	if err != nil {
		return false
	}
	end, err := parseClock(q.EndTime)
	if err != nil {
		return false
	}

	m := now.Hour()*60 + now.Minute()
	switch {
	case start == end:
		return false
	case start < end:
		return m >= start && m < end
	default:
		return m >= start || m < end
	}
}
