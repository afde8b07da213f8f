package dateutil

import (
	"fmt"
	"time"
)

// WeekLabel formats t as an ISO week period label, e.g. "2026-W35".
func WeekLabel(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// WeekBounds returns the UTC start (Monday 00:00) and end (next Monday
// 00:00) of the ISO week containing t.
func WeekBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}

	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, 1-weekday)
	return start, start.AddDate(0, 0, 7)
}
