// internal/service/timeofday.go
package service

import (
	"fmt"
	"time"
)

// parseClock converts a zero-padded HH:MM:SS string into seconds since
// midnight. Comparing these numerically avoids leaning on lexicographic
// string ordering of the raw values.
func parseClock(s string) (int, error) {
	// time.Parse tolerates missing zero padding; the stored format does not.
	if len(s) != 8 {
		return 0, fmt.Errorf("invalid clock value %q: want HH:MM:SS", s)
	}
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", s, err)
	}
	return t.Hour()*3600 + t.Minute()*60 + t.Second(), nil
}

// secondsOfDay returns the wall-clock position of t in seconds since midnight.
func secondsOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

// isoWeekday maps Go's Sunday-first weekday onto ISO numbering (1=Monday,
// 7=Sunday).
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// startOfDay returns local midnight for t's day.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
