package store

import (
	"fmt"
	"time"
)

// timeLayout is fixed-width so TEXT columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// formatTime converts a time to the TEXT form stored in SQLite (UTC).
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a TEXT column written by formatTime.
func parseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
