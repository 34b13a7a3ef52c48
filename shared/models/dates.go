package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical date format used across the assistant
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	DateLayout,
}

// ParseDate extracts the calendar date from a date or timestamp string.
// Timezone offsets are ignored: only the written date component is kept.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// FormatDate renders a date in DateLayout
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
