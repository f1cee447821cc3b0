package core

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used by filters and query strings
const DateLayout = "2006-01-02"

// DefaultLookback is the window used when no explicit date range is given
const DefaultLookback = 30 * 24 * time.Hour

// DateRange is an inclusive calendar range; zero bounds are open
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDate parses a YYYY-MM-DD string; empty input yields the zero time
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders a date for filters; zero times render empty
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// DefaultRange returns the trailing lookback window ending at now
func DefaultRange(now time.Time) DateRange {
	end := now.Truncate(24 * time.Hour)
	return DateRange{Start: end.Add(-DefaultLookback), End: end}
}

// Contains reports whether t falls inside the range. End is inclusive for
// the whole calendar day.
func (r DateRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && !t.Before(r.End.Add(24*time.Hour)) {
		return false
	}
	return true
}
