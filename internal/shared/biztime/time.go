// Package biztime centralizes clock and day-boundary helpers. All storage
// and transport use UTC; wearable records are bucketed by UTC calendar day.
package biztime

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage format for day-granularity dates.
const DateLayout = "2006-01-02"

// NowUTC returns the current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// DayOf truncates t to its UTC calendar day (midnight UTC).
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current UTC calendar day.
func Today() time.Time {
	return DayOf(NowUTC())
}

// RecentDays returns the last n UTC days ending with today, most recent
// first. n <= 0 yields today only.
func RecentDays(n int) []time.Time {
	if n <= 0 {
		n = 1
	}
	today := Today()
	days := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, today.AddDate(0, 0, -i))
	}
	return days
}

// FormatDate renders a day-granularity date.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string as a UTC day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format %q: %w", s, err)
	}
	return t, nil
}

// EndOfDay returns the last instant of the UTC day containing t. Used for
// inclusive end-date range queries.
func EndOfDay(t time.Time) time.Time {
	return DayOf(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
