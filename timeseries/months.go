package timeseries

import (
	"errors"
	"sort"
	"time"
)

// MonthLayout is the canonical month-key format.
const MonthLayout = "2006-01"

// ParseMonth parses a "YYYY-MM" key into the first day of that month (UTC).
func ParseMonth(key string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, key)
	if err != nil {
		return time.Time{}, errors.New("invalid month key: " + key)
	}
	return t, nil
}

// FormatMonth returns the "YYYY-MM" key for the month containing t.
func FormatMonth(t time.Time) string {
	return t.Format(MonthLayout)
}

// MonthStart returns the first day of the month containing t, at midnight UTC.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last day of the month containing t, at midnight UTC.
func MonthEnd(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, -1)
}

// MonthRange returns the "YYYY-MM" keys from the month of start to the month
// of end inclusive. Returns nil when end precedes start.
func MonthRange(start, end time.Time) []string {
	s := MonthStart(start)
	e := MonthStart(end)
	if e.Before(s) {
		return nil
	}
	var out []string
	for cur := s; !cur.After(e); cur = cur.AddDate(0, 1, 0) {
		out = append(out, FormatMonth(cur))
	}
	return out
}

// UnionMonths merges month-key sets into a sorted, deduplicated list.
func UnionMonths(sets ...[]string) []string {
	seen := make(map[string]struct{})
	for _, set := range sets {
		for _, m := range set {
			seen[m] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// DaysIn returns the number of days in the month containing t.
func DaysIn(t time.Time) int {
	return MonthEnd(t).Day()
}
