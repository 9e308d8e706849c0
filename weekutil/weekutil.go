// Package weekutil provides the calendar bucketing and percentage
// helpers behind the monitor's aggregations. Weeks are ISO weeks:
// Monday 00:00 UTC through Sunday, keyed by the Monday's date.
package weekutil

import (
	"fmt"
	"math"
	"time"
)

const keyLayout = "2006-01-02"

// timestampLayouts are the formats accepted for string timestamps, in
// the order they are tried.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	keyLayout,
}

// StartOfWeek returns the Monday at 00:00:00 UTC of the week containing
// t. Go's Weekday numbers Sunday as 0, so the offset back to Monday is
// (weekday+6) mod 7.
func StartOfWeek(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}

// WeekKey returns the bucket identity for t: its week's Monday as
// YYYY-MM-DD. Equal for every timestamp in the same week.
func WeekKey(t time.Time) string {
	return StartOfWeek(t).Format(keyLayout)
}

// WeekKeyOf parses a string timestamp and returns its week key. Used
// when bucketing records whose timestamps arrive as text.
func WeekKeyOf(s string) (string, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return WeekKey(t), nil
		}
	}
	return "", fmt.Errorf("unparseable timestamp %q", s)
}

// AddWeeks shifts a week key by n weeks (n may be negative). AddWeeks(k, 0)
// returns k, and AddWeeks(AddWeeks(k, n), -n) returns k.
func AddWeeks(key string, n int) (string, error) {
	t, err := time.ParseInLocation(keyLayout, key, time.UTC)
	if err != nil {
		return "", fmt.Errorf("invalid week key %q: %w", key, err)
	}
	return t.AddDate(0, 0, 7*n).Format(keyLayout), nil
}

// Pct returns num as a percentage of den, rounded to two decimals.
// A zero denominator yields 0.
func Pct(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return math.Round(float64(num)/float64(den)*10000) / 100
}
