package weekutil

import (
	"testing"
	"time"
)

func TestStartOfWeek_MondayAligned(t *testing.T) {
	// 2026-08-28 is a Friday; its week starts Monday 2026-08-24.
	friday := time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)
	got := StartOfWeek(friday)
	want := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestStartOfWeek_SundayIsLastDay(t *testing.T) {
	// Sunday belongs to the week that started six days earlier.
	sunday := time.Date(2026, 8, 30, 23, 59, 59, 0, time.UTC)
	if got := WeekKey(sunday); got != "2026-08-24" {
		t.Fatalf("expected 2026-08-24, got %s", got)
	}
	monday := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	if got := WeekKey(monday); got != "2026-08-31" {
		t.Fatalf("expected 2026-08-31, got %s", got)
	}
}

func TestWeekKey_SameWeekSameKey(t *testing.T) {
	base := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	key := WeekKey(base)
	for d := 0; d < 7; d++ {
		ts := base.AddDate(0, 0, d).Add(13 * time.Hour)
		if got := WeekKey(ts); got != key {
			t.Fatalf("day %d: expected %s, got %s", d, key, got)
		}
	}
}

func TestWeekKey_NonUTCInput(t *testing.T) {
	loc := time.FixedZone("CEST", 2*60*60)
	// 00:30 Monday CEST is still Sunday in UTC.
	local := time.Date(2026, 8, 31, 0, 30, 0, 0, loc)
	if got := WeekKey(local); got != "2026-08-24" {
		t.Fatalf("expected 2026-08-24, got %s", got)
	}
}

func TestWeekKeyOf(t *testing.T) {
	got, err := WeekKeyOf("2026-08-28T10:00:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "2026-08-24" {
		t.Fatalf("expected 2026-08-24, got %s", got)
	}

	if _, err := WeekKeyOf("not-a-timestamp"); err == nil {
		t.Fatal("expected error for invalid timestamp")
	}
}

func TestAddWeeks_Identity(t *testing.T) {
	key := WeekKey(time.Now())
	got, err := AddWeeks(key, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != key {
		t.Fatalf("expected %s, got %s", key, got)
	}
}

func TestAddWeeks_Inverse(t *testing.T) {
	key := "2026-08-24"
	for _, n := range []int{1, 4, 12, -3, -52, 104} {
		shifted, err := AddWeeks(key, n)
		if err != nil {
			t.Fatalf("shift %d: %v", n, err)
		}
		back, err := AddWeeks(shifted, -n)
		if err != nil {
			t.Fatalf("shift back %d: %v", n, err)
		}
		if back != key {
			t.Fatalf("n=%d: expected %s, got %s", n, key, back)
		}
	}
}

func TestAddWeeks_CrossesYearBoundary(t *testing.T) {
	got, err := AddWeeks("2025-12-29", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "2026-01-05" {
		t.Fatalf("expected 2026-01-05, got %s", got)
	}
}

func TestAddWeeks_InvalidKey(t *testing.T) {
	if _, err := AddWeeks("29-12-2025", 1); err == nil {
		t.Fatal("expected error for malformed key")
	}
}

func TestPct(t *testing.T) {
	cases := []struct {
		num, den int
		want     float64
	}{
		{0, 0, 0},
		{5, 0, 0},
		{50, 200, 25.0},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{4, 4, 100},
		{-1, 4, -25},
	}
	for _, c := range cases {
		if got := Pct(c.num, c.den); got != c.want {
			t.Fatalf("Pct(%d, %d): expected %v, got %v", c.num, c.den, got, c.want)
		}
	}
}
