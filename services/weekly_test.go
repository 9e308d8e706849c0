package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"casa_monitor/models"
)

type fakeRunSource struct {
	runs []models.AgencyRun
	err  error

	gotAgency uuid.UUID
	gotSince  time.Time
}

func (f *fakeRunSource) ListRunsSince(ctx context.Context, agencyID uuid.UUID, since time.Time) ([]models.AgencyRun, error) {
	f.gotAgency = agencyID
	f.gotSince = since
	return f.runs, f.err
}

func runAt(agencyID uuid.UUID, createdAt time.Time, newCount int) models.AgencyRun {
	completed := createdAt.Add(10 * time.Minute)
	return models.AgencyRun{
		ID:               uuid.New(),
		AgencyID:         agencyID,
		CreatedAt:        createdAt,
		RunCompletedAt:   &completed,
		NewListingsCount: newCount,
	}
}

func TestWeeklyCompute_TwoConsecutiveWeeks(t *testing.T) {
	agencyID := uuid.New()
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC) // Friday, week 2026-08-24
	w0 := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)   // Monday two weeks back

	source := &fakeRunSource{runs: []models.AgencyRun{
		runAt(agencyID, w0.AddDate(0, 0, 2), 5),
		runAt(agencyID, w0.AddDate(0, 0, 9), 3),
	}}

	report, err := NewWeeklyService(source, 12).Compute(context.Background(), agencyID, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Buckets) != 12 {
		t.Fatalf("expected 12 buckets, got %d", len(report.Buckets))
	}
	if report.Buckets[0].WeekStart != "2026-06-08" {
		t.Fatalf("expected window start 2026-06-08, got %s", report.Buckets[0].WeekStart)
	}
	if report.Buckets[11].WeekStart != "2026-08-24" {
		t.Fatalf("expected window end 2026-08-24, got %s", report.Buckets[11].WeekStart)
	}

	for _, b := range report.Buckets {
		switch b.WeekStart {
		case "2026-08-10":
			if b.NewCount != 5 || b.RunCount != 1 {
				t.Fatalf("week %s: expected 5/1, got %d/%d", b.WeekStart, b.NewCount, b.RunCount)
			}
		case "2026-08-17":
			if b.NewCount != 3 || b.RunCount != 1 {
				t.Fatalf("week %s: expected 3/1, got %d/%d", b.WeekStart, b.NewCount, b.RunCount)
			}
		default:
			if b.NewCount != 0 || b.RunCount != 0 {
				t.Fatalf("week %s: expected zero bucket, got %d/%d", b.WeekStart, b.NewCount, b.RunCount)
			}
		}
	}

	// Last bucket has no runs; the 4-week tail is 0+5+3+0.
	if report.KPIs.New7 != 0 {
		t.Fatalf("expected New7 0, got %d", report.KPIs.New7)
	}
	if report.KPIs.Avg4w != 2.0 {
		t.Fatalf("expected Avg4w 2.0, got %v", report.KPIs.Avg4w)
	}
	if report.KPIs.Runs != 2 {
		t.Fatalf("expected 2 runs, got %d", report.KPIs.Runs)
	}
}

func TestWeeklyCompute_MultipleRunsSameWeek(t *testing.T) {
	agencyID := uuid.New()
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	source := &fakeRunSource{runs: []models.AgencyRun{
		runAt(agencyID, monday.Add(2*time.Hour), 4),
		runAt(agencyID, monday.AddDate(0, 0, 3), 6),
	}}

	report, err := NewWeeklyService(source, 12).Compute(context.Background(), agencyID, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last := report.Buckets[len(report.Buckets)-1]
	if last.NewCount != 10 || last.RunCount != 2 {
		t.Fatalf("expected 10/2 in current week, got %d/%d", last.NewCount, last.RunCount)
	}
	if report.KPIs.New7 != 10 {
		t.Fatalf("expected New7 10, got %d", report.KPIs.New7)
	}
}

func TestWeeklyCompute_WindowLowerBound(t *testing.T) {
	agencyID := uuid.New()
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	source := &fakeRunSource{}

	if _, err := NewWeeklyService(source, 12).Compute(context.Background(), agencyID, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// W+1 weeks of slack behind now.
	want := now.AddDate(0, 0, -7*13)
	if !source.gotSince.Equal(want) {
		t.Fatalf("expected since %s, got %s", want, source.gotSince)
	}
	if source.gotAgency != agencyID {
		t.Fatalf("expected agency %s, got %s", agencyID, source.gotAgency)
	}
}

func TestWeeklyCompute_FetchError(t *testing.T) {
	source := &fakeRunSource{err: errors.New("connection refused")}

	report, err := NewWeeklyService(source, 12).Compute(context.Background(), uuid.New(), time.Now())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(report.Buckets) != 0 {
		t.Fatalf("expected no buckets on failure, got %d", len(report.Buckets))
	}
	if report.KPIs != (models.RunKPIs{}) {
		t.Fatalf("expected zero KPIs on failure, got %+v", report.KPIs)
	}
}
