package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"casa_monitor/models"
	"casa_monitor/weekutil"
)

// DefaultWindowWeeks is the trailing histogram length.
const DefaultWindowWeeks = 12

// RunSource is the slice of the store the weekly aggregator reads.
type RunSource interface {
	ListRunsSince(ctx context.Context, agencyID uuid.UUID, since time.Time) ([]models.AgencyRun, error)
}

// WeeklyService turns raw run records into the trailing weekly
// histogram and its KPIs. Stateless; every Compute call fetches fresh.
type WeeklyService struct {
	runs        RunSource
	windowWeeks int
}

func NewWeeklyService(runs RunSource, windowWeeks int) *WeeklyService {
	if windowWeeks <= 0 {
		windowWeeks = DefaultWindowWeeks
	}
	return &WeeklyService{runs: runs, windowWeeks: windowWeeks}
}

// Compute builds the weekly report for an agency. now is explicit so
// callers (and tests) control the window anchor. On a fetch failure the
// report comes back with no buckets and zero KPIs alongside the error;
// stale or partial data is never returned.
func (s *WeeklyService) Compute(ctx context.Context, agencyID uuid.UUID, now time.Time) (*models.WeeklyReport, error) {
	report := &models.WeeklyReport{AgencyID: agencyID}

	// One extra week of slack so the oldest bucket is fully covered.
	since := now.UTC().AddDate(0, 0, -7*(s.windowWeeks+1))
	runs, err := s.runs.ListRunsSince(ctx, agencyID, since)
	if err != nil {
		return report, fmt.Errorf("fetch runs: %w", err)
	}

	type acc struct {
		newCount int
		runCount int
	}
	byWeek := make(map[string]*acc)
	for _, run := range runs {
		key := weekutil.WeekKey(run.CreatedAt)
		a := byWeek[key]
		if a == nil {
			a = &acc{}
			byWeek[key] = a
		}
		a.newCount += run.NewListingsCount
		a.runCount++
	}

	nowKey := weekutil.WeekKey(now)
	key, err := weekutil.AddWeeks(nowKey, -(s.windowWeeks - 1))
	if err != nil {
		return report, fmt.Errorf("window start: %w", err)
	}

	report.Buckets = make([]models.WeekBucket, 0, s.windowWeeks)
	for i := 0; i < s.windowWeeks; i++ {
		bucket := models.WeekBucket{WeekStart: key}
		if a := byWeek[key]; a != nil {
			bucket.NewCount = a.newCount
			bucket.RunCount = a.runCount
		}
		report.Buckets = append(report.Buckets, bucket)

		key, err = weekutil.AddWeeks(key, 1)
		if err != nil {
			return &models.WeeklyReport{AgencyID: agencyID}, fmt.Errorf("advance week: %w", err)
		}
	}

	report.KPIs = computeKPIs(report.Buckets)
	return report, nil
}

func computeKPIs(buckets []models.WeekBucket) models.RunKPIs {
	var kpis models.RunKPIs
	if len(buckets) == 0 {
		return kpis
	}

	kpis.New7 = buckets[len(buckets)-1].NewCount

	tail := 4
	if len(buckets) < tail {
		tail = len(buckets)
	}
	sum := 0
	for _, b := range buckets[len(buckets)-tail:] {
		sum += b.NewCount
	}
	kpis.Avg4w = math.Round(float64(sum)/float64(tail)*10) / 10

	for _, b := range buckets {
		kpis.Runs += b.RunCount
	}
	return kpis
}
