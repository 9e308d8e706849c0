package models

import (
	"time"

	"github.com/google/uuid"
)

// AgencyRun is one execution of the remote scraping job for an agency.
// RunCompletedAt is nil while the run is in flight; once set it never
// changes, and NewListingsCount is only meaningful after completion.
type AgencyRun struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	AgencyID         uuid.UUID  `json:"agency_id" db:"agency_id"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	RunCompletedAt   *time.Time `json:"run_completed_at" db:"run_completed_at"`
	NewListingsCount int        `json:"new_listings_count" db:"new_listings_count"`
}

func (r *AgencyRun) Pending() bool {
	return r.RunCompletedAt == nil
}

// WeekBucket aggregates runs over one Monday-to-Sunday UTC week.
// Recomputed on every call, never persisted.
type WeekBucket struct {
	WeekStart string `json:"week_start"`
	NewCount  int    `json:"new_count"`
	RunCount  int    `json:"run_count"`
}

// RunKPIs summarizes recent run activity over the trailing window.
type RunKPIs struct {
	New7  int     `json:"new7"`
	Avg4w float64 `json:"avg4w"`
	Runs  int     `json:"runs"`
}

// WeeklyReport is the full output of the weekly aggregator: the ordered
// bucket sequence (oldest first) plus the derived KPIs.
type WeeklyReport struct {
	AgencyID uuid.UUID    `json:"agency_id"`
	Buckets  []WeekBucket `json:"buckets"`
	KPIs     RunKPIs      `json:"kpis"`
}
