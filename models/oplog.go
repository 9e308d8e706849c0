package models

import "time"

// TriggerAttempt records one run-trigger request against the job
// service, successful or not. Kept in the local operational database so
// fire-and-forget trigger failures stay observable.
type TriggerAttempt struct {
	ID        int64     `json:"id" db:"id"`
	AgencyID  string    `json:"agency_id" db:"agency_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	OK        bool      `json:"ok" db:"ok"`
	Error     string    `json:"error" db:"error"`
}

// PollSession records one polling cycle of the run lifecycle poller.
type PollSession struct {
	ID         int64      `json:"id" db:"id"`
	AgencyID   string     `json:"agency_id" db:"agency_id"`
	Generation uint64     `json:"generation" db:"generation"`
	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	SettledAt  *time.Time `json:"settled_at" db:"settled_at"`
	Ticks      int        `json:"ticks" db:"ticks"`
}

// ExportRecord notes a CSV artifact written to disk.
type ExportRecord struct {
	ID        int64     `json:"id" db:"id"`
	Kind      string    `json:"kind" db:"kind"` // weekly, zone, run_listings
	Filename  string    `json:"filename" db:"filename"`
	Rows      int       `json:"rows" db:"rows"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
