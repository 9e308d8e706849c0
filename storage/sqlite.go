package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"casa_monitor/models"
)

// SQLiteStore holds local operational data: trigger attempts, poll
// sessions and export records. Domain data lives in Postgres; this file
// only exists so fire-and-forget failures stay observable.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS trigger_attempts (
		id INTEGER PRIMARY KEY,
		agency_id TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		ok BOOLEAN,
		error TEXT
	);

	CREATE TABLE IF NOT EXISTS poll_sessions (
		id INTEGER PRIMARY KEY,
		agency_id TEXT,
		generation INTEGER,
		started_at DATETIME,
		settled_at DATETIME,
		ticks INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS exports (
		id INTEGER PRIMARY KEY,
		kind TEXT,
		filename TEXT,
		rows INTEGER,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) RecordTriggerAttempt(agencyID string, attemptErr error) error {
	errText := ""
	ok := true
	if attemptErr != nil {
		errText = attemptErr.Error()
		ok = false
	}
	_, err := s.db.Exec(
		`INSERT INTO trigger_attempts (agency_id, ok, error) VALUES (?, ?, ?)`,
		agencyID, ok, errText,
	)
	return err
}

func (s *SQLiteStore) RecentTriggerAttempts(limit int) ([]models.TriggerAttempt, error) {
	rows, err := s.db.Query(
		`SELECT id, agency_id, created_at, ok, error
		 FROM trigger_attempts ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []models.TriggerAttempt
	for rows.Next() {
		var a models.TriggerAttempt
		if err := rows.Scan(&a.ID, &a.AgencyID, &a.CreatedAt, &a.OK, &a.Error); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func (s *SQLiteStore) StartPollSession(agencyID string, generation uint64) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO poll_sessions (agency_id, generation, started_at) VALUES (?, ?, ?)`,
		agencyID, generation, time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) TickPollSession(id int64) error {
	_, err := s.db.Exec(`UPDATE poll_sessions SET ticks = ticks + 1 WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) SettlePollSession(id int64) error {
	_, err := s.db.Exec(`UPDATE poll_sessions SET settled_at = ? WHERE id = ?`, time.Now().UTC(), id)
	return err
}

func (s *SQLiteStore) RecentPollSessions(limit int) ([]models.PollSession, error) {
	rows, err := s.db.Query(
		`SELECT id, agency_id, generation, started_at, settled_at, ticks
		 FROM poll_sessions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.PollSession
	for rows.Next() {
		var p models.PollSession
		if err := rows.Scan(&p.ID, &p.AgencyID, &p.Generation, &p.StartedAt, &p.SettledAt, &p.Ticks); err != nil {
			return nil, err
		}
		sessions = append(sessions, p)
	}
	return sessions, rows.Err()
}

func (s *SQLiteStore) RecordExport(kind, filename string, rowCount int) error {
	_, err := s.db.Exec(
		`INSERT INTO exports (kind, filename, rows) VALUES (?, ?, ?)`,
		kind, filename, rowCount,
	)
	return err
}

func (s *SQLiteStore) RecentExports(limit int) ([]models.ExportRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, kind, filename, rows, created_at
		 FROM exports ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exports []models.ExportRecord
	for rows.Next() {
		var e models.ExportRecord
		if err := rows.Scan(&e.ID, &e.Kind, &e.Filename, &e.Rows, &e.CreatedAt); err != nil {
			return nil, err
		}
		exports = append(exports, e)
	}
	return exports, rows.Err()
}
