package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"casa_monitor/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// =============================================================================
// Agencies
// =============================================================================

// GetAgencyByOwner looks up the agency owned by a user. Returns nil
// without error when the user owns no agency.
func (s *PostgresStore) GetAgencyByOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.Agency, error) {
	query := `
		SELECT id, owner_user_id, name, created_at
		FROM agencies WHERE owner_user_id = $1`

	var a models.Agency
	err := s.pool.QueryRow(ctx, query, ownerUserID).Scan(
		&a.ID, &a.OwnerUserID, &a.Name, &a.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// =============================================================================
// Runs
// =============================================================================

// ListRunsForAgency returns the agency's runs newest first, for the
// poller's pending check.
func (s *PostgresStore) ListRunsForAgency(ctx context.Context, agencyID uuid.UUID) ([]models.AgencyRun, error) {
	query := `
		SELECT id, agency_id, created_at, run_completed_at, new_listings_count
		FROM agency_runs
		WHERE agency_id = $1
		ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, agencyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRuns(rows)
}

// ListRunsSince returns runs created at or after the lower bound, for
// the weekly aggregator's trailing window.
func (s *PostgresStore) ListRunsSince(ctx context.Context, agencyID uuid.UUID, since time.Time) ([]models.AgencyRun, error) {
	query := `
		SELECT id, agency_id, created_at, run_completed_at, new_listings_count
		FROM agency_runs
		WHERE agency_id = $1 AND created_at >= $2
		ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, agencyID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRuns(rows)
}

func scanRuns(rows pgx.Rows) ([]models.AgencyRun, error) {
	var runs []models.AgencyRun
	for rows.Next() {
		var r models.AgencyRun
		if err := rows.Scan(&r.ID, &r.AgencyID, &r.CreatedAt, &r.RunCompletedAt, &r.NewListingsCount); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// =============================================================================
// Listings
// =============================================================================

// ListAgencyListingIDs returns the ids of all listings linked to the
// agency through the agency_listings join table.
func (s *PostgresStore) ListAgencyListingIDs(ctx context.Context, agencyID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT listing_id FROM agency_listings WHERE agency_id = $1`

	rows, err := s.pool.Query(ctx, query, agencyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetListingsByIDs fetches full listing records for the given ids.
func (s *PostgresStore) GetListingsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Listing, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, title, city, province, price, url, raw
		FROM listings
		WHERE id = ANY($1)`

	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanListings(rows)
}

// ListRunListings returns the listings associated with a run, cheapest
// first, through the agency_run_listings join table.
func (s *PostgresStore) ListRunListings(ctx context.Context, runID uuid.UUID) ([]models.Listing, error) {
	query := `
		SELECT l.id, l.title, l.city, l.province, l.price, l.url, l.raw
		FROM agency_run_listings arl
		JOIN listings l ON l.id = arl.listing_id
		WHERE arl.run_id = $1
		ORDER BY l.price`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanListings(rows)
}

func scanListings(rows pgx.Rows) ([]models.Listing, error) {
	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		if err := rows.Scan(&l.ID, &l.Title, &l.City, &l.Province, &l.Price, &l.URL, &l.Raw); err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// =============================================================================
// Assignments
// =============================================================================

// GetAssignments returns the listing -> agent map for an agency. A
// listing absent from the map is unassigned.
func (s *PostgresStore) GetAssignments(ctx context.Context, agencyID uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	query := `
		SELECT listing_id, agent_user_id
		FROM listing_assignments
		WHERE agency_id = $1`

	rows, err := s.pool.Query(ctx, query, agencyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make(map[uuid.UUID]uuid.UUID)
	for rows.Next() {
		var listingID, agentID uuid.UUID
		if err := rows.Scan(&listingID, &agentID); err != nil {
			return nil, err
		}
		assignments[listingID] = agentID
	}
	return assignments, rows.Err()
}
