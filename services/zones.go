package services

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"casa_monitor/models"
	"casa_monitor/weekutil"
)

// PlaceholderAdvertiser groups listings whose advertiser cannot be
// derived. They share one synthetic row.
const PlaceholderAdvertiser = "(sconosciuto)"

// AdvertiserFunc maps a listing to its advertiser label. An empty
// return means no label is derivable.
type AdvertiserFunc func(models.Listing) string

// DefaultAdvertiser prefers the raw advertiser field and falls back to
// the listing URL's host.
func DefaultAdvertiser(l models.Listing) string {
	if a := l.Advertiser(); a != "" {
		return a
	}
	if u, err := url.Parse(l.URL); err == nil {
		return u.Host
	}
	return ""
}

// ListingSource is the slice of the store the zone classifier reads.
type ListingSource interface {
	ListAgencyListingIDs(ctx context.Context, agencyID uuid.UUID) ([]uuid.UUID, error)
	GetListingsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Listing, error)
	GetAssignments(ctx context.Context, agencyID uuid.UUID) (map[uuid.UUID]uuid.UUID, error)
}

// ZoneService classifies an agency's listings by zone-assignment state
// and aggregates the counts per advertiser.
type ZoneService struct {
	store    ListingSource
	collator *collate.Collator
}

// NewZoneService builds the classifier. Zone names are sorted with the
// given locale's collation; macrozone labels are Italian in practice.
func NewZoneService(store ListingSource, locale language.Tag) *ZoneService {
	return &ZoneService{
		store:    store,
		collator: collate.New(locale),
	}
}

// Compute builds the zone report for an agency. selectedZone is the
// caller's current choice; it is kept only if still present in the
// derived zone list, otherwise the first sorted zone applies. A listing
// with no macrozone never matches a non-empty zone filter.
func (s *ZoneService) Compute(ctx context.Context, agencyID uuid.UUID, selectedZone string, advertiserOf AdvertiserFunc) (*models.ZoneReport, error) {
	if advertiserOf == nil {
		advertiserOf = DefaultAdvertiser
	}
	report := &models.ZoneReport{AgencyID: agencyID}

	ids, err := s.store.ListAgencyListingIDs(ctx, agencyID)
	if err != nil {
		return report, fmt.Errorf("fetch linked listings: %w", err)
	}
	if len(ids) == 0 {
		return report, nil
	}

	listings, err := s.store.GetListingsByIDs(ctx, ids)
	if err != nil {
		return &models.ZoneReport{AgencyID: agencyID}, fmt.Errorf("fetch listings: %w", err)
	}
	assignments, err := s.store.GetAssignments(ctx, agencyID)
	if err != nil {
		return &models.ZoneReport{AgencyID: agencyID}, fmt.Errorf("fetch assignments: %w", err)
	}

	zoneSet := make(map[string]struct{})
	for _, l := range listings {
		if mz := l.Macrozone(); mz != "" {
			zoneSet[mz] = struct{}{}
		}
	}
	report.Zones = make([]string, 0, len(zoneSet))
	for z := range zoneSet {
		report.Zones = append(report.Zones, z)
	}
	sort.Slice(report.Zones, func(i, j int) bool {
		return s.collator.CompareString(report.Zones[i], report.Zones[j]) < 0
	})

	if _, ok := zoneSet[selectedZone]; ok && selectedZone != "" {
		report.Zone = selectedZone
	} else if len(report.Zones) > 0 {
		report.Zone = report.Zones[0]
	}

	rowIndex := make(map[string]int)
	for _, l := range listings {
		if l.Macrozone() != report.Zone {
			continue
		}

		var ok, pot, ver int
		switch {
		case l.Macrozone() == "":
			ver = 1
		case hasAssignment(assignments, l.ID):
			ok = 1
		default:
			pot = 1
		}

		label := advertiserOf(l)
		if label == "" {
			label = PlaceholderAdvertiser
		}

		idx, seen := rowIndex[label]
		if !seen {
			idx = len(report.Rows)
			rowIndex[label] = idx
			report.Rows = append(report.Rows, models.ZoneRow{Advertiser: label})
		}
		row := &report.Rows[idx]
		row.OK += ok
		row.Pot += pot
		row.Ver += ver
		row.Total++

		report.Totals.OK += ok
		report.Totals.Pot += pot
		report.Totals.Ver += ver
		report.Totals.Total++
	}

	// Total descending; stable sort keeps first-seen order on ties.
	sort.SliceStable(report.Rows, func(i, j int) bool {
		return report.Rows[i].Total > report.Rows[j].Total
	})

	for i := range report.Rows {
		row := &report.Rows[i]
		row.OKPct = weekutil.Pct(row.OK, row.Total)
		row.PotPct = weekutil.Pct(row.Pot, row.Total)
		row.VerPct = weekutil.Pct(row.Ver, row.Total)
	}

	return report, nil
}

func hasAssignment(assignments map[uuid.UUID]uuid.UUID, listingID uuid.UUID) bool {
	_, ok := assignments[listingID]
	return ok
}
