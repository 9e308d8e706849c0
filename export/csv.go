// Package export serializes report tables to comma-delimited text.
// Row order always follows the source sequence; nothing is re-sorted
// here.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"casa_monitor/models"
)

// WeeklyFilename names the weekly histogram artifact for an agency.
func WeeklyFilename(agencyID uuid.UUID) string {
	return fmt.Sprintf("monitor_weekly_%s.csv", agencyID)
}

// ZoneFilename names the zone table artifact. The zone is slugged so
// the name stays filesystem-safe; the empty pseudo-zone becomes
// "senza-zona".
func ZoneFilename(zone string) string {
	slug := strings.ToLower(strings.TrimSpace(zone))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '/', r == '\\':
			return '-'
		default:
			return r
		}
	}, slug)
	if slug == "" {
		slug = "senza-zona"
	}
	return fmt.Sprintf("monitor_zone_%s.csv", slug)
}

// WriteWeekly writes the bucket sequence oldest first, one row per
// week.
func WriteWeekly(w io.Writer, report *models.WeeklyReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"week_start", "new_count", "run_count"}); err != nil {
		return err
	}
	for _, b := range report.Buckets {
		record := []string{b.WeekStart, strconv.Itoa(b.NewCount), strconv.Itoa(b.RunCount)}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteZone writes the advertiser table in its given order (total
// descending as produced by the classifier).
func WriteZone(w io.Writer, report *models.ZoneReport) error {
	cw := csv.NewWriter(w)
	header := []string{"advertiser", "ok", "pot", "ver", "total", "ok_pct", "pot_pct", "ver_pct"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range report.Rows {
		record := []string{
			r.Advertiser,
			strconv.Itoa(r.OK),
			strconv.Itoa(r.Pot),
			strconv.Itoa(r.Ver),
			strconv.Itoa(r.Total),
			formatPct(r.OKPct),
			formatPct(r.PotPct),
			formatPct(r.VerPct),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRunListings writes a run's listings in the order the store
// returned them (cheapest first).
func WriteRunListings(w io.Writer, listings []models.Listing) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "title", "city", "province", "price", "url"}); err != nil {
		return err
	}
	for _, l := range listings {
		price := ""
		if l.Price != nil {
			price = strconv.FormatFloat(*l.Price, 'f', -1, 64)
		}
		record := []string{l.ID.String(), l.Title, l.City, l.Province, price, l.URL}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
