package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/google/uuid"

	"casa_monitor/models"
)

func TestWriteWeekly(t *testing.T) {
	report := &models.WeeklyReport{
		Buckets: []models.WeekBucket{
			{WeekStart: "2026-08-17", NewCount: 3, RunCount: 1},
			{WeekStart: "2026-08-24", NewCount: 0, RunCount: 0},
		},
	}

	var buf bytes.Buffer
	if err := WriteWeekly(&buf, report); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if records[0][0] != "week_start" {
		t.Fatalf("unexpected header %v", records[0])
	}
	if records[1][0] != "2026-08-17" || records[1][1] != "3" || records[1][2] != "1" {
		t.Fatalf("unexpected first row %v", records[1])
	}
}

func TestWriteZone_QuotedFieldRoundTrip(t *testing.T) {
	nasty := "Agenzia \"Casa, Dolce\"\nCasa"
	report := &models.ZoneReport{
		Rows: []models.ZoneRow{
			{Advertiser: nasty, OK: 1, Pot: 2, Ver: 0, Total: 3, OKPct: 33.33, PotPct: 66.67},
		},
	}

	var buf bytes.Buffer
	if err := WriteZone(&buf, report); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(records))
	}
	if records[1][0] != nasty {
		t.Fatalf("round trip mangled field: %q", records[1][0])
	}
	if records[1][5] != "33.33" || records[1][6] != "66.67" {
		t.Fatalf("unexpected percentages %v", records[1])
	}
}

func TestWriteZone_RowOrderPreserved(t *testing.T) {
	report := &models.ZoneReport{
		Rows: []models.ZoneRow{
			{Advertiser: "B", Total: 5},
			{Advertiser: "A", Total: 9},
		},
	}

	var buf bytes.Buffer
	if err := WriteZone(&buf, report); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if !strings.HasPrefix(lines[1], "B,") || !strings.HasPrefix(lines[2], "A,") {
		t.Fatalf("exporter reordered rows: %v", lines)
	}
}

func TestWriteRunListings(t *testing.T) {
	price := 325000.0
	listings := []models.Listing{
		{ID: uuid.New(), Title: "Bilocale, zona Navigli", City: "Milano", Province: "MI", Price: &price, URL: "https://example.it/1"},
		{ID: uuid.New(), Title: "Attico", City: "Milano", Province: "MI"},
	}

	var buf bytes.Buffer
	if err := WriteRunListings(&buf, listings); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if records[1][1] != "Bilocale, zona Navigli" {
		t.Fatalf("comma field mangled: %q", records[1][1])
	}
	if records[1][4] != "325000" {
		t.Fatalf("unexpected price %q", records[1][4])
	}
	if records[2][4] != "" {
		t.Fatalf("expected empty price for nil, got %q", records[2][4])
	}
}

func TestFilenames(t *testing.T) {
	id := uuid.MustParse("5e3a7a3e-6f3c-4c2d-9a1e-000000000001")
	if got := WeeklyFilename(id); got != "monitor_weekly_5e3a7a3e-6f3c-4c2d-9a1e-000000000001.csv" {
		t.Fatalf("unexpected weekly filename %s", got)
	}
	if got := ZoneFilename("Zona Ovest/Sud"); got != "monitor_zone_zona-ovest-sud.csv" {
		t.Fatalf("unexpected zone filename %s", got)
	}
	if got := ZoneFilename(""); got != "monitor_zone_senza-zona.csv" {
		t.Fatalf("unexpected empty-zone filename %s", got)
	}
}
