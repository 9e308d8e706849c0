package models

import "github.com/google/uuid"

// ZoneRow is the per-advertiser classification breakdown within a zone.
type ZoneRow struct {
	Advertiser string  `json:"advertiser"`
	OK         int     `json:"ok"`
	Pot        int     `json:"pot"`
	Ver        int     `json:"ver"`
	Total      int     `json:"total"`
	OKPct      float64 `json:"ok_pct"`
	PotPct     float64 `json:"pot_pct"`
	VerPct     float64 `json:"ver_pct"`
}

// ZoneTotals accumulates the same counts across every advertiser in the
// zone cohort. OK+Pot+Ver always equals Total.
type ZoneTotals struct {
	OK    int `json:"ok"`
	Pot   int `json:"pot"`
	Ver   int `json:"ver"`
	Total int `json:"total"`
}

// ZoneReport is the zone classifier output: the selectable zone list
// (Italian collation order), the zone actually applied, zone-wide totals
// and the advertiser table sorted by total descending.
type ZoneReport struct {
	AgencyID uuid.UUID  `json:"agency_id"`
	Zones    []string   `json:"zones"`
	Zone     string     `json:"zone"`
	Totals   ZoneTotals `json:"totals"`
	Rows     []ZoneRow  `json:"rows"`
}
