package models

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// Listing is a scraped property ad. Raw carries the source's
// semi-structured attribute bag; the only path the monitor reads from it
// is analytics.macrozone, which may be absent.
type Listing struct {
	ID       uuid.UUID       `json:"id" db:"id"`
	Title    string          `json:"title" db:"title"`
	City     string          `json:"city" db:"city"`
	Province string          `json:"province" db:"province"`
	Price    *float64        `json:"price" db:"price"`
	URL      string          `json:"url" db:"url"`
	Raw      json.RawMessage `json:"raw" db:"raw"`
}

type rawAttrs struct {
	Analytics struct {
		Macrozone string `json:"macrozone"`
	} `json:"analytics"`
	Advertiser string `json:"advertiser"`
}

// Macrozone returns the trimmed analytics.macrozone value from the raw
// bag, or "" when the path is absent or unparseable.
func (l *Listing) Macrozone() string {
	var attrs rawAttrs
	if len(l.Raw) == 0 || json.Unmarshal(l.Raw, &attrs) != nil {
		return ""
	}
	return strings.TrimSpace(attrs.Analytics.Macrozone)
}

// Advertiser returns the raw advertiser label if the source provided
// one, or "" when no label is derivable.
func (l *Listing) Advertiser() string {
	var attrs rawAttrs
	if len(l.Raw) == 0 || json.Unmarshal(l.Raw, &attrs) != nil {
		return ""
	}
	return strings.TrimSpace(attrs.Advertiser)
}

// ListingAssignment records agent ownership of a listing within an
// agency. Absence of a row means unassigned.
type ListingAssignment struct {
	AgencyID    uuid.UUID `json:"agency_id" db:"agency_id"`
	ListingID   uuid.UUID `json:"listing_id" db:"listing_id"`
	AgentUserID uuid.UUID `json:"agent_user_id" db:"agent_user_id"`
}
