package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// RawRow is one source row keyed by header name, produced by the delimited
// parser or the paginated fetcher. It is consumed exactly once by a row
// transformer.
type RawRow map[string]string

// Get returns the trimmed value for the first key that is present and
// non-empty. Source headers drift between dataset revisions, so callers
// list known aliases.
func (r RawRow) Get(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r[k]); v != "" {
			return v
		}
	}
	return ""
}

// Korean national bounding box. Anything outside is treated as a bogus
// coordinate, not a real location.
const (
	LatMin = 33.0
	LatMax = 39.0
	LngMin = 124.5
	LngMax = 132.0
)

// Coord is a validated WGS-84 coordinate pair. A nil *Coord means the
// location is unknown; a half-populated pair never exists.
type Coord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// InBounds reports whether the pair falls inside the national bounding box.
func (c Coord) InBounds() bool {
	return c.Lat >= LatMin && c.Lat <= LatMax && c.Lng >= LngMin && c.Lng <= LngMax
}

// ParseCoord parses a lat/lng string pair into a validated coordinate.
// Returns nil for unparsable values, NaN, a literal (0,0) pair, or anything
// outside the national bounding box. (0,0) is a common "unknown" sentinel
// in source data and must never be stored as a real location.
func ParseCoord(latStr, lngStr string) *Coord {
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if errLat != nil || errLng != nil {
		return nil
	}
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return nil
	}
	if lat == 0 && lng == 0 {
		return nil
	}
	c := Coord{Lat: lat, Lng: lng}
	if !c.InBounds() {
		return nil
	}
	return &c
}

// Facility is the canonical, storage-ready representation of one facility,
// independent of its source format.
type Facility struct {
	ID          string    `json:"id"`
	Category    Category  `json:"category"`
	Name        string    `json:"name"`
	Address     string    `json:"address,omitempty"`
	RoadAddress string    `json:"road_address,omitempty"`
	Coord       *Coord    `json:"coord,omitempty"`
	City        string    `json:"city,omitempty"`
	District    string    `json:"district,omitempty"`
	SourceID    string    `json:"source_id"`
	SourceURL   string    `json:"source_url,omitempty"`
	Details     Details   `json:"details,omitempty"`
	SyncedAt    time.Time `json:"synced_at"`
}

// FacilityID derives the stable record ID from category and source
// identifier. Deterministic so that re-syncing the same source row always
// updates the same stored record.
func FacilityID(category Category, sourceID string) string {
	sum := sha256.Sum256([]byte(string(category) + "|" + sourceID))
	return string(category) + "-" + hex.EncodeToString(sum[:8])
}

// DeriveSourceID returns the provider-supplied management number when
// present, otherwise a fixed-length digest of the given stable fields.
// The digest is deterministic across runs on identical input.
func DeriveSourceID(managementNo string, fields ...string) string {
	if m := strings.TrimSpace(managementNo); m != "" {
		return m
	}
	sum := sha256.Sum256([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:8])
}

// CoordKey formats a coordinate for use as a source-id digest field.
// nil formats as an empty string so records without coordinates still hash
// deterministically.
func CoordKey(c *Coord) string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}
