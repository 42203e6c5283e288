package pipeline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dongnemap/facility-sync/internal/domain"
)

// ErrRowRejected marks a single-row validation failure. Rejected rows are
// skipped and counted; the run continues.
var ErrRowRejected = errors.New("row rejected")

func rejectf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRowRejected, fmt.Sprintf(format, args...))
}

// Transformer maps one raw source row into a canonical facility record.
// A nil record with an ErrRowRejected-wrapped error means the row failed
// validation and should be skipped.
type Transformer interface {
	Category() domain.Category
	Transform(row domain.RawRow) (*domain.Facility, error)
}

// NewTransformer returns the transformer variant for a category.
func NewTransformer(category domain.Category, regions domain.RegionTable, sourceURL string) (Transformer, error) {
	b := base{regions: regions, sourceURL: sourceURL}
	switch category {
	case domain.CategoryLibrary:
		return libraryTransformer{b}, nil
	case domain.CategoryPark:
		return parkTransformer{b}, nil
	case domain.CategoryToilet:
		return toiletTransformer{b}, nil
	case domain.CategoryWifi:
		return wifiTransformer{b}, nil
	case domain.CategoryShelter:
		return shelterTransformer{b}, nil
	case domain.CategoryPharmacy:
		return pharmacyTransformer{b}, nil
	case domain.CategoryHospital:
		return hospitalTransformer{b}, nil
	case domain.CategoryParking:
		return parkingTransformer{b}, nil
	case domain.CategoryMarket:
		return marketTransformer{b}, nil
	case domain.CategoryEvent:
		return eventTransformer{b}, nil
	}
	return nil, fmt.Errorf("no transformer for category %q", category)
}

// base carries the immutable static data shared by every transformer
// variant: the region canonicalization table and the provenance URL of the
// dataset being synced.
type base struct {
	regions   domain.RegionTable
	sourceURL string
}

// assemble builds the canonical record from validated parts. City and
// district derive from the preferred address form: lot-number first, then
// road-name.
func (b base) assemble(cat domain.Category, name, addr, road string, coord *domain.Coord, sourceID string, details domain.Details) *domain.Facility {
	preferred := addr
	if preferred == "" {
		preferred = road
	}
	city, district := b.regions.SplitAddress(preferred)

	return &domain.Facility{
		ID:          domain.FacilityID(cat, sourceID),
		Category:    cat,
		Name:        name,
		Address:     addr,
		RoadAddress: road,
		Coord:       coord,
		City:        city,
		District:    district,
		SourceID:    sourceID,
		SourceURL:   b.sourceURL,
		Details:     details,
	}
}

// requiredCoord parses a coordinate pair the category treats as mandatory:
// unparsable, (0,0), or out-of-range values reject the row.
func requiredCoord(row domain.RawRow, latKeys, lngKeys []string) (*domain.Coord, error) {
	lat := row.Get(latKeys...)
	lng := row.Get(lngKeys...)
	coord := domain.ParseCoord(lat, lng)
	if coord == nil {
		return nil, rejectf("invalid coordinates %q,%q", lat, lng)
	}
	return coord, nil
}

// optionalCoord parses a coordinate pair for categories where a missing or
// bogus pair degrades to nil instead of rejecting the row; the pipeline
// geocodes it or stores null later.
func optionalCoord(row domain.RawRow, latKeys, lngKeys []string) *domain.Coord {
	return domain.ParseCoord(row.Get(latKeys...), row.Get(lngKeys...))
}

func parseIntOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// yn interprets the portals' assorted boolean spellings.
func yn(s string) bool {
	switch strings.TrimSpace(strings.ToUpper(s)) {
	case "Y", "YES", "1", "TRUE", "유", "있음":
		return true
	}
	return false
}
