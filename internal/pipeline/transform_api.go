package pipeline

import (
	"github.com/dongnemap/facility-sync/internal/domain"
)

// Transformers for the API-delivered categories. Field names follow each
// dataset's documented response schema.

type pharmacyTransformer struct{ base }

func (pharmacyTransformer) Category() domain.Category { return domain.CategoryPharmacy }

func (t pharmacyTransformer) Transform(row domain.RawRow) (*domain.Facility, error) {
	name := row.Get("dutyName")
	if name == "" {
		return nil, rejectf("missing pharmacy name")
	}

	addr := row.Get("dutyAddr")
	if addr == "" {
		return nil, rejectf("missing address for %q", name)
	}

	coord, err := requiredCoord(row, []string{"wgs84Lat"}, []string{"wgs84Lon"})
	if err != nil {
		return nil, err
	}

	sourceID := domain.DeriveSourceID(row.Get("hpid"), addr, name, domain.CoordKey(coord))

	return t.assemble(domain.CategoryPharmacy, name, addr, "", coord, sourceID, domain.PharmacyDetails{
		Phone:        row.Get("dutyTel1"),
		WeekdayHours: row.Get("dutyTime1s") + "-" + row.Get("dutyTime1c"),
		WeekendHours: row.Get("dutyTime7s") + "-" + row.Get("dutyTime7c"),
	}), nil
}

type hospitalTransformer struct{ base }

func (hospitalTransformer) Category() domain.Category { return domain.CategoryHospital }

func (t hospitalTransformer) Transform(row domain.RawRow) (*domain.Facility, error) {
	name := row.Get("dutyName")
	if name == "" {
		return nil, rejectf("missing hospital name")
	}

	addr := row.Get("dutyAddr")
	if addr == "" {
		return nil, rejectf("missing address for %q", name)
	}

	coord, err := requiredCoord(row, []string{"wgs84Lat"}, []string{"wgs84Lon"})
	if err != nil {
		return nil, err
	}

	sourceID := domain.DeriveSourceID(row.Get("hpid"), addr, name, domain.CoordKey(coord))

	return t.assemble(domain.CategoryHospital, name, addr, "", coord, sourceID, domain.HospitalDetails{
		Phone:     row.Get("dutyTel1"),
		Kind:      row.Get("dutyDivNam"),
		Emergency: row.Get("dutyEryn") == "1",
	}), nil
}

type parkingTransformer struct{ base }

func (parkingTransformer) Category() domain.Category { return domain.CategoryParking }

func (t parkingTransformer) Transform(row domain.RawRow) (*domain.Facility, error) {
	name := row.Get("prkplceNm")
	if name == "" {
		return nil, rejectf("missing parking lot name")
	}

	road := row.Get("rdnmadr")
	addr := row.Get("lnmadr")
	if road == "" && addr == "" {
		return nil, rejectf("missing address for %q", name)
	}

	coord, err := requiredCoord(row, []string{"latitude"}, []string{"longitude"})
	if err != nil {
		return nil, err
	}

	sourceID := domain.DeriveSourceID(row.Get("prkplceNo"), addr, road, name, domain.CoordKey(coord))

	return t.assemble(domain.CategoryParking, name, addr, road, coord, sourceID, domain.ParkingDetails{
		Capacity:  parseIntOrZero(row.Get("prkcmprt")),
		FeeInfo:   row.Get("parkingchrgeInfo"),
		OpenHours: row.Get("operTime"),
	}), nil
}

// marketTransformer covers a dataset with no coordinate fields at all:
// every record goes through the address geocoder.
type marketTransformer struct{ base }

func (marketTransformer) Category() domain.Category { return domain.CategoryMarket }

func (t marketTransformer) Transform(row domain.RawRow) (*domain.Facility, error) {
	name := row.Get("mrktNm")
	if name == "" {
		return nil, rejectf("missing market name")
	}

	road := row.Get("rdnmadr")
	addr := row.Get("lnmadr")
	if road == "" && addr == "" {
		return nil, rejectf("missing address for %q", name)
	}

	sourceID := domain.DeriveSourceID(row.Get("mrktCd"), addr, road, name)

	return t.assemble(domain.CategoryMarket, name, addr, road, nil, sourceID, domain.MarketDetails{
		MarketType: row.Get("mrktType"),
		OpenDays:   row.Get("mrktDntcSe", "opnDe"),
		Items:      row.Get("prmisnPrdlst"),
	}), nil
}

// eventTransformer is the schedule-only category: no physical point exists
// in the source, so coordinates are omitted from the record entirely and
// city/district stay empty unless a venue address happens to be present.
type eventTransformer struct{ base }

func (eventTransformer) Category() domain.Category { return domain.CategoryEvent }

func (t eventTransformer) Transform(row domain.RawRow) (*domain.Facility, error) {
	name := row.Get("eventNm", "title")
	if name == "" {
		return nil, rejectf("missing event name")
	}

	venue := row.Get("opar", "eventPlace")
	start := row.Get("eventStartDate")

	sourceID := domain.DeriveSourceID(row.Get("eventNo"), name, venue, start)

	rec := t.assemble(domain.CategoryEvent, name, "", "", nil, sourceID, domain.EventDetails{
		Venue:     venue,
		StartDate: start,
		EndDate:   row.Get("eventEndDate"),
		Fee:       row.Get("chrgeInfo"),
		Organizer: row.Get("mnnstNm"),
	})
	// Venue strings are place names, not addresses; region derivation from
	// them is meaningless noise.
	rec.City, rec.District = "", ""
	return rec, nil
}
