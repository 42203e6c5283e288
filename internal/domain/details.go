package domain

import (
	"encoding/json"
	"fmt"
)

// Details is the category-specific attribute payload of a facility.
// The variant set is closed: each category constructs only its own variant,
// and the store serializes whichever variant it receives as an opaque JSON
// blob. The unexported method keeps the set closed to this package.
type Details interface {
	detailsCategory() Category
}

type LibraryDetails struct {
	Phone      string `json:"phone,omitempty"`
	Homepage   string `json:"homepage,omitempty"`
	ClosedDays string `json:"closed_days,omitempty"`
	Hours      string `json:"hours,omitempty"`
	SeatCount  int    `json:"seat_count,omitempty"`
}

type ParkDetails struct {
	ParkType   string  `json:"park_type,omitempty"`
	Area       float64 `json:"area,omitempty"` // square meters
	Facilities string  `json:"facilities,omitempty"`
	Phone      string  `json:"phone,omitempty"`
}

type ToiletDetails struct {
	OpenHours string `json:"open_hours,omitempty"`
	Unisex    bool   `json:"unisex,omitempty"`
	Diaper    bool   `json:"diaper,omitempty"` // diaper-changing table available
}

type WifiDetails struct {
	Provider     string `json:"provider,omitempty"`
	InstallPlace string `json:"install_place,omitempty"`
	ServiceName  string `json:"service_name,omitempty"`
}

type ShelterDetails struct {
	ShelterType string `json:"shelter_type,omitempty"`
	Capacity    int    `json:"capacity,omitempty"`
	Area        float64 `json:"area,omitempty"`
}

type PharmacyDetails struct {
	Phone        string `json:"phone,omitempty"`
	WeekdayHours string `json:"weekday_hours,omitempty"`
	WeekendHours string `json:"weekend_hours,omitempty"`
}

type HospitalDetails struct {
	Phone     string `json:"phone,omitempty"`
	Kind      string `json:"kind,omitempty"` // clinic, general hospital, ...
	Emergency bool   `json:"emergency,omitempty"`
}

type ParkingDetails struct {
	Capacity  int    `json:"capacity,omitempty"`
	FeeInfo   string `json:"fee_info,omitempty"`
	OpenHours string `json:"open_hours,omitempty"`
}

type MarketDetails struct {
	MarketType string `json:"market_type,omitempty"`
	OpenDays   string `json:"open_days,omitempty"`
	Items      string `json:"items,omitempty"`
}

// EventDetails describes a scheduled cultural event. Events are the one
// schedule-only category: no physical point, so the owning record carries
// null coordinates.
type EventDetails struct {
	Venue     string `json:"venue,omitempty"`
	StartDate string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   string `json:"end_date,omitempty"`
	Fee       string `json:"fee,omitempty"`
	Organizer string `json:"organizer,omitempty"`
}

func (LibraryDetails) detailsCategory() Category  { return CategoryLibrary }
func (ParkDetails) detailsCategory() Category     { return CategoryPark }
func (ToiletDetails) detailsCategory() Category   { return CategoryToilet }
func (WifiDetails) detailsCategory() Category     { return CategoryWifi }
func (ShelterDetails) detailsCategory() Category  { return CategoryShelter }
func (PharmacyDetails) detailsCategory() Category { return CategoryPharmacy }
func (HospitalDetails) detailsCategory() Category { return CategoryHospital }
func (ParkingDetails) detailsCategory() Category  { return CategoryParking }
func (MarketDetails) detailsCategory() Category   { return CategoryMarket }
func (EventDetails) detailsCategory() Category    { return CategoryEvent }

// EncodeDetails serializes a details variant to JSON. A nil variant encodes
// as empty bytes.
func EncodeDetails(d Details) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

// DecodeDetails deserializes a details blob into the variant for the given
// category. The category column stored alongside the blob selects the type,
// so the store never needs to know individual field sets.
func DecodeDetails(category Category, data []byte) (Details, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var d Details
	switch category {
	case CategoryLibrary:
		d = &LibraryDetails{}
	case CategoryPark:
		d = &ParkDetails{}
	case CategoryToilet:
		d = &ToiletDetails{}
	case CategoryWifi:
		d = &WifiDetails{}
	case CategoryShelter:
		d = &ShelterDetails{}
	case CategoryPharmacy:
		d = &PharmacyDetails{}
	case CategoryHospital:
		d = &HospitalDetails{}
	case CategoryParking:
		d = &ParkingDetails{}
	case CategoryMarket:
		d = &MarketDetails{}
	case CategoryEvent:
		d = &EventDetails{}
	default:
		return nil, fmt.Errorf("decode details: unknown category %q", category)
	}

	if err := json.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("decode details for %s: %w", category, err)
	}
	return deref(d), nil
}

// deref unwraps the pointer allocated for unmarshaling so callers compare
// details by value, matching what transformers construct.
func deref(d Details) Details {
	switch v := d.(type) {
	case *LibraryDetails:
		return *v
	case *ParkDetails:
		return *v
	case *ToiletDetails:
		return *v
	case *WifiDetails:
		return *v
	case *ShelterDetails:
		return *v
	case *PharmacyDetails:
		return *v
	case *HospitalDetails:
		return *v
	case *ParkingDetails:
		return *v
	case *MarketDetails:
		return *v
	case *EventDetails:
		return *v
	}
	return d
}
