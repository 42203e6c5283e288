package domain

// Category identifies one kind of public facility. The set is closed:
// every category has exactly one row transformer and one Details variant.
type Category string

const (
	CategoryLibrary  Category = "library"
	CategoryPark     Category = "park"
	CategoryToilet   Category = "toilet"
	CategoryWifi     Category = "wifi"
	CategoryShelter  Category = "shelter"
	CategoryPharmacy Category = "pharmacy"
	CategoryHospital Category = "hospital"
	CategoryParking  Category = "parking"
	CategoryMarket   Category = "market"
	CategoryEvent    Category = "event"
)

// AllCategories lists every known category in default execution order.
func AllCategories() []Category {
	return []Category{
		CategoryLibrary,
		CategoryPark,
		CategoryToilet,
		CategoryWifi,
		CategoryShelter,
		CategoryPharmacy,
		CategoryHospital,
		CategoryParking,
		CategoryMarket,
		CategoryEvent,
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryLibrary, CategoryPark, CategoryToilet, CategoryWifi,
		CategoryShelter, CategoryPharmacy, CategoryHospital,
		CategoryParking, CategoryMarket, CategoryEvent:
		return true
	}
	return false
}

// NeedsGeocoding reports whether transforming this category may call the
// geocoder. The orchestrator runs these categories last so that earlier
// categories do not exhaust the shared geocoding rate budget.
func (c Category) NeedsGeocoding() bool {
	return c == CategoryPark || c == CategoryMarket
}
