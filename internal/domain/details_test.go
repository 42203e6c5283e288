package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetailsRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		details  Details
	}{
		{"library", CategoryLibrary, LibraryDetails{Phone: "02-123-4567", ClosedDays: "월요일", SeatCount: 120}},
		{"park with area", CategoryPark, ParkDetails{ParkType: "근린공원", Area: 15400.5}},
		{"toilet flags", CategoryToilet, ToiletDetails{OpenHours: "24시간", Unisex: true}},
		{"event schedule", CategoryEvent, EventDetails{Venue: "세종문화회관", StartDate: "2026-03-01", EndDate: "2026-03-15"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, err := EncodeDetails(tt.details)
			require.NoError(t, err)

			decoded, err := DecodeDetails(tt.category, blob)
			require.NoError(t, err)
			assert.Equal(t, tt.details, decoded)
		})
	}
}

func TestDecodeDetails_Empty(t *testing.T) {
	d, err := DecodeDetails(CategoryLibrary, nil)
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestDecodeDetails_UnknownCategory(t *testing.T) {
	_, err := DecodeDetails(Category("aquarium"), []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}

func TestEncodeDetails_Nil(t *testing.T) {
	blob, err := EncodeDetails(nil)
	require.NoError(t, err)
	assert.Nil(t, blob)
}
