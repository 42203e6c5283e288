package pipeline_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dongnemap/facility-sync/internal/domain"
	"github.com/dongnemap/facility-sync/internal/pipeline"
)

const testSourceURL = "https://www.data.go.kr/data/test"

func newTransformer(t *testing.T, cat domain.Category) pipeline.Transformer {
	t.Helper()
	tf, err := pipeline.NewTransformer(cat, domain.DefaultRegionTable(), testSourceURL)
	require.NoError(t, err)
	return tf
}

func TestNewTransformer_AllCategories(t *testing.T) {
	for _, cat := range domain.AllCategories() {
		tf, err := pipeline.NewTransformer(cat, domain.DefaultRegionTable(), testSourceURL)
		require.NoError(t, err, cat)
		assert.Equal(t, cat, tf.Category())
	}

	_, err := pipeline.NewTransformer("arcade", domain.DefaultRegionTable(), testSourceURL)
	require.Error(t, err)
}

func TestLibraryTransform(t *testing.T) {
	tf := newTransformer(t, domain.CategoryLibrary)

	rec, err := tf.Transform(domain.RawRow{
		"도서관명":    "강남구립못골도서관",
		"관리번호":    "LIB-11680-001",
		"시도명":     "서울특별시",
		"시군구명":    "강남구",
		"소재지지번주소": "서울특별시 강남구 자곡동 123",
		"소재지도로명주소": "서울특별시 강남구 자곡로 116",
		"위도":      "37.4731",
		"경도":      "127.1028",
		"전화번호":    "02-459-0411",
		"열람좌석수":   "250",
		"휴관일":     "매주 월요일",
	})
	require.NoError(t, err)

	want := &domain.Facility{
		ID:          domain.FacilityID(domain.CategoryLibrary, "LIB-11680-001"),
		Category:    domain.CategoryLibrary,
		Name:        "강남구립못골도서관",
		Address:     "서울특별시 강남구 자곡동 123",
		RoadAddress: "서울특별시 강남구 자곡로 116",
		Coord:       &domain.Coord{Lat: 37.4731, Lng: 127.1028},
		City:        "서울",
		District:    "강남구",
		SourceID:    "LIB-11680-001",
		SourceURL:   testSourceURL,
		Details: domain.LibraryDetails{
			Phone:      "02-459-0411",
			ClosedDays: "매주 월요일",
			SeatCount:  250,
		},
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestLibraryTransform_Rejections(t *testing.T) {
	tf := newTransformer(t, domain.CategoryLibrary)

	tests := []struct {
		name string
		row  domain.RawRow
	}{
		{"missing name", domain.RawRow{
			"소재지도로명주소": "서울특별시 강남구 자곡로 116",
			"위도": "37.47", "경도": "127.10",
		}},
		{"missing address", domain.RawRow{
			"도서관명": "구립도서관",
			"위도":   "37.47", "경도": "127.10",
		}},
		{"unparsable coordinates", domain.RawRow{
			"도서관명": "구립도서관", "소재지지번주소": "서울특별시 강남구 자곡동 123",
			"위도": "없음", "경도": "127.10",
		}},
		{"zero coordinates", domain.RawRow{
			"도서관명": "구립도서관", "소재지지번주소": "서울특별시 강남구 자곡동 123",
			"위도": "0", "경도": "0",
		}},
		{"out of bounding box", domain.RawRow{
			"도서관명": "구립도서관", "소재지지번주소": "서울특별시 강남구 자곡동 123",
			"위도": "35.6762", "경도": "139.6503", // Tokyo
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := tf.Transform(tt.row)
			require.ErrorIs(t, err, pipeline.ErrRowRejected)
			assert.Nil(t, rec)
		})
	}
}

func TestParkTransform_MissingCoordinatesAccepted(t *testing.T) {
	tf := newTransformer(t, domain.CategoryPark)

	rec, err := tf.Transform(domain.RawRow{
		"공원명":     "율현공원",
		"공원관리번호":  "PARK-2201",
		"소재지지번주소": "서울특별시 강남구 율현동 112",
		"공원구분":    "근린공원",
		"공원면적":    "10350.5",
	})
	require.NoError(t, err)
	assert.Nil(t, rec.Coord, "parks without coordinates are geocoded later, not rejected")
	assert.Equal(t, "PARK-2201", rec.SourceID)
	assert.Equal(t, domain.ParkDetails{ParkType: "근린공원", Area: 10350.5}, rec.Details)
}

func TestParkTransform_KeepsValidSourceCoordinates(t *testing.T) {
	tf := newTransformer(t, domain.CategoryPark)

	rec, err := tf.Transform(domain.RawRow{
		"공원명":     "늘벗공원",
		"소재지지번주소": "서울특별시 강남구 일원동 690",
		"위도":      "37.4821",
		"경도":      "127.0832",
	})
	require.NoError(t, err)
	require.NotNil(t, rec.Coord)
	assert.InDelta(t, 37.4821, rec.Coord.Lat, 1e-9)
}

func TestDerivedSourceIDIsStable(t *testing.T) {
	tf := newTransformer(t, domain.CategoryToilet)

	row := domain.RawRow{
		"화장실명":    "역삼역 공중화장실",
		"시도명":     "서울특별시",
		"시군구명":    "강남구",
		"소재지도로명주소": "서울특별시 강남구 테헤란로 지하 156",
		"위도":      "37.5006",
		"경도":      "127.0364",
	}
	first, err := tf.Transform(row)
	require.NoError(t, err)
	second, err := tf.Transform(row)
	require.NoError(t, err)

	assert.Equal(t, first.SourceID, second.SourceID)
	assert.Equal(t, first.ID, second.ID)
}

func TestPharmacyTransform(t *testing.T) {
	tf := newTransformer(t, domain.CategoryPharmacy)

	rec, err := tf.Transform(domain.RawRow{
		"dutyName":   "온누리약국",
		"dutyAddr":   "서울특별시 강남구 테헤란로 101",
		"hpid":       "C1100527",
		"wgs84Lat":   "37.4997",
		"wgs84Lon":   "127.0324",
		"dutyTel1":   "02-567-1234",
		"dutyTime1s": "0900",
		"dutyTime1c": "1900",
	})
	require.NoError(t, err)

	assert.Equal(t, "C1100527", rec.SourceID)
	assert.Equal(t, "서울", rec.City)
	assert.Equal(t, "강남구", rec.District)
	assert.Equal(t, domain.PharmacyDetails{
		Phone:        "02-567-1234",
		WeekdayHours: "0900-1900",
		WeekendHours: "-",
	}, rec.Details)
}

func TestHospitalTransform_RequiresCoordinates(t *testing.T) {
	tf := newTransformer(t, domain.CategoryHospital)

	_, err := tf.Transform(domain.RawRow{
		"dutyName": "강남성모의원",
		"dutyAddr": "서울특별시 서초구 반포대로 222",
	})
	require.ErrorIs(t, err, pipeline.ErrRowRejected)
}

func TestMarketTransform_AlwaysGeocoded(t *testing.T) {
	tf := newTransformer(t, domain.CategoryMarket)

	rec, err := tf.Transform(domain.RawRow{
		"mrktNm":  "영동전통시장",
		"mrktCd":  "MK-1168",
		"lnmadr":  "서울특별시 강남구 논현동 155",
		"mrktType": "상설시장",
	})
	require.NoError(t, err)
	assert.Nil(t, rec.Coord, "market datasets carry no coordinate fields")
	assert.Equal(t, "MK-1168", rec.SourceID)
	assert.Equal(t, "강남구", rec.District)
}

func TestEventTransform_ScheduleOnly(t *testing.T) {
	tf := newTransformer(t, domain.CategoryEvent)

	rec, err := tf.Transform(domain.RawRow{
		"title":          "서울 거리예술축제",
		"eventNo":        "EVT-2026-101",
		"opar":           "서울광장",
		"eventStartDate": "2026-10-01",
		"eventEndDate":   "2026-10-03",
		"chrgeInfo":      "무료",
	})
	require.NoError(t, err)

	assert.Nil(t, rec.Coord)
	assert.Empty(t, rec.City)
	assert.Empty(t, rec.District)
	assert.Equal(t, domain.EventDetails{
		Venue:     "서울광장",
		StartDate: "2026-10-01",
		EndDate:   "2026-10-03",
		Fee:       "무료",
	}, rec.Details)
}

func TestEventTransform_DerivedIDFromSchedule(t *testing.T) {
	tf := newTransformer(t, domain.CategoryEvent)

	spring, err := tf.Transform(domain.RawRow{
		"title": "한강 불꽃축제", "opar": "여의도한강공원", "eventStartDate": "2026-05-01",
	})
	require.NoError(t, err)
	autumn, err := tf.Transform(domain.RawRow{
		"title": "한강 불꽃축제", "opar": "여의도한강공원", "eventStartDate": "2026-10-01",
	})
	require.NoError(t, err)

	assert.NotEqual(t, spring.SourceID, autumn.SourceID,
		"same event name on a different date is a distinct record")
}

func TestWifiTransform_HeaderAliases(t *testing.T) {
	tf := newTransformer(t, domain.CategoryWifi)

	rec, err := tf.Transform(domain.RawRow{
		"장소명":     "구청 민원실",
		"도로명주소":   "서울특별시 강남구 학동로 426",
		"WGS84위도": "37.5172",
		"WGS84경도": "127.0473",
		"서비스제공사명": "KT",
	})
	require.NoError(t, err)
	assert.Equal(t, "구청 민원실", rec.Name)
	require.NotNil(t, rec.Coord)
	assert.Equal(t, domain.WifiDetails{Provider: "KT"}, rec.Details)
}
