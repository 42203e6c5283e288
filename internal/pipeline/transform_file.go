package pipeline

import (
	"github.com/dongnemap/facility-sync/internal/domain"
)

// Transformers for the file-delivered categories. Column names follow the
// national standard-data layouts (전국…표준데이터); aliases cover the header
// drift seen across municipal exports.

var (
	latKeys = []string{"위도", "WGS84위도", "lat"}
	lngKeys = []string{"경도", "WGS84경도", "lng", "lon"}

	roadAddrKeys = []string{"소재지도로명주소", "도로명주소", "addr"}
	lotAddrKeys  = []string{"소재지지번주소", "지번주소", "소재지주소"}
)

type libraryTransformer struct{ base }

func (libraryTransformer) Category() domain.Category { return domain.CategoryLibrary }

func (t libraryTransformer) Transform(row domain.RawRow) (*domain.Facility, error) {
	name := row.Get("도서관명", "시설명", "name")
	if name == "" {
		return nil, rejectf("missing library name")
	}

	road := row.Get(roadAddrKeys...)
	addr := row.Get(lotAddrKeys...)
	if road == "" && addr == "" {
		return nil, rejectf("missing address for %q", name)
	}

	coord, err := requiredCoord(row, latKeys, lngKeys)
	if err != nil {
		return nil, err
	}

	sourceID := domain.DeriveSourceID(row.Get("관리번호"),
		row.Get("시도명"), row.Get("시군구명"), name, domain.CoordKey(coord))

	return t.assemble(domain.CategoryLibrary, name, addr, road, coord, sourceID, domain.LibraryDetails{
		Phone:      row.Get("전화번호", "운영기관전화번호"),
		Homepage:   row.Get("홈페이지주소", "홈페이지"),
		ClosedDays: row.Get("휴관일", "휴무일"),
		Hours:      row.Get("평일운영시간", "운영시간"),
		SeatCount:  parseIntOrZero(row.Get("열람좌석수")),
	}), nil
}

// parkTransformer accepts rows without coordinates: city park exports are
// the worst offender for missing points, so the pipeline geocodes the
// address afterwards instead of rejecting.
type parkTransformer struct{ base }

func (parkTransformer) Category() domain.Category { return domain.CategoryPark }

func (t parkTransformer) Transform(row domain.RawRow) (*domain.Facility, error) {
	name := row.Get("공원명", "name")
	if name == "" {
		return nil, rejectf("missing park name")
	}

	road := row.Get(roadAddrKeys...)
	addr := row.Get(lotAddrKeys...)
	if road == "" && addr == "" {
		return nil, rejectf("missing address for %q", name)
	}

	coord := optionalCoord(row, latKeys, lngKeys)

	sourceID := domain.DeriveSourceID(row.Get("공원관리번호", "관리번호"),
		row.Get("시도명"), row.Get("시군구명"), name, domain.CoordKey(coord))

	return t.assemble(domain.CategoryPark, name, addr, road, coord, sourceID, domain.ParkDetails{
		ParkType:   row.Get("공원구분"),
		Area:       parseFloatOrZero(row.Get("공원면적")),
		Facilities: row.Get("공원보유시설(운동시설)", "공원보유시설"),
		Phone:      row.Get("전화번호"),
	}), nil
}

type toiletTransformer struct{ base }

func (toiletTransformer) Category() domain.Category { return domain.CategoryToilet }

func (t toiletTransformer) Transform(row domain.RawRow) (*domain.Facility, error) {
	name := row.Get("화장실명", "name")
	if name == "" {
		return nil, rejectf("missing toilet name")
	}

	road := row.Get(roadAddrKeys...)
	addr := row.Get(lotAddrKeys...)
	if road == "" && addr == "" {
		return nil, rejectf("missing address for %q", name)
	}

	coord, err := requiredCoord(row, latKeys, lngKeys)
	if err != nil {
		return nil, err
	}

	sourceID := domain.DeriveSourceID(row.Get("관리번호"),
		row.Get("시도명"), row.Get("시군구명"), name, domain.CoordKey(coord))

	return t.assemble(domain.CategoryToilet, name, addr, road, coord, sourceID, domain.ToiletDetails{
		OpenHours: row.Get("개방시간"),
		Unisex:    yn(row.Get("남녀공용화장실여부")),
		Diaper:    row.Get("기저귀교환대장소") != "",
	}), nil
}

type wifiTransformer struct{ base }

func (wifiTransformer) Category() domain.Category { return domain.CategoryWifi }

func (t wifiTransformer) Transform(row domain.RawRow) (*domain.Facility, error) {
	name := row.Get("설치장소명", "장소명", "name")
	if name == "" {
		return nil, rejectf("missing install place name")
	}

	road := row.Get(roadAddrKeys...)
	addr := row.Get(lotAddrKeys...)
	if road == "" && addr == "" {
		return nil, rejectf("missing address for %q", name)
	}

	coord, err := requiredCoord(row, latKeys, lngKeys)
	if err != nil {
		return nil, err
	}

	sourceID := domain.DeriveSourceID(row.Get("관리번호"),
		row.Get("설치시도명", "시도명"), row.Get("설치시군구명", "시군구명"), name, domain.CoordKey(coord))

	return t.assemble(domain.CategoryWifi, name, addr, road, coord, sourceID, domain.WifiDetails{
		Provider:     row.Get("서비스제공사명"),
		InstallPlace: row.Get("설치장소상세"),
		ServiceName:  row.Get("와이파이SSID", "서비스명"),
	}), nil
}

type shelterTransformer struct{ base }

func (shelterTransformer) Category() domain.Category { return domain.CategoryShelter }

func (t shelterTransformer) Transform(row domain.RawRow) (*domain.Facility, error) {
	name := row.Get("대피소명", "시설명", "name")
	if name == "" {
		return nil, rejectf("missing shelter name")
	}

	road := row.Get(roadAddrKeys...)
	addr := row.Get(lotAddrKeys...)
	if road == "" && addr == "" {
		return nil, rejectf("missing address for %q", name)
	}

	coord, err := requiredCoord(row, latKeys, lngKeys)
	if err != nil {
		return nil, err
	}

	sourceID := domain.DeriveSourceID(row.Get("관리번호"),
		row.Get("시도명"), row.Get("시군구명"), name, domain.CoordKey(coord))

	return t.assemble(domain.CategoryShelter, name, addr, road, coord, sourceID, domain.ShelterDetails{
		ShelterType: row.Get("대피소유형", "시설구분"),
		Capacity:    parseIntOrZero(row.Get("수용가능인원", "최대수용인원")),
		Area:        parseFloatOrZero(row.Get("시설면적")),
	}), nil
}
