package domain

import "strings"

// RegionTable maps verbose official region names to their short display
// forms. It is immutable static data handed to transformers at construction
// time rather than read from a package-level global, so tests can substitute
// a reduced table.
type RegionTable map[string]string

// DefaultRegionTable covers the 17 first-level administrative divisions,
// including the renamed special self-governing provinces (강원, 전북 appear
// in source data under both their old and new official names).
func DefaultRegionTable() RegionTable {
	return RegionTable{
		"서울특별시":    "서울",
		"부산광역시":    "부산",
		"대구광역시":    "대구",
		"인천광역시":    "인천",
		"광주광역시":    "광주",
		"대전광역시":    "대전",
		"울산광역시":    "울산",
		"세종특별자치시":  "세종",
		"경기도":      "경기",
		"강원특별자치도":  "강원",
		"강원도":      "강원",
		"충청북도":     "충북",
		"충청남도":     "충남",
		"전북특별자치도":  "전북",
		"전라북도":     "전북",
		"전라남도":     "전남",
		"경상북도":     "경북",
		"경상남도":     "경남",
		"제주특별자치도":  "제주",
		"제주도":      "제주",
	}
}

// Canonical returns the short form for a region name, or the name unchanged
// when no mapping exists. Already-short names pass through.
func (t RegionTable) Canonical(region string) string {
	region = strings.TrimSpace(region)
	if short, ok := t[region]; ok {
		return short
	}
	return region
}

// SplitAddress derives (city, district) from a free-text Korean address.
// The first two whitespace-delimited tokens are the region and sub-region;
// the region is canonicalized to its short form. Missing tokens yield empty
// strings rather than an error because several categories treat region data
// as optional.
func (t RegionTable) SplitAddress(address string) (city, district string) {
	fields := strings.Fields(address)
	if len(fields) >= 1 {
		city = t.Canonical(fields[0])
	}
	if len(fields) >= 2 {
		district = fields[1]
	}
	return city, district
}
