// Package domain models public facility records sourced from Korean
// open-data portals.
//
// # Data Sources
//
// Facility datasets come in two shapes: delimited text files downloaded from
// municipal portals (encoding is inconsistently EUC-KR or UTF-8, sometimes
// with a UTF-8 BOM), and paginated REST APIs in the data.go.kr envelope
// style (JSON or XML body with a response/header/body structure and a
// "00" result code on success).
//
// # Address Conventions
//
// Korean addresses lead with the province-level region followed by the
// district, e.g. "서울특별시 강남구 테헤란로 123". The first two
// whitespace-delimited tokens are the region and sub-region; verbose
// official region names are canonicalized to their short forms
// ("서울특별시" → "서울") via [RegionTable]. Both lot-number (지번)
// and road-name (도로명) address forms may appear in a source; either is
// acceptable provenance for a record.
//
// # Coordinates
//
// WGS-84 latitude/longitude. Source data frequently encodes "unknown" as
// an empty string, a non-numeric token, or a literal (0, 0) pair; all of
// these, plus anything outside the national bounding box
// (lat 33–39, lng 124.5–132), are treated as absent rather than stored.
// A coordinate pair is always both present or both absent.
//
// # ID Generation
//
// Facility IDs are deterministic SHA-256 digests of category and source
// identifier, so re-syncing the same source row always addresses the same
// stored record. When a provider management number (관리번호) is missing,
// the source identifier itself is derived by hashing stable row fields.
// See [FacilityID] and [DeriveSourceID].
package domain
