package textio

import (
	"strings"

	"github.com/dongnemap/facility-sync/internal/domain"
)

// ParseDelimited converts decoded text into header-keyed row maps.
//
// A hand-rolled state machine handles quoted fields that contain the
// delimiter or embedded line breaks, which encoding/csv's strict quote
// rules reject in real municipal exports. Inside quotes, a doubled quote is
// an escaped literal quote. Outside quotes, the delimiter ends a field and
// any of CRLF, LF, or CR ends a row.
//
// Rows whose fields are all blank are dropped. skipRows leading rows are
// then discarded (some portals prepend title or date banners), the next row
// becomes the header, and every following row is zipped positionally against
// the header: short rows pad with empty fields, long rows drop the excess.
func ParseDelimited(text string, delimiter rune, skipRows int) []domain.RawRow {
	rows := splitRows(text, delimiter)

	if skipRows > 0 {
		if skipRows >= len(rows) {
			return nil
		}
		rows = rows[skipRows:]
	}
	if len(rows) < 2 {
		return nil
	}

	header := rows[0]
	out := make([]domain.RawRow, 0, len(rows)-1)
	for _, fields := range rows[1:] {
		row := make(domain.RawRow, len(header))
		for i, name := range header {
			if i < len(fields) {
				row[name] = fields[i]
			} else {
				row[name] = ""
			}
		}
		out = append(out, row)
	}
	return out
}

// splitRows runs the quote-aware state machine over the text.
func splitRows(text string, delimiter rune) [][]string {
	var (
		rows     [][]string
		fields   []string
		cur      strings.Builder
		inQuotes bool
	)

	runes := []rune(text)

	endField := func() {
		fields = append(fields, cur.String())
		cur.Reset()
	}
	endRow := func() {
		endField()
		if !allBlank(fields) {
			rows = append(rows, fields)
		}
		fields = nil
	}

	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		if inQuotes {
			if ch == '"' {
				if i+1 < len(runes) && runes[i+1] == '"' {
					cur.WriteRune('"')
					i++
					continue
				}
				inQuotes = false
				continue
			}
			cur.WriteRune(ch)
			continue
		}

		switch ch {
		case '"':
			inQuotes = true
		case delimiter:
			endField()
		case '\r':
			if i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			endRow()
		case '\n':
			endRow()
		default:
			cur.WriteRune(ch)
		}
	}

	// Flush a final row without a trailing newline. An unterminated quote
	// falls through here with whatever was accumulated.
	if cur.Len() > 0 || len(fields) > 0 {
		endRow()
	}

	return rows
}

func allBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
