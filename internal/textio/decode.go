// Package textio decodes and parses delimited text downloads whose byte
// encoding is not declared anywhere. Municipal portals serve the same
// dataset as EUC-KR one month and UTF-8 (sometimes with a BOM) the next,
// so decoding starts with a detection heuristic rather than trusting
// metadata.
package textio

import (
	"bytes"
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
)

// Encoding tags the detected byte encoding of a decoded buffer.
type Encoding string

const (
	EncodingUTF8  Encoding = "utf-8"
	EncodingEUCKR Encoding = "euc-kr"
)

// ErrAmbiguousEncoding signals that the detection heuristic was
// inconclusive. The accompanying text is still a best-effort decode;
// callers log a warning and continue. Undecidable encoding is never fatal.
var ErrAmbiguousEncoding = errors.New("ambiguous text encoding")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const (
	// detectWindow bounds how many bytes the heuristic inspects.
	detectWindow = 2000
	// invalidUTF8Threshold is the number of invalid UTF-8 sequences
	// tolerated before the buffer is assumed to be EUC-KR.
	invalidUTF8Threshold = 5
)

// DecodeText converts a raw byte buffer into text, detecting the encoding
// from the bytes themselves. A UTF-8 byte-order marker is authoritative and
// stripped from the output. Without one, the first [detectWindow] bytes are
// scored against two hypotheses: valid UTF-8 multi-byte sequences vs valid
// EUC-KR double-byte pairs. The loser of the score comparison is discarded;
// ties go to UTF-8.
func DecodeText(raw []byte) (string, Encoding, error) {
	if bytes.HasPrefix(raw, utf8BOM) {
		return string(raw[len(utf8BOM):]), EncodingUTF8, nil
	}

	window := raw
	if len(window) > detectWindow {
		window = window[:detectWindow]
	}

	utf8Multi, utf8Invalid := scoreUTF8(window)
	eucPairs := scoreEUCKR(window)

	if utf8Invalid > invalidUTF8Threshold || eucPairs > utf8Multi {
		text := decodeEUCKR(raw)
		if eucPairs == 0 {
			// Neither hypothesis fits; the EUC-KR decode is a guess.
			return text, EncodingEUCKR, ErrAmbiguousEncoding
		}
		return text, EncodingEUCKR, nil
	}

	return string(raw), EncodingUTF8, nil
}

// scoreUTF8 counts valid multi-byte UTF-8 sequences and invalid sequences
// in the window. ASCII bytes are neutral.
func scoreUTF8(window []byte) (multi, invalid int) {
	for i := 0; i < len(window); {
		if window[i] < utf8.RuneSelf {
			i++
			continue
		}
		r, size := utf8.DecodeRune(window[i:])
		if r == utf8.RuneError && size == 1 {
			invalid++
			i++
			continue
		}
		multi++
		i += size
	}
	return multi, invalid
}

// scoreEUCKR counts byte pairs inside the KS X 1001 double-byte code range
// (lead and trail both 0xA1–0xFE). ASCII bytes are neutral.
func scoreEUCKR(window []byte) int {
	pairs := 0
	for i := 0; i+1 < len(window); {
		if window[i] < 0x80 {
			i++
			continue
		}
		if isEUCKRByte(window[i]) && isEUCKRByte(window[i+1]) {
			pairs++
			i += 2
			continue
		}
		i++
	}
	return pairs
}

func isEUCKRByte(b byte) bool {
	return b >= 0xA1 && b <= 0xFE
}

// decodeEUCKR converts EUC-KR bytes to UTF-8 text. Invalid sequences become
// replacement characters rather than failing the whole decode.
func decodeEUCKR(raw []byte) string {
	decoded, err := korean.EUCKR.NewDecoder().Bytes(raw)
	if err != nil {
		// Best effort: keep whatever the decoder produced before the error,
		// or the raw bytes if nothing did.
		if len(decoded) > 0 {
			return string(decoded)
		}
		return string(raw)
	}
	return string(decoded)
}
