package storage

import (
	"strings"
	"unicode/utf8"
)

// decodeUTF8 converts b to a string, replacing every maximal invalid
// subsequence with one U+FFFD (Unicode 3.9, "substitution of maximal subparts").
func decodeUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	var sb strings.Builder
	sb.Grow(len(b) + 8)
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			size = maximalSubpart(b)
		}
		sb.WriteRune(r)
		b = b[size:]
	}
	return sb.String()
}

// byteRange is an inclusive range of allowed continuation bytes.
type byteRange struct{ lo, hi byte }

var (
	cont    = byteRange{0x80, 0xBF}
	afterE0 = byteRange{0xA0, 0xBF}
	afterED = byteRange{0x80, 0x9F}
	afterF0 = byteRange{0x90, 0xBF}
	afterF4 = byteRange{0x80, 0x8F}
)

// continuation returns the byte ranges that must follow lead in a well-formed sequence.
func continuation(lead byte) []byteRange {
	switch {
	case lead >= 0xC2 && lead <= 0xDF:
		return []byteRange{cont}
	case lead == 0xE0:
		return []byteRange{afterE0, cont}
	case lead == 0xED:
		return []byteRange{afterED, cont}
	case lead >= 0xE1 && lead <= 0xEF:
		return []byteRange{cont, cont}
	case lead == 0xF0:
		return []byteRange{afterF0, cont, cont}
	case lead >= 0xF1 && lead <= 0xF3:
		return []byteRange{cont, cont, cont}
	case lead == 0xF4:
		return []byteRange{afterF4, cont, cont}
	default:
		return nil
	}
}

// maximalSubpart returns the length of the invalid sequence at the start of b:
// the lead byte plus every continuation byte that still fits a valid prefix.
func maximalSubpart(b []byte) int {
	n := 1
	for _, r := range continuation(b[0]) {
		if n >= len(b) || b[n] < r.lo || b[n] > r.hi {
			break
		}
		n++
	}
	return n
}
