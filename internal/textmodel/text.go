// Package textmodel models rendered section text as an ordered tree of text runs so
// that selections can be mapped to stable character offsets without a browser.
//
// Offsets are counted in UTF-16 code units, which is how the web front end indexes
// strings. Annotation records written by either side therefore agree.
package textmodel

import (
	"unicode/utf16"
)

// Len returns the length of s in UTF-16 code units.
func Len(s string) int {
	n := 0
	for _, r := range s {
		n += runeUnits(r)
	}
	return n
}

// Slice returns the substring of s between the code-unit offsets start and end.
// Offsets are clamped to [0, Len(s)]; a boundary falling inside a surrogate pair
// moves past the pair.
func Slice(s string, start, end int) string {
	start = Clamp(start, Len(s))
	end = Clamp(end, Len(s))
	if end <= start {
		return ""
	}
	return s[byteOffset(s, start):byteOffset(s, end)]
}

// Clamp limits offset to [0, limit].
func Clamp(offset, limit int) int {
	if offset < 0 {
		return 0
	}
	if offset > limit {
		return limit
	}
	return offset
}

// byteOffset converts a code-unit offset into a byte index of s.
func byteOffset(s string, units int) int {
	pos := 0
	for i, r := range s {
		if pos >= units {
			return i
		}
		pos += runeUnits(r)
	}
	return len(s)
}

func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	// invalid runes are rendered as U+FFFD
	return 1
}
