// Package version implements the loose ordering used to sort ledgers.
//
// A version string is split on "." into segments, each segment is split again
// into runs of digits and runs of everything else. Digit runs compare by
// numeric value, other runs compare bytewise and a digit run sorts before a
// non-digit run. Anything missing on one side sorts lower. Parsing never fails,
// so a malformed version still lands somewhere deterministic in the ledger.
package version

import (
	"slices"
	"strings"
)

const delimiter = "."

type token struct {
	// value holds the digits without leading zeros when numeric
	value   string
	numeric bool
}

func (t token) compare(o token) int {
	switch {
	case t.numeric && o.numeric:
		return compareDigits(t.value, o.value)
	case t.numeric:
		return -1
	case o.numeric:
		return 1
	}
	return strings.Compare(t.value, o.value)
}

// compareDigits compares two digit strings of any length without converting
// them, build numbers do not always fit in a uint64.
func compareDigits(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func tokenize(segment string) []token {
	var tokens []token
	start := 0
	for start < len(segment) {
		numeric := isDigit(segment[start])
		end := start + 1
		for end < len(segment) && isDigit(segment[end]) == numeric {
			end++
		}

		value := segment[start:end]
		if numeric {
			value = strings.TrimLeft(value, "0")
			if value == "" {
				value = "0"
			}
		}
		tokens = append(tokens, token{value: value, numeric: numeric})
		start = end
	}
	return tokens
}

// Key is the comparable form of a version string.
type Key struct {
	raw      string
	segments [][]token
}

// Parse decomposes a raw version string into a Key.
func Parse(raw string) Key {
	parts := strings.Split(raw, delimiter)
	segments := make([][]token, len(parts))
	for i, p := range parts {
		segments[i] = tokenize(p)
	}
	return Key{raw: raw, segments: segments}
}

func (k Key) String() string {
	return k.raw
}

// Compare returns -1, 0 or 1. It only returns 0 when both keys come from the
// same string.
func (k Key) Compare(o Key) int {
	n := min(len(k.segments), len(o.segments))
	for i := 0; i < n; i++ {
		if c := compareSegment(k.segments[i], o.segments[i]); c != 0 {
			return c
		}
	}
	if len(k.segments) != len(o.segments) {
		if len(k.segments) < len(o.segments) {
			return -1
		}
		return 1
	}
	// "1.01" and "1.1" are numerically equal but must not collapse
	return strings.Compare(k.raw, o.raw)
}

func compareSegment(a, b []token) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if c := a[i].compare(b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// Compare orders two raw version strings.
func Compare(a, b string) int {
	return Parse(a).Compare(Parse(b))
}

// SortFunc sorts any slice by the version string extracted with fn.
func SortFunc[T any](items []T, fn func(T) string) {
	slices.SortStableFunc(items, func(a, b T) int {
		return Compare(fn(a), fn(b))
	})
}
