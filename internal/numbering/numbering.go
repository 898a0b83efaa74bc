// Package numbering holds the pure logic behind invoice number allocation
// and duplicate repair: parsing stored numbers into a comparable numeric
// base, grouping keys for duplicate detection, and candidate generation.
//
// Correctness of allocation does not live here. Uniqueness is enforced by
// the database constraint at insert time; this package only decides what
// to try next.
package numbering

import (
	"strconv"
	"strings"
	"unicode"
)

const (
	// DefaultBase is the starting number used when the store holds no
	// parsable numeric invoice numbers at all (fresh install, or only
	// legacy identifiers like "LEGACY-A").
	DefaultBase = 1000

	// MaxAttempts bounds the allocation retry loop. Retries are a liveness
	// mechanism for resolving insert conflicts, not a correctness one, so
	// a small ceiling is enough under realistic contention.
	MaxAttempts = 5
)

// BaseNumber parses a stored invoice number into its numeric base value.
// A trailing duplicate suffix ("-2" in "1042-2") is stripped first, then
// any remaining non-digit characters are dropped. The second
// return is false when nothing numeric remains; such legacy values are
// ignored for max computation rather than treated as errors.
func BaseNumber(s string) (int64, bool) {
	digits := digitsOf(Normalize(s))
	if digits == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		// Overflow only; historical data never gets close, but a
		// corrupted value must not poison allocation.
		return 0, false
	}
	return n, true
}

// Normalize returns the grouping key used for duplicate detection: the
// invoice number with any trailing "-N" duplicate suffix removed. A dash
// followed by digits only counts as a duplicate suffix when the part in
// front of it is itself numeric, so prefixed legacy formats ("INV-1042")
// are left alone.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	idx := strings.LastIndex(s, "-")
	if idx <= 0 || idx == len(s)-1 {
		return s
	}
	if !allDigits(s[idx+1:]) || !containsDigit(s[:idx]) {
		return s
	}
	return s[:idx]
}

// HasSuffix reports whether the number carries a "-N" duplicate suffix
func HasSuffix(s string) bool {
	return Normalize(s) != strings.TrimSpace(s)
}

// Next returns the candidate number that follows the given maximum base.
// A non-positive maximum means no parsable number exists yet, so the
// candidate falls back to DefaultBase instead of starting from 1.
func Next(max int64) string {
	if max <= 0 {
		return Format(DefaultBase)
	}
	return Format(max + 1)
}

// Format renders a numeric base as a stored invoice number
func Format(n int64) string {
	return strconv.FormatInt(n, 10)
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}
