package common

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// HasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Normalize composes Hangul jamo (clients on macOS send NFD), lower-cases and
// collapses runs of whitespace so keyword matching sees one canonical form.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}
