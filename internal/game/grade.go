package game

import (
	"strings"
	"unicode"
)

// Normalize prepares an answer for comparison: outer whitespace is
// trimmed, all internal whitespace is removed, and every semicolon is
// stripped. Casing is left alone so language keywords stay meaningful.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == ';' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Grade reports whether the submitted text matches the expected answer
// after normalization. The comparison is case-sensitive and otherwise
// exact: formatting variance is tolerated, typos are not.
func Grade(submitted, expected string) bool {
	return Normalize(submitted) == Normalize(expected)
}
