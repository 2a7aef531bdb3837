package library

import (
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Normalize collapses whitespace runs to single spaces and trims, making
// symbol text comparable across formatting differences. It is used only
// for classification; persisted output keeps its original bytes.
func Normalize(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Equal reports whether two symbol blocks are equivalent up to
// whitespace.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
