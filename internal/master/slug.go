package master

import (
	"regexp"
	"strings"
	"unicode"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// Slugify keeps letters, digits, underscores, whitespace and hyphens, turns
// whitespace runs into single hyphens and lowercases the result. Non-Latin
// names survive unchanged.
func Slugify(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '_' || r == '-' || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
	s = whitespaceRE.ReplaceAllString(s, "-")
	return strings.ToLower(s)
}
