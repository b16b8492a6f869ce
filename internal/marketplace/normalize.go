package marketplace

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxCategoryNameBytes caps the stored length of a normalized category name.
const MaxCategoryNameBytes = 100

// NormalizeName canonicalizes a category name: surrounding whitespace is
// trimmed, the text is lower-cased without locale rules and the result is cut
// to MaxCategoryNameBytes on a rune boundary. NormalizeName is idempotent.
func NormalizeName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	// Casers carry state and must not be shared across goroutines.
	lowered := cases.Lower(language.Und).String(trimmed)
	return strings.TrimRightFunc(truncateRunes(lowered, MaxCategoryNameBytes), unicode.IsSpace)
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
