package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphenRuns   = regexp.MustCompile(`-+`)
)

// GenerateSlug turns a display name into a URL slug.
// "Women's Tops & Tees" -> "womens-tops-tees".
func GenerateSlug(input string) string {
	ascii := RemoveDiacritics(input)
	lower := strings.ToLower(ascii)
	lower = strings.ReplaceAll(lower, "'", "")
	hyphenated := strings.Join(strings.FieldsFunc(lower, func(r rune) bool {
		return unicode.IsSpace(r) || r == '&' || r == '/' || r == '_'
	}), "-")
	cleaned := nonSlugChars.ReplaceAllString(hyphenated, "")
	normalized := hyphenRuns.ReplaceAllString(cleaned, "-")
	return strings.Trim(normalized, "-")
}

// RemoveDiacritics strips combining marks ("é" -> "e").
func RemoveDiacritics(input string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, input)
	if err != nil {
		return input
	}
	return out
}
