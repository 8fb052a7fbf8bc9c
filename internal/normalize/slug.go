package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugRe       = regexp.MustCompile(`[^\w\s-]`)
	slugSeparatorRe = regexp.MustCompile(`[\s_-]+`)
)

// Slugify lowercases the input, drops anything that is not a word character,
// whitespace or hyphen, and collapses separator runs into single hyphens.
// "Test & Product!" becomes "test-product".
func Slugify(text string) string {
	s := strings.TrimSpace(strings.ToLower(text))
	s = nonSlugRe.ReplaceAllString(s, "")
	s = slugSeparatorRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// RemoveDiacritics folds accented letters to their base form ("Descripción" -> "Descripcion")
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// ProductSlug builds the catalog slug for a product name.
// Accents are folded first so "Balatas Delanteras Suzuki Atención" keeps "atencion".
func ProductSlug(name string) string {
	return Slugify(RemoveDiacritics(name))
}
