package matching

import (
	"regexp"
	"strings"

	"github.com/motorefacciones/import-service/internal/normalize"
)

var (
	extensionRe = regexp.MustCompile(`\.[^/.]+$`)
	searchSepRe = regexp.MustCompile(`[-_.]+`)
)

// StripExtension removes a trailing file extension ("balata.JPG" -> "balata")
func StripExtension(fileName string) string {
	return extensionRe.ReplaceAllString(fileName, "")
}

// NormalizeSearchText lower-cases, folds accents, turns filename separators
// into spaces and collapses whitespace, so "Balata_Delantera-CBR.jpg" and
// "balata delantera cbr" compare equal once the extension is stripped.
func NormalizeSearchText(s string) string {
	s = strings.ToLower(normalize.RemoveDiacritics(s))
	s = searchSepRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// BuildSearchText concatenates name, model, brand and SKU, skipping empty fields
func BuildSearchText(item Item) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{item.Name, item.Model, item.Brand, item.ProviderSku} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return NormalizeSearchText(strings.Join(parts, " "))
}
