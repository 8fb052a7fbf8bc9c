package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var currencySuffixRe = regexp.MustCompile(`(?i)(MXN|M\.N\.)$`)

// SanitizePrice parses a supplier price string such as "$1,234.56" or "$ 2,500.00".
// Returns nil for empty input, a bare currency symbol, or anything that is not a number.
func SanitizePrice(value string) *float64 {
	cleaned := strings.Map(func(r rune) rune {
		if r == '$' || r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, value)

	cleaned = currencySuffixRe.ReplaceAllString(cleaned, "")
	if cleaned == "" {
		return nil
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil
	}

	f, _ := d.Float64()
	return &f
}

// FormatPrice renders a price with two decimals, or "-" when absent
func FormatPrice(price *float64) string {
	if price == nil {
		return "-"
	}
	return decimal.NewFromFloat(*price).StringFixed(2)
}
