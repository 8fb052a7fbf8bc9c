package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/motorefacciones/import-service/internal/types"
)

// AllowedCurrencies is the set of currencies a staged item may carry.
// Adding a currency only requires extending this list.
var AllowedCurrencies = []types.Currency{types.CurrencyMXN}

const (
	msgProviderSkuRequired = "Provider SKU is required"
	msgNameRequired        = "Name is required"
	msgPriceInvalid        = "Price must be a valid number or null"
	msgStockNotInteger     = "Stock must be an integer when provided"
	msgStockNegative       = "Stock cannot be negative"
	msgPriceDiscounted     = "Price discounted must be a valid number or null"
	msgMsrpInvalid         = "MSRP must be a valid number or null"
	msgImageHintsInvalid   = "Image hints must be an array"
	msgNotAnObject         = "Staged data must be a JSON object"
)

var optionalStringFields = []struct {
	key   string
	label string
}{
	{"description", "Description"},
	{"brand", "Brand"},
	{"model", "Model"},
	{"category", "Category"},
	{"unit", "Unit"},
	{"warehouse", "Warehouse"},
}

// IsAllowedCurrency reports whether c is in AllowedCurrencies
func IsAllowedCurrency(c types.Currency) bool {
	for _, allowed := range AllowedCurrencies {
		if c == allowed {
			return true
		}
	}
	return false
}

func currencyMessage() string {
	names := make([]string, len(AllowedCurrencies))
	for i, c := range AllowedCurrencies {
		names[i] = string(c)
	}
	return fmt.Sprintf("Currency must be %s", strings.Join(names, " or "))
}

// ValidateStagedItem checks a staged item and reports every rule it breaks
func ValidateStagedItem(item types.StagedItem) types.ValidationResult {
	var errs []string

	if strings.TrimSpace(item.ProviderSku) == "" {
		errs = append(errs, msgProviderSkuRequired)
	}
	if strings.TrimSpace(item.Name) == "" {
		errs = append(errs, msgNameRequired)
	}
	if item.Price != nil && !isFinite(*item.Price) {
		errs = append(errs, msgPriceInvalid)
	}
	if item.Stock != nil && *item.Stock < 0 {
		errs = append(errs, msgStockNegative)
	}
	if !IsAllowedCurrency(item.Currency) {
		errs = append(errs, currencyMessage())
	}
	if item.PriceDiscounted != nil && !isFinite(*item.PriceDiscounted) {
		errs = append(errs, msgPriceDiscounted)
	}
	if item.Msrp != nil && !isFinite(*item.Msrp) {
		errs = append(errs, msgMsrpInvalid)
	}

	return result(errs)
}

// ValidateStagedJSON applies the same rules as ValidateStagedItem to a raw
// staged_json document, including the type checks a typed item cannot fail.
func ValidateStagedJSON(raw []byte) types.ValidationResult {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil || doc == nil {
		return result([]string{msgNotAnObject})
	}

	var errs []string

	if !nonEmptyString(doc["providerSku"]) {
		errs = append(errs, msgProviderSkuRequired)
	}
	if !nonEmptyString(doc["name"]) {
		errs = append(errs, msgNameRequired)
	}
	if !nullableNumber(doc["price"]) {
		errs = append(errs, msgPriceInvalid)
	}

	if v, ok := doc["stock"]; ok && v != nil {
		n, isNum := v.(json.Number)
		if !isNum {
			errs = append(errs, msgStockNotInteger)
		} else if f, err := n.Float64(); err != nil {
			errs = append(errs, msgStockNotInteger)
		} else {
			if f != math.Trunc(f) {
				errs = append(errs, msgStockNotInteger)
			}
			if f < 0 {
				errs = append(errs, msgStockNegative)
			}
		}
	}

	if c, ok := doc["currency"].(string); !ok || !IsAllowedCurrency(types.Currency(c)) {
		errs = append(errs, currencyMessage())
	}

	for _, field := range optionalStringFields {
		if v, ok := doc[field.key]; ok && v != nil {
			if _, isString := v.(string); !isString {
				errs = append(errs, field.label+" must be a string")
			}
		}
	}

	if !nullableNumber(doc["priceDiscounted"]) {
		errs = append(errs, msgPriceDiscounted)
	}
	if !nullableNumber(doc["msrp"]) {
		errs = append(errs, msgMsrpInvalid)
	}

	if v, ok := doc["imageHints"]; ok && v != nil {
		if _, isArray := v.([]any); !isArray {
			errs = append(errs, msgImageHintsInvalid)
		}
	}

	return result(errs)
}

func result(errs []string) types.ValidationResult {
	if errs == nil {
		errs = []string{}
	}
	return types.ValidationResult{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func nonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}

// nullableNumber accepts absent, null, or a finite JSON number
func nullableNumber(v any) bool {
	if v == nil {
		return true
	}
	n, ok := v.(json.Number)
	if !ok {
		return false
	}
	f, err := n.Float64()
	return err == nil && isFinite(f)
}
