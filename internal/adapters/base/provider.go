package base

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/motorefacciones/import-service/internal/adapters/config"
	"github.com/motorefacciones/import-service/internal/normalize"
	"github.com/motorefacciones/import-service/internal/types"
	"github.com/motorefacciones/import-service/internal/validation"
)

// ProviderAdapter maps one supplier's raw rows into staged items
type ProviderAdapter interface {
	Code() types.ProviderCode
	Name() string
	Config() config.ProviderConfig
	// ParseRow returns nil for blank rows and for rows that could not be parsed. It never panics.
	ParseRow(row map[string]string, rowIndex int) *types.StagedItem
	ValidateRow(item types.StagedItem) types.ValidationResult
}

// BaseProviderAdapter provides the parts shared by every provider adapter
type BaseProviderAdapter struct {
	config config.ProviderConfig
}

// NewBaseProviderAdapter creates a base adapter for a configured provider
func NewBaseProviderAdapter(code types.ProviderCode) (*BaseProviderAdapter, error) {
	cfg, ok := config.GetProviderConfig(code)
	if !ok {
		return nil, fmt.Errorf("no configuration for provider: %s", code)
	}
	return &BaseProviderAdapter{config: cfg}, nil
}

// Code returns the provider code
func (a *BaseProviderAdapter) Code() types.ProviderCode {
	return a.config.Code
}

// Name returns the human-readable provider name
func (a *BaseProviderAdapter) Name() string {
	return a.config.Name
}

// Config returns the provider configuration
func (a *BaseProviderAdapter) Config() config.ProviderConfig {
	return a.config
}

// ValidateRow delegates to the shared staged item validator
func (a *BaseProviderAdapter) ValidateRow(item types.StagedItem) types.ValidationResult {
	return validation.ValidateStagedItem(item)
}

// SafeParse runs a row parser and turns a panic into a skipped row
func (a *BaseProviderAdapter) SafeParse(rowIndex int, parse func() *types.StagedItem) (item *types.StagedItem) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("provider", string(a.config.Code)).
				Int("row", rowIndex).
				Interface("panic", r).
				Msg("Failed to parse row")
			item = nil
		}
	}()
	return parse()
}

// Row is a raw source row whose keys are lower-cased and trimmed
type Row map[string]string

// NormalizeRow lower-cases and trims every key and trims every value.
// When two headers collapse to the same key the first non-empty value wins.
func NormalizeRow(raw map[string]string) Row {
	row := make(Row, len(raw))
	for key, value := range raw {
		k := strings.ToLower(strings.TrimSpace(key))
		v := strings.TrimSpace(value)
		if existing, ok := row[k]; ok && existing != "" {
			continue
		}
		row[k] = v
	}
	return row
}

// First returns the value of the first alias that is present and non-empty
func (r Row) First(aliases ...string) string {
	for _, alias := range aliases {
		if v := r[alias]; v != "" {
			return v
		}
	}
	return ""
}

var (
	nonStockRe   = regexp.MustCompile(`[^\d-]`)
	leadingIntRe = regexp.MustCompile(`^-?\d+`)
)

// ParseStock keeps digits and minus signs and reads the leading integer.
// "1,250 pzas" is 1250; input with no leading integer yields nil.
func ParseStock(value string) *int {
	if value == "" {
		return nil
	}
	digits := leadingIntRe.FindString(nonStockRe.ReplaceAllString(value, ""))
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &n
}

// ParsePrice routes a price column through the price sanitizer
func ParsePrice(value string) *float64 {
	if value == "" {
		return nil
	}
	return normalize.SanitizePrice(value)
}

// OptionalString returns nil for an empty value
func OptionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// PlaceholderSku is the SKU given to a row that has a name but no SKU
func PlaceholderSku(rowIndex int) string {
	return fmt.Sprintf("UNKNOWN-%d", rowIndex)
}

// PlaceholderName is the name given to a row that has a SKU but no name
const PlaceholderName = "Sin nombre"
