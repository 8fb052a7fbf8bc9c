package detect

import (
	"strings"

	"github.com/motorefacciones/import-service/internal/adapters/config"
	"github.com/motorefacciones/import-service/internal/types"
)

// MinIndicatorMatches is the number of indicators that must appear in the headers
const MinIndicatorMatches = 3

// DetectProvider guesses the provider from a header row.
// It is assistive only: staging always uses the provider code supplied by the caller.
func DetectProvider(headers []string) (types.ProviderCode, bool) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}

	for _, code := range config.ProviderCodes {
		cfg, ok := config.GetProviderConfig(code)
		if !ok {
			continue
		}
		if CountMatches(normalized, cfg.HeaderIndicators) >= MinIndicatorMatches {
			return code, true
		}
	}

	return "", false
}

// CountMatches counts the indicators contained in at least one header.
// Headers must already be lower-cased and trimmed.
func CountMatches(headers, indicators []string) int {
	matches := 0
	for _, indicator := range indicators {
		for _, h := range headers {
			if strings.Contains(h, indicator) {
				matches++
				break
			}
		}
	}
	return matches
}
