package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

const (
	maxSkuLength     = 100
	maxSkuNameLength = 20

	// VariantSuffix is appended to a product SKU to form its variant SKU
	VariantSuffix = "-VAR"
)

var nonSkuRe = regexp.MustCompile(`[^\w-]`)

// GenerateSku derives the catalog SKU from a provider SKU and product name.
// The result is deterministic: the commit phase relies on it to find existing products.
func GenerateSku(providerSku, name string) string {
	skuPart := strings.ToUpper(strings.TrimSpace(providerSku))
	skuPart = strings.Trim(nonSkuRe.ReplaceAllString(skuPart, "-"), "-")

	namePart := Slugify(name)
	if len(namePart) > maxSkuNameLength {
		namePart = namePart[:maxSkuNameLength]
	}
	namePart = strings.TrimRight(namePart, "-")

	parts := make([]string, 0, 2)
	for _, p := range []string{skuPart, namePart} {
		if p != "" {
			parts = append(parts, p)
		}
	}

	sku := strings.Join(parts, "-")
	if len(sku) > maxSkuLength {
		sku = strings.TrimRight(sku[:maxSkuLength], "-")
	}

	if sku == "" {
		// Inputs made only of punctuation still need a stable key
		sum := sha256.Sum256([]byte(providerSku + "\x00" + name))
		sku = "SKU-" + strings.ToUpper(hex.EncodeToString(sum[:6]))
	}

	return sku
}

// VariantSku returns the variant SKU for a product SKU
func VariantSku(productSku string) string {
	return productSku + VariantSuffix
}
