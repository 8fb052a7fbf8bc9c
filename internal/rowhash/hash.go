package rowhash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"

	"github.com/motorefacciones/import-service/internal/types"
)

// ComputeRowHash computes a deterministic fingerprint of a staged item's catalog fields.
//
// The canonical document holds exactly providerCode, providerSku, name, brand, model,
// category, price, priceDiscounted, msrp, stock, unit and warehouse:
//   - absent strings are "" and absent numbers are null, so a nil pointer and a
//     missing field hash the same
//   - a null number is distinct from 0
//   - keys are serialized in sorted order (encoding/json sorts map keys)
//
// Description, extra and image hints are not part of the fingerprint.
func ComputeRowHash(item types.StagedItem) string {
	canonical := map[string]any{
		"providerCode":    string(item.ProviderCode),
		"providerSku":     item.ProviderSku,
		"name":            item.Name,
		"brand":           types.Deref(item.Brand),
		"model":           types.Deref(item.Model),
		"category":        types.Deref(item.Category),
		"unit":            types.Deref(item.Unit),
		"warehouse":       types.Deref(item.Warehouse),
		"price":           nullableFloat(item.Price),
		"priceDiscounted": nullableFloat(item.PriceDiscounted),
		"msrp":            nullableFloat(item.Msrp),
		"stock":           nullableInt(item.Stock),
	}

	// NaN and Inf are mapped to null, so Marshal cannot fail
	data, _ := json.Marshal(canonical)

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func nullableFloat(f *float64) any {
	if f == nil || math.IsNaN(*f) || math.IsInf(*f, 0) {
		return nil
	}
	return *f
}

func nullableInt(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}
