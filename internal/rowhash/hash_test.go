package rowhash

import (
	"regexp"
	"sync"
	"testing"

	"github.com/motorefacciones/import-service/internal/types"
)

var hexRe = regexp.MustCompile(`^[0-9a-f]{64}$`)

func baseItem() types.StagedItem {
	return types.StagedItem{
		ProviderCode: types.ProviderMRM,
		ProviderSku:  "MRM001",
		Name:         "Balata delantera",
		Brand:        types.StringPtr("Honda"),
		Model:        types.StringPtr("CBR600"),
		Category:     types.StringPtr("Frenos"),
		Unit:         types.StringPtr("PZA"),
		Price:        types.Float64Ptr(1500),
		Msrp:         types.Float64Ptr(1600),
		Currency:     types.CurrencyMXN,
	}
}

// Same content, 1000 iterations = same hash
func TestRowHashDeterminism(t *testing.T) {
	item := baseItem()
	first := ComputeRowHash(item)

	for i := 0; i < 1000; i++ {
		if got := ComputeRowHash(item); got != first {
			t.Fatalf("iteration %d: hash mismatch (got %s, want %s)", i, got, first)
		}
	}
}

func TestRowHashFormat(t *testing.T) {
	for _, item := range []types.StagedItem{baseItem(), {}} {
		hash := ComputeRowHash(item)
		if !hexRe.MatchString(hash) {
			t.Errorf("hash %q is not 64 lowercase hex characters", hash)
		}
	}
}

// A nil pointer and an empty string are the same logical content
func TestRowHashIncidentalRepresentation(t *testing.T) {
	withNil := baseItem()
	withNil.Warehouse = nil

	withEmpty := baseItem()
	withEmpty.Warehouse = types.StringPtr("")

	if ComputeRowHash(withNil) != ComputeRowHash(withEmpty) {
		t.Error("nil and empty warehouse should hash the same")
	}
}

func TestRowHashIgnoresNonCanonicalFields(t *testing.T) {
	a := baseItem()
	b := baseItem()
	b.Description = types.StringPtr("Para uso rudo")
	b.Extra = map[string]any{"oldCode": "OLD001"}
	b.ImageHints = []string{"balata.jpg"}

	if ComputeRowHash(a) != ComputeRowHash(b) {
		t.Error("description, extra and image hints must not change the hash")
	}
}

// Null price must produce a different hash than 0 price
func TestRowHashNullVsZero(t *testing.T) {
	nullPrice := baseItem()
	nullPrice.Price = nil

	zeroPrice := baseItem()
	zeroPrice.Price = types.Float64Ptr(0)

	if ComputeRowHash(nullPrice) == ComputeRowHash(zeroPrice) {
		t.Error("null price and zero price produced the same hash")
	}

	nullStock := baseItem()
	zeroStock := baseItem()
	zeroStock.Stock = types.IntPtr(0)

	if ComputeRowHash(nullStock) == ComputeRowHash(zeroStock) {
		t.Error("null stock and zero stock produced the same hash")
	}
}

// Changing any one canonical field changes the hash
func TestRowHashSensitivity(t *testing.T) {
	original := ComputeRowHash(baseItem())

	mutations := map[string]func(*types.StagedItem){
		"providerCode":    func(i *types.StagedItem) { i.ProviderCode = types.ProviderMotosYEquipos },
		"providerSku":     func(i *types.StagedItem) { i.ProviderSku = "MRM002" },
		"name":            func(i *types.StagedItem) { i.Name = "Balata trasera" },
		"brand":           func(i *types.StagedItem) { i.Brand = types.StringPtr("Yamaha") },
		"model":           func(i *types.StagedItem) { i.Model = types.StringPtr("R6") },
		"category":        func(i *types.StagedItem) { i.Category = types.StringPtr("Motor") },
		"price":           func(i *types.StagedItem) { i.Price = types.Float64Ptr(1500.01) },
		"priceDiscounted": func(i *types.StagedItem) { i.PriceDiscounted = types.Float64Ptr(1200) },
		"msrp":            func(i *types.StagedItem) { i.Msrp = nil },
		"stock":           func(i *types.StagedItem) { i.Stock = types.IntPtr(5) },
		"unit":            func(i *types.StagedItem) { i.Unit = types.StringPtr("JGO") },
		"warehouse":       func(i *types.StagedItem) { i.Warehouse = types.StringPtr("Centro") },
	}

	for field, mutate := range mutations {
		item := baseItem()
		mutate(&item)
		if ComputeRowHash(item) == original {
			t.Errorf("changing %s did not change the hash", field)
		}
	}
}

func TestRowHashConcurrentUse(t *testing.T) {
	want := ComputeRowHash(baseItem())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := ComputeRowHash(baseItem()); got != want {
				t.Errorf("concurrent hash mismatch: %s", got)
			}
		}()
	}
	wg.Wait()
}
