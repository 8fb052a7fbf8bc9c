package providers

import (
	"fmt"

	"github.com/motorefacciones/import-service/internal/adapters/base"
	"github.com/motorefacciones/import-service/internal/types"
)

// Column aliases for the MRM price list workbook (Precios_<MES><AÑO>_A.xlsx)
var (
	mrmSkuAliases             = []string{"código", "codigo", "code"}
	mrmNameAliases            = []string{"descripción", "descripcion", "descrip", "description"}
	mrmBrandAliases           = []string{"moto", "marca", "brand"}
	mrmModelAliases           = []string{"modelo", "model"}
	mrmUnitAliases            = []string{"unidad", "unit"}
	mrmCategoryAliases        = []string{"línea", "linea", "line", "categoria", "categoría"}
	mrmPriceAliases           = []string{"precio", "price"}
	mrmPriceDiscountedAliases = []string{"prec. desc.", "prec desc", "precio desc", "precio descuento", "price discounted"}
	mrmMsrpAliases            = []string{"precio sugerido", "precio_sugerido", "msrp"}
	mrmOldCodeAliases         = []string{"código anterior", "codigo anterior", "old code", "codigo_anterior"}
)

// MRMAdapter is the provider adapter for MRM spreadsheet price lists
type MRMAdapter struct {
	*base.BaseProviderAdapter
}

// NewMRMAdapter creates a new MRM adapter
func NewMRMAdapter() (*MRMAdapter, error) {
	baseAdapter, err := base.NewBaseProviderAdapter(types.ProviderMRM)
	if err != nil {
		return nil, fmt.Errorf("failed to create base adapter: %w", err)
	}
	return &MRMAdapter{BaseProviderAdapter: baseAdapter}, nil
}

// ParseRow maps a raw worksheet record into a staged item.
// MRM lists carry no stock column.
func (a *MRMAdapter) ParseRow(raw map[string]string, rowIndex int) *types.StagedItem {
	return a.SafeParse(rowIndex, func() *types.StagedItem {
		row := base.NormalizeRow(raw)

		sku := row.First(mrmSkuAliases...)
		name := row.First(mrmNameAliases...)
		if sku == "" && name == "" {
			return nil
		}

		item := &types.StagedItem{
			ProviderCode:    types.ProviderMRM,
			ProviderSku:     sku,
			Name:            name,
			Brand:           base.OptionalString(row.First(mrmBrandAliases...)),
			Model:           base.OptionalString(row.First(mrmModelAliases...)),
			Unit:            base.OptionalString(row.First(mrmUnitAliases...)),
			Category:        base.OptionalString(row.First(mrmCategoryAliases...)),
			Price:           base.ParsePrice(row.First(mrmPriceAliases...)),
			PriceDiscounted: base.ParsePrice(row.First(mrmPriceDiscountedAliases...)),
			Msrp:            base.ParsePrice(row.First(mrmMsrpAliases...)),
			Currency:        types.CurrencyMXN,
		}
		if item.ProviderSku == "" {
			item.ProviderSku = base.PlaceholderSku(rowIndex)
		}
		if item.Name == "" {
			item.Name = base.PlaceholderName
		}
		if oldCode := row.First(mrmOldCodeAliases...); oldCode != "" {
			item.Extra = map[string]any{"oldCode": oldCode}
		}

		return item
	})
}
