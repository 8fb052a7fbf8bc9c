package providers

import (
	"fmt"

	"github.com/motorefacciones/import-service/internal/adapters/base"
	"github.com/motorefacciones/import-service/internal/types"
)

// Column aliases for the Motos y Equipos stock export (Disp_cte_admin.csv)
var (
	motosSkuAliases       = []string{"cod. com", "cod com", "codigo", "codigo com"}
	motosNameAliases      = []string{"descrip.", "descrip", "descripcion", "descripción"}
	motosBrandAliases     = []string{"marca"}
	motosWarehouseAliases = []string{"almacen", "almacén"}
	motosStockAliases     = []string{"disp.", "disp", "disponible", "disponibilidad"}
	motosPriceAliases     = []string{"precio.", "precio"}
	motosReceivedAliases  = []string{"fec. rec.", "fec rec", "fecha rec", "fecha recepcion"}
)

// MotosYEquiposAdapter is the provider adapter for Motos y Equipos CSV exports
type MotosYEquiposAdapter struct {
	*base.BaseProviderAdapter
}

// NewMotosYEquiposAdapter creates a new Motos y Equipos adapter
func NewMotosYEquiposAdapter() (*MotosYEquiposAdapter, error) {
	baseAdapter, err := base.NewBaseProviderAdapter(types.ProviderMotosYEquipos)
	if err != nil {
		return nil, fmt.Errorf("failed to create base adapter: %w", err)
	}
	return &MotosYEquiposAdapter{BaseProviderAdapter: baseAdapter}, nil
}

// ParseRow maps a raw CSV record into a staged item
func (a *MotosYEquiposAdapter) ParseRow(raw map[string]string, rowIndex int) *types.StagedItem {
	return a.SafeParse(rowIndex, func() *types.StagedItem {
		row := base.NormalizeRow(raw)

		sku := row.First(motosSkuAliases...)
		name := row.First(motosNameAliases...)
		if sku == "" && name == "" {
			return nil
		}

		item := &types.StagedItem{
			ProviderCode: types.ProviderMotosYEquipos,
			ProviderSku:  sku,
			Name:         name,
			Brand:        base.OptionalString(row.First(motosBrandAliases...)),
			Warehouse:    base.OptionalString(row.First(motosWarehouseAliases...)),
			Stock:        base.ParseStock(row.First(motosStockAliases...)),
			Price:        base.ParsePrice(row.First(motosPriceAliases...)),
			Currency:     types.CurrencyMXN,
		}
		if item.ProviderSku == "" {
			item.ProviderSku = base.PlaceholderSku(rowIndex)
		}
		if item.Name == "" {
			item.Name = base.PlaceholderName
		}
		if received := row.First(motosReceivedAliases...); received != "" {
			item.Extra = map[string]any{"receivedAtRaw": received}
		}

		return item
	})
}
