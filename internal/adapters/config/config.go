package config

import (
	"github.com/motorefacciones/import-service/internal/parsers/csv"
	"github.com/motorefacciones/import-service/internal/types"
)

// ProviderCodes contains all valid provider codes in detection order
var ProviderCodes = []types.ProviderCode{
	types.ProviderMotosYEquipos,
	types.ProviderMRM,
}

// CSVConfig contains CSV-specific configuration
type CSVConfig struct {
	Delimiter csv.CsvDelimiter `json:"delimiter"`
	Encoding  csv.CsvEncoding  `json:"encoding"`
}

// ProviderConfig describes how a supplier ships its price list
type ProviderConfig struct {
	Code     types.ProviderCode `json:"code"`
	Name     string             `json:"name"`
	FileType types.FileType     `json:"fileType"`
	// SkipRows is the number of non-data rows above the header-aligned records
	// in the spreadsheet container. CSV files never skip rows.
	SkipRows int        `json:"skipRows"`
	CSV      *CSVConfig `json:"csv,omitempty"`
	// HeaderIndicators are lower-case substrings the detector looks for in header cells
	HeaderIndicators []string `json:"headerIndicators"`
}

// ProviderConfigs contains all provider configurations
var ProviderConfigs = map[types.ProviderCode]ProviderConfig{
	types.ProviderMotosYEquipos: {
		Code:     types.ProviderMotosYEquipos,
		Name:     "Motos y Equipos",
		FileType: types.FileTypeCSV,
		CSV: &CSVConfig{
			Delimiter: csv.DelimiterComma,
			Encoding:  csv.EncodingUTF8,
		},
		HeaderIndicators: []string{"cod. com", "descrip.", "marca", "almacen", "disp.", "precio."},
	},
	types.ProviderMRM: {
		Code:             types.ProviderMRM,
		Name:             "MRM",
		FileType:         types.FileTypeXLSX,
		SkipRows:         7, // price list data starts at row 8
		HeaderIndicators: []string{"código", "descripción", "moto", "modelo", "unidad", "línea", "precio"},
	},
}

// GetProviderConfig returns the configuration for a provider
func GetProviderConfig(code types.ProviderCode) (ProviderConfig, bool) {
	config, ok := ProviderConfigs[code]
	return config, ok
}

// IsValidProviderCode checks if a string is a valid provider code
func IsValidProviderCode(value string) bool {
	for _, code := range ProviderCodes {
		if string(code) == value {
			return true
		}
	}
	return false
}
