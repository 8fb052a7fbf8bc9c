package pipeline

import (
	"fmt"

	"github.com/motorefacciones/import-service/internal/adapters/config"
	"github.com/motorefacciones/import-service/internal/parsers"
	"github.com/motorefacciones/import-service/internal/parsers/csv"
	"github.com/motorefacciones/import-service/internal/parsers/xlsx"
	"github.com/motorefacciones/import-service/internal/types"
)

// ParseFile reads content with the parser for fileType. Spreadsheets skip
// the provider's leading non-data rows; delimited text never skips.
func ParseFile(content []byte, fileType types.FileType, cfg config.ProviderConfig) (*parsers.Table, error) {
	switch fileType {
	case types.FileTypeXLS:
		return nil, parsers.ErrLegacyXLS
	case types.FileTypeXLSX:
		return xlsx.NewParser(xlsx.XlsxParserOptions{SkipRows: cfg.SkipRows}).Parse(content)
	case types.FileTypeCSV:
		var opts csv.CsvParserOptions
		if cfg.CSV != nil {
			opts.Delimiter = cfg.CSV.Delimiter
			opts.Encoding = cfg.CSV.Encoding
		}
		return csv.NewParser(opts).Parse(content)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", fileType)
	}
}

// ReadHeaders returns the header row of a source file, for provider detection
func ReadHeaders(content []byte, fileType types.FileType) ([]string, error) {
	table, err := ParseFile(content, fileType, config.ProviderConfig{})
	if err != nil {
		return nil, err
	}
	return table.Headers, nil
}
