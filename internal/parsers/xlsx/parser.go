package xlsx

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/motorefacciones/import-service/internal/parsers"
)

// Parser reads the first worksheet of a workbook into header-keyed records
type Parser struct {
	options XlsxParserOptions
}

// NewParser creates a new XLSX parser
func NewParser(options XlsxParserOptions) *Parser {
	return &Parser{options: options}
}

// Parse reads the selected worksheet. The first non-blank row is the header;
// blank rows are dropped; then SkipRows records are skipped.
// Cell values are read as displayed, so "$1,234.56" stays a string.
func (p *Parser) Parse(content []byte) (*parsers.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close workbook")
		}
	}()

	sheetName, err := p.selectSheet(f)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheetName, err)
	}

	table := &parsers.Table{Records: make([]parsers.Record, 0)}

	headerIdx := -1
	for i, row := range rows {
		if !parsers.IsBlank(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return table, nil
	}
	table.Headers = parsers.UniqueHeaders(rows[headerIdx])

	position := 0
	for _, row := range rows[headerIdx+1:] {
		if parsers.IsBlank(row) {
			continue
		}
		if position >= p.options.SkipRows {
			table.Records = append(table.Records, parsers.Record{
				Index:  position,
				Values: parsers.ToRecordValues(table.Headers, row),
			})
		}
		position++
	}

	log.Debug().
		Str("sheet", sheetName).
		Int("skipped", min(position, p.options.SkipRows)).
		Int("records", len(table.Records)).
		Msg("Parsed workbook")

	return table, nil
}

// selectSheet returns the configured sheet or the first sheet of the workbook
func (p *Parser) selectSheet(f *excelize.File) (string, error) {
	sheetList := f.GetSheetList()
	if len(sheetList) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}

	if p.options.SheetName == "" {
		return sheetList[0], nil
	}

	for _, name := range sheetList {
		if name == p.options.SheetName {
			return name, nil
		}
	}
	return "", fmt.Errorf("sheet %q not found. Available sheets: %s", p.options.SheetName, strings.Join(sheetList, ", "))
}
