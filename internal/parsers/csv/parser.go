package csv

import (
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/motorefacciones/import-service/internal/parsers"
	"github.com/motorefacciones/import-service/internal/parsers/charset"
)

// Parser reads delimited text into header-keyed records
type Parser struct {
	options CsvParserOptions
}

// NewParser creates a new CSV parser with the given options
func NewParser(options CsvParserOptions) *Parser {
	return &Parser{options: options}
}

// Parse decodes content to UTF-8 and maps every data line onto the header row.
// Empty lines are skipped; lines whose cells are all empty are kept so the
// adapter can treat them as blank rows.
func (p *Parser) Parse(content []byte) (*parsers.Table, error) {
	opts := p.options

	if opts.Encoding == "" {
		opts.Encoding = CsvEncoding(charset.DetectEncoding(content))
	}

	decoded, err := charset.Decode(content, charset.Encoding(opts.Encoding))
	if err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}

	if opts.Delimiter == "" {
		opts.Delimiter = DetectDelimiter(decoded)
	}

	reader := stdcsv.NewReader(strings.NewReader(decoded))
	reader.Comma = rune(opts.Delimiter[0])
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	table := &parsers.Table{Records: make([]parsers.Record, 0)}

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return table, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	table.Headers = parsers.UniqueHeaders(header)

	for {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}

		table.Records = append(table.Records, parsers.Record{
			Index:  len(table.Records),
			Values: parsers.ToRecordValues(table.Headers, cells),
		})
	}

	log.Debug().
		Str("delimiter", string(opts.Delimiter)).
		Str("encoding", string(opts.Encoding)).
		Int("records", len(table.Records)).
		Msg("Parsed CSV")

	return table, nil
}
