package csv

import "github.com/motorefacciones/import-service/internal/parsers/charset"

// CsvDelimiter represents supported CSV delimiters
type CsvDelimiter string

const (
	DelimiterComma     CsvDelimiter = ","
	DelimiterSemicolon CsvDelimiter = ";"
	DelimiterTab       CsvDelimiter = "\t"
)

// CsvEncoding represents supported encodings
type CsvEncoding string

const (
	EncodingUTF8        CsvEncoding = CsvEncoding(charset.EncodingUTF8)
	EncodingWindows1252 CsvEncoding = CsvEncoding(charset.EncodingWindows1252)
	EncodingISO88591    CsvEncoding = CsvEncoding(charset.EncodingISO88591)
)

// CsvParserOptions represents CSV parser options.
// Empty fields are detected from the content.
type CsvParserOptions struct {
	Delimiter CsvDelimiter `json:"delimiter,omitempty"`
	Encoding  CsvEncoding  `json:"encoding,omitempty"`
}
