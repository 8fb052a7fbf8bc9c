package parsers

import (
	"bytes"
	"errors"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/motorefacciones/import-service/internal/types"
)

// EmptyHeader is the key given to a header cell with no text
const EmptyHeader = "__EMPTY"

// ErrLegacyXLS is returned for Excel 97-2003 workbooks, which have no reader
var ErrLegacyXLS = errors.New("legacy .xls (Excel 97-2003) workbooks are not supported; save the file as .xlsx or .csv")

// zipMagic is the local file header signature that opens every XLSX container
var zipMagic = []byte{0x50, 0x4B}

// ole2Magic opens every compound document, the container of legacy .xls
var ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Record is one data row keyed by header. Index is the zero-based position
// of the record among the data records handed to the adapter.
type Record struct {
	Index  int
	Values map[string]string
}

// Table is a parsed source file
type Table struct {
	Headers []string
	Records []Record
}

// DetectFileType picks the container format from the source name first and
// falls back to sniffing the content: a ZIP signature means a spreadsheet,
// a compound document signature means a legacy workbook, anything else is
// treated as delimited text. An .xls name holding a ZIP container is an
// XLSX workbook saved under the old extension.
func DetectFileType(source string, content []byte) types.FileType {
	name := source
	if u, err := url.Parse(source); err == nil && u.Path != "" {
		name = u.Path
	}

	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return types.FileTypeCSV
	case ".xlsx":
		return types.FileTypeXLSX
	case ".xls":
		if bytes.HasPrefix(content, zipMagic) {
			return types.FileTypeXLSX
		}
		return types.FileTypeXLS
	}

	switch {
	case bytes.HasPrefix(content, zipMagic):
		return types.FileTypeXLSX
	case bytes.HasPrefix(content, ole2Magic):
		return types.FileTypeXLS
	}
	return types.FileTypeCSV
}

// UniqueHeaders trims header cells, names blank cells EmptyHeader and
// suffixes repeated names with _1, _2, ... so no column is lost.
func UniqueHeaders(headers []string) []string {
	result := make([]string, len(headers))
	seen := make(map[string]int, len(headers))

	for i, h := range headers {
		name := strings.TrimSpace(h)
		if name == "" {
			name = EmptyHeader
		}

		candidate := name
		for {
			n, taken := seen[candidate]
			if !taken {
				break
			}
			seen[candidate] = n + 1
			candidate = name + "_" + strconv.Itoa(n+1)
		}
		seen[candidate] = 0
		result[i] = candidate
	}

	return result
}

// IsBlank reports whether every cell is empty or whitespace
func IsBlank(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ToRecordValues maps cells onto headers. Missing cells become "" and cells
// beyond the header row are dropped.
func ToRecordValues(headers, cells []string) map[string]string {
	values := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(cells) {
			values[h] = cells[i]
		} else {
			values[h] = ""
		}
	}
	return values
}
