package xlsx

// XlsxParserOptions represents XLSX parser options
type XlsxParserOptions struct {
	// SkipRows drops this many data records after the header row.
	// Records keep their position: the first record returned has Index == SkipRows.
	SkipRows int `json:"skipRows,omitempty"`
	// SheetName selects a worksheet by name (default: first sheet)
	SheetName string `json:"sheetName,omitempty"`
}
