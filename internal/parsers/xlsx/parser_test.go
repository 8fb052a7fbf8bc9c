package xlsx

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes rows into Sheet1 starting at A1; nil rows are left empty
func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		if row == nil {
			continue
		}
		cell := fmt.Sprintf("A%d", i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseFirstSheet(t *testing.T) {
	content := buildWorkbook(t, [][]any{
		{"CÓDIGO", "DESCRIPCIÓN", "PRECIO"},
		{"MRM001", "Balata", "1500.00"},
		nil,
		{"MRM002", "Cadena", "$2,500.00"},
	})

	table, err := NewParser(XlsxParserOptions{}).Parse(content)
	require.NoError(t, err)

	assert.Equal(t, []string{"CÓDIGO", "DESCRIPCIÓN", "PRECIO"}, table.Headers)
	require.Len(t, table.Records, 2)
	assert.Equal(t, 0, table.Records[0].Index)
	assert.Equal(t, "MRM001", table.Records[0].Values["CÓDIGO"])
	assert.Equal(t, 1, table.Records[1].Index)
	assert.Equal(t, "$2,500.00", table.Records[1].Values["PRECIO"])
}

func TestParseSkipRows(t *testing.T) {
	rows := [][]any{{"CÓDIGO", "DESCRIPCIÓN", "PRECIO"}}
	for i := 0; i < 7; i++ {
		rows = append(rows, []any{fmt.Sprintf("Encabezado %d", i)})
	}
	rows = append(rows, []any{"MRM001", "Balata", "1500"}, []any{"MRM002", "Cadena", "900"})

	table, err := NewParser(XlsxParserOptions{SkipRows: 7}).Parse(buildWorkbook(t, rows))
	require.NoError(t, err)

	require.Len(t, table.Records, 2)
	assert.Equal(t, 7, table.Records[0].Index)
	assert.Equal(t, "MRM001", table.Records[0].Values["CÓDIGO"])
	assert.Equal(t, 8, table.Records[1].Index)
}

func TestParseLeadingBlankRowsAndMissingCells(t *testing.T) {
	content := buildWorkbook(t, [][]any{
		nil,
		nil,
		{"CÓDIGO", "", "PRECIO"},
		{"MRM001"},
	})

	table, err := NewParser(XlsxParserOptions{}).Parse(content)
	require.NoError(t, err)

	assert.Equal(t, []string{"CÓDIGO", "__EMPTY", "PRECIO"}, table.Headers)
	require.Len(t, table.Records, 1)
	assert.Equal(t, map[string]string{"CÓDIGO": "MRM001", "__EMPTY": "", "PRECIO": ""}, table.Records[0].Values)
}

func TestParseEmptyWorkbook(t *testing.T) {
	table, err := NewParser(XlsxParserOptions{}).Parse(buildWorkbook(t, nil))
	require.NoError(t, err)
	assert.Empty(t, table.Headers)
	assert.Empty(t, table.Records)
}

func TestParseNamedSheet(t *testing.T) {
	content := buildWorkbook(t, [][]any{{"a"}, {"1"}})

	_, err := NewParser(XlsxParserOptions{SheetName: "Precios"}).Parse(content)
	assert.Error(t, err)

	table, err := NewParser(XlsxParserOptions{SheetName: "Sheet1"}).Parse(content)
	require.NoError(t, err)
	assert.Len(t, table.Records, 1)
}

func TestParseInvalidContent(t *testing.T) {
	_, err := NewParser(XlsxParserOptions{}).Parse([]byte("not a workbook"))
	assert.Error(t, err)
}
