package tabular_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"

	"veridoc/internal/tabular"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		assert.NoError(t, err)
		assert.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	assert.NoError(t, err)
	return buf.Bytes()
}

func TestParseWorkbook(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Name", "Address", "City", "Zip"},
		{"John Smith", "1 Main St", "Springfield", "12345"},
		{"Jane Doe", "2 Oak Ave", "Shelbyville", "67890"},
	})

	table, err := tabular.ParseWorkbook(data)

	assert.NoError(t, err)
	assert.Equal(t, []string{"Name", "Address", "City", "Zip"}, table.Columns)
	assert.Len(t, table.Rows, 2)
	assert.Equal(t, "Jane Doe", table.Rows[1]["Name"])
	assert.Equal(t, "67890", table.Rows[1]["Zip"])
}

func TestParseWorkbook_InvalidData(t *testing.T) {
	_, err := tabular.ParseWorkbook([]byte("not a workbook"))
	assert.Error(t, err)
}
