package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"receivingapi/internal/apperr"
)

// buildWorkbook renders rows into an in-memory xlsx file.
func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	for i, row := range rows {
		for j, cell := range row {
			name, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, name, cell))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParse(t *testing.T) {
	t.Run("serbian headers with metadata above", func(t *testing.T) {
		data := buildWorkbook(t, [][]any{
			{"Broj porudzbine", "PO-2026-17"},
			{"Datum", "15.08.2026", "Odgovorno lice", "Petar Petrovic"},
			{},
			{"Sifra", "Naziv", "Kolicina", "JM"},
			{"SKU-1", "Voda 1.5l", "120", "kom"},
			{"SKU-2", "Sok od jabuke", "36,5", "l"},
			{"", "prazan red bez sifre", "5", "kom"},
		})

		wb, err := Parse(data)

		require.NoError(t, err)
		assert.Equal(t, "PO-2026-17", wb.OrderNumber)
		assert.Equal(t, "Petar Petrovic", wb.ResponsiblePerson)
		require.NotNil(t, wb.DocumentDate)
		assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), *wb.DocumentDate)

		assert.Equal(t, "Sifra", wb.DetectedColumns["sku"])
		assert.Equal(t, "Kolicina", wb.DetectedColumns["qty"])

		require.Len(t, wb.Lines, 2)
		assert.Equal(t, Line{SKU: "SKU-1", Name: "Voda 1.5l", Quantity: 120, UOM: "kom"}, wb.Lines[0])
		// Comma decimals are normalized
		assert.Equal(t, 36.5, wb.Lines[1].Quantity)
	})

	t.Run("english headers, default uom", func(t *testing.T) {
		data := buildWorkbook(t, [][]any{
			{"SKU", "Name", "Qty"},
			{"A-1", "Bolt", "10"},
		})

		wb, err := Parse(data)

		require.NoError(t, err)
		require.Len(t, wb.Lines, 1)
		assert.Equal(t, "kom", wb.Lines[0].UOM)
	})

	t.Run("header below noise rows is still found", func(t *testing.T) {
		data := buildWorkbook(t, [][]any{
			{"Dobavljac d.o.o."},
			{},
			{"interna napomena"},
			{"sifra", "kolicina"},
			{"X-9", "7"},
		})

		wb, err := Parse(data)

		require.NoError(t, err)
		require.Len(t, wb.Lines, 1)
		assert.Equal(t, "X-9", wb.Lines[0].SKU)
	})

	t.Run("not an xlsx file", func(t *testing.T) {
		_, err := Parse([]byte("plain text"))
		assert.True(t, apperr.IsParse(err))
	})

	t.Run("no recognizable header", func(t *testing.T) {
		data := buildWorkbook(t, [][]any{
			{"foo", "bar"},
			{"1", "2"},
		})

		_, err := Parse(data)
		assert.True(t, apperr.IsParse(err))
	})

	t.Run("header but no data rows", func(t *testing.T) {
		data := buildWorkbook(t, [][]any{
			{"sifra", "kolicina"},
			{"SKU-1", "not-a-number"},
		})

		_, err := Parse(data)
		assert.True(t, apperr.IsParse(err))
	})
}
