package sheet

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

// buildWorkbook writes a small two-sheet fixture and returns its path.
func buildWorkbook(t *testing.T) string {
	t.Helper()

	f := xlsx.NewFile()
	servicios, err := f.AddSheet("SERVICIOS")
	require.NoError(t, err)

	header := servicios.AddRow()
	for _, h := range []string{"CODIGO CUPS", "DESCRIPCION", "TARIFA"} {
		header.AddCell().SetString(h)
	}
	for i := 0; i < 5; i++ {
		row := servicios.AddRow()
		row.AddCell().SetFloat(890201)
		row.AddCell().SetString("CONSULTA")
		row.AddCell().SetFloat(45000.5)
	}

	_, err = f.AddSheet("TRASLADOS")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "anexo.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestListSheetNames(t *testing.T) {
	path := buildWorkbook(t)

	names, err := NewReader().ListSheetNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"SERVICIOS", "TRASLADOS"}, names)
}

func TestReadGrid(t *testing.T) {
	path := buildWorkbook(t)
	r := NewReader()

	grid, err := r.ReadGrid(path, "SERVICIOS", 0)
	require.NoError(t, err)
	require.Len(t, grid, 6)

	assert.Equal(t, "CODIGO CUPS", grid[0][0].String())
	assert.Equal(t, "890201", grid[1][0].String())
	num, ok := grid[1][2].Number()
	require.True(t, ok)
	assert.InDelta(t, 45000.5, num, 0.001)
}

func TestReadGrid_MaxRows(t *testing.T) {
	path := buildWorkbook(t)

	grid, err := NewReader().ReadGrid(path, "SERVICIOS", 2)
	require.NoError(t, err)
	assert.Len(t, grid, 2)
}

func TestReadGrid_SheetNotFound(t *testing.T) {
	path := buildWorkbook(t)

	_, err := NewReader().ReadGrid(path, "NO EXISTE", 0)
	assert.True(t, errors.Is(err, ErrUnreadable))
}

func TestReader_UnreadableContainers(t *testing.T) {
	r := NewReader()

	// Plain text renamed to .xlsx.
	_, err := r.ListSheetNames(writeFile(t, "texto.xlsx", []byte("no es excel")))
	assert.True(t, errors.Is(err, ErrUnreadable))

	// Binary workbook renamed to .xlsx.
	_, err = r.ListSheetNames(writeZip(t, "binario.xlsx", "xl/workbook.bin"))
	assert.True(t, errors.Is(err, ErrUnreadable))
}
