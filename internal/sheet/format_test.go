package sheet

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func writeZip(t *testing.T, name string, entries ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for _, entry := range entries {
		e, err := w.Create(entry)
		require.NoError(t, err)
		_, err = e.Write([]byte("x"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func TestDetectFormat_XLSX(t *testing.T) {
	path := writeZip(t, "a.xlsx", "[Content_Types].xml", "xl/workbook.xml")
	format, err := DetectFormat(path)
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, format)
}

func TestDetectFormat_XLSBRenamedToXLSX(t *testing.T) {
	path := writeZip(t, "renamed.xlsx", "[Content_Types].xml", "xl/workbook.bin")
	format, err := DetectFormat(path)
	require.NoError(t, err)
	assert.Equal(t, FormatXLSB, format)
}

func TestDetectFormat_LegacyXLS(t *testing.T) {
	header := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 512)...)
	path := writeFile(t, "legacy.xlsx", header)
	format, err := DetectFormat(path)
	require.NoError(t, err)
	assert.Equal(t, FormatXLSLegacy, format)
}

func TestDetectFormat_CorruptZip(t *testing.T) {
	path := writeFile(t, "broken.xlsx", []byte("PK\x03\x04not a real archive"))
	format, err := DetectFormat(path)
	require.NoError(t, err)
	assert.Equal(t, FormatZIPCorrupt, format)
}

func TestDetectFormat_Unknown(t *testing.T) {
	path := writeFile(t, "notes.xlsx", []byte("esto no es un libro de excel"))
	format, err := DetectFormat(path)
	require.NoError(t, err)
	assert.Equal(t, FormatUnknown, format)
}

func TestDetectFormat_Missing(t *testing.T) {
	_, err := DetectFormat(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}
