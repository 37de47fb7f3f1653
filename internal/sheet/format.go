package sheet

import (
	"archive/zip"
	"bytes"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// Format is the real container format of a workbook file, detected by magic
// bytes rather than extension. Suppliers routinely rename .xlsb and legacy
// .xls files to .xlsx.
type Format string

const (
	FormatXLSX       Format = "xlsx"
	FormatXLSB       Format = "xlsb"
	FormatXLSLegacy  Format = "xls"
	FormatZIPCorrupt Format = "zip_corrupt"
	FormatUnknown    Format = "unknown"
)

var (
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// DetectFormat sniffs the container format of the file at path.
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, eris.Wrap(err, "sheet: open for sniff")
	}
	defer f.Close() //nolint:errcheck

	header := make([]byte, 8)
	n, err := f.Read(header)
	if err != nil || n < 4 {
		return FormatUnknown, eris.Wrap(err, "sheet: read header")
	}

	if bytes.Equal(header[:4], zipMagic) {
		return classifyZIP(path)
	}
	if n >= 8 && bytes.Equal(header[:8], oleMagic) {
		return FormatXLSLegacy, nil
	}
	return FormatUnknown, nil
}

// classifyZIP distinguishes xlsx from xlsb by probing the archive for the
// binary workbook part.
func classifyZIP(path string) (Format, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return FormatZIPCorrupt, nil
	}
	defer r.Close() //nolint:errcheck

	for _, f := range r.File {
		name := strings.ToLower(f.Name)
		if strings.Contains(name, "workbook.bin") {
			return FormatXLSB, nil
		}
	}
	return FormatXLSX, nil
}
