// Package sheet reads supplier workbooks into untyped grids. Format is
// detected by magic bytes; unreadable containers surface as ErrUnreadable
// rather than a raw parser failure, so the extractor can alert instead of
// crash.
package sheet

import (
	"errors"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

// ErrUnreadable marks a workbook that cannot be parsed: corrupt archives
// and container formats without a reader (legacy xls, xlsb). Callers match
// it with errors.Is.
var ErrUnreadable = errors.New("sheet: unreadable workbook")

// Reader lists sheet names and reads raw grids. Implemented by XLSXReader;
// the extractor depends on the interface so tests can feed synthetic grids.
type Reader interface {
	ListSheetNames(path string) ([]string, error)
	ReadGrid(path, sheetName string, maxRows int) ([][]Cell, error)
}

// XLSXReader reads zip-container (xlsx family) workbooks.
type XLSXReader struct{}

// NewReader returns the standard workbook reader.
func NewReader() *XLSXReader {
	return &XLSXReader{}
}

// open sniffs the container and opens the workbook, normalizing every
// not-actually-xlsx case into ErrUnreadable.
func (r *XLSXReader) open(path string) (*xlsx.File, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, eris.Wrap(ErrUnreadable, err.Error())
	}

	switch format {
	case FormatXLSX:
		f, err := xlsx.OpenFile(path)
		if err != nil {
			return nil, eris.Wrapf(ErrUnreadable, "open xlsx: %v", err)
		}
		return f, nil
	case FormatXLSB, FormatXLSLegacy:
		zap.L().Debug("sheet: unsupported container", zap.String("path", path), zap.String("format", string(format)))
		return nil, eris.Wrapf(ErrUnreadable, "unsupported container format %s", format)
	default:
		return nil, eris.Wrapf(ErrUnreadable, "container format %s", format)
	}
}

// ListSheetNames returns the workbook's sheet names in document order.
func (r *XLSXReader) ListSheetNames(path string) ([]string, error) {
	f, err := r.open(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(f.Sheets))
	for i, s := range f.Sheets {
		names[i] = s.Name
	}
	return names, nil
}

// ReadGrid reads up to maxRows rows of the named sheet as a heterogeneous
// grid. maxRows <= 0 means no cap.
func (r *XLSXReader) ReadGrid(path, sheetName string, maxRows int) ([][]Cell, error) {
	f, err := r.open(path)
	if err != nil {
		return nil, err
	}

	s, ok := f.Sheet[sheetName]
	if !ok {
		return nil, eris.Wrapf(ErrUnreadable, "sheet %q not found", sheetName)
	}

	grid := make([][]Cell, 0, len(s.Rows))
	for i, row := range s.Rows {
		if maxRows > 0 && i >= maxRows {
			break
		}
		cells := make([]Cell, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = convertCell(c)
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

func convertCell(c *xlsx.Cell) Cell {
	switch c.Type() {
	case xlsx.CellTypeNumeric:
		if c.IsTime() {
			if t, err := c.GetTime(false); err == nil {
				return Cell{Kind: KindTime, Time: t}
			}
		}
		if v, err := c.Float(); err == nil {
			return NumberCell(v)
		}
		return StringCell(c.Value)
	case xlsx.CellTypeDate:
		if t, err := c.GetTime(false); err == nil {
			return Cell{Kind: KindTime, Time: t}
		}
		return StringCell(c.Value)
	default:
		return StringCell(c.String())
	}
}
