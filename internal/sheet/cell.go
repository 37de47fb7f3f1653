package sheet

import (
	"strconv"
	"time"
)

// CellKind tags the dynamic type of a grid cell. Supplier sheets have no
// fixed schema, so rows are heterogeneous arrays resolved by content.
type CellKind int

const (
	KindEmpty CellKind = iota
	KindString
	KindNumber
	KindTime
)

// Cell is the tagged-union value of one grid position.
type Cell struct {
	Kind CellKind
	Str  string
	Num  float64
	Time time.Time
}

// Empty reports whether the cell holds no value.
func (c Cell) Empty() bool {
	return c.Kind == KindEmpty || (c.Kind == KindString && c.Str == "")
}

// String renders the cell the way header and code heuristics need it:
// numbers without exponent or trailing zeros, times in ISO date form.
func (c Cell) String() string {
	switch c.Kind {
	case KindString:
		return c.Str
	case KindNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case KindTime:
		return c.Time.Format("2006-01-02")
	default:
		return ""
	}
}

// Number returns the numeric value and whether the cell is numeric.
func (c Cell) Number() (float64, bool) {
	if c.Kind == KindNumber {
		return c.Num, true
	}
	return 0, false
}

// StringCell builds a string-valued cell. Empty input yields an empty cell.
func StringCell(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{Kind: KindString, Str: s}
}

// NumberCell builds a numeric cell.
func NumberCell(v float64) Cell {
	return Cell{Kind: KindNumber, Num: v}
}

// Row is one grid row.
type Row = []Cell

// Blank reports whether every cell of the row is empty.
func Blank(row Row) bool {
	for _, c := range row {
		if !c.Empty() {
			return false
		}
	}
	return true
}
