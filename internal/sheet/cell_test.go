package sheet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCellString(t *testing.T) {
	// Integer-valued floats must not render a trailing ".0"; codes read
	// from numeric cells depend on it.
	assert.Equal(t, "890201", NumberCell(890201).String())
	assert.Equal(t, "45000.5", NumberCell(45000.5).String())
	assert.Equal(t, "1200000", NumberCell(1.2e6).String())

	assert.Equal(t, "CONSULTA", StringCell("CONSULTA").String())
	assert.Equal(t, "", Cell{}.String())

	ts := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "2025-03-14", Cell{Kind: KindTime, Time: ts}.String())
}

func TestCellEmpty(t *testing.T) {
	assert.True(t, Cell{}.Empty())
	assert.True(t, StringCell("").Empty())
	assert.False(t, StringCell("x").Empty())
	assert.False(t, NumberCell(0).Empty())
}

func TestCellNumber(t *testing.T) {
	v, ok := NumberCell(45000.5).Number()
	assert.True(t, ok)
	assert.Equal(t, 45000.5, v)

	_, ok = StringCell("45000.5").Number()
	assert.False(t, ok)
}

func TestBlank(t *testing.T) {
	assert.True(t, Blank(nil))
	assert.True(t, Blank(Row{Cell{}, StringCell("")}))
	assert.False(t, Blank(Row{Cell{}, StringCell("x")}))
}
