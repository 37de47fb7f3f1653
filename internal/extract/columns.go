package extract

import (
	"strings"

	"github.com/consolidador-t25/tarifas-cli/internal/normalize"
	"github.com/consolidador-t25/tarifas-cli/internal/sheet"
)

// headerScanWindow caps how deep the grid is scanned for a services header.
const headerScanWindow = 50

// ColumnMap maps logical fields to 0-based column indexes within one sheet.
// Built once per header row and never mutated for the rest of the walk.
type ColumnMap struct {
	CUPS          int
	Homologo      int
	Descripcion   int
	Tarifa        int
	Tarifario     int
	Porcentaje    int
	Observaciones int
	Habilitacion  int
	Sede          int
	HeaderRow     int
}

func emptyColumnMap() ColumnMap {
	return ColumnMap{
		CUPS: -1, Homologo: -1, Descripcion: -1, Tarifa: -1, Tarifario: -1,
		Porcentaje: -1, Observaciones: -1, Habilitacion: -1, Sede: -1,
		HeaderRow: -1,
	}
}

// isCUPSAnchor reports whether a normalized header cell anchors the services
// header. "CODIGO DE HABILITACION"/"SEDE" cells denote the facility block,
// not the services table, and must not anchor.
func isCUPSAnchor(t string) bool {
	if !strings.Contains(t, "CUPS") && !strings.Contains(t, "CODIGO") {
		return false
	}
	if strings.Contains(t, "HABILITACION") || strings.Contains(t, "SEDE") {
		return false
	}
	// "CODIGO HOMOLOGO" is its own column, never the anchor.
	if strings.Contains(t, "HOMOLOGO") {
		return false
	}
	return true
}

// DetectColumns scans the first rows of the grid for a services header and
// returns the populated column map. Returns false when no CUPS anchor was
// found within the window, which is fatal for the file.
func DetectColumns(grid [][]sheet.Cell) (ColumnMap, bool) {
	for i, row := range grid {
		if i >= headerScanWindow {
			break
		}
		if cm, ok := DetectColumnsInRow(row, i); ok {
			return cm, true
		}
	}
	return emptyColumnMap(), false
}

// DetectColumnsInRow attempts to read the given row as the services header.
// The CUPS anchor is located first; the remaining fields are filled by
// first-match token containment on the same row.
func DetectColumnsInRow(row sheet.Row, rowIdx int) (ColumnMap, bool) {
	cm := emptyColumnMap()

	norms := make([]string, len(row))
	for j, c := range row {
		norms[j] = normalize.Text(c.String())
	}

	for j, t := range norms {
		if t != "" && isCUPSAnchor(t) {
			cm.CUPS = j
			cm.HeaderRow = rowIdx
			break
		}
	}
	if cm.CUPS < 0 {
		return cm, false
	}

	for j, t := range norms {
		if t == "" || j == cm.CUPS {
			continue
		}
		switch {
		case cm.Descripcion < 0 && strings.Contains(t, "DESCRIPCION"):
			cm.Descripcion = j
		case cm.Homologo < 0 && strings.Contains(t, "HOMOLOGO"):
			cm.Homologo = j
		case cm.Tarifa < 0 && (strings.Contains(t, "TARIFA") || strings.Contains(t, "VALOR UNITARIO")) &&
			!strings.Contains(t, "MANUAL") && !strings.Contains(t, "PORCENTAJE") &&
			!strings.Contains(t, "TARIFARIO") && !strings.Contains(t, "SEGUN"):
			cm.Tarifa = j
		case cm.Tarifario < 0 && strings.Contains(t, "TARIFARIO") && !strings.Contains(t, "UNITARIA") &&
			!strings.Contains(t, "PORCENTAJE") && !strings.Contains(t, "SEGUN"):
			cm.Tarifario = j
		case cm.Porcentaje < 0 && (strings.Contains(t, "PORCENTAJE") || strings.Contains(t, "%") ||
			strings.Contains(t, "TARIFA SEGUN TARIFARIO")):
			cm.Porcentaje = j
		case cm.Observaciones < 0 && (strings.Contains(t, "OBSERV") || t == "NOTAS"):
			cm.Observaciones = j
		case cm.Habilitacion < 0 && strings.Contains(t, "HABILITACION"):
			cm.Habilitacion = j
		case cm.Sede < 0 && strings.Contains(t, "SEDE"):
			cm.Sede = j
		}
	}

	return cm, true
}
