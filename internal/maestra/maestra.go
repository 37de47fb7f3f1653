// Package maestra reads the contract master workbook (the "maestra"): one
// spreadsheet listing every supplier contract, from which health-provider
// rosters are built. Column layout varies between exports, so columns are
// identified by header tokens rather than position.
package maestra

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/consolidador-t25/tarifas-cli/internal/model"
	"github.com/consolidador-t25/tarifas-cli/internal/normalize"
	"github.com/consolidador-t25/tarifas-cli/internal/sheet"
)

// healthProviderType filters the maestra down to the rows this system
// consolidates; other supplier categories carry no tariff annexes.
const healthProviderType = "PRESTADOR DE SERVICIOS DE SALUD"

const headerScanWindow = 10

// Columns maps logical maestra fields to 0-based column indexes.
type Columns struct {
	ProviderType int
	CTO          int
	Number       int
	Year         int
	NIT          int
	Provider     int
	HeaderRow    int
}

func emptyColumns() Columns {
	return Columns{
		ProviderType: -1, CTO: -1, Number: -1, Year: -1, NIT: -1,
		Provider: -1, HeaderRow: -1,
	}
}

// DetectColumns scans the first rows for the maestra header. The contract
// number and year columns are mandatory; everything else is optional.
func DetectColumns(grid [][]sheet.Cell) (Columns, bool) {
	for i, row := range grid {
		if i >= headerScanWindow {
			break
		}
		cols := detectColumnsInRow(row, i)
		if cols.Number >= 0 && cols.Year >= 0 {
			return cols, true
		}
	}
	return emptyColumns(), false
}

func detectColumnsInRow(row sheet.Row, rowIdx int) Columns {
	cols := emptyColumns()
	cols.HeaderRow = rowIdx

	for j, c := range row {
		t := normalize.Text(c.String())
		if t == "" {
			continue
		}
		switch {
		case cols.ProviderType < 0 && strings.Contains(t, "TIPO") && strings.Contains(t, "PROVEEDOR"):
			cols.ProviderType = j
		case cols.CTO < 0 && t == "CTO":
			cols.CTO = j
		case cols.Number < 0 && strings.Contains(t, "NUMERO") && strings.Contains(t, "CONTRATO"):
			cols.Number = j
		case cols.Year < 0 && strings.Contains(t, "ANO") && strings.Contains(t, "CONTRATO"):
			cols.Year = j
		case cols.NIT < 0 && strings.Contains(t, "NIT"):
			cols.NIT = j
		case cols.Provider < 0 && (strings.Contains(t, "NOMBRE") || strings.Contains(t, "RAZON")) &&
			strings.Contains(t, "PROVEEDOR"):
			cols.Provider = j
		}
	}
	return cols
}

// Roster is a loaded maestra filtered to health providers.
type Roster struct {
	Columns   Columns
	contracts []model.Contract
}

// Load reads the first sheet of the maestra workbook and builds the
// health-provider roster. Rows without a contract number are dropped.
func Load(reader sheet.Reader, path string, maxRows int) (*Roster, error) {
	names, err := reader.ListSheetNames(path)
	if err != nil {
		return nil, eris.Wrap(err, "maestra: list sheets")
	}
	if len(names) == 0 {
		return nil, eris.New("maestra: el libro no tiene hojas")
	}

	grid, err := reader.ReadGrid(path, names[0], maxRows)
	if err != nil {
		return nil, eris.Wrapf(err, "maestra: read sheet %s", names[0])
	}

	cols, ok := DetectColumns(grid)
	if !ok {
		return nil, eris.New("maestra: columnas de número y año de contrato no identificadas")
	}

	r := &Roster{Columns: cols}
	for _, row := range grid[cols.HeaderRow+1:] {
		if sheet.Blank(row) {
			continue
		}
		if cols.ProviderType >= 0 && normalize.Text(cellString(row, cols.ProviderType)) != healthProviderType {
			continue
		}

		number := contractNumber(cellString(row, cols.Number))
		if number == "" {
			continue
		}
		yearToken, _ := normalize.CleanCodeToken(cellString(row, cols.Year))
		contract := model.Contract{
			Number: number,
			Year:   normalize.DigitsOnly(yearToken),
		}
		if nit, ok := normalize.CleanCodeToken(cellString(row, cols.NIT)); ok {
			contract.NIT = nit
		}
		contract.Provider = strings.TrimSpace(cellString(row, cols.Provider))
		r.contracts = append(r.contracts, contract)
	}

	if len(r.contracts) == 0 {
		return nil, eris.New("maestra: sin contratos de prestadores de salud")
	}
	return r, nil
}

// Contracts returns every roster entry in sheet order.
func (r *Roster) Contracts() []model.Contract {
	return r.contracts
}

// ContractsByYear returns the roster entries for one contract year.
func (r *Roster) ContractsByYear(year string) []model.Contract {
	var out []model.Contract
	for _, c := range r.contracts {
		if c.Year == year {
			out = append(out, c)
		}
	}
	return out
}

// Years returns the distinct contract years, ascending.
func (r *Roster) Years() []string {
	seen := make(map[string]bool)
	var years []string
	for _, c := range r.contracts {
		if c.Year != "" && !seen[c.Year] {
			seen[c.Year] = true
			years = append(years, c.Year)
		}
	}
	sort.Strings(years)
	return years
}

// CountByYear returns how many contracts each year carries.
func (r *Roster) CountByYear() map[string]int {
	counts := make(map[string]int)
	for _, c := range r.contracts {
		if c.Year != "" {
			counts[c.Year]++
		}
	}
	return counts
}

// contractNumber cleans a number cell and zero-pads it to the 4-digit form
// the contract folders use.
func contractNumber(raw string) string {
	token, ok := normalize.CleanCodeToken(raw)
	if !ok {
		return ""
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	for len(token) < 4 {
		token = "0" + token
	}
	return token
}

func cellString(row sheet.Row, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx].String()
}
