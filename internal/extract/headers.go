package extract

import (
	"strings"

	"github.com/consolidador-t25/tarifas-cli/internal/normalize"
	"github.com/consolidador-t25/tarifas-cli/internal/sheet"
)

// rowText joins the non-empty cells of a row into one normalized string for
// header sniffing.
func rowText(row sheet.Row) string {
	var parts []string
	for _, c := range row {
		if s := c.String(); s != "" {
			parts = append(parts, s)
		}
	}
	return normalize.Text(strings.Join(parts, " "))
}

// servicesHeaderPhrases mark the services-table header row.
var servicesHeaderPhrases = []string{
	"CODIGO CUPS", "COD CUPS", "COD. CUPS",
	"TARIFA UNITARIA", "MANUAL TARIFARIO",
}

// IsServicesHeader reports whether the row is the services-table header.
func IsServicesHeader(row sheet.Row) bool {
	t := rowText(row)
	if t == "" {
		return false
	}
	for _, p := range servicesHeaderPhrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}

// IsSiteSectionHeader reports whether the row opens the facility/site
// metadata block: at least two of the site-header labels and no services
// vocabulary.
func IsSiteSectionHeader(row sheet.Row) bool {
	t := rowText(row)
	if t == "" {
		return false
	}
	if strings.Contains(t, "CUPS") || strings.Contains(t, "TARIFA") {
		return false
	}

	hits := 0
	for _, label := range []string{"CODIGO DE HABILITACION", "CODIGO HABILITACION", "DEPARTAMENTO", "MUNICIPIO"} {
		if strings.Contains(t, label) {
			hits++
		}
	}
	return hits >= 2
}

// IsTransferSectionHeader reports whether the row opens an ambulance/
// transfer-leg table embedded in the services sheet.
func IsTransferSectionHeader(row sheet.Row) bool {
	t := rowText(row)
	if t == "" || strings.Contains(t, "CUPS") {
		return false
	}

	hits := 0
	for _, label := range []string{"ORIGEN", "DESTINO", "TIPO DE TRASLADO"} {
		if strings.Contains(t, label) {
			hits++
		}
	}
	return hits >= 2
}
