package classify

import (
	"strings"

	"github.com/consolidador-t25/tarifas-cli/internal/normalize"
	"github.com/consolidador-t25/tarifas-cli/internal/refdata"
)

// Excluded records a sheet skipped during selection and why, so the
// upstream alert can name what was actually in the workbook.
type Excluded struct {
	Name   string
	Reason string
}

// SheetSetKind classifies a whole workbook by its sheet names when no
// services sheet could be picked.
type SheetSetKind string

const (
	SheetSetServices      SheetSetKind = "SERVICIOS"
	SheetSetOnlyAmbulance SheetSetKind = "SOLO_AMBULANCIAS"
	SheetSetOnlyTransfers SheetSetKind = "SOLO_TRASLADOS"
	SheetSetMixed         SheetSetKind = "AMBULANCIAS_Y_TRASLADOS"
	SheetSetNone          SheetSetKind = "SIN_HOJA_SERVICIOS"
)

// PickServicesSheet selects the single services sheet from a workbook's
// sheet names via ranked passes, each returning on first hit. The second
// return lists sheets excluded as package/cost-of-travel content, used to
// build a more informative alert when nothing matches.
func PickServicesSheet(names []string) (string, []Excluded) {
	var excluded []Excluded
	type candidate struct {
		name string
		norm string // accent-folded uppercase
		flat string // norm with spaces/underscores removed
	}

	candidates := make([]candidate, 0, len(names))
	for _, name := range names {
		n := normalize.Text(name)
		flat := strings.NewReplacer(" ", "", "_", "").Replace(n)
		if reason := exclusionReason(n); reason != "" {
			excluded = append(excluded, Excluded{Name: name, Reason: reason})
			continue
		}
		candidates = append(candidates, candidate{name: name, norm: n, flat: flat})
	}

	// Pass 1: exact "SERVICIOS".
	for _, c := range candidates {
		if c.norm == "SERVICIOS" {
			return c.name, excluded
		}
	}

	// Pass 2: canonical phrases, exact or prefix, without package/travel noise.
	for _, c := range candidates {
		if strings.Contains(c.norm, "COSTO") || strings.Contains(c.norm, "VIAJE") || strings.Contains(c.norm, "PAQUETE") {
			continue
		}
		for _, phrase := range refdata.ServicesSheetPhrases {
			if c.norm == phrase || strings.HasPrefix(c.norm, phrase) {
				return c.name, excluded
			}
		}
	}

	// Pass 3: TARIFA + SERV, no transport noise.
	for _, c := range candidates {
		if strings.Contains(c.norm, "TARIFA") && strings.Contains(c.norm, "SERV") &&
			!strings.Contains(c.norm, "TRASLADO") && !strings.Contains(c.norm, "PAQUETE") &&
			!strings.Contains(c.norm, "AMBULANCIA") {
			return c.name, excluded
		}
	}

	// Pass 4: SERVICIO without TRASLADO.
	for _, c := range candidates {
		if strings.Contains(c.norm, "SERVICIO") && !strings.Contains(c.norm, "TRASLADO") {
			return c.name, excluded
		}
	}

	// Pass 5: CUPS terminology.
	for _, c := range candidates {
		if strings.Contains(c.norm, "CUPS") {
			return c.name, excluded
		}
	}

	// Pass 6: the sheet IS the annex.
	for _, c := range candidates {
		if c.flat == "ANEXO1" || c.flat == "ANEXO01" {
			return c.name, excluded
		}
	}

	return "", excluded
}

// exclusionReason returns a non-empty reason when the normalized sheet name
// is never a services sheet.
func exclusionReason(norm string) string {
	if norm == "" {
		return "nombre vacío"
	}
	if refdata.ExcludedSheets[norm] {
		return "hoja auxiliar/instructiva"
	}
	for _, pattern := range []string{"COSTO VIAJE", "COSTO DE VIAJE", "PAQUETE"} {
		if strings.Contains(norm, pattern) {
			return "hoja de paquetes/costos de viaje"
		}
	}
	return ""
}

// ClassifySheetSet distinguishes "no services sheet" from "this workbook is
// transport tariffs only", which gets its own message instead of a sheet-
// not-found alert.
func ClassifySheetSet(names []string) SheetSetKind {
	if name, _ := PickServicesSheet(names); name != "" {
		return SheetSetServices
	}

	ambulance, transfer, other := 0, 0, 0
	for _, name := range names {
		n := normalize.Text(name)
		switch {
		case strings.Contains(n, "AMBULANCIA"):
			ambulance++
		case strings.Contains(n, "TRASLADO"):
			transfer++
		case exclusionReason(n) == "":
			other++
		}
	}

	switch {
	case other > 0 || ambulance+transfer == 0:
		return SheetSetNone
	case ambulance > 0 && transfer > 0:
		return SheetSetMixed
	case ambulance > 0:
		return SheetSetOnlyAmbulance
	default:
		return SheetSetOnlyTransfers
	}
}
