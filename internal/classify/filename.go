// Package classify decides which files and sheets are processable tariff
// documents. All matching runs over accent-folded uppercase text; the
// pattern tables are ordered and evaluated first-match-wins, and that order
// is load-bearing.
package classify

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/consolidador-t25/tarifas-cli/internal/normalize"
)

// Kind is the origin classification of a filename.
type Kind string

const (
	KindAnexo1  Kind = "ANEXO_1"
	KindOtrosi  Kind = "OTROSI"
	KindTarifas Kind = "TARIFAS"
	KindInvalid Kind = "INVALIDO"
)

// Classification is the outcome of classifying one filename.
type Classification struct {
	Valid        bool
	Kind         Kind
	OtrosiNumber int
	Reason       string
}

// Medication/supply keywords reject a filename outright, unless a
// service-family keyword also appears: some suppliers legitimately name one
// workbook "TARIFAS SERVICIOS Y MEDICAMENTOS".
var (
	medicationKeywords = []string{
		"MEDICAMENT", "FARMACO", "FARMACIA", "INSUMO", "DISPOSITIVO MEDICO",
	}
	serviceEscapeKeywords = []string{"SERVICIO", "SERV"}

	analysisPattern = regexp.MustCompile(`ANALISIS\s*(DE\s*)?TARIFAS?`)

	anexo1Pattern  = regexp.MustCompile(`ANEXO[\s_\-.]*0?1(\D|$)`)
	tarifasPattern = regexp.MustCompile(`(^|[\s_\-.])TARIFAS?([\s_\-.]|$)|^\d+[\s_\-.]*TARIFAS?`)
)

// otrosiPatterns are ranked; the first capturing match wins. Bare
// "OTROSI"/"OTRO SI" without a number falls through to the unnumbered
// pattern at the end and counts as addendum 1.
var otrosiPatterns = []*regexp.Regexp{
	regexp.MustCompile(`OTRO\s*SI\s*(?:NO\.?|N[°º]?\.?)?\s*[_#\-.]?\s*(\d+)`),
	regexp.MustCompile(`OTROSI(\d+)`),
	regexp.MustCompile(`ADICION\s*(?:NO\.?|N[°º]?\.?)?\s*[_#\-.]?\s*(\d+)`),
	regexp.MustCompile(`MODIFICACION\s*(?:NO\.?|N[°º]?\.?)?\s*[_#\-.]?\s*(\d+)`),
	regexp.MustCompile(`OTRO\s*SI()`),
}

// Filename classifies a candidate file by name alone.
func Filename(name string) Classification {
	n := normalize.Text(name)
	if n == "" {
		return Classification{Kind: KindInvalid, Reason: "nombre vacío"}
	}

	if kw := matchAny(n, medicationKeywords); kw != "" && matchAny(n, serviceEscapeKeywords) == "" {
		return Classification{Kind: KindInvalid, Reason: "archivo de medicamentos/insumos: " + kw}
	}

	if analysisPattern.MatchString(n) {
		return Classification{Kind: KindInvalid, Reason: "documento de análisis de tarifas, no anexo"}
	}

	// Addenda take priority over plain ANEXO 1: an "OTROSI 2 ANEXO 1"
	// supersedes, never duplicates, the initial annex.
	if num, ok := OtrosiNumber(n); ok && (strings.Contains(n, "TARIFA") || strings.Contains(n, "ANEXO")) {
		return Classification{Valid: true, Kind: KindOtrosi, OtrosiNumber: num}
	}

	if anexo1Pattern.MatchString(n) {
		return Classification{Valid: true, Kind: KindAnexo1}
	}

	if tarifasPattern.MatchString(n) {
		return Classification{Valid: true, Kind: KindTarifas}
	}

	return Classification{Kind: KindInvalid, Reason: "no cumple patrones de anexo tarifario"}
}

// OtrosiNumber extracts the addendum number from a filename, independently
// of full classification. An unnumbered "OTRO SI" counts as 1.
func OtrosiNumber(name string) (int, bool) {
	n := normalize.Text(name)
	for _, p := range otrosiPatterns {
		m := p.FindStringSubmatch(n)
		if m == nil {
			continue
		}
		if len(m) > 1 && m[1] != "" {
			num, err := strconv.Atoi(m[1])
			if err == nil && num > 0 {
				return num, true
			}
			continue
		}
		return 1, true
	}
	return 0, false
}

// OriginLabel renders the tariff-origin string for a classification.
func (c Classification) OriginLabel() string {
	if c.Kind == KindOtrosi {
		return "Otrosí " + strconv.Itoa(c.OtrosiNumber)
	}
	return "Inicial"
}

func matchAny(s string, keywords []string) string {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return kw
		}
	}
	return ""
}

// IsSpreadsheetName reports whether the filename carries a spreadsheet
// extension. Containers are still sniffed by magic bytes before reading.
func IsSpreadsheetName(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range []string{".xlsx", ".xls", ".xlsm", ".xlsb"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
