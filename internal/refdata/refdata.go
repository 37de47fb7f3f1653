// Package refdata holds the static reference sets the validators and
// classifiers consult: Colombian place names, mobile prefixes, sheet-name
// exclusions, and the token/pattern tables that reject false-positive codes.
//
// Everything is loaded once at process start and never mutated, so the sets
// are safe to share across concurrent extractions.
package refdata

import (
	"regexp"
	"strings"

	"github.com/consolidador-t25/tarifas-cli/internal/normalize"
)

// Cities are Colombian capitals and intermediate cities, accent-folded.
// A handful of airport-code aliases appear at the end: transfer sheets
// sometimes abbreviate route endpoints that way.
var Cities = newSet(
	"BOGOTA", "BOGOTA D.C.", "BOGOTA DC", "MEDELLIN", "CALI", "BARRANQUILLA",
	"CARTAGENA", "BUCARAMANGA", "CUCUTA", "PEREIRA", "IBAGUE", "SANTA MARTA",
	"MANIZALES", "VILLAVICENCIO", "PASTO", "MONTERIA", "NEIVA", "ARMENIA",
	"SINCELEJO", "POPAYAN", "VALLEDUPAR", "TUNJA", "FLORENCIA", "QUIBDO",
	"RIOHACHA", "YOPAL", "MOCOA", "LETICIA", "ARAUCA", "SAN ANDRES",
	"PUERTO CARRENO", "INIRIDA", "MITU", "SAN JOSE DEL GUAVIARE",
	"PALMIRA", "BUENAVENTURA", "CARTAGO", "TULUA", "BUGA", "SOGAMOSO",
	"DUITAMA", "CHIQUINQUIRA", "GIRARDOT", "FUSAGASUGA", "FACATATIVA",
	"ZIPAQUIRA", "CHIA", "SOACHA", "MOSQUERA", "FUNZA", "MADRID",
	"RIONEGRO", "ENVIGADO", "ITAGUI", "BELLO", "SABANETA", "LA ESTRELLA",
	"COPACABANA", "CALDAS", "APARTADO", "TURBO", "CAUCASIA", "TUMACO",
	"IPIALES", "PITALITO", "GARZON", "LA PLATA", "ESPINAL", "HONDA",
	"MELGAR", "AGUACHICA", "OCANA", "PAMPLONA", "BARRANCABERMEJA",
	"PIEDECUESTA", "FLORIDABLANCA", "GIRON", "SAN GIL", "SOCORRO",
	"MAGANGUE", "TURBACO", "SOLEDAD", "MALAMBO", "SABANALARGA",
	"CIENAGA", "FUNDACION", "PLATO", "LORICA", "CERETE", "SAHAGUN",
	"PLANETA RICA", "MONTELIBANO", "COROZAL", "MAICAO", "URIBIA",
	"FONSECA", "SAN JUAN DEL CESAR", "CODAZZI", "BOSCONIA", "EL BANCO",
	"ACACIAS", "GRANADA", "PUERTO LOPEZ", "TAME", "SARAVENA",
	"AGUAZUL", "VILLANUEVA", "PAZ DE ARIPORO", "PUERTO ASIS", "ORITO",
	"TULCAN", "TUQUERRES", "LA DORADA", "CHINCHINA", "VILLAMARIA",
	"SANTA ROSA DE CABAL", "DOSQUEBRADAS", "LA VIRGINIA", "CALARCA",
	"QUIMBAYA", "MONTENEGRO", "SEVILLA", "ZARZAL", "ROLDANILLO",
	"JAMUNDI", "YUMBO", "FLORIDA", "PRADERA", "SANTANDER DE QUILICHAO",
	"PUERTO TEJADA", "EL BORDO", "GUAPI",
	// Airport-code aliases seen in transfer sheets.
	"BOG", "MDE", "CLO", "BAQ", "CTG", "BGA", "SMR", "PEI", "ADZ", "LET",
)

// Departments are Colombian departments, accent-folded.
var Departments = newSet(
	"AMAZONAS", "ANTIOQUIA", "ARAUCA", "ATLANTICO", "BOLIVAR", "BOYACA",
	"CALDAS", "CAQUETA", "CASANARE", "CAUCA", "CESAR", "CHOCO", "CORDOBA",
	"CUNDINAMARCA", "GUAINIA", "GUAVIARE", "HUILA", "LA GUAJIRA", "GUAJIRA",
	"MAGDALENA", "META", "NARINO", "NORTE DE SANTANDER", "PUTUMAYO",
	"QUINDIO", "RISARALDA", "SAN ANDRES Y PROVIDENCIA", "SANTANDER",
	"SUCRE", "TOLIMA", "VALLE", "VALLE DEL CAUCA", "VAUPES", "VICHADA",
)

// MobilePrefixes are the three-digit prefixes shared by 10-digit Colombian
// mobile numbers.
var MobilePrefixes = newSet(
	"300", "301", "302", "303", "304", "305",
	"310", "311", "312", "313", "314", "315", "316", "317", "318", "319",
	"320", "321", "322", "323", "324", "333", "350", "351",
)

// ExcludedSheets are sheet names that are never the services sheet. A sheet
// matching this set is skipped silently when picking, unless no other
// candidate exists.
var ExcludedSheets = newSet(
	"INSTRUCCIONES", "INSTRUCTIVO", "INFO", "DATOS", "CONTENIDO",
	"INDICE", "GUIA DE USO", "CONTROL DE CAMBIOS", "HOJA1", "SHEET1",
	"PARAMETROS", "CONFIGURACION", "LISTA", "LISTAS", "VALIDACION",
	"CATALOGO", "RESUMEN", "PORTADA", "CARATULA", "INICIO", "HOME",
	"MENU", "ANEXO TECNICO", "GLOSARIO", "PLANTILLA",
	"PAQUETE", "PAQUETES", "TARIFAS PAQUETE", "TARIFAS PAQUETES",
	"COSTO VIAJE", "COSTO DE VIAJE", "COSTOS VIAJE",
)

// ServicesSheetPhrases are canonical services-sheet names, checked by exact
// or prefix match in the second picker pass.
var ServicesSheetPhrases = []string{
	"TARIFAS DE SERVICIOS", "TARIFA DE SERVICIOS", "TARIFAS DE SERV",
	"TARIFA DE SERV", "TARIFAS SERVICIOS", "TARIFA SERVICIOS",
	"TARIFAS SERV", "TARIFA SERV", "SERVICIOS INDIVIDUALES", "SOLICITUD",
}

// AddressTokens mark a cell as a street address rather than service data.
var AddressTokens = []string{
	"CARRERA ", "CRA ", "CRA. ", "CR ", "CALLE ", "CL ", "CL. ",
	"AVENIDA ", "AV ", "AV. ", "DIAGONAL ", "DG ", "DG. ",
	"TRANSVERSAL ", "TV ", "TV. ", "KM ", "KILOMETRO",
	"LOCAL ", "PISO ", "OFICINA ", "OF ", "CONSULTORIO", "TORRE ",
	"BLOQUE ", "MANZANA", "CASA ", "APARTAMENTO", "APTO", "EDIFICIO",
	"CENTRO COMERCIAL", "C.C.", "BARRIO ", "VEREDA ", "SECTOR ",
}

// InvalidCodeKeywords reject a code cell when contained in its normalized
// text. These are header fragments, totals and boilerplate that land in the
// code column of badly laid out sheets.
var InvalidCodeKeywords = []string{
	"CODIGO", "CUPS", "ITEM", "DESCRIPCION", "TARIFA", "TOTAL", "SUBTOTAL",
	"DEPARTAMENTO", "MUNICIPIO", "HABILITACION", "DIRECCION", "TELEFONO",
	"CELULAR", "EMAIL", "CORREO", "SEDE", "NOMBRE", "NUMERO", "ESPECIALIDAD",
	"MANUAL", "OBSERV", "PORCENTAJE", "HOMOLOGO", "NOTA", "NOTAS",
	"ACLARATORIA", "APLICA", "VALOR", "PESOS", "FECHA", "FIRMA", "VIGENCIA",
	"CONTRATO", "PROVEEDOR", "CIUDAD", "SERVICIO", "TRASLADO", "AMBULANCIA",
	"PAQUETE", "PAGINA", "ANEXO",
}

// InvalidCodePatterns reject code cells by shape: leading asterisks,
// dash runs, bare 1-2 digit numbers, N/A variants, inclusion boilerplate.
var InvalidCodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\*`),
	regexp.MustCompile(`^-+$`),
	regexp.MustCompile(`^\d{1,2}$`),
	regexp.MustCompile(`^N\s*/?\s*A\.?$`),
	regexp.MustCompile(`INCLUYE`),
	regexp.MustCompile(`NOTA\s*\d*`),
}

// NullMarkers are literal values meaning "no code here".
var NullMarkers = newSet("N.A", "NA", "N/A", "-", "--", "NINGUNO", "NULL", "NONE", "")

// IsPlaceName reports whether the normalized text is a known municipality
// or department.
func IsPlaceName(text string) bool {
	if text == "" {
		return false
	}
	t := normalize.Text(text)
	return Cities[t] || Departments[t]
}

// IsDepartment reports whether the normalized text is a department name.
func IsDepartment(text string) bool {
	return text != "" && Departments[normalize.Text(text)]
}

// IsAddress reports whether the normalized text looks like a street address.
func IsAddress(text string) bool {
	if text == "" {
		return false
	}
	t := normalize.Text(text) + " "
	for _, tok := range AddressTokens {
		if strings.Contains(t, tok) {
			return true
		}
	}
	return false
}

func newSet(items ...string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, it := range items {
		s[it] = true
	}
	return s
}
