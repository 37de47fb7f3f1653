package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilename_Anexo1Variants(t *testing.T) {
	valid := []string{
		"ANEXO 1 TARIFAS.xlsx",
		"ANEXO1.xlsx",
		"Anexo_01_Tarifas.xlsx",
		"ANEXO-1 IPS EJEMPLO.xlsx",
		"anexo.1.tarifas 2025.xlsx",
		"ANEXO 01.xlsx",
	}
	for _, name := range valid {
		c := Filename(name)
		assert.True(t, c.Valid, "Filename(%q)", name)
		assert.Equal(t, KindAnexo1, c.Kind, "Filename(%q)", name)
	}

	// "ANEXO 10"/"ANEXO 12" must not match the 1.
	for _, name := range []string{"ANEXO 10.xlsx", "ANEXO 12 OTROS.xlsx"} {
		c := Filename(name)
		assert.NotEqual(t, KindAnexo1, c.Kind, "Filename(%q)", name)
	}
}

func TestFilename_MedicationRejection(t *testing.T) {
	c := Filename("ANEXO 1 MEDICAMENTOS.xlsx")
	assert.False(t, c.Valid)
	assert.Equal(t, KindInvalid, c.Kind)
	assert.Contains(t, c.Reason, "medicamentos")

	c = Filename("TARIFAS INSUMOS 2025.xlsx")
	assert.False(t, c.Valid)

	// Service keyword escapes the medication rejection.
	c = Filename("TARIFAS SERVICIOS Y MEDICAMENTOS.xlsx")
	assert.True(t, c.Valid)
}

func TestFilename_AnalysisRejection(t *testing.T) {
	for _, name := range []string{"ANALISIS DE TARIFAS.xlsx", "ANALISIS TARIFAS 2025.xlsx"} {
		c := Filename(name)
		assert.False(t, c.Valid, "Filename(%q)", name)
	}
}

func TestFilename_OtrosiPriority(t *testing.T) {
	// An addendum that mentions tariffs outranks the plain ANEXO 1 match.
	c := Filename("OTROSI 2 ANEXO 1 TARIFAS.xlsx")
	assert.True(t, c.Valid)
	assert.Equal(t, KindOtrosi, c.Kind)
	assert.Equal(t, 2, c.OtrosiNumber)
	assert.Equal(t, "Otrosí 2", c.OriginLabel())

	c = Filename("OTRO SI No. 3 TARIFAS.xlsx")
	assert.Equal(t, KindOtrosi, c.Kind)
	assert.Equal(t, 3, c.OtrosiNumber)

	// Unnumbered addendum counts as 1.
	c = Filename("OTRO SI ANEXO TARIFARIO.xlsx")
	assert.Equal(t, KindOtrosi, c.Kind)
	assert.Equal(t, 1, c.OtrosiNumber)

	// An addendum with no tariff/annex mention is not a tariff annex.
	c = Filename("OTROSI 2 POLIZAS.xlsx")
	assert.False(t, c.Valid)
}

func TestFilename_TarifasFallback(t *testing.T) {
	c := Filename("TARIFAS 2025.xlsx")
	assert.True(t, c.Valid)
	assert.Equal(t, KindTarifas, c.Kind)
	assert.Equal(t, "Inicial", c.OriginLabel())

	c = Filename("ACTA DE REUNION.xlsx")
	assert.False(t, c.Valid)
}

func TestOtrosiNumber(t *testing.T) {
	tests := []struct {
		name string
		num  int
		ok   bool
	}{
		{"OTROSI 2 TARIFAS", 2, true},
		{"OTRO SI N° 4", 4, true},
		{"OTROSI3", 3, true},
		{"ADICION No. 2", 2, true},
		{"MODIFICACION 5 ANEXO", 5, true},
		{"OTRO SI", 1, true},
		{"ANEXO 1 TARIFAS", 0, false},
	}
	for _, tt := range tests {
		num, ok := OtrosiNumber(tt.name)
		assert.Equal(t, tt.ok, ok, "OtrosiNumber(%q)", tt.name)
		assert.Equal(t, tt.num, num, "OtrosiNumber(%q)", tt.name)
	}
}

func TestIsSpreadsheetName(t *testing.T) {
	assert.True(t, IsSpreadsheetName("ANEXO 1.xlsx"))
	assert.True(t, IsSpreadsheetName("tarifas.XLS"))
	assert.True(t, IsSpreadsheetName("anexo.xlsb"))
	assert.False(t, IsSpreadsheetName("ANEXO 1.pdf"))
	assert.False(t, IsSpreadsheetName("tarifas.docx"))
}
