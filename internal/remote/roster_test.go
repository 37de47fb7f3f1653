package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func dirs(names ...string) []Item {
	items := make([]Item, len(names))
	for i, n := range names {
		items[i] = Item{Name: n, IsDir: true}
	}
	return items
}

func TestFindFolder(t *testing.T) {
	items := dirs("01. CONTRATACION", "02. FACTURACION", "RESPALDOS")

	assert.Equal(t, "01. CONTRATACION", findFolder(items, "CONTRATACION"))
	assert.Equal(t, "01. CONTRATACION", findFolder(items, "contratación"))
	assert.Equal(t, "", findFolder(items, "NOMINA"))

	// Separator-insensitive containment.
	items = dirs("CONTRATOS_2025", "CONTRATOS 2024")
	assert.Equal(t, "CONTRATOS_2025", findFolder(items, "CONTRATOS 2025"))
	assert.Equal(t, "CONTRATOS 2024", findFolder(items, "CONTRATOS 2024"))

	// Files never match.
	assert.Equal(t, "", findFolder([]Item{{Name: "CONTRATACION.txt"}}, "CONTRATACION"))
}

func TestContractNumberVariants(t *testing.T) {
	assert.Equal(t, []string{"45", "045", "0045", "00045"}, contractNumberVariants("45"))
	assert.Equal(t, []string{"0045", "00045", "45"}, contractNumberVariants("0045"))
	// Non-digit noise is stripped before padding.
	assert.Contains(t, contractNumberVariants("No. 45"), "045")
}

func TestFindContractFolder(t *testing.T) {
	items := dirs(
		"044-CLINICA DEL NORTE",
		"045-HOSPITAL SAN RAFAEL",
		"46 LABORATORIO CENTRAL",
		"0047_IPS ORIENTE",
	)

	// Exact first-token match across padding variants.
	assert.Equal(t, "045-HOSPITAL SAN RAFAEL", findContractFolder(items, "45", ""))
	assert.Equal(t, "46 LABORATORIO CENTRAL", findContractFolder(items, "046", ""))
	assert.Equal(t, "0047_IPS ORIENTE", findContractFolder(items, "47", ""))

	// Provider fallback when no number matches.
	assert.Equal(t, "044-CLINICA DEL NORTE", findContractFolder(items, "99", "Clínica del Norte"))
	assert.Equal(t, "", findContractFolder(items, "99", "NO EXISTE"))

	// Close-but-not-contained provider names resolve by similarity.
	assert.Equal(t, "045-HOSPITAL SAN RAFAEL", findContractFolder(items, "99", "HOSPITAL SAN RAFEL"))
}

func TestZeroPad(t *testing.T) {
	assert.Equal(t, "045", zeroPad("45", 3))
	assert.Equal(t, "0045", zeroPad("45", 4))
	assert.Equal(t, "12345", zeroPad("12345", 3))
}
