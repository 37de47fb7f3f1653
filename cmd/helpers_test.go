package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/consolidador-t25/tarifas-cli/internal/config"
)

func writeRoster(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRoster_WithHeader(t *testing.T) {
	path := writeRoster(t, "numero,ano,nit,razon_social\n4600012345,2025,900123456,IPS EJEMPLO SAS\n890,2024\n")

	contracts, err := loadRoster(path)
	require.NoError(t, err)
	require.Len(t, contracts, 2)
	assert.Equal(t, "4600012345", contracts[0].Number)
	assert.Equal(t, "2025", contracts[0].Year)
	assert.Equal(t, "900123456", contracts[0].NIT)
	assert.Equal(t, "IPS EJEMPLO SAS", contracts[0].Provider)
	assert.Equal(t, "890", contracts[1].Number)
}

func TestLoadRoster_NoHeader(t *testing.T) {
	path := writeRoster(t, "111,2025\n222,2025\n")

	contracts, err := loadRoster(path)
	require.NoError(t, err)
	assert.Len(t, contracts, 2)
}

func TestLoadRoster_Empty(t *testing.T) {
	path := writeRoster(t, "numero,ano\n")

	_, err := loadRoster(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no contracts")
}

func TestResolveContracts_RequiresInput(t *testing.T) {
	consolidateRoster = ""
	consolidateContract = ""
	consolidateYear = ""

	_, err := resolveContracts()
	require.Error(t, err)
}

func TestResolveContracts_MaestraRequiresYear(t *testing.T) {
	consolidateRoster = ""
	consolidateMaestra = "maestra.xlsx"
	consolidateYear = ""
	t.Cleanup(func() { consolidateMaestra = "" })

	_, err := resolveContracts()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--year")
}

func TestResolveContracts_Maestra(t *testing.T) {
	f := xlsx.NewFile()
	sh, err := f.AddSheet("MAESTRA")
	require.NoError(t, err)
	header := sh.AddRow()
	for _, h := range []string{"NUMERO CONTRATO", "AÑO CONTRATO", "NIT", "NOMBRE PROVEEDOR"} {
		header.AddCell().SetString(h)
	}
	row := sh.AddRow()
	row.AddCell().SetFloat(45)
	row.AddCell().SetFloat(2025)
	row.AddCell().SetString("900123456")
	row.AddCell().SetString("HOSPITAL SAN RAFAEL")
	path := filepath.Join(t.TempDir(), "maestra.xlsx")
	require.NoError(t, f.Save(path))

	cfg = &config.Config{}
	consolidateRoster = ""
	consolidateMaestra = path
	consolidateYear = "2025"
	t.Cleanup(func() {
		cfg = nil
		consolidateMaestra = ""
		consolidateYear = ""
	})

	contracts, err := resolveContracts()
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	assert.Equal(t, "0045", contracts[0].Number)
	assert.Equal(t, "HOSPITAL SAN RAFAEL", contracts[0].Provider)
}

func TestResolveContracts_SingleContract(t *testing.T) {
	consolidateRoster = ""
	consolidateContract = "4600012345"
	consolidateYear = "2025"
	consolidateProvider = "IPS EJEMPLO"
	t.Cleanup(func() {
		consolidateContract = ""
		consolidateYear = ""
		consolidateProvider = ""
	})

	contracts, err := resolveContracts()
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	assert.Equal(t, "4600012345", contracts[0].Number)
	assert.Equal(t, "IPS EJEMPLO", contracts[0].Provider)
}
