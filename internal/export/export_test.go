package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/consolidador-t25/tarifas-cli/internal/model"
)

func newTestWriter(t *testing.T) *Writer {
	t.Helper()
	w := NewWriter(t.TempDir())
	w.now = func() time.Time { return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC) }
	return w
}

func TestConsolidatedServices_ColumnOrder(t *testing.T) {
	w := newTestWriter(t)

	tariff := 45000.5
	path, err := w.ConsolidatedServices([]model.ServiceRecord{
		{
			ContractID:       "4600012345",
			Year:             "2025",
			ServiceCode:      "890201",
			Description:      "CONSULTA MEDICINA GENERAL",
			UnitTariff:       &tariff,
			RegistrationCode: "0012345678-01",
			SiteNumber:       "1",
			Origin:           "Inicial",
			SourceFile:       "ANEXO 1.xlsx",
			SourceSheet:      "SERVICIOS",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "CONSOLIDADO_T25_20250314_0930.xlsx", filepath.Base(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("CONSOLIDADO")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, serviceHeaders, rows[0])
	assert.Equal(t, "4600012345", rows[1][0])
	assert.Equal(t, "890201", rows[1][2])
	assert.Equal(t, "45000.5", rows[1][5])
	assert.Equal(t, "Inicial", rows[1][10])
}

func TestConsolidatedServices_Empty(t *testing.T) {
	w := newTestWriter(t)

	path, err := w.ConsolidatedServices(nil)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestAlerts_Workbook(t *testing.T) {
	w := newTestWriter(t)

	path, err := w.Alerts([]model.Alert{
		{
			Kind:      model.AlertSheetNotFound,
			Message:   "sin hoja de servicios",
			File:      "ANEXO 1.xlsx",
			Contract:  "4600012345",
			Timestamp: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("ALERTAS")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "HOJA_NO_ENCONTRADA", rows[1][0])
	assert.Equal(t, "2025-03-14 09:00:00", rows[1][4])
}

func TestSummary_Sheets(t *testing.T) {
	w := newTestWriter(t)

	result := &model.ConsolidationResult{
		Success:    true,
		Processed:  3,
		Succeeded:  2,
		Failed:     0,
		NoAnnex:    1,
		StartedAt:  time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2025, 3, 14, 9, 2, 30, 0, time.UTC),
		Results: []model.ContractResult{
			{Contract: "111", Year: "2025", Status: model.ContractProcessed, TotalServices: 40, TotalSites: 2},
			{Contract: "222", Year: "2025", Status: model.ContractNoAnnex, Message: "sin anexo tarifario"},
		},
	}

	path, err := w.Summary(result)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	stats, err := f.GetRows("ESTADISTICAS")
	require.NoError(t, err)
	require.NotEmpty(t, stats)
	assert.Equal(t, []string{"Métrica", "Valor"}, stats[0])
	assert.Equal(t, "Total Contratos", stats[1][0])
	assert.Equal(t, "3", stats[1][1])

	detail, err := f.GetRows("DETALLE")
	require.NoError(t, err)
	require.Len(t, detail, 3)
	assert.Equal(t, "111", detail[1][0])
	assert.Equal(t, "procesado", detail[1][2])
	assert.Equal(t, "sin_anexo", detail[2][2])
}
