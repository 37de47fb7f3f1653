// Package export writes consolidation output workbooks.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/consolidador-t25/tarifas-cli/internal/model"
)

// Writer produces the three output workbooks of a consolidation run:
// consolidated services, alerts, and a per-contract summary.
type Writer struct {
	outputDir string
	now       func() time.Time
}

func NewWriter(outputDir string) *Writer {
	return &Writer{outputDir: outputDir, now: time.Now}
}

// serviceHeaders is the column order of the consolidated workbook.
var serviceHeaders = []string{
	"contrato", "ano", "codigo_cups", "descripcion_cups",
	"codigo_homologo", "tarifa_unitaria", "manual_tarifario",
	"porcentaje_tarifario", "codigo_habilitacion", "numero_sede",
	"origen_tarifa", "observaciones", "archivo_origen", "hoja_origen",
}

// ConsolidatedServices writes all extracted records to a single
// CONSOLIDADO sheet and returns the file path. No records, no file.
func (w *Writer) ConsolidatedServices(records []model.ServiceRecord) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	path := w.outputPath("CONSOLIDADO_T25")
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "CONSOLIDADO"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return "", eris.Wrap(err, "export: rename sheet")
	}

	if err := writeRow(f, sheet, 1, toAny(serviceHeaders)); err != nil {
		return "", err
	}
	for i, rec := range records {
		var tariff any
		if rec.UnitTariff != nil {
			tariff = *rec.UnitTariff
		}
		row := []any{
			rec.ContractID, rec.Year, rec.ServiceCode, rec.Description,
			rec.HomologousCode, tariff, rec.TariffManual,
			rec.TariffPercentage, rec.RegistrationCode, rec.SiteNumber,
			rec.Origin, rec.Observations, rec.SourceFile, rec.SourceSheet,
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return "", err
		}
	}

	// Widen the description and provenance columns.
	_ = f.SetColWidth(sheet, "D", "D", 60)
	_ = f.SetColWidth(sheet, "M", "N", 40)

	if err := w.save(f, path); err != nil {
		return "", err
	}
	zap.L().Info("wrote consolidated workbook",
		zap.String("file", path),
		zap.Int("services", len(records)))
	return path, nil
}

// Alerts writes the run's alerts to an ALERTAS sheet.
func (w *Writer) Alerts(alerts []model.Alert) (string, error) {
	if len(alerts) == 0 {
		return "", nil
	}

	path := w.outputPath("ALERTAS_T25")
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "ALERTAS"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return "", eris.Wrap(err, "export: rename sheet")
	}

	headers := []any{"tipo", "mensaje", "archivo", "contrato", "timestamp"}
	if err := writeRow(f, sheet, 1, headers); err != nil {
		return "", err
	}
	for i, a := range alerts {
		ts := ""
		if !a.Timestamp.IsZero() {
			ts = a.Timestamp.Format("2006-01-02 15:04:05")
		}
		if err := writeRow(f, sheet, i+2, []any{string(a.Kind), a.Message, a.File, a.Contract, ts}); err != nil {
			return "", err
		}
	}
	_ = f.SetColWidth(sheet, "B", "B", 70)
	_ = f.SetColWidth(sheet, "C", "C", 40)

	if err := w.save(f, path); err != nil {
		return "", err
	}
	zap.L().Info("wrote alerts workbook",
		zap.String("file", path),
		zap.Int("alerts", len(alerts)))
	return path, nil
}

// Summary writes run statistics (ESTADISTICAS) and a per-contract
// breakdown (DETALLE).
func (w *Writer) Summary(result *model.ConsolidationResult) (string, error) {
	path := w.outputPath("RESUMEN_T25")
	f := excelize.NewFile()
	defer f.Close()

	const statsSheet = "ESTADISTICAS"
	if err := f.SetSheetName("Sheet1", statsSheet); err != nil {
		return "", eris.Wrap(err, "export: rename sheet")
	}

	stats := [][]any{
		{"Métrica", "Valor"},
		{"Total Contratos", result.Processed},
		{"Contratos Exitosos", result.Succeeded},
		{"Contratos Sin Anexo", result.NoAnnex},
		{"Contratos con Error", result.Failed},
		{"Total Servicios", len(result.Services)},
		{"Total Alertas", len(result.Alerts)},
		{"Duración (segundos)", result.Duration().Round(10 * time.Millisecond).Seconds()},
	}
	for i, row := range stats {
		if err := writeRow(f, statsSheet, i+1, row); err != nil {
			return "", err
		}
	}

	const detailSheet = "DETALLE"
	if _, err := f.NewSheet(detailSheet); err != nil {
		return "", eris.Wrap(err, "export: new sheet")
	}
	headers := []any{"Contrato", "Año", "Estado", "Mensaje", "Archivo", "Origen", "Servicios", "Sedes", "Alertas"}
	if err := writeRow(f, detailSheet, 1, headers); err != nil {
		return "", err
	}
	for i, r := range result.Results {
		row := []any{
			r.Contract, r.Year, string(r.Status), r.Message,
			r.DownloadedFile, r.Origin, r.TotalServices, r.TotalSites, len(r.Alerts),
		}
		if err := writeRow(f, detailSheet, i+2, row); err != nil {
			return "", err
		}
	}
	_ = f.SetColWidth(detailSheet, "D", "E", 50)

	if err := w.save(f, path); err != nil {
		return "", err
	}
	zap.L().Info("wrote summary workbook", zap.String("file", path))
	return path, nil
}

func (w *Writer) outputPath(prefix string) string {
	timestamp := w.now().Format("20060102_1504")
	return filepath.Join(w.outputDir, fmt.Sprintf("%s_%s.xlsx", prefix, timestamp))
}

func (w *Writer) save(f *excelize.File, path string) error {
	if w.outputDir != "" {
		if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
			return eris.Wrap(err, "export: create output dir")
		}
	}
	return eris.Wrapf(f.SaveAs(path), "export: save %s", filepath.Base(path))
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return eris.Wrap(err, "export: cell name")
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return eris.Wrapf(err, "export: set cell %s", cell)
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
