// Package extract drives the heuristic extraction of service-tariff records
// from one ANEXO 1 workbook: sheet selection, column detection, site-block
// fan-out, row validation. The entry point is Extractor.Extract, which
// always returns an ExtractionResult and never panics out or blocks past
// its wall-clock budget.
package extract

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/consolidador-t25/tarifas-cli/internal/classify"
	"github.com/consolidador-t25/tarifas-cli/internal/model"
	"github.com/consolidador-t25/tarifas-cli/internal/normalize"
	"github.com/consolidador-t25/tarifas-cli/internal/sheet"
	"github.com/consolidador-t25/tarifas-cli/internal/validate"
)

const (
	maxDescriptionLen  = 500
	maxObservationsLen = 500
	maxManualLen       = 50
	maxPercentageLen   = 20
	maxHomologousLen   = 20
	maxErrorLen        = 100
)

// Options configures one Extractor.
type Options struct {
	// Timeout is the per-file wall-clock budget. Default 90s.
	Timeout time.Duration
	// MaxRows caps how many rows of a sheet are read. Default 20000.
	MaxRows int
	// MaxSites caps a single site block, protecting against runaway
	// blocks on malformed sheets. Default 100.
	MaxSites int
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 90 * time.Second
	}
	if o.MaxRows <= 0 {
		o.MaxRows = 20000
	}
	if o.MaxSites <= 0 {
		o.MaxSites = 100
	}
	return o
}

// Extractor extracts service records from tariff workbooks. It holds no
// per-file state; one Extractor may be shared across concurrent files.
type Extractor struct {
	reader sheet.Reader
	opts   Options
}

// New builds an Extractor over the given workbook reader.
func New(reader sheet.Reader, opts Options) *Extractor {
	return &Extractor{reader: reader, opts: opts.withDefaults()}
}

// Extract processes one workbook under the configured wall-clock budget.
// On timeout the in-progress attempt is abandoned and its eventual result
// discarded; partial extractions never surface as complete ones.
func (e *Extractor) Extract(ctx context.Context, path, displayName string, runCtx model.RunContext) model.ExtractionResult {
	if displayName == "" {
		displayName = path
	}

	// Buffered so the abandoned worker can always deliver and exit.
	done := make(chan model.ExtractionResult, 1)
	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	started := time.Now()
	go func() {
		done <- e.run(scanCtx, path, displayName, runCtx)
	}()

	timer := time.NewTimer(e.opts.Timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		cancel()
		e.drainLate(done, displayName, started)
		res := failure(fmt.Sprintf("extracción cancelada: %v", ctx.Err()))
		res.Alerts = append(res.Alerts, newAlert(model.AlertProcessingError, "extracción cancelada", displayName, runCtx.ContractID))
		return res
	case <-timer.C:
		cancel()
		e.drainLate(done, displayName, started)
		msg := fmt.Sprintf("el archivo tardó más de %s", e.opts.Timeout)
		res := failure(fmt.Sprintf("timeout (%s)", e.opts.Timeout))
		res.Alerts = append(res.Alerts, newAlert(model.AlertTimeout, msg, displayName, runCtx.ContractID))
		return res
	}
}

// drainLate observes the abandoned worker in the background so its
// completion is visible in logs instead of leaking silently.
func (e *Extractor) drainLate(done <-chan model.ExtractionResult, name string, started time.Time) {
	go func() {
		res := <-done
		zap.L().Debug("extract: abandoned scan finished, result discarded",
			zap.String("file", name),
			zap.Int("services", len(res.Services)),
			zap.Duration("elapsed", time.Since(started)))
	}()
}

// run is the full sequential scan of one workbook. Any panic inside the
// heuristics is recovered into an ERROR_PROCESAMIENTO alert.
func (e *Extractor) run(ctx context.Context, path, displayName string, runCtx model.RunContext) (res model.ExtractionResult) {
	defer func() {
		if r := recover(); r != nil {
			msg := truncate(fmt.Sprintf("%v", r), maxErrorLen)
			zap.L().Error("extract: recovered panic", zap.String("file", displayName), zap.String("panic", msg))
			res = failure(msg)
			res.Alerts = append(res.Alerts, newAlert(model.AlertProcessingError, msg, displayName, runCtx.ContractID))
		}
	}()

	names, err := e.reader.ListSheetNames(path)
	if err != nil {
		msg := truncate(err.Error(), maxErrorLen)
		res = failure("archivo no legible")
		res.Alerts = append(res.Alerts, newAlert(model.AlertReadError, msg, displayName, runCtx.ContractID))
		return res
	}

	chosen, excluded := classify.PickServicesSheet(names)
	if chosen == "" {
		return e.noSheetResult(names, excluded, displayName, runCtx)
	}

	grid, err := e.reader.ReadGrid(path, chosen, e.opts.MaxRows)
	if err != nil {
		res = failure("hoja no legible")
		res.ProcessedSheet = chosen
		res.Alerts = append(res.Alerts, newAlert(model.AlertReadError, truncate(err.Error(), maxErrorLen), displayName, runCtx.ContractID))
		return res
	}
	if len(grid) == 0 {
		res = failure("hoja vacía")
		res.ProcessedSheet = chosen
		res.Alerts = append(res.Alerts, newAlert(model.AlertReadError, "hoja vacía o no legible", displayName, runCtx.ContractID))
		return res
	}

	return e.scan(ctx, grid, chosen, displayName, runCtx)
}

// noSheetResult distinguishes a transport-only workbook from a genuinely
// missing services sheet.
func (e *Extractor) noSheetResult(names []string, excluded []classify.Excluded, displayName string, runCtx model.RunContext) model.ExtractionResult {
	switch classify.ClassifySheetSet(names) {
	case classify.SheetSetOnlyAmbulance:
		res := failure("solo ambulancias")
		res.Alerts = append(res.Alerts, newAlert(model.AlertTransfersOnly, "el archivo contiene únicamente hojas de ambulancias", displayName, runCtx.ContractID))
		return res
	case classify.SheetSetOnlyTransfers:
		res := failure("solo traslados")
		res.Alerts = append(res.Alerts, newAlert(model.AlertTransfersOnly, "el archivo contiene únicamente hojas de traslados", displayName, runCtx.ContractID))
		return res
	case classify.SheetSetMixed:
		res := failure("solo ambulancias/traslados")
		res.Alerts = append(res.Alerts, newAlert(model.AlertTransfersOnly, "el archivo contiene únicamente hojas de ambulancias y traslados", displayName, runCtx.ContractID))
		return res
	}

	msg := "no se encontró hoja de servicios válida"
	if len(excluded) > 0 {
		skipped := make([]string, len(excluded))
		for i, ex := range excluded {
			skipped[i] = ex.Name
		}
		msg += "; hojas descartadas: " + strings.Join(skipped, ", ")
	}
	res := failure("hoja de servicios no encontrada")
	res.Alerts = append(res.Alerts, newAlert(model.AlertSheetNotFound, msg, displayName, runCtx.ContractID))
	return res
}

// scan is the row state machine over the chosen sheet.
func (e *Extractor) scan(ctx context.Context, grid [][]sheet.Cell, sheetName, displayName string, runCtx model.RunContext) model.ExtractionResult {
	res := model.ExtractionResult{ProcessedSheet: sheetName, TotalRows: len(grid)}

	var (
		columns      ColumnMap
		columnsFound bool
		activeSites  []model.Site
		skippingLegs bool
	)

	i := 0
	for i < len(grid) {
		if err := ctx.Err(); err != nil {
			// The caller already abandoned this scan; the result goes to
			// a buffered channel and is discarded.
			return failure("cancelado")
		}

		row := grid[i]
		if sheet.Blank(row) {
			skippingLegs = false
			i++
			continue
		}

		if skippingLegs {
			if strings.Contains(rowText(row), "CUPS") {
				skippingLegs = false
				// fall through: this row may be a services header.
			} else {
				i++
				continue
			}
		}

		if IsSiteSectionHeader(row) {
			idxReg, idxSite := locateSiteColumns(row)
			block, next := extractSiteBlock(grid, i+1, idxReg, idxSite, e.opts.MaxSites)
			if len(block) > 0 {
				activeSites = block
				res.Sites = append(res.Sites, block...)
			}
			i = next
			continue
		}

		if IsTransferSectionHeader(row) {
			skippingLegs = true
			i++
			continue
		}

		if IsServicesHeader(row) {
			if cm, ok := DetectColumnsInRow(row, i); ok {
				columns = cm
				columnsFound = true
			}
			i++
			continue
		}

		// Untitled header rows within the scan window still anchor on CUPS.
		if !columnsFound && i < headerScanWindow {
			if cm, ok := DetectColumnsInRow(row, i); ok {
				columns = cm
				columnsFound = true
				i++
				continue
			}
		}

		if columnsFound && columns.CUPS >= 0 && columns.CUPS < len(row) {
			raw := row[columns.CUPS].String()
			if code, ok := validate.ServiceCode(raw, row); ok {
				res.Services = append(res.Services, e.buildRecords(code, row, columns, activeSites, sheetName, displayName, runCtx)...)
			}
		}

		i++
	}

	if !columnsFound {
		res.Message = "columnas no detectadas"
		res.Alerts = append(res.Alerts, newAlert(model.AlertColumnsNotDetected, "no se detectaron columnas de servicios", displayName, runCtx.ContractID))
		return res
	}

	if len(res.Services) == 0 {
		res.Message = "sin servicios"
		res.Alerts = append(res.Alerts, newAlert(model.AlertNoServices, "ninguna fila pasó la validación de servicios", displayName, runCtx.ContractID))
		return res
	}

	res.Success = true
	res.Message = fmt.Sprintf("extraídos %d servicios", len(res.Services))
	return res
}

// buildRecords materializes the record for one valid row, fanned out across
// the active sites (one record per site) or emitted once with the default
// site when no site block is active.
func (e *Extractor) buildRecords(code string, row sheet.Row, cm ColumnMap, activeSites []model.Site, sheetName, displayName string, runCtx model.RunContext) []model.ServiceRecord {
	base := model.ServiceRecord{
		ServiceCode: code,
		Origin:      runCtx.Origin,
		ContractID:  runCtx.ContractID,
		Year:        runCtx.Year,
		SourceFile:  displayName,
		SourceSheet: sheetName,
	}

	if v, ok := cellAt(row, cm.Descripcion); ok {
		base.Description = truncate(strings.TrimSpace(v.String()), maxDescriptionLen)
	}
	if v, ok := cellAt(row, cm.Homologo); ok {
		base.HomologousCode = truncate(strings.TrimSpace(v.String()), maxHomologousLen)
	}
	if v, ok := cellAt(row, cm.Tarifa); ok && validate.Tariff(v, row) {
		if num, isNum := v.Number(); isNum {
			if f, pos := normalize.Positive(num); pos {
				base.UnitTariff = &f
			}
		} else if f, pos := normalize.ParseMonetary(v.String()); pos {
			base.UnitTariff = &f
		}
	}
	if v, ok := cellAt(row, cm.Tarifario); ok {
		base.TariffManual = truncate(strings.TrimSpace(v.String()), maxManualLen)
	}
	if v, ok := cellAt(row, cm.Porcentaje); ok {
		// Pass-through: the manuals are inconsistent about whether this is
		// a percentage-of-manual or an absolute surcharge.
		base.TariffPercentage = truncate(strings.TrimSpace(v.String()), maxPercentageLen)
	}
	if v, ok := cellAt(row, cm.Observaciones); ok {
		base.Observations = truncate(strings.TrimSpace(v.String()), maxObservationsLen)
	}

	if len(activeSites) == 0 {
		activeSites = []model.Site{DefaultSite()}
	}

	out := make([]model.ServiceRecord, 0, len(activeSites))
	for _, site := range activeSites {
		rec := base
		rec.RegistrationCode = NormalizeRegistrationCode(site.RegistrationCode, site.SiteNumber)
		rec.SiteNumber = site.SiteNumber
		out = append(out, rec)
	}
	return out
}

func cellAt(row sheet.Row, idx int) (sheet.Cell, bool) {
	if idx < 0 || idx >= len(row) {
		return sheet.Cell{}, false
	}
	c := row[idx]
	if c.Empty() {
		return sheet.Cell{}, false
	}
	return c, true
}

func failure(msg string) model.ExtractionResult {
	return model.ExtractionResult{Message: msg}
}

func newAlert(kind model.AlertKind, msg, file, contract string) model.Alert {
	return model.Alert{Kind: kind, Message: msg, File: file, Contract: contract, Timestamp: time.Now().UTC()}
}

// truncate caps s at n bytes without splitting a multi-byte rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
