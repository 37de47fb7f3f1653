// Package consolidate walks a contract roster, downloads each winning
// annex and extracts its tariffs into one aggregated result.
package consolidate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/consolidador-t25/tarifas-cli/internal/export"
	"github.com/consolidador-t25/tarifas-cli/internal/model"
	"github.com/consolidador-t25/tarifas-cli/internal/remote"
	"github.com/consolidador-t25/tarifas-cli/internal/store"
)

// Source navigates the remote folder tree and downloads annexes.
// remote.Session implements it; tests substitute fakes.
type Source interface {
	NavigateToContract(ctx context.Context, year, number, provider string) (string, error)
	SelectAnnex(ctx context.Context) (*remote.Annex, error)
	DownloadAnnex(ctx context.Context, annex *remote.Annex, destDir string) (string, error)
}

// Extractor turns a downloaded workbook into an ExtractionResult.
type Extractor interface {
	Extract(ctx context.Context, path, displayName string, runCtx model.RunContext) model.ExtractionResult
}

// ProgressFunc receives coarse progress updates during a run.
type ProgressFunc func(percent int, message string)

// Options tunes a consolidation run.
type Options struct {
	// Workers bounds the number of contracts extracted concurrently.
	// The remote session itself is used by one goroutine at a time.
	Workers int
	// DownloadDir is where annexes are staged before extraction.
	DownloadDir string
	// KeepDownloads disables post-extraction cleanup of staged files.
	KeepDownloads bool
	// Reconnect, when set, is invoked after every ReconnectEvery
	// downloads to keep long sessions alive.
	Reconnect      func(ctx context.Context) error
	ReconnectEvery int
	Progress       ProgressFunc
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.DownloadDir == "" {
		o.DownloadDir = "descargas"
	}
	if o.ReconnectEvery <= 0 {
		o.ReconnectEvery = 10
	}
	return o
}

// Consolidator orchestrates a roster run. Store and Writer are optional;
// when nil the corresponding side effects are skipped.
type Consolidator struct {
	source    Source
	extractor Extractor
	store     store.Store
	writer    *export.Writer
	opts      Options

	mu         sync.Mutex // serializes remote navigation and downloads
	downloaded int
}

func New(source Source, extractor Extractor, opts Options) *Consolidator {
	return &Consolidator{source: source, extractor: extractor, opts: opts.withDefaults()}
}

// WithStore enables run persistence.
func (c *Consolidator) WithStore(st store.Store) *Consolidator {
	c.store = st
	return c
}

// WithWriter enables output workbook generation.
func (c *Consolidator) WithWriter(w *export.Writer) *Consolidator {
	c.writer = w
	return c
}

// Run processes every contract in the roster and aggregates the outcome.
// Per-contract failures never abort the run; they become failed results
// and alerts in the aggregate.
func (c *Consolidator) Run(ctx context.Context, contracts []model.Contract) (*model.ConsolidationResult, error) {
	result := &model.ConsolidationResult{StartedAt: time.Now()}

	total := len(contracts)
	if total == 0 {
		result.Message = "No hay contratos para procesar"
		result.FinishedAt = time.Now()
		return result, nil
	}

	var runID string
	if c.store != nil {
		run, err := c.store.CreateRun(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "consolidate: create run")
		}
		runID = run.ID
		result.RunID = runID
	}

	c.progress(15, fmt.Sprintf("Iniciando consolidación de %d contratos...", total))

	results := make([]model.ContractResult, total)
	var done int
	var progressMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for i, contract := range contracts {
		g.Go(func() error {
			results[i] = c.processContract(gctx, contract)

			progressMu.Lock()
			done++
			pct := 15 + (done*70)/total
			progressMu.Unlock()
			c.progress(pct, fmt.Sprintf("Procesando contrato %s (%d/%d)...", contract.Number, done, total))
			return nil
		})
	}
	// Workers never return errors; gctx only trips on caller cancellation.
	_ = g.Wait()

	for _, r := range results {
		result.Results = append(result.Results, r)
		result.Processed++
		switch r.Status {
		case model.ContractProcessed:
			result.Succeeded++
			result.Services = append(result.Services, r.Services...)
		case model.ContractNoAnnex:
			result.NoAnnex++
		default:
			result.Failed++
		}
		result.Alerts = append(result.Alerts, r.Alerts...)
	}

	if c.store != nil {
		if err := c.persist(ctx, runID, result); err != nil {
			zap.L().Error("failed to persist run", zap.String("run_id", runID), zap.Error(err))
		}
	}

	result.FinishedAt = time.Now()
	result.Success = result.Succeeded > 0
	result.Message = fmt.Sprintf("Consolidación completada: %d/%d exitosos, %d servicios extraídos",
		result.Succeeded, total, len(result.Services))

	if c.writer != nil && len(result.Services) > 0 {
		c.progress(90, "Generando archivos de salida...")
		c.writeOutputs(result)
	}

	if c.store != nil {
		if err := c.store.FinishRun(ctx, runID, result); err != nil {
			zap.L().Error("failed to finish run", zap.String("run_id", runID), zap.Error(err))
		}
	}

	c.progress(100, result.Message)
	return result, ctx.Err()
}

// processContract runs the navigate → select → download → extract pipeline
// for one contract. The remote phase holds the session lock; extraction of
// the downloaded file runs outside it.
func (c *Consolidator) processContract(ctx context.Context, contract model.Contract) model.ContractResult {
	result := model.ContractResult{Contract: contract.Number, Year: contract.Year}

	annex, localPath, err := c.fetchAnnex(ctx, contract, &result)
	if err != nil {
		return result
	}

	runCtx := model.RunContext{
		ContractID: fmt.Sprintf("%s-%s", contract.Number, contract.Year),
		Year:       contract.Year,
		Origin:     annex.Origin,
	}
	extraction := c.extractor.Extract(ctx, localPath, annex.Name, runCtx)
	result.Alerts = append(result.Alerts, extraction.Alerts...)

	if extraction.Success {
		result.Status = model.ContractProcessed
		result.Services = extraction.Services
		result.TotalServices = len(extraction.Services)
		result.TotalSites = len(extraction.Sites)
		result.Message = fmt.Sprintf("Procesado: %d servicios", result.TotalServices)
	} else {
		result.Status = model.ContractFailed
		result.Message = extraction.Message
	}

	if !c.opts.KeepDownloads {
		_ = os.RemoveAll(filepath.Dir(localPath))
	}
	return result
}

// fetchAnnex does the serialized remote phase. On failure it fills the
// contract result with the terminal status and alert.
func (c *Consolidator) fetchAnnex(ctx context.Context, contract model.Contract, result *model.ContractResult) (*remote.Annex, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.source.NavigateToContract(ctx, contract.Year, contract.Number, contract.Provider); err != nil {
		result.Status = model.ContractFailed
		result.Message = err.Error()
		result.Alerts = append(result.Alerts, model.Alert{
			Kind:      model.AlertContractNotFound,
			Message:   err.Error(),
			Contract:  contract.Number,
			Timestamp: time.Now(),
		})
		return nil, "", err
	}

	annex, err := c.source.SelectAnnex(ctx)
	if err != nil {
		result.Status = model.ContractNoAnnex
		result.Message = err.Error()
		result.Alerts = append(result.Alerts, model.Alert{
			Kind:      model.AlertNoAnnex,
			Message:   err.Error(),
			Contract:  contract.Number,
			Timestamp: time.Now(),
		})
		return nil, "", err
	}

	destDir := filepath.Join(c.opts.DownloadDir, fmt.Sprintf("%s_%s", contract.Number, contract.Year))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		result.Status = model.ContractFailed
		result.Message = err.Error()
		return nil, "", err
	}
	localPath, err := c.source.DownloadAnnex(ctx, annex, destDir)
	if err != nil {
		result.Status = model.ContractFailed
		result.Message = err.Error()
		result.Alerts = append(result.Alerts, model.Alert{
			Kind:      model.AlertReadError,
			Message:   err.Error(),
			File:      annex.Name,
			Contract:  contract.Number,
			Timestamp: time.Now(),
		})
		return nil, "", err
	}

	result.DownloadedFile = annex.Name
	result.Origin = annex.Origin

	c.downloaded++
	if c.opts.Reconnect != nil && c.downloaded%c.opts.ReconnectEvery == 0 {
		if err := c.opts.Reconnect(ctx); err != nil {
			zap.L().Warn("session keepalive reconnect failed", zap.Error(err))
		}
	}
	return annex, localPath, nil
}

func (c *Consolidator) persist(ctx context.Context, runID string, result *model.ConsolidationResult) error {
	if _, err := c.store.InsertServices(ctx, runID, result.Services); err != nil {
		return err
	}
	return c.store.InsertAlerts(ctx, runID, result.Alerts)
}

func (c *Consolidator) writeOutputs(result *model.ConsolidationResult) {
	var err error
	if result.OutputFile, err = c.writer.ConsolidatedServices(result.Services); err != nil {
		zap.L().Error("failed to write consolidated workbook", zap.Error(err))
	}
	if result.AlertsFile, err = c.writer.Alerts(result.Alerts); err != nil {
		zap.L().Error("failed to write alerts workbook", zap.Error(err))
	}
	if result.SummaryFile, err = c.writer.Summary(result); err != nil {
		zap.L().Error("failed to write summary workbook", zap.Error(err))
	}
}

func (c *Consolidator) progress(pct int, msg string) {
	zap.L().Info(msg, zap.Int("percent", pct))
	if c.opts.Progress != nil {
		c.opts.Progress(pct, msg)
	}
}
