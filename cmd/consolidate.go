package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/consolidador-t25/tarifas-cli/internal/consolidate"
	"github.com/consolidador-t25/tarifas-cli/internal/export"
	"github.com/consolidador-t25/tarifas-cli/internal/maestra"
	"github.com/consolidador-t25/tarifas-cli/internal/model"
	"github.com/consolidador-t25/tarifas-cli/internal/remote"
	"github.com/consolidador-t25/tarifas-cli/internal/sheet"
)

var (
	consolidateRoster   string
	consolidateMaestra  string
	consolidateContract string
	consolidateYear     string
	consolidateProvider string
	consolidateNoFiles  bool
	consolidateNoStore  bool
)

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Download and consolidate annexes for a contract roster",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		contracts, err := resolveContracts()
		if err != nil {
			return err
		}

		client, err := dialRemote(ctx)
		if err != nil {
			return eris.Wrap(err, "dial remote")
		}
		defer client.Close()

		session := remote.NewSession(client, cfg.Remote.MainFolder)

		c := consolidate.New(session, newExtractor(), consolidate.Options{
			Workers:     cfg.Processing.Workers,
			DownloadDir: cfg.Processing.DownloadDir,
			Reconnect:   client.Reconnect,
		})

		if !consolidateNoStore {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
			c.WithStore(st)
		}
		if !consolidateNoFiles {
			c.WithWriter(export.NewWriter(cfg.Processing.OutputDir))
		}

		result, err := c.Run(ctx, contracts)
		if err != nil {
			return eris.Wrap(err, "consolidate run")
		}

		zap.L().Info("consolidation complete",
			zap.Int("processed", result.Processed),
			zap.Int("succeeded", result.Succeeded),
			zap.Int("failed", result.Failed),
			zap.Int("no_annex", result.NoAnnex),
			zap.Int("services", len(result.Services)),
			zap.Duration("elapsed", result.Duration()),
		)

		// Services are already in files/store; keep stdout summary compact.
		summary := *result
		summary.Services = nil
		for i := range summary.Results {
			summary.Results[i].Services = nil
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(&summary)
	},
}

func resolveContracts() ([]model.Contract, error) {
	if consolidateRoster != "" {
		return loadRoster(consolidateRoster)
	}
	if consolidateMaestra != "" {
		if consolidateYear == "" {
			return nil, eris.New("--maestra requires --year")
		}
		roster, err := maestra.Load(sheet.NewReader(), consolidateMaestra, cfg.Processing.MaxRows)
		if err != nil {
			return nil, err
		}
		contracts := roster.ContractsByYear(consolidateYear)
		if len(contracts) == 0 {
			return nil, eris.Errorf("maestra %s has no contracts for year %s", consolidateMaestra, consolidateYear)
		}
		return contracts, nil
	}
	if consolidateContract == "" || consolidateYear == "" {
		return nil, eris.New("either --roster, --maestra, or --contract and --year are required")
	}
	return []model.Contract{{
		Number:   consolidateContract,
		Year:     consolidateYear,
		Provider: consolidateProvider,
	}}, nil
}

func init() {
	consolidateCmd.Flags().StringVar(&consolidateRoster, "roster", "", "CSV roster: numero,ano[,nit[,razon_social]]")
	consolidateCmd.Flags().StringVar(&consolidateMaestra, "maestra", "", "contract master workbook, combined with --year")
	consolidateCmd.Flags().StringVar(&consolidateContract, "contract", "", "single contract number")
	consolidateCmd.Flags().StringVar(&consolidateYear, "year", "", "contract year for --contract or --maestra")
	consolidateCmd.Flags().StringVar(&consolidateProvider, "provider", "", "provider name, used as a folder-matching fallback")
	consolidateCmd.Flags().BoolVar(&consolidateNoFiles, "no-files", false, "skip output workbooks")
	consolidateCmd.Flags().BoolVar(&consolidateNoStore, "no-store", false, "skip database persistence")
	rootCmd.AddCommand(consolidateCmd)
}
