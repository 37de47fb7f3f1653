package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/consolidador-t25/tarifas-cli/internal/classify"
	"github.com/consolidador-t25/tarifas-cli/internal/export"
	"github.com/consolidador-t25/tarifas-cli/internal/model"
)

var (
	extractContract string
	extractYear     string
	extractOrigin   string
	extractWrite    bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <archivo.xlsx>",
	Short: "Extract tariff services from a single annex workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		name := filepath.Base(path)

		origin := extractOrigin
		if origin == "" {
			origin = classify.Filename(name).OriginLabel()
		}

		runCtx := model.RunContext{
			ContractID: extractContract,
			Year:       extractYear,
			Origin:     origin,
		}

		result := newExtractor().Extract(cmd.Context(), path, name, runCtx)

		zap.L().Info("extraction finished",
			zap.String("file", name),
			zap.Bool("success", result.Success),
			zap.Int("services", len(result.Services)),
			zap.Int("sites", len(result.Sites)),
			zap.Int("alerts", len(result.Alerts)),
		)

		if extractWrite && len(result.Services) > 0 {
			w := export.NewWriter(cfg.Processing.OutputDir)
			out, err := w.ConsolidatedServices(result.Services)
			if err != nil {
				return err
			}
			zap.L().Info("services written", zap.String("file", out))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractContract, "contract", "", "contract identifier stamped onto records")
	extractCmd.Flags().StringVar(&extractYear, "year", "", "contract year stamped onto records")
	extractCmd.Flags().StringVar(&extractOrigin, "origin", "", "tariff origin label (default: derived from filename)")
	extractCmd.Flags().BoolVar(&extractWrite, "write", false, "also write a consolidated workbook")
	rootCmd.AddCommand(extractCmd)
}
