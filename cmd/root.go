package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/consolidador-t25/tarifas-cli/internal/config"
	"github.com/consolidador-t25/tarifas-cli/internal/refdata"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "tarifas-cli",
	Short: "Consolidador de anexos tarifarios ANEXO 1",
	Long:  "Navega carpetas de contratos, selecciona el anexo tarifario vigente (inicial u otrosí), extrae códigos CUPS, tarifas y sedes, y consolida todo en archivos y base de datos.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		if cfg.Processing.RefdataOverlay != "" {
			if err := refdata.LoadOverlay(cfg.Processing.RefdataOverlay); err != nil {
				return fmt.Errorf("load refdata overlay: %w", err)
			}
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
