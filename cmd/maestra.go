package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/consolidador-t25/tarifas-cli/internal/maestra"
	"github.com/consolidador-t25/tarifas-cli/internal/sheet"
)

var maestraCmd = &cobra.Command{
	Use:   "maestra <archivo>",
	Short: "Inspect a contract master workbook: available years and counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roster, err := maestra.Load(sheet.NewReader(), args[0], cfg.Processing.MaxRows)
		if err != nil {
			return err
		}

		counts := roster.CountByYear()
		for _, year := range roster.Years() {
			fmt.Printf("%s  %4d contratos\n", year, counts[year])
		}
		fmt.Printf("total %d prestadores de salud\n", len(roster.Contracts()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(maestraCmd)
}
