package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/consolidador-t25/tarifas-cli/internal/model"
	"github.com/consolidador-t25/tarifas-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List persisted consolidation runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status: model.RunStatus(status),
			Limit:  limit,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	},
}

func init() {
	runsCmd.Flags().String("status", "", "filter by status (running|complete|failed)")
	runsCmd.Flags().Int("limit", 20, "maximum runs to list")
	rootCmd.AddCommand(runsCmd)
}
