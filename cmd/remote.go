package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/consolidador-t25/tarifas-cli/internal/remote"
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Inspect the remote contract repository",
}

var remoteLsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List a remote directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		path := "/"
		if len(args) == 1 {
			path = args[0]
		}

		client, err := dialRemote(ctx)
		if err != nil {
			return eris.Wrap(err, "dial remote")
		}
		defer client.Close()

		items, err := client.List(ctx, path)
		if err != nil {
			return eris.Wrapf(err, "list %s", path)
		}

		for _, it := range items {
			kind := "-"
			if it.IsDir {
				kind = "d"
			}
			fmt.Printf("%s %12d  %s  %s\n", kind, it.Size, it.ModTime.Format("2006-01-02 15:04"), it.Name)
		}
		return nil
	},
}

var remoteFindCmd = &cobra.Command{
	Use:   "find <year> <contract>",
	Short: "Locate a contract folder and its winning annex",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		client, err := dialRemote(ctx)
		if err != nil {
			return eris.Wrap(err, "dial remote")
		}
		defer client.Close()

		session := remote.NewSession(client, cfg.Remote.MainFolder)
		path, err := session.NavigateToContract(ctx, args[0], args[1], "")
		if err != nil {
			return err
		}
		fmt.Println("carpeta:", path)

		annex, err := session.SelectAnnex(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("anexo:   %s (%s, %d bytes)\n", annex.Name, annex.Origin, annex.Size)
		return nil
	},
}

func init() {
	remoteCmd.AddCommand(remoteLsCmd)
	remoteCmd.AddCommand(remoteFindCmd)
	rootCmd.AddCommand(remoteCmd)
}
