package cli

import (
	"github.com/spf13/cobra"

	"arpdeploy/internal/ledger"
)

func newHistoryCommand(app *App) *cobra.Command {
	var latest bool

	cmd := &cobra.Command{
		Use:   "history [network]",
		Short: "Show recorded deployment runs",
		Long: `Show the runs recorded in the ledger, oldest first, with the contracts
each one deployed. Without a network every run is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 1 {
				name = args[0]
			}
			reader := ledger.NewReader(app.Fs, app.Config.LedgerPath)

			if latest {
				run, err := reader.Latest(name)
				if err != nil {
					return app.fail(err)
				}
				app.Printer.History([]ledger.Run{*run})
				return nil
			}

			runs, err := reader.Runs(name)
			if err != nil {
				return app.fail(err)
			}
			app.Printer.History(runs)
			return nil
		},
	}

	cmd.Flags().BoolVar(&latest, "latest", false, "show only the most recent run")
	return cmd
}
