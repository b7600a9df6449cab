package cli

import (
	"github.com/spf13/cobra"

	"arpdeploy/internal/output"
	"arpdeploy/internal/plan"
)

func newNetworksCommand(app *App) *cobra.Command {
	var planFile string

	cmd := &cobra.Command{
		Use:   "networks",
		Short: "List networks with a deployment profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			router, err := app.router(planFile)
			if err != nil {
				return app.fail(err)
			}

			var rows []output.NetworkRow
			for _, name := range router.Names() {
				p, err := router.Lookup(name)
				if err != nil {
					return app.fail(err)
				}
				rows = append(rows, output.NetworkRow{
					Name:     name,
					Steps:    plan.IDs(p.Steps),
					Endpoint: app.Config.Endpoint(name),
					ChainID:  app.Config.Network(name).ChainID,
					DevKeys:  p.AllowDevKeys,
				})
			}
			app.Printer.Networks(rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&planFile, "plan", "", "plan file replacing or adding network profiles")
	return cmd
}
