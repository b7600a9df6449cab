package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"arpdeploy/internal/sequencer"
)

func newPlanCommand(app *App) *cobra.Command {
	opts := &deployOptions{}

	cmd := &cobra.Command{
		Use:   "plan <network>",
		Short: "Preview a network's deployments",
		Long: `Show the steps a deploy would run, with constructor arguments resolved
where possible. References to contracts of the same run are shown as
placeholders, and time arguments use the current clock.

Nothing is sent to a node.

Example:
  arpdeploy plan development --account 0xAbc...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.plan(args[0], opts)
		},
	}

	opts.bindPlanFlags(cmd)
	return cmd
}

func (app *App) plan(name string, opts *deployOptions) error {
	router, err := app.router(opts.planFile)
	if err != nil {
		return app.fail(err)
	}
	accts, err := parseAccounts(opts.accounts)
	if err != nil {
		return app.fail(err)
	}

	registry := app.artifacts(opts.artifactsDir)
	executor := sequencer.NewExecutor(router, registry, nil)
	executor.SetStrictNetwork(app.strictNetwork(opts))
	executor.SetClock(app.now)

	steps, err := executor.Steps(name, accts)
	if err != nil {
		return app.fail(err)
	}

	var missing []string
	for i, s := range steps {
		if !registry.Has(s.Contract) {
			missing = append(missing, s.Contract)
			continue
		}
		a, err := registry.Load(s.Contract)
		if err != nil {
			app.Printer.Warn("%v", err)
			continue
		}
		steps[i].Signature = a.ConstructorSignature()
	}

	app.Printer.Plan(name, steps)
	if len(missing) == 0 {
		return nil
	}
	available, _ := registry.Names()
	for _, contract := range missing {
		if len(available) > 0 {
			app.Printer.Warn("no artifact for %s in %s (available: %s)", contract, registry.Dir(), strings.Join(available, ", "))
		} else {
			app.Printer.Warn("no artifact for %s in %s", contract, registry.Dir())
		}
	}
	return nil
}
