package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"arpdeploy/internal/accounts"
	"arpdeploy/internal/artifact"
	"arpdeploy/internal/chain"
	"arpdeploy/internal/ledger"
	"arpdeploy/internal/network"
	"arpdeploy/internal/output"
	"arpdeploy/internal/plan"
	"arpdeploy/internal/sequencer"
)

// deployOptions are the flags shared by deploy and plan.
type deployOptions struct {
	accounts      []string
	planFile      string
	artifactsDir  string
	rpcURL        string
	chainID       uint64
	dryRun        bool
	strictNetwork bool
}

func (o *deployOptions) bindPlanFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&o.accounts, "account", nil, "account address, in index order (repeatable)")
	cmd.Flags().StringVar(&o.planFile, "plan", "", "plan file replacing or adding network profiles")
	cmd.Flags().StringVar(&o.artifactsDir, "artifacts", "", "directory of compiled contract JSON")
	cmd.Flags().BoolVar(&o.strictNetwork, "strict-network", false, "fail when the network has no profile instead of deploying nothing")
}

func newDeployCommand(app *App) *cobra.Command {
	opts := &deployOptions{}

	cmd := &cobra.Command{
		Use:   "deploy <network>",
		Short: "Deploy a network's contracts",
		Long: `Deploy every step of a network's profile in order. Each deployment is
confirmed before the next one is sent, and the run stops at the first
failure. Contracts deployed before a failure stay deployed and are recorded
in the ledger.

Running deploy twice deploys a second, independent set of contracts.

Accounts are taken from --account flags, or else the signer followed by the
node's eth_accounts.

Examples:
  arpdeploy deploy development
  arpdeploy deploy live --rpc-url https://mainnet.example.org
  arpdeploy deploy development --account 0xAbc... --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.dryRun {
				return app.plan(args[0], opts)
			}
			return app.deploy(cmd.Context(), args[0], opts)
		},
	}

	opts.bindPlanFlags(cmd)
	cmd.Flags().StringVar(&opts.rpcURL, "rpc-url", "", "JSON-RPC endpoint, overriding the network's rpc_url")
	cmd.Flags().Uint64Var(&opts.chainID, "chain-id", 0, "expected chain ID, overriding the network's chain_id")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "show the plan without deploying")

	return cmd
}

// router builds the network router from the built-in profiles, the plan
// file and the configured network values.
func (app *App) router(planFile string) (*network.Router, error) {
	cfg := app.Config
	r := network.NewRouter()

	if planFile == "" {
		planFile = cfg.PlanFile
	}
	if planFile != "" {
		f, err := plan.ReadFromFile(app.Fs, planFile)
		if err != nil {
			return nil, err
		}
		r.Merge(f)
	}

	for _, name := range r.Names() {
		n := cfg.Network(name)
		if len(n.Values) > 0 {
			if err := r.SetValues(name, n.Values); err != nil {
				return nil, err
			}
		}
		if n.AllowDevKeys != nil {
			if err := r.SetAllowDevKeys(name, *n.AllowDevKeys); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

func (app *App) artifacts(dir string) *artifact.Registry {
	if dir == "" {
		dir = app.Config.ArtifactsDir
	}
	return artifact.NewRegistry(app.Fs, dir)
}

func (app *App) strictNetwork(opts *deployOptions) bool {
	return app.Config.StrictNetwork || opts.strictNetwork
}

func parseAccounts(values []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(values))
	for _, v := range values {
		addr, err := accounts.ParseAddress(v)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

func (app *App) deploy(ctx context.Context, name string, opts *deployOptions) error {
	cfg := app.Config
	logger := app.logger()

	router, err := app.router(opts.planFile)
	if err != nil {
		return app.fail(err)
	}
	strict := app.strictNetwork(opts)

	profile, err := router.Lookup(name)
	if err != nil {
		if errors.Is(err, network.ErrUnknownNetwork) && !strict {
			app.Printer.DeployNoop(name)
			return nil
		}
		return app.fail(err)
	}
	if err := profile.Validate(); err != nil {
		return app.fail(err)
	}

	feeCap, tipCap, err := cfg.Gas.FeeCaps()
	if err != nil {
		return app.fail(err)
	}

	rpcURL := opts.rpcURL
	if rpcURL == "" {
		rpcURL = cfg.Endpoint(name)
	}
	chainID := opts.chainID
	if chainID == 0 {
		chainID = cfg.Network(name).ChainID
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.DeployTimeout)
	defer cancel()

	session, err := app.Connector.Connect(ctx, ConnectRequest{
		Network:      name,
		RPCURL:       rpcURL,
		ChainID:      chainID,
		PrivateKey:   cfg.SigningKey(name),
		AllowDevKeys: profile.AllowDevKeys,
		Options: chain.Options{
			GasLimit:     cfg.Gas.Limit,
			GasFeeCap:    feeCap,
			GasTipCap:    tipCap,
			PollInterval: cfg.PollInterval,
			Logger:       logger,
		},
	})
	if err != nil {
		return app.fail(err)
	}
	defer session.Close()

	accts, err := accounts.Resolve(ctx, opts.accounts, session.From, session.Accounts)
	if err != nil {
		return app.fail(err)
	}

	writer := ledger.NewWriter(app.Fs, cfg.LedgerPath)
	writer.SetClock(app.now)

	executor := sequencer.NewExecutor(router, app.artifacts(opts.artifactsDir), session.Deployer)
	executor.SetStrictNetwork(strict)
	executor.SetLogger(logger)
	executor.SetClock(app.now)
	executor.SetProgressCallback(app.Printer.StepStart)
	executor.SetRecorder(&printingRecorder{next: writer, printer: app.Printer})

	app.Printer.DeployHeader(name, session.ChainID, session.From.Hex(), plan.IDs(profile.Steps))

	runID, err := writer.Begin(name, session.ChainID)
	if err != nil {
		return app.fail(err)
	}
	logger.Info("run started", zap.String("run", runID), zap.String("network", name))

	start := time.Now()
	res, runErr := executor.Execute(ctx, name, accts)
	duration := time.Since(start)

	state := sequencer.StateComplete
	if runErr != nil {
		state = sequencer.StateFailed
	}
	if err := writer.Finish(state, runErr); err != nil {
		logger.Error("failed to finish ledger run", zap.String("run", runID), zap.Error(err))
		if runErr == nil {
			runErr = fmt.Errorf("ledger: %w", err)
		}
	}

	if runErr != nil {
		var stepErr *sequencer.StepError
		if errors.As(runErr, &stepErr) {
			app.Printer.DeployFailed(res, stepErr, duration)
		} else {
			app.Printer.DeployFailed(res, nil, duration)
			app.Printer.Warn("%v", runErr)
		}
		return NewExitError(1)
	}

	app.Printer.DeployComplete(res, duration)
	app.Printer.Info("Recorded run %s in %s", runID, cfg.LedgerPath)
	return nil
}

// printingRecorder prints each deployed contract before passing it on.
type printingRecorder struct {
	next    sequencer.HandleRecorder
	printer *output.Printer
}

func (r *printingRecorder) RecordHandle(h sequencer.Handle) error {
	r.printer.StepDeployed(h)
	return r.next.RecordHandle(h)
}
