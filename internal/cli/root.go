// Package cli provides the command-line interface for arpdeploy.
//
// Commands are built with Cobra and share an [App] holding the configuration,
// the printer and the collaborators that touch the outside world. Tests swap
// the filesystem and the [Connector] for in-memory versions.
//
// Available commands:
//   - deploy: run a network's deployment plan against a node
//   - plan: preview a network's deployment plan without sending anything
//   - networks: list the known networks
//   - history: show recorded deployment runs
//   - version: print the version
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"arpdeploy/internal/config"
	"arpdeploy/internal/logging"
	"arpdeploy/internal/output"
)

// Version is set at build time with -ldflags "-X arpdeploy/internal/cli.Version=...".
var Version = "dev"

// App holds the dependencies shared by all commands.
type App struct {
	Config    *config.Config
	Printer   *output.Printer
	Fs        afero.Fs
	Logger    *zap.Logger
	Connector Connector

	// Clock is the time source for deployments and the ledger. Defaults to time.Now.
	Clock func() time.Time

	cleanups []func()
}

// NewApp wires an [App] for real use: the OS filesystem, stdout and a
// JSON-RPC connector.
func NewApp(cfg *config.Config, logger *zap.Logger) *App {
	printer := output.NewPrinter()
	printer.SetColor(cfg.Output.Color)
	return &App{
		Config:    cfg,
		Printer:   printer,
		Fs:        afero.NewOsFs(),
		Logger:    logger,
		Connector: RPCConnector{},
	}
}

func (app *App) now() time.Time {
	if app.Clock != nil {
		return app.Clock()
	}
	return time.Now()
}

func (app *App) logger() *zap.Logger {
	if app.Logger != nil {
		return app.Logger
	}
	return zap.NewNop()
}

// useLogConfig replaces the logger with one built from cfg and installs it
// as the zap global until [App.Close].
func (app *App) useLogConfig(cfg config.LogConfig) error {
	logger, cleanup, err := logging.Install(cfg)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	app.Logger = logger
	app.cleanups = append(app.cleanups, cleanup)
	return nil
}

// Close flushes loggers installed by the app and restores the previous
// zap global.
func (app *App) Close() {
	for i := len(app.cleanups) - 1; i >= 0; i-- {
		app.cleanups[i]()
	}
	app.cleanups = nil
}

// fail prints err and returns the exit error for it.
func (app *App) fail(err error) error {
	app.Printer.Warn("%v", err)
	return NewExitError(1)
}

// NewRootCommand creates the root cobra command with all subcommands.
func NewRootCommand(app *App) *cobra.Command {
	var (
		configPath string
		noColor    bool
	)

	rootCmd := &cobra.Command{
		Use:   "arpdeploy",
		Short: "Deploy the ARP contract suite",
		Long: `arpdeploy deploys the ARP token and its holding contracts to a named
network, in dependency order, waiting for each deployment to confirm.

Networks are described by deployment profiles. "development" deploys the
whole suite against a local node; "live" deploys only the team holding
against the existing mainnet token.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				cfg, err := config.NewLoader().LoadFromFile(configPath)
				if err != nil {
					return app.fail(err)
				}
				if err := app.useLogConfig(cfg.Log); err != nil {
					return app.fail(err)
				}
				app.Config = cfg
				app.Printer.SetColor(cfg.Output.Color)
			}
			if noColor {
				app.Printer.SetColor(false)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: user config dir, then ./arpdeploy.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable styled output")

	rootCmd.AddCommand(
		newDeployCommand(app),
		newPlanCommand(app),
		newNetworksCommand(app),
		newHistoryCommand(app),
		newVersionCommand(),
	)

	return rootCmd
}

// ExecuteResult is the outcome of a CLI invocation.
type ExecuteResult struct {
	ExitCode int
	Err      error
}

// RunWithConfig runs the CLI with the given configuration and arguments.
// Interrupts cancel the command's context.
func RunWithConfig(cfg *config.Config, args []string) ExecuteResult {
	logger, cleanup, err := logging.Install(cfg.Log)
	if err != nil {
		return ExecuteResult{ExitCode: 1, Err: err}
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := NewApp(cfg, logger)
	defer app.Close()

	cmd := NewRootCommand(app)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if code, ok := IsExitError(err); ok {
			return ExecuteResult{ExitCode: code, Err: err}
		}
		return ExecuteResult{ExitCode: 1, Err: err}
	}
	return ExecuteResult{}
}

// Execute loads the configuration, runs the CLI and exits the process.
func Execute() {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	result := RunWithConfig(cfg, os.Args[1:])
	if result.Err != nil {
		if _, ok := IsExitError(result.Err); !ok {
			fmt.Fprintln(os.Stderr, "Error:", result.Err)
		}
	}
	os.Exit(result.ExitCode)
}
