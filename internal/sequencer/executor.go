// Package sequencer deploys a network's contracts in dependency order.
//
// The [Executor] looks up the network profile, validates its step list, and
// deploys each step strictly in sequence. Constructor arguments are resolved
// from profile values, the run's account list, a timestamp captured once at
// the start of the run, or the address of a contract deployed by an earlier
// step of the same run.
//
// Key concepts:
//   - Steps come from [network.Router]; an unknown network deploys nothing
//     unless [Executor.SetStrictNetwork] makes it an error
//   - Each deployment blocks until confirmed before the next step resolves
//   - The first failure aborts the run with a [*StepError]; nothing is retried
//     and nothing already deployed is rolled back
//   - Runs are not idempotent: every Execute deploys fresh contracts
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"arpdeploy/internal/artifact"
	"arpdeploy/internal/chain"
	"arpdeploy/internal/network"
	"arpdeploy/internal/plan"
)

// ArtifactSource is the interface for looking up compiled contracts.
//
// The [artifact.Registry] type implements this interface.
type ArtifactSource interface {
	Load(name string) (*artifact.Artifact, error)
}

// ContractDeployer is the interface for submitting one contract creation.
//
// Deploy blocks until the deployment is confirmed or fails. The
// [chain.Deployer] type implements this interface.
type ContractDeployer interface {
	Deploy(ctx context.Context, req chain.Request) (*chain.Receipt, error)
}

// HandleRecorder persists each deployed contract as soon as it is confirmed.
//
// See the ledger package for the production implementation.
type HandleRecorder interface {
	RecordHandle(h Handle) error
}

// ProgressCallback is invoked before each step begins.
//
// The callback receives stepIndex (1-based), totalSteps count, and the step ID.
type ProgressCallback func(stepIndex, totalSteps int, stepID string)

// Executor runs deployment sequences.
//
// Use [NewExecutor] to create an instance and [Executor.Execute] to deploy.
type Executor struct {
	router           *network.Router
	artifacts        ArtifactSource
	deployer         ContractDeployer
	recorder         HandleRecorder
	progressCallback ProgressCallback
	clock            func() time.Time
	strictNetwork    bool
	logger           *zap.Logger
}

// NewExecutor creates an Executor with the required dependencies.
//
// The router supplies network profiles, artifacts resolves contract names to
// bytecode, and deployer submits transactions. The wall clock is used by
// default; see [Executor.SetClock].
func NewExecutor(router *network.Router, artifacts ArtifactSource, deployer ContractDeployer) *Executor {
	return &Executor{
		router:    router,
		artifacts: artifacts,
		deployer:  deployer,
		clock:     time.Now,
		logger:    zap.NewNop(),
	}
}

// SetRecorder configures where deployed handles are persisted.
func (e *Executor) SetRecorder(r HandleRecorder) {
	e.recorder = r
}

// SetProgressCallback configures an optional progress callback.
func (e *Executor) SetProgressCallback(cb ProgressCallback) {
	e.progressCallback = cb
}

// SetClock replaces the time source used for the run timestamp.
func (e *Executor) SetClock(now func() time.Time) {
	e.clock = now
}

// SetStrictNetwork makes an unknown network an error instead of a no-op.
func (e *Executor) SetStrictNetwork(strict bool) {
	e.strictNetwork = strict
}

// SetLogger sets the diagnostic logger.
func (e *Executor) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	e.logger = l
}

// profile resolves the network, returning ok=false for a tolerated unknown network.
func (e *Executor) profile(name string) (network.Profile, bool, error) {
	p, err := e.router.Lookup(name)
	if err != nil {
		if errors.Is(err, network.ErrUnknownNetwork) && !e.strictNetwork {
			e.logger.Warn("no deployment profile for network; nothing to deploy", zap.String("network", name))
			return network.Profile{}, false, nil
		}
		return network.Profile{}, false, err
	}
	if err := p.Validate(); err != nil {
		return network.Profile{}, false, err
	}
	return p, true, nil
}

// Execute deploys every step of the named network's profile.
//
// The profile and the account indices it uses are checked before the first
// deployment. An unknown network deploys nothing and returns an empty
// complete Result, or [network.ErrUnknownNetwork] when
// [Executor.SetStrictNetwork] is set.
//
// Execute is fail-fast. On the first error it returns the partial Result in
// [StateFailed] together with a [*StepError]; contracts deployed by earlier
// steps stay deployed.
func (e *Executor) Execute(ctx context.Context, name string, accounts []common.Address) (*Result, error) {
	p, ok, err := e.profile(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Result{Network: name, State: StateComplete}, nil
	}
	if err := checkAccounts(p.Steps, accounts); err != nil {
		return nil, fmt.Errorf("network %s: %w", name, err)
	}

	now := e.clock()
	result := &Result{
		Network:   name,
		StartedAt: now,
		Total:     len(p.Steps),
		State:     StatePending,
	}
	res := newResolver(p.Values, accounts, now)

	e.logger.Info("deployment started",
		zap.String("network", name),
		zap.Int("steps", len(p.Steps)),
		zap.Int64("timestamp", now.Unix()),
	)

	for i, step := range p.Steps {
		result.Current = i
		result.State = StatePending

		if e.progressCallback != nil {
			e.progressCallback(i+1, len(p.Steps), step.ID)
		}

		h, err := e.deployStep(ctx, step, res)
		if h != nil {
			res.record(*h)
			result.Handles = append(result.Handles, *h)
			result.State = StateDeployed
		}
		if err != nil {
			result.State = StateFailed
			e.logger.Error("deployment step failed",
				zap.String("network", name),
				zap.String("step", step.ID),
				zap.Int("index", i+1),
				zap.Error(err),
			)
			return result, &StepError{
				Index:    i,
				StepID:   step.ID,
				Contract: step.ContractName(),
				Err:      err,
				Deployed: result.handlesCopy(),
			}
		}
	}

	result.Current = len(p.Steps)
	result.State = StateComplete
	e.logger.Info("deployment complete", zap.String("network", name), zap.Int("deployed", len(result.Handles)))
	return result, nil
}

// deployStep runs one step. A non-nil handle means the contract exists on
// chain even if err is also set.
func (e *Executor) deployStep(ctx context.Context, step plan.Step, res *resolver) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	args, err := res.resolveAll(step.Args)
	if err != nil {
		return nil, err
	}

	a, err := e.artifacts.Load(step.ContractName())
	if err != nil {
		return nil, err
	}
	data, err := a.DeployData(args...)
	if err != nil {
		return nil, err
	}

	receipt, err := e.deployer.Deploy(ctx, chain.Request{
		StepID:   step.ID,
		Contract: step.ContractName(),
		Data:     data,
		GasLimit: step.Gas,
	})
	if err != nil {
		return nil, err
	}
	if receipt.Address == (common.Address{}) {
		return nil, fmt.Errorf("%s: deployer returned the zero address", step.ID)
	}

	h := &Handle{
		StepID:      step.ID,
		Contract:    step.ContractName(),
		Address:     receipt.Address,
		TxHash:      receipt.TxHash,
		BlockNumber: receipt.BlockNumber,
		Args:        renderAll(args),
		DeployedAt:  e.clock(),
	}

	if e.recorder != nil {
		if err := e.recorder.RecordHandle(*h); err != nil {
			return h, fmt.Errorf("record %s: %w", step.ID, err)
		}
	}
	return h, nil
}

// Steps returns the planned deployments for a network without executing them.
//
// Arguments that can be resolved ahead of time are shown with their values,
// using the current clock and the given accounts. References to contracts of
// the same run are shown as placeholders.
func (e *Executor) Steps(name string, accounts []common.Address) ([]PlannedStep, error) {
	p, ok, err := e.profile(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	res := newResolver(p.Values, accounts, e.clock())
	out := make([]PlannedStep, len(p.Steps))
	for i, step := range p.Steps {
		args := make([]string, len(step.Args))
		for j, arg := range step.Args {
			args[j] = res.describe(arg)
		}
		out[i] = PlannedStep{
			Index:    i + 1,
			ID:       step.ID,
			Contract: step.ContractName(),
			Args:     args,
		}
	}
	return out, nil
}
