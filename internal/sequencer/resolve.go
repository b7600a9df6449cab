package sequencer

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"arpdeploy/internal/plan"
)

// resolver turns argument sources into constructor values for one run.
type resolver struct {
	values   map[string]string
	accounts []common.Address
	now      time.Time
	handles  map[string]Handle
}

func newResolver(values map[string]string, accounts []common.Address, now time.Time) *resolver {
	return &resolver{
		values:   values,
		accounts: accounts,
		now:      now,
		handles:  make(map[string]Handle),
	}
}

func (r *resolver) record(h Handle) {
	r.handles[h.StepID] = h
}

func (r *resolver) resolveAll(args []plan.Arg) ([]any, error) {
	out := make([]any, len(args))
	for i, arg := range args {
		v, err := r.resolve(arg)
		if err != nil {
			return nil, fmt.Errorf("arg %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// resolve returns a string for literal and config values, a common.Address
// for refs and accounts, and an int64 Unix timestamp for time arguments.
func (r *resolver) resolve(arg plan.Arg) (any, error) {
	switch arg.Kind {
	case plan.ArgLiteral:
		return arg.Value, nil
	case plan.ArgConfig:
		v, ok := r.values[arg.Value]
		if !ok {
			return nil, fmt.Errorf("%w: %s", plan.ErrMissingValue, arg.Value)
		}
		return v, nil
	case plan.ArgRef:
		h, ok := r.handles[arg.Value]
		if !ok {
			return nil, fmt.Errorf("%w: %s has not been deployed", plan.ErrUnknownReference, arg.Value)
		}
		return h.Address, nil
	case plan.ArgAccount:
		if arg.Index < 0 || arg.Index >= len(r.accounts) {
			return nil, fmt.Errorf("%w: accounts[%d] with %d accounts", ErrAccountIndex, arg.Index, len(r.accounts))
		}
		return r.accounts[arg.Index], nil
	case plan.ArgTime:
		return r.now.Unix() + arg.Offset, nil
	default:
		return nil, fmt.Errorf("%w: kind %q", plan.ErrInvalidArg, arg.Kind)
	}
}

// describe renders an argument for a dry run.
func (r *resolver) describe(arg plan.Arg) string {
	switch arg.Kind {
	case plan.ArgRef:
		return arg.String()
	case plan.ArgAccount:
		if arg.Index >= len(r.accounts) {
			return arg.String()
		}
	case plan.ArgTime:
		ts := r.now.Unix() + arg.Offset
		return fmt.Sprintf("%d (%s)", ts, time.Unix(ts, 0).UTC().Format(time.RFC3339))
	}

	v, err := r.resolve(arg)
	if err != nil {
		return arg.String()
	}
	return render(v)
}

func render(v any) string {
	switch x := v.(type) {
	case common.Address:
		return x.Hex()
	case int64:
		return strconv.FormatInt(x, 10)
	case string:
		return x
	default:
		return fmt.Sprint(v)
	}
}

func renderAll(args []any) []string {
	out := make([]string, len(args))
	for i, v := range args {
		out[i] = render(v)
	}
	return out
}

// checkAccounts verifies every account argument has a matching account.
func checkAccounts(steps []plan.Step, accounts []common.Address) error {
	for _, step := range steps {
		for i, arg := range step.Args {
			if arg.Kind == plan.ArgAccount && arg.Index >= len(accounts) {
				return fmt.Errorf("step %s arg %d: %w: accounts[%d] with %d accounts", step.ID, i, ErrAccountIndex, arg.Index, len(accounts))
			}
		}
	}
	return nil
}
