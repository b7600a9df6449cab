// Package plan describes contract deployments as data.
//
// A plan is an ordered list of [Step] values. Each step names one contract and
// the sources of its constructor arguments: inline literals, values from the
// network profile, the address of an earlier step, an injected account, or a
// timestamp relative to the start of the run.
//
// Key types:
//   - [Step] - one contract deployment
//   - [Arg] - one constructor argument source
//
// [Validate] checks a step list before anything is deployed: step IDs are
// unique, every reference points at a strictly earlier step, and every
// profile value a step needs is present.
package plan

import (
	"errors"
	"fmt"
	"strconv"
)

// Sentinel errors returned by [Validate].
var (
	// ErrEmptyPlan indicates a plan with no steps.
	ErrEmptyPlan = errors.New("plan contains no steps")

	// ErrDuplicateStep indicates two steps share the same ID.
	ErrDuplicateStep = errors.New("duplicate step id")

	// ErrForwardReference indicates a step references itself or a step that
	// runs after it.
	ErrForwardReference = errors.New("reference to a step that has not run yet")

	// ErrUnknownReference indicates a step references an ID not in the plan.
	ErrUnknownReference = errors.New("reference to unknown step")

	// ErrMissingValue indicates a config argument whose key is absent from
	// the network profile values.
	ErrMissingValue = errors.New("missing profile value")

	// ErrInvalidArg indicates a malformed argument source.
	ErrInvalidArg = errors.New("invalid argument")
)

// ArgKind identifies where a constructor argument value comes from.
type ArgKind string

const (
	// ArgLiteral uses [Arg.Value] as given.
	ArgLiteral ArgKind = "literal"

	// ArgConfig looks up [Arg.Value] as a key in the network profile values.
	ArgConfig ArgKind = "config"

	// ArgRef uses the deployed address of the step whose ID is [Arg.Value].
	ArgRef ArgKind = "ref"

	// ArgAccount uses the injected account at [Arg.Index].
	ArgAccount ArgKind = "account"

	// ArgTime uses the run start time plus [Arg.Offset] seconds, as a Unix
	// timestamp.
	ArgTime ArgKind = "time"
)

// Arg is a single constructor argument source.
type Arg struct {
	Kind ArgKind

	// Value is the literal value, the profile key or the referenced step ID,
	// depending on Kind.
	Value string

	// Index is the account index for ArgAccount.
	Index int

	// Offset is the number of seconds added to the run start time for
	// ArgTime. May be negative.
	Offset int64
}

// Literal returns an argument with a fixed value.
func Literal(v string) Arg { return Arg{Kind: ArgLiteral, Value: v} }

// Config returns an argument read from the network profile values.
func Config(key string) Arg { return Arg{Kind: ArgConfig, Value: key} }

// Ref returns an argument resolved to the address deployed by step id.
func Ref(id string) Arg { return Arg{Kind: ArgRef, Value: id} }

// Account returns an argument resolved to accounts[index].
func Account(index int) Arg { return Arg{Kind: ArgAccount, Index: index} }

// Time returns an argument resolved to run start + offset seconds.
func Time(offset int64) Arg { return Arg{Kind: ArgTime, Offset: offset} }

// String renders the argument source for dry-run output.
func (a Arg) String() string {
	switch a.Kind {
	case ArgLiteral:
		return strconv.Quote(a.Value)
	case ArgConfig:
		return "config:" + a.Value
	case ArgRef:
		return "<address of " + a.Value + ">"
	case ArgAccount:
		return fmt.Sprintf("accounts[%d]", a.Index)
	case ArgTime:
		if a.Offset == 0 {
			return "now"
		}
		return fmt.Sprintf("now%+ds", a.Offset)
	default:
		return "?" + string(a.Kind)
	}
}

// Step is one contract deployment.
type Step struct {
	// ID identifies the step within a plan and is the key later steps use
	// to reference its deployed address.
	ID string `yaml:"id"`

	// Contract is the artifact name to deploy. Defaults to ID when empty,
	// which allows the same contract to be deployed twice under different IDs.
	Contract string `yaml:"contract,omitempty"`

	// Args are the constructor argument sources in ABI order.
	Args []Arg `yaml:"args,omitempty"`

	// Gas overrides the deployment gas limit when non-zero.
	Gas uint64 `yaml:"gas,omitempty"`
}

// ContractName returns the artifact name for the step.
func (s Step) ContractName() string {
	if s.Contract != "" {
		return s.Contract
	}
	return s.ID
}

// References returns the step IDs this step depends on, in argument order.
func (s Step) References() []string {
	var refs []string
	for _, a := range s.Args {
		if a.Kind == ArgRef {
			refs = append(refs, a.Value)
		}
	}
	return refs
}

// IDs returns the step IDs in plan order.
func IDs(steps []Step) []string {
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID
	}
	return ids
}

// Validate checks that steps form a valid deployment order for the given
// profile values.
//
// Because references may only point backwards, a plan that passes Validate
// is acyclic and executing it in declared order always has every referenced
// address available.
func Validate(steps []Step, values map[string]string) error {
	if len(steps) == 0 {
		return ErrEmptyPlan
	}

	position := make(map[string]int, len(steps))
	for i, s := range steps {
		if s.ID == "" {
			return fmt.Errorf("step at index %d: %w: empty id", i, ErrInvalidArg)
		}
		if _, ok := position[s.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateStep, s.ID)
		}
		position[s.ID] = i
	}

	for i, s := range steps {
		for j, a := range s.Args {
			if err := validateArg(a, i, position, values); err != nil {
				return fmt.Errorf("step %s arg %d: %w", s.ID, j, err)
			}
		}
	}

	return nil
}

func validateArg(a Arg, stepIdx int, position map[string]int, values map[string]string) error {
	switch a.Kind {
	case ArgLiteral, ArgTime:
		return nil
	case ArgConfig:
		if a.Value == "" {
			return fmt.Errorf("%w: empty config key", ErrInvalidArg)
		}
		if _, ok := values[a.Value]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingValue, a.Value)
		}
		return nil
	case ArgRef:
		target, ok := position[a.Value]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownReference, a.Value)
		}
		if target >= stepIdx {
			return fmt.Errorf("%w: %s", ErrForwardReference, a.Value)
		}
		return nil
	case ArgAccount:
		if a.Index < 0 {
			return fmt.Errorf("%w: negative account index %d", ErrInvalidArg, a.Index)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidArg, a.Kind)
	}
}
