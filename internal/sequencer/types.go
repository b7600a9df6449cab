package sequencer

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrDeploymentFailed is matched by every [*StepError].
	ErrDeploymentFailed = errors.New("deployment failed")

	// ErrAccountIndex indicates a step uses an account the run was not given.
	ErrAccountIndex = errors.New("account index out of range")
)

// State is the position of a run in the deployment state machine:
// Pending(i) → Deployed(i) → Pending(i+1) → … → Complete, or Failed.
type State string

const (
	StatePending  State = "pending"
	StateDeployed State = "deployed"
	StateComplete State = "complete"
	StateFailed   State = "failed"
)

// Handle is a contract deployed during a run.
type Handle struct {
	StepID      string
	Contract    string
	Address     common.Address
	TxHash      common.Hash
	BlockNumber uint64

	// Args are the resolved constructor arguments as displayed.
	Args []string

	DeployedAt time.Time
}

// Result describes a finished or aborted run.
type Result struct {
	Network string

	// StartedAt is the timestamp all time arguments of the run derive from.
	StartedAt time.Time

	// Total is the number of steps in the profile.
	Total int

	// Current is the 0-based index of the step the run stopped at, or Total
	// once complete.
	Current int

	State State

	// Handles are the deployed contracts in execution order.
	Handles []Handle
}

// Handle returns the deployed contract for a step ID.
func (r *Result) Handle(stepID string) (Handle, bool) {
	for _, h := range r.Handles {
		if h.StepID == stepID {
			return h, true
		}
	}
	return Handle{}, false
}

func (r *Result) handlesCopy() []Handle {
	out := make([]Handle, len(r.Handles))
	copy(out, r.Handles)
	return out
}

// PlannedStep is one step of a dry run.
type PlannedStep struct {
	// Index is 1-based.
	Index    int
	ID       string
	Contract string
	Args     []string

	// Signature is the constructor's input types when the artifact is
	// known, e.g. "(address,uint256)".
	Signature string
}

// StepError reports the step that aborted a run.
//
// It matches both [ErrDeploymentFailed] and the underlying cause with
// errors.Is.
type StepError struct {
	// Index is the 0-based position of the failed step.
	Index    int
	StepID   string
	Contract string
	Err      error

	// Deployed holds the contracts deployed before the failure. When the
	// failing step's contract was deployed but could not be recorded, it is
	// included as well.
	Deployed []Handle
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.Index+1, e.StepID, e.Err)
}

func (e *StepError) Unwrap() []error {
	return []error{ErrDeploymentFailed, e.Err}
}
