// Package ledger records deployment runs in a YAML file.
//
// Every run gets an entry with a unique ID, the network and chain it targeted,
// and one record per deployed contract. The file is rewritten after every
// contract, so an aborted run still lists what reached the chain.
//
// The ledger is an audit trail. It is never consulted to skip deployments.
package ledger

import (
	"errors"
	"time"

	"arpdeploy/internal/sequencer"
)

// DefaultPath is the ledger location relative to the working directory.
const DefaultPath = "deployments/ledger.yaml"

// ErrNoRuns indicates the ledger has no run for a network.
var ErrNoRuns = errors.New("no recorded runs")

// State is the outcome of a recorded run.
type State string

const (
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateFailed   State = "failed"
)

// StateOf maps a sequencer state to the recorded run state.
func StateOf(s sequencer.State) State {
	switch s {
	case sequencer.StateComplete:
		return StateComplete
	case sequencer.StateFailed:
		return StateFailed
	default:
		return StateRunning
	}
}

// Contract is one deployed contract.
type Contract struct {
	Step        string    `yaml:"step"`
	Contract    string    `yaml:"contract"`
	Address     string    `yaml:"address"`
	TxHash      string    `yaml:"tx"`
	BlockNumber uint64    `yaml:"block,omitempty"`
	Args        []string  `yaml:"args,omitempty"`
	DeployedAt  time.Time `yaml:"deployed_at"`
}

// Run is one invocation of the sequencer.
type Run struct {
	ID         string     `yaml:"id"`
	Network    string     `yaml:"network"`
	ChainID    uint64     `yaml:"chain_id,omitempty"`
	StartedAt  time.Time  `yaml:"started_at"`
	FinishedAt *time.Time `yaml:"finished_at,omitempty"`
	State      State      `yaml:"state"`
	Error      string     `yaml:"error,omitempty"`
	Contracts  []Contract `yaml:"contracts"`
}

// Ledger is the file content.
type Ledger struct {
	Runs []Run `yaml:"runs"`
}

func contractFromHandle(h sequencer.Handle) Contract {
	return Contract{
		Step:        h.StepID,
		Contract:    h.Contract,
		Address:     h.Address.Hex(),
		TxHash:      h.TxHash.Hex(),
		BlockNumber: h.BlockNumber,
		Args:        h.Args,
		DeployedAt:  h.DeployedAt.UTC(),
	}
}
