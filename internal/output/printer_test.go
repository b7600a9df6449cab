package output

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"arpdeploy/internal/ledger"
	"arpdeploy/internal/sequencer"
)

var (
	tokenAddr   = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	holdingAddr = common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")
)

func handles() []sequencer.Handle {
	return []sequencer.Handle{
		{StepID: "ARPToken", Contract: "ARPToken", Address: tokenAddr, TxHash: common.HexToHash("0x01")},
		{StepID: "ARPTeamHolding", Contract: "ARPTeamHolding", Address: holdingAddr, TxHash: common.HexToHash("0x02")},
	}
}

func TestPrinter_StepStart(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)

	p.StepStart(2, 4, "ARPTeamHolding")

	assert.Equal(t, "[2/4] ARPTeamHolding\n", buf.String())
}

func TestPrinter_StepDeployed(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)

	p.StepDeployed(handles()[0])

	assert.Contains(t, buf.String(), "✓ "+tokenAddr.Hex())
	assert.Contains(t, buf.String(), "tx "+common.HexToHash("0x01").Hex())
}

func TestPrinter_DeployHeader(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)

	p.DeployHeader("development", 31337, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", []string{"ARPToken", "ARPTeamHolding"})

	out := buf.String()
	assert.Contains(t, out, "ARP Deploy: development")
	assert.Contains(t, out, "Chain: 31337")
	assert.Contains(t, out, "ARPToken → ARPTeamHolding")
}

func TestPrinter_DeployComplete(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)

	res := &sequencer.Result{Network: "development", Total: 2, Current: 2, State: sequencer.StateComplete, Handles: handles()}
	p.DeployComplete(res, 1500*time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, "DEPLOYMENT COMPLETE")
	assert.Contains(t, out, "Deployed: 2/2")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, tokenAddr.Hex())
	assert.Contains(t, out, holdingAddr.Hex())
	assert.Contains(t, out, "Address")
}

func TestPrinter_DeployFailed(t *testing.T) {
	tests := []struct {
		name        string
		res         *sequencer.Result
		stepErr     *sequencer.StepError
		contains    []string
		notContains []string
	}{
		{
			name: "partial run lists deployed and skipped steps",
			res: &sequencer.Result{
				Network: "development", Total: 4, Current: 2, State: sequencer.StateFailed,
				Handles: handles(),
			},
			stepErr: &sequencer.StepError{Index: 2, StepID: "ARPMidTermHolding", Err: errors.New("reverted")},
			contains: []string{
				"DEPLOYMENT FAILED", "Step:     3 (ARPMidTermHolding)", "Error:    reverted",
				tokenAddr.Hex(), "step 4 (skipped)",
			},
			notContains: []string{"step 3 (skipped)"},
		},
		{
			name:     "failure before any run",
			stepErr:  nil,
			contains: []string{"DEPLOYMENT FAILED", "Duration:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			p := NewPrinterWithWriter(buf)

			p.DeployFailed(tt.res, tt.stepErr, time.Second)

			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestPrinter_Plan(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)

	p.Plan("live", []sequencer.PlannedStep{
		{Index: 1, ID: "ARPTeamHolding", Contract: "ARPTeamHolding", Signature: "(address,address,uint256)", Args: []string{"0xbeb6", "0x1faf", "1525132800"}},
	})

	out := buf.String()
	assert.Contains(t, out, "Plan for live (1 steps)")
	assert.Contains(t, out, "ARPTeamHolding(address,address,uint256)")
	assert.Contains(t, out, "1525132800")
	assert.Contains(t, out, "Constructor args")

	buf.Reset()
	p.Plan("kovan", nil)
	assert.Contains(t, buf.String(), "nothing to deploy")
}

func TestPrinter_Networks(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)

	p.Networks([]NetworkRow{
		{Name: "development", Steps: []string{"ARPToken", "ARPTeamHolding"}, Endpoint: "http://127.0.0.1:8545", DevKeys: true},
		{Name: "live", Steps: []string{"ARPTeamHolding"}, ChainID: 1},
	})

	out := buf.String()
	assert.Contains(t, out, "development")
	assert.Contains(t, out, "http://127.0.0.1:8545")
	assert.Contains(t, out, "yes")
	assert.Contains(t, out, "any")
}

func TestPrinter_History(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)

	p.History(nil)
	assert.Contains(t, buf.String(), "no recorded runs")

	buf.Reset()
	p.History([]ledger.Run{
		{
			ID: "run-1", Network: "development", State: ledger.StateFailed, Error: "step 2 failed",
			StartedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			Contracts: []ledger.Contract{{Step: "ARPToken", Address: tokenAddr.Hex(), TxHash: "0x01"}},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "2024-01-02T03:04:05Z")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "step 2 failed")
	assert.Contains(t, out, tokenAddr.Hex())
}

func TestPrinter_SetColor(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)
	p.SetColor(false)

	p.Warn("chain %d", 5)
	p.Info("plain %s", "line")

	assert.Equal(t, "! chain 5\nplain line\n", buf.String())
}
