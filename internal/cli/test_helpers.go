package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/afero"

	"arpdeploy/internal/accounts"
	"arpdeploy/internal/chain"
)

// MockConnector is a mock [Connector] for testing.
type MockConnector struct {
	// Deployer receives the deployments. Its From is the session's signer.
	Deployer *chain.MockDeployer

	// ChainID is reported for every session.
	ChainID uint64

	// NodeAccounts are the node's eth_accounts.
	NodeAccounts []common.Address

	// Err fails every Connect.
	Err error

	// Requests records every connect request in order.
	Requests []ConnectRequest

	// Closed counts closed sessions.
	Closed int
}

func (m *MockConnector) Connect(ctx context.Context, req ConnectRequest) (*Session, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return &Session{
		ChainID:  m.ChainID,
		From:     m.Deployer.From,
		Deployer: m.Deployer,
		Accounts: accounts.StaticLister{Addresses: m.NodeAccounts},
		close:    func() { m.Closed++ },
	}, nil
}

// Constructor ABIs of the ARP suite with placeholder bytecode.
var testArtifacts = map[string]string{
	"ARPToken": `{"contractName":"ARPToken","abi":[{"type":"constructor","inputs":[]}],"bytecode":"0x6001"}`,
	"ARPTeamHolding": `{"contractName":"ARPTeamHolding","abi":[{"type":"constructor","inputs":[
		{"name":"_token","type":"address"},{"name":"_beneficiary","type":"address"},{"name":"_start","type":"uint256"}]}],"bytecode":"0x6002"}`,
	"ARPMidTermHolding": `{"contractName":"ARPMidTermHolding","abi":[{"type":"constructor","inputs":[
		{"name":"_token","type":"address"},{"name":"_start","type":"uint256"}]}],"bytecode":"0x6003"}`,
	"ARPLongTermHolding": `{"contractName":"ARPLongTermHolding","abi":[{"type":"constructor","inputs":[
		{"name":"_token","type":"address"},{"name":"_start","type":"uint256"}]}],"bytecode":"0x6004"}`,
}

// writeArtifacts writes the ARP suite artifacts into dir on fs.
func writeArtifacts(t *testing.T, fs afero.Fs, dir string) {
	t.Helper()
	for name, content := range testArtifacts {
		path := filepath.Join(dir, name+".json")
		if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write artifact %s: %v", name, err)
		}
	}
}
