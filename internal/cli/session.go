package cli

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"arpdeploy/internal/accounts"
	"arpdeploy/internal/chain"
	"arpdeploy/internal/sequencer"
)

// ConnectRequest describes the chain connection a deployment needs.
type ConnectRequest struct {
	Network string
	RPCURL  string

	// ChainID is the expected chain. Zero accepts whatever the node reports.
	ChainID uint64

	PrivateKey   string
	AllowDevKeys bool
	Options      chain.Options
}

// Session is an open connection to a deployment target.
type Session struct {
	ChainID  uint64
	From     common.Address
	Deployer sequencer.ContractDeployer
	Accounts accounts.Lister

	close func()
}

// Close releases the connection.
func (s *Session) Close() {
	if s.close != nil {
		s.close()
	}
}

// Connector opens chain sessions.
//
// The [RPCConnector] type implements this interface against a JSON-RPC node.
type Connector interface {
	Connect(ctx context.Context, req ConnectRequest) (*Session, error)
}

// RPCConnector dials a JSON-RPC endpoint and signs with a local key.
type RPCConnector struct{}

// Connect dials the endpoint, selects the signing key for the node's chain
// and builds a [chain.Deployer].
func (RPCConnector) Connect(ctx context.Context, req ConnectRequest) (*Session, error) {
	if req.RPCURL == "" {
		return nil, fmt.Errorf("network %s: no rpc_url configured", req.Network)
	}
	logger := req.Options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := rpc.DialContext(ctx, req.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", req.RPCURL, err)
	}

	nodeChainID, err := chain.QueryChainID(ctx, client)
	if err != nil {
		client.Close()
		return nil, err
	}

	signer, err := accounts.LoadSigner(req.PrivateKey, nodeChainID, req.AllowDevKeys)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("network %s: %w", req.Network, err)
	}
	if signer.Dev {
		logger.Warn("signing with a development key", zap.String("address", signer.Address.Hex()))
	}

	deployer, err := chain.NewDeployer(ctx, client, req.ChainID, signer.Key, req.Options)
	if err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("connected",
		zap.String("network", req.Network),
		zap.Uint64("chain_id", deployer.ChainID()),
		zap.String("from", deployer.From().Hex()),
	)

	return &Session{
		ChainID:  deployer.ChainID(),
		From:     deployer.From(),
		Deployer: deployer,
		Accounts: accounts.NewNodeLister(client),
		close:    client.Close,
	}, nil
}
