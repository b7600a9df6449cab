// Package chain sends contract creation transactions to an EVM node.
//
// [Deployer] signs EIP-1559 CREATE transactions with a local key, submits them
// over JSON-RPC and blocks until the receipt is available. [MockDeployer]
// implements the same contract in memory for tests.
package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/lmittmann/w3"
	"github.com/lmittmann/w3/module/eth"
	"go.uber.org/zap"
)

// ErrReverted indicates the creation transaction was mined with a failure status.
var ErrReverted = errors.New("deployment transaction reverted")

// Transaction defaults.
const (
	// DefaultGasLimit matches the gas limit Truffle uses for migrations.
	DefaultGasLimit uint64 = 6_721_975

	DefaultPollInterval = 2 * time.Second
)

var (
	DefaultGasFeeCap = big.NewInt(2_000_000_000)
	DefaultGasTipCap = big.NewInt(1_000_000_000)
)

// Request describes one contract creation.
type Request struct {
	// StepID identifies the deployment step that issued the request.
	StepID string

	// Contract is the artifact name, used for logging.
	Contract string

	// Data is the creation bytecode followed by the encoded constructor
	// arguments.
	Data []byte

	// GasLimit overrides the deployer's gas limit when non-zero.
	GasLimit uint64
}

// Receipt describes a confirmed deployment.
type Receipt struct {
	StepID      string
	Contract    string
	Address     common.Address
	TxHash      common.Hash
	BlockNumber uint64
	GasUsed     uint64
	From        common.Address
	Nonce       uint64
}

// Options tune transaction construction and receipt polling.
// Zero values fall back to the package defaults.
type Options struct {
	GasLimit     uint64
	GasFeeCap    *big.Int
	GasTipCap    *big.Int
	PollInterval time.Duration
	Logger       *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.GasLimit == 0 {
		o.GasLimit = DefaultGasLimit
	}
	if o.GasFeeCap == nil {
		o.GasFeeCap = DefaultGasFeeCap
	}
	if o.GasTipCap == nil {
		o.GasTipCap = DefaultGasTipCap
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Deployer deploys contracts through a JSON-RPC node.
type Deployer struct {
	client  *w3.Client
	signer  types.Signer
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID uint64
	opts    Options
	logger  *zap.Logger
}

// QueryChainID returns the chain ID the node reports.
func QueryChainID(ctx context.Context, rpcClient *rpc.Client) (uint64, error) {
	var id uint64
	if err := w3.NewClient(rpcClient).CallCtx(ctx, eth.ChainID().Returns(&id)); err != nil {
		return 0, fmt.Errorf("get chain id: %w", err)
	}
	return id, nil
}

// NewDeployer creates a [Deployer] on an established RPC connection.
//
// The node's chain ID is queried; when chainID is non-zero it must match.
// The caller owns rpcClient and closes it.
func NewDeployer(ctx context.Context, rpcClient *rpc.Client, chainID uint64, key *ecdsa.PrivateKey, opts Options) (*Deployer, error) {
	if key == nil {
		return nil, errors.New("no signing key")
	}
	client := w3.NewClient(rpcClient)

	nodeChainID, err := QueryChainID(ctx, rpcClient)
	if err != nil {
		return nil, err
	}
	if chainID != 0 && chainID != nodeChainID {
		return nil, fmt.Errorf("chain id mismatch: configured %d, node reports %d", chainID, nodeChainID)
	}

	opts = opts.withDefaults()
	return &Deployer{
		client:  client,
		signer:  types.NewLondonSigner(new(big.Int).SetUint64(nodeChainID)),
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		chainID: nodeChainID,
		opts:    opts,
		logger:  opts.Logger,
	}, nil
}

// From returns the address transactions are sent from.
func (d *Deployer) From() common.Address {
	return d.from
}

// ChainID returns the chain ID reported by the node.
func (d *Deployer) ChainID() uint64 {
	return d.chainID
}

func (d *Deployer) nonce(ctx context.Context) (uint64, error) {
	var nonce uint64
	if err := d.client.CallCtx(ctx, eth.Nonce(d.from, nil).Returns(&nonce)); err != nil {
		return 0, fmt.Errorf("get nonce: %w", err)
	}
	return nonce, nil
}

func (d *Deployer) sendTx(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	signed, err := types.SignTx(tx, d.signer, d.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx: %w", err)
	}
	var hash common.Hash
	if err := d.client.CallCtx(ctx, eth.SendTx(signed).Returns(&hash)); err != nil {
		return common.Hash{}, fmt.Errorf("send tx: %w", err)
	}
	if hash != signed.Hash() {
		return common.Hash{}, fmt.Errorf("send tx: node returned hash %s, signed %s", hash.Hex(), signed.Hash().Hex())
	}
	return hash, nil
}

// Deploy sends a contract creation transaction and waits for it to be mined.
//
// Returns an error wrapping [ErrReverted] if the receipt reports failure, or
// the context error if ctx ends before a receipt arrives.
func (d *Deployer) Deploy(ctx context.Context, req Request) (*Receipt, error) {
	nonce, err := d.nonce(ctx)
	if err != nil {
		return nil, err
	}

	gas := req.GasLimit
	if gas == 0 {
		gas = d.opts.GasLimit
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   new(big.Int).SetUint64(d.chainID),
		Nonce:     nonce,
		GasFeeCap: d.opts.GasFeeCap,
		GasTipCap: d.opts.GasTipCap,
		Gas:       gas,
		Data:      req.Data,
	})

	txHash, err := d.sendTx(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("deploy %s: %w", req.Contract, err)
	}
	d.logger.Info("deployment transaction sent",
		zap.String("step", req.StepID),
		zap.String("contract", req.Contract),
		zap.Stringer("tx", txHash),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas", gas),
	)

	receipt, err := d.WaitForReceipt(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("wait for %s: %w", req.Contract, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: %s tx %s", ErrReverted, req.Contract, txHash.Hex())
	}

	out := &Receipt{
		StepID:   req.StepID,
		Contract: req.Contract,
		Address:  ContractAddress(receipt, d.from, nonce),
		TxHash:   txHash,
		GasUsed:  receipt.GasUsed,
		From:     d.from,
		Nonce:    nonce,
	}
	if receipt.BlockNumber != nil {
		out.BlockNumber = receipt.BlockNumber.Uint64()
	}

	d.logger.Info("contract deployed",
		zap.String("step", req.StepID),
		zap.Stringer("address", out.Address),
		zap.Uint64("block", out.BlockNumber),
		zap.Uint64("gas_used", out.GasUsed),
	)
	return out, nil
}

// WaitForReceipt polls for a transaction receipt until one is returned or
// ctx ends.
func (d *Deployer) WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(d.opts.PollInterval)
	defer ticker.Stop()

	for {
		var receipt *types.Receipt
		err := d.client.CallCtx(ctx, eth.TxReceipt(txHash).Returns(&receipt))
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil {
			d.logger.Debug("receipt not available", zap.Stringer("tx", txHash), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// ContractAddress returns the created contract's address from a receipt.
// Nodes that omit contractAddress get the CREATE address derived from the
// sender and nonce.
func ContractAddress(receipt *types.Receipt, from common.Address, nonce uint64) common.Address {
	if receipt != nil && receipt.ContractAddress != (common.Address{}) {
		return receipt.ContractAddress
	}
	return crypto.CreateAddress(from, nonce)
}
