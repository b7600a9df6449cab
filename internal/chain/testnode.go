package chain

import (
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
)

// TestNode is an in-process JSON-RPC node for testing [Deployer].
//
// It answers eth_chainId, eth_getTransactionCount, eth_sendRawTransaction and
// eth_getTransactionReceipt. Every accepted transaction is mined at once with
// the CREATE address of its sender and nonce.
type TestNode struct {
	// Status is the receipt status of mined transactions.
	Status uint64

	// PendingPolls is the number of receipt queries answered with null
	// before receipts are returned.
	PendingPolls int

	// OmitAddress leaves contractAddress out of receipts.
	OmitAddress bool

	chainID  uint64
	mu       sync.Mutex
	nonce    uint64
	sent     []*types.Transaction
	receipts map[common.Hash]*types.Receipt
}

// NewTestNode creates a node for chainID whose next nonce is nonce.
func NewTestNode(chainID, nonce uint64) *TestNode {
	return &TestNode{
		Status:   types.ReceiptStatusSuccessful,
		chainID:  chainID,
		nonce:    nonce,
		receipts: make(map[common.Hash]*types.Receipt),
	}
}

// Dial starts the node and returns a client connected to it. Both are closed
// when the test ends.
func (n *TestNode) Dial(t testing.TB) *rpc.Client {
	t.Helper()
	srv := rpc.NewServer()
	if err := srv.RegisterName("eth", &testNodeAPI{node: n}); err != nil {
		t.Fatalf("failed to register test node: %v", err)
	}
	client := rpc.DialInProc(srv)
	t.Cleanup(func() {
		client.Close()
		srv.Stop()
	})
	return client
}

// Sent returns the accepted transactions in order.
func (n *TestNode) Sent() []*types.Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*types.Transaction(nil), n.sent...)
}

// Receipt returns the receipt of an accepted transaction.
func (n *TestNode) Receipt(hash common.Hash) *types.Receipt {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.receipts[hash]
}

// testNodeAPI holds the eth namespace methods served by a TestNode.
type testNodeAPI struct {
	node *TestNode
}

func (api *testNodeAPI) ChainId() hexutil.Uint64 {
	return hexutil.Uint64(api.node.chainID)
}

func (api *testNodeAPI) GetTransactionCount(addr common.Address, block *rpc.BlockNumberOrHash) hexutil.Uint64 {
	n := api.node
	n.mu.Lock()
	defer n.mu.Unlock()
	return hexutil.Uint64(n.nonce)
}

func (api *testNodeAPI) SendRawTransaction(raw hexutil.Bytes) (common.Hash, error) {
	n := api.node
	n.mu.Lock()
	defer n.mu.Unlock()

	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, err
	}
	if tx.Nonce() != n.nonce {
		return common.Hash{}, errors.New("nonce too low")
	}
	from, err := types.Sender(types.LatestSignerForChainID(new(big.Int).SetUint64(n.chainID)), tx)
	if err != nil {
		return common.Hash{}, err
	}

	receipt := &types.Receipt{
		Type:              tx.Type(),
		Status:            n.Status,
		CumulativeGasUsed: 100_000,
		Logs:              []*types.Log{},
		TxHash:            tx.Hash(),
		GasUsed:           100_000,
		BlockNumber:       new(big.Int).SetUint64(n.nonce + 1),
		EffectiveGasPrice: big.NewInt(1),
	}
	if !n.OmitAddress {
		receipt.ContractAddress = crypto.CreateAddress(from, tx.Nonce())
	}
	n.receipts[tx.Hash()] = receipt
	n.sent = append(n.sent, tx)
	n.nonce++
	return tx.Hash(), nil
}

func (api *testNodeAPI) GetTransactionReceipt(hash common.Hash) *types.Receipt {
	n := api.node
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.PendingPolls > 0 {
		n.PendingPolls--
		return nil
	}
	return n.receipts[hash]
}
