package chain

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// MockDeployer is an in-memory deployer for testing.
//
// Addresses are derived the way a node derives them, from From and an
// internal nonce, so every call returns a distinct non-zero address.
type MockDeployer struct {
	// From is the simulated sender.
	From common.Address

	// Requests records every deployment request in order.
	Requests []Request

	// FailOn names a step ID whose deployment fails.
	FailOn string

	// Err is returned for FailOn. Defaults to an error wrapping ErrReverted.
	Err error

	nonce uint64
}

// Deploy records the request and returns a synthetic receipt.
func (m *MockDeployer) Deploy(ctx context.Context, req Request) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.Requests = append(m.Requests, req)

	nonce := m.nonce
	m.nonce++

	if req.StepID == m.FailOn {
		if m.Err != nil {
			return nil, m.Err
		}
		return nil, fmt.Errorf("%w: %s", ErrReverted, req.Contract)
	}

	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)

	return &Receipt{
		StepID:      req.StepID,
		Contract:    req.Contract,
		Address:     crypto.CreateAddress(m.From, nonce),
		TxHash:      crypto.Keccak256Hash(m.From.Bytes(), n[:], req.Data),
		BlockNumber: nonce + 1,
		GasUsed:     uint64(len(req.Data)),
		From:        m.From,
		Nonce:       nonce,
	}, nil
}
