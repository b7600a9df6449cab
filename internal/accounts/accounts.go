// Package accounts builds the ordered account list handed to a deployment and
// selects the key that signs its transactions.
//
// The list is either given explicitly or assembled from the signer address
// followed by the accounts the node manages (eth_accounts). Index 0 is the
// conventional deployer account.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
)

// ErrNoAccounts is returned by [Resolve] when no source yields an account.
var ErrNoAccounts = errors.New("no accounts available")

// Lister returns the accounts a node manages.
type Lister interface {
	Accounts(ctx context.Context) ([]common.Address, error)
}

// NodeLister lists accounts with the eth_accounts RPC method.
type NodeLister struct {
	client *rpc.Client
}

// NewNodeLister creates a [NodeLister] on an RPC connection.
func NewNodeLister(client *rpc.Client) *NodeLister {
	return &NodeLister{client: client}
}

// Accounts calls eth_accounts.
func (l *NodeLister) Accounts(ctx context.Context) ([]common.Address, error) {
	var out []common.Address
	if err := l.client.CallContext(ctx, &out, "eth_accounts"); err != nil {
		return nil, fmt.Errorf("eth_accounts: %w", err)
	}
	return out, nil
}

// ParseAddress parses a 0x-prefixed hex address.
func ParseAddress(v string) (common.Address, error) {
	v = strings.TrimSpace(v)
	if !common.IsHexAddress(v) {
		return common.Address{}, fmt.Errorf("invalid address: %s", v)
	}
	return common.HexToAddress(v), nil
}

// Resolve returns the ordered account list for a run.
//
// Explicit addresses win and are used as given, minus duplicates. Otherwise
// the list is the signer address (when non-zero) followed by the node's
// accounts. A lister error is ignored when the signer already provides an
// account, since many hosted endpoints do not serve eth_accounts.
func Resolve(ctx context.Context, explicit []string, signer common.Address, lister Lister) ([]common.Address, error) {
	var out []common.Address
	seen := make(map[common.Address]bool)
	add := func(a common.Address) {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}

	if len(explicit) > 0 {
		for _, v := range explicit {
			a, err := ParseAddress(v)
			if err != nil {
				return nil, err
			}
			add(a)
		}
		return out, nil
	}

	if signer != (common.Address{}) {
		add(signer)
	}

	if lister != nil {
		node, err := lister.Accounts(ctx)
		if err != nil && len(out) == 0 {
			return nil, err
		}
		for _, a := range node {
			add(a)
		}
	}

	if len(out) == 0 {
		return nil, ErrNoAccounts
	}
	return out, nil
}

// StaticLister is a [Lister] returning fixed accounts.
type StaticLister struct {
	Addresses []common.Address
	Err       error
}

// Accounts returns the configured addresses or error.
func (s StaticLister) Accounts(context.Context) ([]common.Address, error) {
	return s.Addresses, s.Err
}
