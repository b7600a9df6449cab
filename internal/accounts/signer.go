package accounts

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrNoSigner indicates no private key was configured and development
	// keys are not allowed for the network.
	ErrNoSigner = errors.New("no private key configured")

	// ErrProductionChain indicates a development key was requested for a
	// production chain.
	ErrProductionChain = errors.New("development keys cannot be used on a production chain")
)

// DevPrivateKeys are the deterministic keys of the local development nodes
// (Anvil, Hardhat), derived from the mnemonic
// "test test test test test test test test test test test junk".
//
// These keys are public. [DevSigner] refuses them on production chains.
var DevPrivateKeys = []string{
	"ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80", // 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266
	"59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d", // 0x70997970C51812dc3A010C7d01b50e0d17dc79C8
	"5de4111afa1a4b94908f83103eb1f1706367c2e68ca870fc3fb9a804cdab365a", // 0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC
	"7c852118294e51e653712a81e05800f419141751be58f605c371e15141b007a6", // 0x90F79bf6EB2c4f870365E785982E1f101E93b906
	"47e179ec197488593b187f80a00eb0da91f1b9d0b13f8733639f19c30a34926a", // 0x15d34AAf54267DB7D7c367839AAf71A00a2C6A65
	"8b3a350cf5c34c9194ca85829a2df0ec3153be0318b5e2d3348e872092edffba", // 0x9965507D1a55bcC2695C58ba16FB37d819B0A4dc
	"92db14e403b83dfe3df233f83dfa3a0d7096f21ca9b0d6d6b8d88b2b4ec1564e", // 0x976EA74026E726554dB657fA54763abd0C3a0aa9
	"4bbbf85ce3377467afe5d46f804f221813b2bb87f24d81f60f1fcdbf7cbf4356", // 0x14dC79964da2C08b23698B3D3cc7Ca32193d9955
	"dbda1821b80551c9d65939329250298aa3472ba22feea921c0cf5d620ea67b97", // 0x23618e81E3f5cdF7f54C3d65f7FBc0aBf5B21E8f
	"2a871d0798f97d79848a013d4936a73bf4cc922c825d33c1cf7073dff6d409c6", // 0xa0Ee7A142d267C1f36714E4a8F75612F20a79720
}

// productionChains are chain IDs development keys are refused on.
var productionChains = map[uint64]string{
	1:     "Ethereum Mainnet",
	10:    "Optimism",
	137:   "Polygon",
	8453:  "Base",
	42161: "Arbitrum One",
}

// IsProductionChain reports whether chainID is a known production network,
// and its name.
func IsProductionChain(chainID uint64) (string, bool) {
	name, ok := productionChains[chainID]
	return name, ok
}

// Signer is a private key and its address.
type Signer struct {
	Key     *ecdsa.PrivateKey
	Address common.Address

	// Dev is true for one of [DevPrivateKeys].
	Dev bool
}

// ParseKey parses a hex private key, with or without 0x prefix.
func ParseKey(hexKey string) (*Signer, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Signer{Key: key, Address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// DevSigner returns development key index for chainID.
func DevSigner(index int, chainID uint64) (*Signer, error) {
	if name, ok := IsProductionChain(chainID); ok {
		return nil, fmt.Errorf("%w: %s (chain_id=%d)", ErrProductionChain, name, chainID)
	}
	if index < 0 || index >= len(DevPrivateKeys) {
		return nil, fmt.Errorf("development key index %d out of range [0,%d)", index, len(DevPrivateKeys))
	}
	s, err := ParseKey(DevPrivateKeys[index])
	if err != nil {
		return nil, err
	}
	s.Dev = true
	return s, nil
}

// LoadSigner selects the signing key for a run.
//
// A configured hexKey always wins. Without one, development key 0 is used
// when allowDev is set, subject to the production chain check; otherwise
// [ErrNoSigner] is returned.
func LoadSigner(hexKey string, chainID uint64, allowDev bool) (*Signer, error) {
	if strings.TrimSpace(hexKey) != "" {
		return ParseKey(hexKey)
	}
	if !allowDev {
		return nil, ErrNoSigner
	}
	return DevSigner(0, chainID)
}
