// Package artifact loads compiled contract artifacts and encodes constructor
// calls.
//
// An artifact is the JSON file a Solidity toolchain writes for each contract.
// Both layouts in common use are accepted:
//
//	Truffle:  {"contractName": "ARPToken", "abi": [...], "bytecode": "0x6080..."}
//	Foundry:  {"abi": [...], "bytecode": {"object": "0x6080...", ...}}
//
// Key types:
//   - [Artifact] - parsed ABI plus creation bytecode
//   - [Registry] - loads artifacts by contract name from a directory
//   - [Source] - the lookup interface consumed by the deployment sequencer
package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ErrArtifactNotFound indicates no artifact exists for a contract name.
var ErrArtifactNotFound = errors.New("artifact not found")

// Source looks up artifacts by contract name.
type Source interface {
	Load(name string) (*Artifact, error)
}

// Artifact is a compiled contract ready for deployment.
type Artifact struct {
	// Name is the contract name.
	Name string

	// ABI is the parsed contract interface. Only the constructor is used
	// for deployment.
	ABI abi.ABI

	// Bytecode is the creation bytecode without constructor arguments.
	Bytecode []byte
}

// rawArtifact is the subset of artifact JSON that is read.
type rawArtifact struct {
	ContractName string          `json:"contractName,omitempty"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     json.RawMessage `json:"bytecode"`
}

// foundryBytecode is the object form of the bytecode field.
type foundryBytecode struct {
	Object string `json:"object"`
}

// Parse decodes artifact JSON.
//
// The name argument is used when the JSON carries no contractName. Returns
// an error for malformed JSON, an unparseable ABI, missing bytecode, or
// bytecode with unresolved library placeholders.
func Parse(name string, data []byte) (*Artifact, error) {
	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", name, err)
	}

	if raw.ContractName != "" {
		name = raw.ContractName
	}

	if len(raw.ABI) == 0 {
		return nil, fmt.Errorf("artifact %s: missing abi", name)
	}
	parsed, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, fmt.Errorf("artifact %s: invalid abi: %w", name, err)
	}

	code, err := decodeBytecode(raw.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", name, err)
	}

	return &Artifact{Name: name, ABI: parsed, Bytecode: code}, nil
}

func decodeBytecode(field json.RawMessage) ([]byte, error) {
	var hexCode string
	trimmed := bytes.TrimSpace(field)

	switch {
	case len(trimmed) == 0 || string(trimmed) == "null":
		return nil, errors.New("missing bytecode")
	case trimmed[0] == '"':
		if err := json.Unmarshal(trimmed, &hexCode); err != nil {
			return nil, fmt.Errorf("invalid bytecode: %w", err)
		}
	default:
		var obj foundryBytecode
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, fmt.Errorf("invalid bytecode: %w", err)
		}
		hexCode = obj.Object
	}

	hexCode = strings.TrimSpace(hexCode)
	if strings.Contains(hexCode, "__") {
		return nil, errors.New("bytecode has unlinked library references")
	}

	code := common.FromHex(hexCode)
	if len(code) == 0 {
		return nil, errors.New("empty bytecode (abstract contract or interface?)")
	}
	return code, nil
}

// Pack ABI-encodes constructor arguments.
//
// Each value is converted to the Go type the constructor input expects; see
// [Convert] for accepted inputs. The argument count must match the
// constructor exactly.
func (a *Artifact) Pack(args ...any) ([]byte, error) {
	inputs := a.ABI.Constructor.Inputs
	if len(args) != len(inputs) {
		return nil, fmt.Errorf("%s constructor takes %d arguments, got %d", a.Name, len(inputs), len(args))
	}
	if len(inputs) == 0 {
		return nil, nil
	}

	converted := make([]any, len(args))
	for i, v := range args {
		c, err := Convert(inputs[i].Type, v)
		if err != nil {
			return nil, fmt.Errorf("%s constructor arg %d (%s %s): %w", a.Name, i, inputs[i].Type.String(), inputs[i].Name, err)
		}
		converted[i] = c
	}

	packed, err := inputs.Pack(converted...)
	if err != nil {
		return nil, fmt.Errorf("%s constructor: %w", a.Name, err)
	}
	return packed, nil
}

// DeployData returns the creation bytecode followed by the encoded
// constructor arguments.
func (a *Artifact) DeployData(args ...any) ([]byte, error) {
	packed, err := a.Pack(args...)
	if err != nil {
		return nil, err
	}
	data := make([]byte, 0, len(a.Bytecode)+len(packed))
	data = append(data, a.Bytecode...)
	data = append(data, packed...)
	return data, nil
}

// ConstructorSignature returns the constructor input types, e.g.
// "(address,address,uint256)".
func (a *Artifact) ConstructorSignature() string {
	types := make([]string, len(a.ABI.Constructor.Inputs))
	for i, in := range a.ABI.Constructor.Inputs {
		types[i] = in.Type.String()
	}
	return "(" + strings.Join(types, ",") + ")"
}
