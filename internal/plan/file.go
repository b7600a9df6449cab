package plan

import (
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Definition is a network entry in a plan file.
type Definition struct {
	// Values are the profile literals that config arguments resolve against.
	Values map[string]string `yaml:"values,omitempty"`

	// Steps are the deployments for the network in execution order.
	Steps []Step `yaml:"steps"`
}

// File is a parsed plan file.
//
// The YAML format is:
//
//	networks:
//	  development:
//	    steps:
//	      - id: ARPToken
//	      - id: ARPTeamHolding
//	        args:
//	          - ref: ARPToken
//	          - account: 0
//	          - time: -63071700
//	  live:
//	    values:
//	      token: "0xbeb6fdf4ef6ceb975157be43cbe0047b248a8922"
//	    steps:
//	      - id: ARPTeamHolding
//	        args:
//	          - config: token
//	          - literal: "1525132800"
type File struct {
	Networks map[string]Definition `yaml:"networks"`
}

// ReadFromFile reads and parses a plan file from fs.
func ReadFromFile(fs afero.Fs, path string) (*File, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	return ReadFromBytes(data)
}

// ReadFromBytes parses a plan file from YAML bytes.
//
// Structural problems (no networks, a network without steps, malformed
// arguments) are reported here. Reference and value checks happen in
// [Validate] once the network profile is known.
func ReadFromBytes(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse plan file: %w", err)
	}

	if len(f.Networks) == 0 {
		return nil, fmt.Errorf("plan file contains no networks")
	}

	for name, def := range f.Networks {
		if len(def.Steps) == 0 {
			return nil, fmt.Errorf("network %s: %w", name, ErrEmptyPlan)
		}
	}

	return &f, nil
}

// rawArg is the YAML shape of an [Arg]: a mapping with exactly one key.
type rawArg struct {
	Literal *string `yaml:"literal,omitempty"`
	Config  *string `yaml:"config,omitempty"`
	Ref     *string `yaml:"ref,omitempty"`
	Account *int    `yaml:"account,omitempty"`
	Time    *int64  `yaml:"time,omitempty"`
}

// UnmarshalYAML decodes a single-key argument mapping.
func (a *Arg) UnmarshalYAML(node *yaml.Node) error {
	var raw rawArg
	if err := node.Decode(&raw); err != nil {
		return err
	}

	set := 0
	if raw.Literal != nil {
		*a = Literal(*raw.Literal)
		set++
	}
	if raw.Config != nil {
		*a = Config(*raw.Config)
		set++
	}
	if raw.Ref != nil {
		*a = Ref(*raw.Ref)
		set++
	}
	if raw.Account != nil {
		*a = Account(*raw.Account)
		set++
	}
	if raw.Time != nil {
		*a = Time(*raw.Time)
		set++
	}

	if set != 1 {
		return fmt.Errorf("line %d: %w: expected exactly one of literal, config, ref, account, time", node.Line, ErrInvalidArg)
	}
	return nil
}

// MarshalYAML encodes the argument back to its single-key form.
func (a Arg) MarshalYAML() (interface{}, error) {
	switch a.Kind {
	case ArgLiteral:
		return rawArg{Literal: &a.Value}, nil
	case ArgConfig:
		return rawArg{Config: &a.Value}, nil
	case ArgRef:
		return rawArg{Ref: &a.Value}, nil
	case ArgAccount:
		return rawArg{Account: &a.Index}, nil
	case ArgTime:
		return rawArg{Time: &a.Offset}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidArg, a.Kind)
	}
}
