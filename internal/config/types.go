// Package config provides configuration loading and management for arpdeploy.
//
// Configuration is loaded using Viper, supporting YAML config files and environment
// variable overrides. The defaults deploy to a local development node without any
// configuration file.
//
// Key types:
//   - [Config] is the root configuration container with all settings
//   - [Loader] handles Viper-based configuration loading
//   - [NetworkConfig] holds per-network transport settings and profile values
//
// Configuration priority (highest to lowest):
//  1. Environment variables (ARPDEPLOY_ prefix, dots become underscores)
//  2. Config file specified by ARPDEPLOY_CONFIG_PATH
//  3. User config directory (platform-standard):
//     - Linux: ~/.config/arpdeploy/config.yaml
//     - macOS: ~/Library/Application Support/arpdeploy/config.yaml
//     - Windows: %APPDATA%\arpdeploy\config.yaml
//  4. ./arpdeploy.yaml
//  5. [DefaultConfig] defaults
package config

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Config represents the root configuration structure.
type Config struct {
	// Networks holds transport settings and profile values per network name.
	// Viper lowercases keys, so network names and value keys are lowercase.
	Networks map[string]NetworkConfig `mapstructure:"networks"`

	// ArtifactsDir is the directory holding compiled contract JSON.
	// Default: "build/contracts" (Truffle's output directory)
	ArtifactsDir string `mapstructure:"artifacts_dir"`

	// PlanFile is an optional YAML plan file replacing or adding profiles.
	PlanFile string `mapstructure:"plan_file"`

	// LedgerPath is where deployment runs are recorded.
	// Default: "deployments/ledger.yaml"
	LedgerPath string `mapstructure:"ledger_path"`

	// StrictNetwork makes deploying to a network without a profile an error.
	// By default such a network has nothing to deploy.
	StrictNetwork bool `mapstructure:"strict_network"`

	// PrivateKey is the hex signing key. Usually set with ARPDEPLOY_PRIVATE_KEY.
	// A network's own private_key takes precedence.
	PrivateKey string `mapstructure:"private_key"`

	// RPCURL overrides the selected network's rpc_url.
	RPCURL string `mapstructure:"rpc_url"`

	Gas GasConfig `mapstructure:"gas"`

	// DeployTimeout bounds the whole run, including every receipt wait.
	// Default: 10m
	DeployTimeout time.Duration `mapstructure:"deploy_timeout"`

	// PollInterval is the delay between receipt polls.
	// Default: 2s
	PollInterval time.Duration `mapstructure:"poll_interval"`

	Log LogConfig `mapstructure:"log"`

	Output OutputConfig `mapstructure:"output"`
}

// NetworkConfig contains the settings for one deployment target.
type NetworkConfig struct {
	// RPCURL is the JSON-RPC endpoint.
	RPCURL string `mapstructure:"rpc_url"`

	// ChainID is the expected chain ID. Zero accepts whatever the node reports.
	ChainID uint64 `mapstructure:"chain_id"`

	// AllowDevKeys overrides whether the well-known development keys may sign.
	// Unset keeps the profile's setting.
	AllowDevKeys *bool `mapstructure:"allow_dev_keys"`

	// PrivateKey is the hex signing key for this network.
	PrivateKey string `mapstructure:"private_key"`

	// Values are layered over the profile values.
	Values map[string]string `mapstructure:"values"`
}

// GasConfig contains transaction fee settings. Fee caps are decimal wei.
type GasConfig struct {
	// Limit is the gas limit of each creation transaction.
	// Default: 6721975
	Limit uint64 `mapstructure:"limit"`

	// FeeCap is the EIP-1559 max fee per gas. Default: 2 gwei
	FeeCap string `mapstructure:"fee_cap"`

	// TipCap is the EIP-1559 max priority fee per gas. Default: 1 gwei
	TipCap string `mapstructure:"tip_cap"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Default: "warn"
	Level string `mapstructure:"level"`

	// Format is "console" or "json". Default: "console"
	Format string `mapstructure:"format"`

	// File receives logs instead of stderr when set.
	File string `mapstructure:"file"`
}

// OutputConfig contains terminal output settings.
type OutputConfig struct {
	// Color enables styled output. Default: true
	Color bool `mapstructure:"color"`
}

// DefaultConfig returns a new [Config] with sensible defaults.
//
// The development network points at a local node on port 8545; the live
// network expects Ethereum mainnet and has no endpoint until configured.
func DefaultConfig() *Config {
	return &Config{
		Networks: map[string]NetworkConfig{
			"development": {
				RPCURL: "http://127.0.0.1:8545",
			},
			"live": {
				ChainID: 1,
			},
		},
		ArtifactsDir: "build/contracts",
		LedgerPath:   "deployments/ledger.yaml",
		Gas: GasConfig{
			Limit:  6_721_975,
			FeeCap: "2000000000",
			TipCap: "1000000000",
		},
		DeployTimeout: 10 * time.Minute,
		PollInterval:  2 * time.Second,
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Output: OutputConfig{
			Color: true,
		},
	}
}

// Network returns the settings for a network. Unknown names yield the zero value.
func (c *Config) Network(name string) NetworkConfig {
	return c.Networks[strings.ToLower(name)]
}

// Endpoint returns the RPC URL for a network, honoring the global override.
func (c *Config) Endpoint(name string) string {
	if c.RPCURL != "" {
		return c.RPCURL
	}
	return c.Network(name).RPCURL
}

// SigningKey returns the private key for a network, preferring the network's own.
func (c *Config) SigningKey(name string) string {
	if k := c.Network(name).PrivateKey; k != "" {
		return k
	}
	return c.PrivateKey
}

// FeeCaps parses the configured fee caps. Empty values return nil.
func (g GasConfig) FeeCaps() (feeCap, tipCap *big.Int, err error) {
	if feeCap, err = parseWei("gas.fee_cap", g.FeeCap); err != nil {
		return nil, nil, err
	}
	if tipCap, err = parseWei("gas.tip_cap", g.TipCap); err != nil {
		return nil, nil, err
	}
	if feeCap != nil && tipCap != nil && tipCap.Cmp(feeCap) > 0 {
		return nil, nil, fmt.Errorf("gas.tip_cap %s exceeds gas.fee_cap %s", tipCap, feeCap)
	}
	return feeCap, tipCap, nil
}

func parseWei(key, v string) (*big.Int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	n, ok := new(big.Int).SetString(v, 10)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("%s: invalid wei amount %q", key, v)
	}
	return n, nil
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks values that cannot be checked by type alone.
func (c *Config) Validate() error {
	var errs []error

	if c.DeployTimeout <= 0 {
		errs = append(errs, errors.New("deploy_timeout must be positive"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("poll_interval must be positive"))
	}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format: must be console or json, got %q", c.Log.Format))
	}
	if _, _, err := c.Gas.FeeCaps(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
