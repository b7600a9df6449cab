package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	appName        = "arpdeploy"
	envPrefix      = "ARPDEPLOY"
	configFileName = "config.yaml"
	localConfig    = "arpdeploy.yaml"
)

// Loader handles configuration loading with Viper.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new [Loader] with defaults and environment binding.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())
	return &Loader{v: v}
}

// setDefaults registers every key so environment variables can override it.
func setDefaults(v *viper.Viper, cfg *Config) {
	for name, n := range cfg.Networks {
		v.SetDefault("networks."+name+".rpc_url", n.RPCURL)
		v.SetDefault("networks."+name+".chain_id", n.ChainID)
		v.SetDefault("networks."+name+".private_key", n.PrivateKey)
	}
	v.SetDefault("artifacts_dir", cfg.ArtifactsDir)
	v.SetDefault("plan_file", cfg.PlanFile)
	v.SetDefault("ledger_path", cfg.LedgerPath)
	v.SetDefault("strict_network", cfg.StrictNetwork)
	v.SetDefault("private_key", cfg.PrivateKey)
	v.SetDefault("rpc_url", cfg.RPCURL)
	v.SetDefault("gas.limit", cfg.Gas.Limit)
	v.SetDefault("gas.fee_cap", cfg.Gas.FeeCap)
	v.SetDefault("gas.tip_cap", cfg.Gas.TipCap)
	v.SetDefault("deploy_timeout", cfg.DeployTimeout)
	v.SetDefault("poll_interval", cfg.PollInterval)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("output.color", cfg.Output.Color)
}

// Load discovers and reads the configuration file, then applies environment
// overrides. With no file present the defaults are returned.
func (l *Loader) Load() (*Config, error) {
	if path := configPath(); path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return l.unmarshal()
}

// LoadFromFile reads configuration from an explicit path.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// configPath returns the first configuration file found, or "".
func configPath() string {
	if p := os.Getenv(envPrefix + "_CONFIG_PATH"); p != "" {
		return p
	}
	if p, err := DefaultConfigPath(); err == nil {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig
	}
	return ""
}

// ConfigDir returns the platform-specific configuration directory for arpdeploy.
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	return filepath.Join(dir, appName), nil
}

// DefaultConfigPath returns the path of the user-level config file.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}
