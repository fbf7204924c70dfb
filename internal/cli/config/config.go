package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CLIConfig is the configuration for assetgw-cli.
type CLIConfig struct {
	Server   string        `yaml:"server" json:"server"`
	Identity string        `yaml:"identity,omitempty" json:"identity,omitempty"`
	Output   string        `yaml:"output" json:"output"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`

	// Wallet locates the identity store for the wallet commands.
	Wallet WalletConfig `yaml:"wallet" json:"wallet"`
}

// WalletConfig locates a local wallet.
type WalletConfig struct {
	Type string `yaml:"type" json:"type"`
	Path string `yaml:"path" json:"path"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:  "http://localhost:3000",
		Output:  "table",
		Timeout: 90 * time.Second,
		Wallet: WalletConfig{
			Type: "file",
			Path: "./wallet",
		},
	}
}

// DefaultPath returns the default CLI config file path.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".assetgw", "cli.yaml")
	}
	return filepath.Join(home, ".assetgw", "cli.yaml")
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path with owner-only permissions.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

var setters = map[string]func(*CLIConfig, string) error{
	"server": func(c *CLIConfig, v string) error {
		c.Server = v
		return nil
	},
	"identity": func(c *CLIConfig, v string) error {
		c.Identity = v
		return nil
	},
	"output": func(c *CLIConfig, v string) error {
		switch v {
		case "table", "json", "yaml":
			c.Output = v
			return nil
		}
		return fmt.Errorf("output must be table, json or yaml")
	},
	"timeout": func(c *CLIConfig, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("timeout must be a positive duration")
		}
		c.Timeout = d
		return nil
	},
	"wallet.type": func(c *CLIConfig, v string) error {
		switch v {
		case "file", "badger":
			c.Wallet.Type = v
			return nil
		}
		return fmt.Errorf("wallet.type must be file or badger")
	},
	"wallet.path": func(c *CLIConfig, v string) error {
		c.Wallet.Path = v
		return nil
	},
}

// Set assigns one setting by key.
func (c *CLIConfig) Set(key, value string) error {
	set, ok := setters[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("unknown key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	return set(c, strings.TrimSpace(value))
}

// Keys lists the settable keys.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
