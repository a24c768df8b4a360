// Package config loads the idnode process's TOML configuration, following
// the shape of tos-network-gtos's tos/tosconfig.Config: a plain struct with
// toml field tags, a package-level Defaults value, and nested sub-configs
// for independent subsystems. naoina/toml (the teacher's own TOML library)
// does the decoding.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/naoina/toml"
)

// DHTConfig configures the overlay connection (spec §6.1/§6.4).
type DHTConfig struct {
	Bootstrap []string `toml:",omitempty"` // bootstrap peer addresses
	Listen    string   `toml:",omitempty"` // local listen address
}

// ChainConfig configures the on-chain registration verifier (spec §6.3).
type ChainConfig struct {
	Network     string        `toml:",omitempty"`
	RPCEndpoint string        `toml:",omitempty"`
	MinInterval time.Duration `toml:",omitempty"` // spec §5 rate-limit gate
}

// CacheConfig configures the SWR identity/name caches (spec §5/§6.4).
type CacheConfig struct {
	Size       int           `toml:",omitempty"`
	Freshness  time.Duration `toml:",omitempty"`
	Persist    bool          `toml:",omitempty"`
	PersistDir string        `toml:",omitempty"`
}

// Config is the top-level idnode configuration file (spec §6.4's
// persistent-state layout, expressed as the process's own settings file
// rather than the on-disk state it then manages).
type Config struct {
	DataDir  string `toml:",omitempty"` // spec §6.4: "{data_dir}/..."
	NodeName string `toml:",omitempty"` // spec §4.8: "{node}" in {node}.dsa etc.

	DHT   DHTConfig
	Chain ChainConfig
	Cache CacheConfig

	LogLevel string `toml:",omitempty"`
}

// Defaults mirrors tosconfig.Defaults: a ready-to-use configuration for
// local development and tests.
var Defaults = Config{
	DataDir:  "./data",
	NodeName: "idnode",
	DHT:      DHTConfig{Listen: "0.0.0.0:0"},
	Chain:    ChainConfig{MinInterval: time.Second},
	Cache: CacheConfig{
		Size:      4096,
		Freshness: 5 * time.Minute,
		Persist:   true,
	},
	LogLevel: "info",
}

// Load reads and decodes a TOML config file at path, starting from
// Defaults so an absent field keeps its default rather than zeroing out.
func Load(path string) (Config, error) {
	cfg := Defaults
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewDecoder(f).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as TOML, creating or truncating the file.
func Save(path string, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create %s: %w", path, err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("config: encode %s: %w", path, err)
	}
	return nil
}
