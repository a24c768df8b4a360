package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "idnode.toml")

	cfg := Defaults
	cfg.NodeName = "test-node"
	cfg.Chain.Network = "testnet"
	cfg.Chain.RPCEndpoint = "https://rpc.example"

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "test-node", loaded.NodeName)
	require.Equal(t, "testnet", loaded.Chain.Network)
	require.Equal(t, "https://rpc.example", loaded.Chain.RPCEndpoint)
}

func TestLoadFillsUnsetFieldsFromDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "idnode.toml")
	require.NoError(t, Save(path, Config{NodeName: "bare"}))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "bare", loaded.NodeName)
	require.Equal(t, Defaults.Cache.Size, loaded.Cache.Size)
	require.Equal(t, time.Second, loaded.Chain.MinInterval)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
