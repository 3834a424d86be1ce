package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/tonblueprint/internal/config"
	"github.com/Mohsinsiddi/tonblueprint/internal/network"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultConfig(t *testing.T) {
	cfg, err := config.Load(t.TempDir(), "")
	require.NoError(t, err)

	assert.Empty(t, cfg.Network)
	assert.Nil(t, cfg.Custom)
	assert.Equal(t, config.DefaultManifestURL, cfg.ManifestURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Empty(t, cfg.Path())
}

func TestLoadNamedNetworkJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "blueprint.config.json", `{
		"network": "testnet",
		"manifestUrl": "https://example.com/manifest.json",
		"requestTimeout": 2500,
		"explorer": "tonviewer",
		"rateLimit": 1
	}`)

	cfg, err := config.Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "testnet", cfg.Network)
	assert.Equal(t, "https://example.com/manifest.json", cfg.ManifestURL)
	assert.Equal(t, 2500*time.Millisecond, cfg.RequestTimeout)
	assert.Equal(t, "tonviewer", cfg.Explorer)
	assert.Equal(t, 1.0, cfg.RateLimit)
	assert.Contains(t, cfg.Path(), "blueprint.config.json")
}

func TestLoadCustomNetworkYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "blueprint.config.yaml", `
network:
  endpoint: https://toncenter.example/api/v2/jsonRPC
  version: v2
  key: secret
  type: testnet
`)

	cfg, err := config.Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.Network)
	require.NotNil(t, cfg.Custom)
	assert.Equal(t, "https://toncenter.example/api/v2/jsonRPC", cfg.Custom.Endpoint)
	assert.Equal(t, "v2", cfg.Custom.Version)
	assert.Equal(t, "secret", cfg.Custom.Key)
	assert.Equal(t, "testnet", cfg.Custom.Type)
}

func TestLoadCustomNetworkDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "blueprint.config.toml", `
[network]
endpoint = "https://node.example"
`)

	cfg, err := config.Load(dir, "")
	require.NoError(t, err)
	require.NotNil(t, cfg.Custom)
	assert.Equal(t, "v2", cfg.Custom.Version)
	assert.Equal(t, "custom", cfg.Custom.Type)
}

func TestLoadExplicitFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "other.json", `{"network": "mainnet"}`)
	cfg, err := config.Load("", path)
	require.NoError(t, err)
	assert.Equal(t, "mainnet", cfg.Network)
}

func TestLoadExplicitFileMissing(t *testing.T) {
	_, err := config.Load("", filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"unknown network":     `{"network": "devnet"}`,
		"bare custom":         `{"network": "custom"}`,
		"custom no endpoint":  `{"network": {"version": "v4"}}`,
		"unknown version":     `{"network": {"endpoint": "https://x", "version": "v3"}}`,
		"unknown type":        `{"network": {"endpoint": "https://x", "type": "devnet"}}`,
		"unknown explorer":    `{"explorer": "etherscan"}`,
		"zero timeout":        `{"requestTimeout": 0}`,
		"negative rate limit": `{"rateLimit": -1}`,
		"network wrong type":  `{"network": 5}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "blueprint.config.json", body)
			_, err := config.Load(dir, "")
			assert.ErrorIs(t, err, network.ErrConfig)
		})
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "BLUEPRINT_TEST_A=from-file\nBLUEPRINT_TEST_B=from-file\n")
	t.Setenv("BLUEPRINT_TEST_B", "from-env")
	t.Cleanup(func() { os.Unsetenv("BLUEPRINT_TEST_A") })

	require.NoError(t, config.LoadEnv(dir))
	assert.Equal(t, "from-file", os.Getenv("BLUEPRINT_TEST_A"))
	assert.Equal(t, "from-env", os.Getenv("BLUEPRINT_TEST_B"))
}

func TestLoadEnvMissingFile(t *testing.T) {
	assert.NoError(t, config.LoadEnv(t.TempDir()))
}
