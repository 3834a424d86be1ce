package e2e_test

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary before all E2E tests.
	tmp, err := os.MkdirTemp("", "tonblueprint-e2e-test")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	binaryPath = filepath.Join(tmp, "tonblueprint")
	// Build from the module root (two levels up from test/e2e/).
	moduleRoot, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		panic(err)
	}
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = moduleRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		panic("build failed: " + string(out))
	}

	os.Exit(m.Run())
}

// runCLI runs the binary inside projectDir and returns its output and exit code.
func runCLI(t *testing.T, projectDir string, args ...string) (string, int) {
	t.Helper()
	cmd := exec.Command(binaryPath, append([]string{"--plain"}, args...)...)
	cmd.Dir = projectDir
	cmd.Env = append(os.Environ(), "WALLET_MNEMONIC=", "WALLET_VERSION=")
	out, err := cmd.CombinedOutput()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return string(out), exitErr.ExitCode()
	}
	require.NoError(t, err)
	return string(out), 0
}

func TestVersionFlag(t *testing.T) {
	out, code := runCLI(t, t.TempDir(), "--version")
	assert.Zero(t, code)
	assert.Contains(t, out, "tonblueprint")
	assert.Contains(t, out, "0.1.0")
}

func TestHelpCommand(t *testing.T) {
	out, code := runCLI(t, t.TempDir(), "--help")
	require.Zero(t, code)
	for _, c := range []string{"deploy", "send", "state", "get", "txs", "verify", "config-param"} {
		assert.Contains(t, out, c)
	}
	for _, f := range []string{"--mainnet", "--testnet", "--custom", "--tonconnect", "--deeplink", "--mnemonic", "--tonviewer"} {
		assert.Contains(t, out, f)
	}
}

func TestConflictingNetworkFlags(t *testing.T) {
	out, code := runCLI(t, t.TempDir(), "state", "--mainnet", "--testnet", "0:"+strings.Repeat("00", 32))
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "mainnet")
}

func TestCustomOnlyFlagWithoutCustom(t *testing.T) {
	out, code := runCLI(t, t.TempDir(), "state", "--testnet", "--custom-key", "k", "0:"+strings.Repeat("00", 32))
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "--custom-key is only allowed together with --custom")
}

func TestV4WithKeyIsRejected(t *testing.T) {
	out, code := runCLI(t, t.TempDir(), "config-param",
		"--custom", "http://127.0.0.1:1/v4", "--custom-version", "v4", "--custom-key", "secret", "34")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "v4 backend does not support API keys")
}

func TestMnemonicWithoutEnv(t *testing.T) {
	out, code := runCLI(t, t.TempDir(), "send", "--testnet", "--mnemonic", "--amount", "0.1", "0:"+strings.Repeat("00", 32))
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "WALLET_MNEMONIC")
}

func TestDeployWithoutArtifact(t *testing.T) {
	out, code := runCLI(t, t.TempDir(), "deploy", "Counter", "--testnet", "--deeplink")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "contract not compiled")
}

func TestWaitDeployRejectsZeroAttempts(t *testing.T) {
	out, code := runCLI(t, t.TempDir(), "wait-deploy", "--testnet", "--attempts", "0", "0:"+strings.Repeat("00", 32))
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "attempts must be positive")
}

func TestInvalidConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blueprint.config.json"), []byte(`{"network": "custom"}`), 0o644))

	out, code := runCLI(t, dir, "state", "0:"+strings.Repeat("00", 32))
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "custom network must be given as an object")
}
