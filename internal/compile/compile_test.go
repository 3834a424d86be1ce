package compile

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

func writeArtifact(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, BuildDir), 0o755))
	require.NoError(t, os.WriteFile(Path(dir, name), []byte(body), 0o644))
}

func testCode() *cell.Cell {
	return cell.BeginCell().MustStoreUInt(0xFF00F4A4, 32).EndCell()
}

func TestLoadValid(t *testing.T) {
	dir := t.TempDir()
	code := testCode()
	codeHex := hex.EncodeToString(code.ToBOC())
	hash := hex.EncodeToString(code.Hash())
	writeArtifact(t, dir, "Counter", `{"hash":"`+hash+`","hashBase64":"x","hex":"`+codeHex+`"}`)

	res, err := Load(dir, "Counter")
	require.NoError(t, err)
	assert.Equal(t, "Counter", res.Name)
	assert.Equal(t, hash, res.Hash)
	assert.Equal(t, code.Hash(), res.Code.Hash())
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir(), "Nope")
	assert.ErrorIs(t, err, ErrNotCompiled)
}

func TestLoadRejectsBadArtifacts(t *testing.T) {
	good := hex.EncodeToString(testCode().ToBOC())
	tests := map[string]string{
		"empty":      "  ",
		"not json":   "{",
		"no hex":     `{"hash":"ab"}`,
		"bad hex":    `{"hex":"zz"}`,
		"bad boc":    `{"hex":"abcd"}`,
		"stale hash": `{"hex":"` + good + `","hash":"00"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeArtifact(t, dir, "C", body)
			_, err := Load(dir, "C")
			assert.Error(t, err)
		})
	}
}

func TestAddressDependsOnData(t *testing.T) {
	res := &Result{Code: testCode()}
	a1, err := Address(res.StateInit(nil), 0)
	require.NoError(t, err)
	a2, err := Address(res.StateInit(cell.BeginCell().MustStoreUInt(1, 8).EndCell()), 0)
	require.NoError(t, err)

	assert.NotEqual(t, a1.StringRaw(), a2.StringRaw())
	assert.Equal(t, int32(0), a1.Workchain())
}
