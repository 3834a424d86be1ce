// Package compile loads compiled contract artifacts from the project's build
// directory. Compilers themselves are never invoked here.
package compile

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// BuildDir is where compiled artifacts live, relative to the project root.
const BuildDir = "build"

// ErrNotCompiled is returned when no artifact exists for a contract.
var ErrNotCompiled = errors.New("contract not compiled")

// Result is a loaded artifact.
type Result struct {
	Name string
	Code *cell.Cell
	// Hash is the code cell hash, lowercase hex.
	Hash string
}

type artifact struct {
	Hash string `json:"hash"`
	Hex  string `json:"hex"`
}

// Path returns the artifact path of name under dir.
func Path(dir, name string) string {
	return filepath.Join(dir, BuildDir, name+".compiled.json")
}

// Load reads build/<name>.compiled.json under dir.
func Load(dir, name string) (*Result, error) {
	path := Path(dir, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s (no %s)", ErrNotCompiled, name, path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read artifact file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("artifact file is empty: %s", path)
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("invalid artifact JSON: %w", err)
	}
	if a.Hex == "" {
		return nil, fmt.Errorf("artifact has no \"hex\" code: %s", path)
	}

	boc, err := hex.DecodeString(strings.TrimPrefix(a.Hex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid code hex in artifact: %w", err)
	}
	code, err := cell.FromBOC(boc)
	if err != nil {
		return nil, fmt.Errorf("invalid code BOC in artifact: %w", err)
	}

	res := &Result{Name: name, Code: code, Hash: hex.EncodeToString(code.Hash())}
	if a.Hash != "" && !strings.EqualFold(a.Hash, res.Hash) {
		return nil, fmt.Errorf("artifact %s is stale: recorded hash %s, code hash %s", path, a.Hash, res.Hash)
	}
	return res, nil
}

// StateInit pairs the code with initial data.
func (r *Result) StateInit(data *cell.Cell) *tlb.StateInit {
	if data == nil {
		data = cell.BeginCell().EndCell()
	}
	return &tlb.StateInit{Code: r.Code, Data: data}
}

// Address computes the contract address for init in workchain wc.
func Address(init *tlb.StateInit, wc int8) (*address.Address, error) {
	c, err := tlb.ToCell(init)
	if err != nil {
		return nil, fmt.Errorf("serializing state init: %w", err)
	}
	return address.NewAddress(0, byte(wc), c.Hash()), nil
}
