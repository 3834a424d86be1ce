package cmd

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// parseAddress accepts user-friendly and raw ("0:abcd...") addresses.
func parseAddress(s string) (*address.Address, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ":") {
		a, err := address.ParseRawAddr(s)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %w", s, err)
		}
		return a, nil
	}
	a, err := address.ParseAddr(s)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return a, nil
}

// parseCell decodes a BOC given as hex or base64. Empty input is nil.
func parseCell(s string) (*cell.Cell, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	data, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		if data, err = base64.StdEncoding.DecodeString(s); err != nil {
			return nil, fmt.Errorf("cell must be a hex or base64 BOC")
		}
	}
	c, err := cell.FromBOC(data)
	if err != nil {
		return nil, fmt.Errorf("parsing BOC: %w", err)
	}
	return c, nil
}

// parseTON parses an amount in TON, e.g. "0.05".
func parseTON(s string) (tlb.Coins, error) {
	c, err := tlb.FromTON(s)
	if err != nil {
		return tlb.Coins{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return c, nil
}

// parseStackArg turns a command-line get-method argument into a stack value:
// integers (decimal or 0x hex) become *big.Int, "boc:<hex|base64>" a cell
// and "addr:<address>" an address slice.
func parseStackArg(s string) (any, error) {
	switch {
	case strings.HasPrefix(s, "boc:"):
		return parseCell(strings.TrimPrefix(s, "boc:"))
	case strings.HasPrefix(s, "addr:"):
		a, err := parseAddress(strings.TrimPrefix(s, "addr:"))
		if err != nil {
			return nil, err
		}
		return cell.BeginCell().MustStoreAddr(a).EndCell().BeginParse(), nil
	}
	n, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("argument %q is not an integer, boc:<cell> or addr:<address>", s)
	}
	return n, nil
}

// formatStackValue renders one get-method result.
func formatStackValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case *big.Int:
		return x.String()
	case *cell.Cell:
		return "cell " + hex.EncodeToString(x.ToBOC())
	case *cell.Slice:
		c, err := x.ToCell()
		if err != nil {
			return "slice <" + err.Error() + ">"
		}
		if a, err := c.BeginParse().LoadAddr(); err == nil && c.BitsSize() == 267 {
			return "address " + a.String()
		}
		return "slice " + hex.EncodeToString(c.ToBOC())
	}
	return fmt.Sprintf("%v", v)
}
