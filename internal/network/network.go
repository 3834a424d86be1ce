package network

import (
	"fmt"
	"strings"

	"github.com/xssnick/tonutils-go/address"
)

// Network selects default endpoints and address formatting.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
	Custom  Network = "custom"
)

// ParseNetwork accepts the network names used by flags and the config file.
func ParseNetwork(s string) (Network, error) {
	switch n := Network(strings.ToLower(strings.TrimSpace(s))); n {
	case Mainnet, Testnet, Custom:
		return n, nil
	default:
		return "", fmt.Errorf("%w: unknown network %q (expected mainnet, testnet or custom)", ErrConfig, s)
	}
}

// IsTestnet reports whether addresses should carry the testnet-only flag.
func (n Network) IsTestnet() bool { return n == Testnet }

// FormatAddress renders addr in its user-friendly form for the given network type.
func FormatAddress(n Network, addr *address.Address) string {
	if addr == nil {
		return ""
	}
	if !n.IsTestnet() {
		return addr.String()
	}
	cp, err := address.ParseRawAddr(addr.StringRaw())
	if err != nil {
		return addr.String()
	}
	cp.SetTestnetOnly(true)
	return cp.String()
}
