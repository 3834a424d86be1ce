package network

import (
	"fmt"
	"strings"

	"github.com/xssnick/tonutils-go/address"
)

// Explorer only affects how links are printed.
type Explorer string

const (
	Tonscan   Explorer = "tonscan"
	Tonviewer Explorer = "tonviewer"
	Toncx     Explorer = "toncx"
	Dton      Explorer = "dton"
)

// DefaultExplorer is used when no explorer flag or config value is given.
const DefaultExplorer = Tonscan

type explorerURLs struct {
	mainnet string
	testnet string
	address string // path template, %s = address
	tx      string // path template, see TxLink
}

var explorers = map[Explorer]explorerURLs{
	Tonscan:   {"https://tonscan.org", "https://testnet.tonscan.org", "/address/%s", "/tx/%[2]s"},
	Tonviewer: {"https://tonviewer.com", "https://testnet.tonviewer.com", "/%s", "/transaction/%[2]s"},
	Toncx:     {"https://ton.cx", "https://testnet.ton.cx", "/address/%s", "/tx/%[3]d:%[2]s:%[1]s"},
	Dton:      {"https://dton.io", "https://testnet.dton.io", "/a/%s", "/tx/%[2]s"},
}

// ParseExplorer accepts an explorer name.
func ParseExplorer(s string) (Explorer, error) {
	e := Explorer(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := explorers[e]; !ok {
		return "", fmt.Errorf("%w: unknown explorer %q", ErrConfig, s)
	}
	return e, nil
}

func (e Explorer) base(n Network) (explorerURLs, string, bool) {
	u, ok := explorers[e]
	if !ok {
		u = explorers[DefaultExplorer]
	}
	switch n {
	case Mainnet:
		return u, u.mainnet, true
	case Testnet:
		return u, u.testnet, true
	default:
		return u, "", false
	}
}

// AddressLink returns the explorer page of addr, or "" on custom networks.
func (e Explorer) AddressLink(n Network, addr *address.Address) string {
	u, base, ok := e.base(n)
	if !ok || addr == nil {
		return ""
	}
	return base + fmt.Sprintf(u.address, FormatAddress(n, addr))
}

// TxLink returns the explorer page of a transaction, or "" on custom networks.
// hash is lowercase hex.
func (e Explorer) TxLink(n Network, addr *address.Address, lt uint64, hash string) string {
	u, base, ok := e.base(n)
	if !ok || hash == "" {
		return ""
	}
	return base + fmt.Sprintf(u.tx, FormatAddress(n, addr), hash, lt)
}
