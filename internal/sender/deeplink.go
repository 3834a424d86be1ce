package sender

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"

	"github.com/Mohsinsiddi/tonblueprint/internal/network"
	"github.com/Mohsinsiddi/tonblueprint/internal/ui"
)

// Deeplink prints ton://transfer links for the user to open in a wallet app.
// It never learns whether the transfer was signed.
type Deeplink struct {
	net network.Network
	ui  ui.UI

	connected bool
	addr      *address.Address
	asked     bool
	last      *DeeplinkSendResult
}

// NewDeeplink creates a deep-link sender. n only affects address formatting.
func NewDeeplink(n network.Network, u ui.UI) *Deeplink {
	return &Deeplink{net: n, ui: u}
}

func (d *Deeplink) Connect(_ context.Context) error {
	d.connected = true
	return nil
}

// TransferLink builds the ton://transfer URI for msg.
func TransferLink(n network.Network, msg Message) (string, error) {
	q := url.Values{}
	q.Set("amount", msg.Value.Nano().String())
	if msg.Body != nil {
		q.Set("bin", base64.RawURLEncoding.EncodeToString(msg.Body.ToBOC()))
	}
	if msg.Init != nil {
		c, err := tlb.ToCell(msg.Init)
		if err != nil {
			return "", fmt.Errorf("serializing state init: %w", err)
		}
		q.Set("init", base64.RawURLEncoding.EncodeToString(c.ToBOC()))
	}
	return "ton://transfer/" + network.FormatAddress(n, msg.To) + "?" + q.Encode(), nil
}

func (d *Deeplink) Send(_ context.Context, msg Message) error {
	if !d.connected {
		return ErrNotConnected
	}
	if err := checkMessage(d.ui, "deep link", msg); err != nil {
		return err
	}
	link, err := TransferLink(d.net, msg)
	if err != nil {
		return err
	}

	d.ui.Write("Open this link in your wallet to sign the transaction:")
	d.ui.Write(ui.Addr(link))
	d.last = &DeeplinkSendResult{Link: link}

	if !d.asked {
		d.asked = true
		d.askAddress()
	}
	return nil
}

// askAddress asks once for the sending wallet. An empty or invalid answer
// leaves the address unknown.
func (d *Deeplink) askAddress() {
	s, err := d.ui.Input("Sending wallet address (leave empty to skip)")
	if err != nil || s == "" {
		return
	}
	addr, err := address.ParseAddr(s)
	if err != nil {
		if addr, err = address.ParseRawAddr(s); err != nil {
			d.ui.Write(ui.Warn(fmt.Sprintf("invalid address %q, continuing without it", s)))
			return
		}
	}
	d.addr = addr
}

func (d *Deeplink) Address() *address.Address { return d.addr }

func (d *Deeplink) LastSendResult() any {
	if d.last == nil {
		return nil
	}
	return d.last
}

func (d *Deeplink) Close() error { return nil }
