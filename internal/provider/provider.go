// Package provider ties a backend client and a sender together: it opens
// contracts, sends deployments and waits until the chain confirms them.
package provider

import (
	"context"
	"errors"
	"time"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/tonblueprint/internal/backend"
	"github.com/Mohsinsiddi/tonblueprint/internal/config"
	"github.com/Mohsinsiddi/tonblueprint/internal/network"
	"github.com/Mohsinsiddi/tonblueprint/internal/sender"
	"github.com/Mohsinsiddi/tonblueprint/internal/ui"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Timings are the fixed delays of deployment verification.
type Timings struct {
	SettleDelay    time.Duration
	VerifyAttempts int
	VerifyInterval time.Duration
	// TxWindow is how many recent transactions are scanned per poll.
	TxWindow int
}

// DefaultTimings returns the production timings.
func DefaultTimings() Timings {
	return Timings{
		SettleDelay:    config.SettleDelay,
		VerifyAttempts: config.VerifyAttempts,
		VerifyInterval: config.VerifyInterval,
		TxWindow:       config.TransactionWindow,
	}
}

// Options configures a Provider. Client, Sender and UI are required.
type Options struct {
	Client backend.Client
	Sender sender.Sender
	// Network is the selected network.
	Network network.Network
	// LinkNetwork is the network type used for addresses and explorer links.
	// Defaults to Network.
	LinkNetwork network.Network
	Explorer    network.Explorer
	UI          ui.UI
	Logger      *zap.SugaredLogger
	Sleep       SleepFunc
	// CrossCheck looks transactions up by hash on an independent indexer.
	CrossCheck backend.TxLookup
	Timings    *Timings
}

// Provider is the fully wired network provider of one CLI run.
type Provider struct {
	client     backend.Client
	sender     sender.Sender
	net        network.Network
	linkNet    network.Network
	explorer   network.Explorer
	ui         ui.UI
	log        *zap.SugaredLogger
	sleep      SleepFunc
	crossCheck backend.TxLookup
	timings    Timings
}

// New assembles a Provider.
func New(opts Options) *Provider {
	p := &Provider{
		client:     opts.Client,
		sender:     opts.Sender,
		net:        opts.Network,
		linkNet:    opts.LinkNetwork,
		explorer:   opts.Explorer,
		ui:         opts.UI,
		log:        opts.Logger,
		sleep:      opts.Sleep,
		crossCheck: opts.CrossCheck,
		timings:    DefaultTimings(),
	}
	if p.linkNet == "" {
		p.linkNet = p.net
	}
	if p.explorer == "" {
		p.explorer = network.DefaultExplorer
	}
	if p.log == nil {
		p.log = zap.NewNop().Sugar()
	}
	if p.sleep == nil {
		p.sleep = Sleep
	}
	if opts.Timings != nil {
		p.timings = *opts.Timings
	}
	return p
}

func (p *Provider) Network() network.Network   { return p.net }
func (p *Provider) Explorer() network.Explorer { return p.explorer }
func (p *Provider) Sender() sender.Sender      { return p.sender }
func (p *Provider) API() backend.Client        { return p.client }
func (p *Provider) UI() ui.UI                  { return p.ui }

// FormatAddress renders addr for the provider's network.
func (p *Provider) FormatAddress(addr *address.Address) string {
	return network.FormatAddress(p.linkNet, addr)
}

// AddressLink is the explorer page of addr, "" on custom networks.
func (p *Provider) AddressLink(addr *address.Address) string {
	return p.explorer.AddressLink(p.linkNet, addr)
}

// TxLink is the explorer page of rec, "" on custom networks.
func (p *Provider) TxLink(addr *address.Address, rec *backend.TransactionRecord) string {
	if rec == nil {
		return ""
	}
	return p.explorer.TxLink(p.linkNet, addr, rec.LT, rec.Hash)
}

// Open returns the provider of contract c.
func (p *Provider) Open(c Contract) *ContractProvider {
	return p.Provider(c.Address(), c.Init())
}

// Provider returns the provider of the contract at addr; init may be nil.
func (p *Provider) Provider(addr *address.Address, init *tlb.StateInit) *ContractProvider {
	return &ContractProvider{p: p, addr: addr, init: init}
}

// IsContractDeployed reports whether addr is active. Never-touched
// addresses are simply not deployed.
func (p *Provider) IsContractDeployed(ctx context.Context, addr *address.Address) (bool, error) {
	st, err := p.client.GetState(ctx, addr)
	if errors.Is(err, backend.ErrStateUnavailable) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return st.IsActive(), nil
}
