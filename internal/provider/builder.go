package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Mohsinsiddi/tonblueprint/internal/backend"
	"github.com/Mohsinsiddi/tonblueprint/internal/config"
	"github.com/Mohsinsiddi/tonblueprint/internal/network"
	"github.com/Mohsinsiddi/tonblueprint/internal/sender"
	"github.com/Mohsinsiddi/tonblueprint/internal/ui"
)

// Flags mirrors the provider flags of the CLI.
type Flags struct {
	Mainnet bool
	Testnet bool
	// Custom is the endpoint of a custom network; for liteclient it is the
	// URL of a global config document.
	Custom        string
	CustomType    string
	CustomVersion string
	CustomKey     string

	TonConnect bool
	Deeplink   bool
	Mnemonic   bool

	Tonscan   bool
	Tonviewer bool
	Toncx     bool
	Dton      bool
}

// SenderKind selects the signing mechanism.
type SenderKind string

const (
	SenderTonConnect SenderKind = "tonconnect"
	SenderDeeplink   SenderKind = "deeplink"
	SenderMnemonic   SenderKind = "mnemonic"
)

var senderLabels = map[SenderKind]string{
	SenderTonConnect: "TON Connect compatible mobile wallet",
	SenderDeeplink:   "Create a ton:// deep link",
	SenderMnemonic:   "Mnemonic",
}

type liteDialer func(ctx context.Context, cfg *backend.LiteConfig, opts *backend.Options) (*backend.Liteclient, error)

// Builder resolves flags, config and prompts (in that order) into a Provider.
type Builder struct {
	Flags  Flags
	Config *config.Config
	UI     ui.UI
	Logger *zap.SugaredLogger
	// Store persists TonConnect sessions. The OS keyring is opened when nil.
	Store      sender.SessionStore
	HTTPClient *http.Client
	Sleep      SleepFunc
	// ReadOnly builds a provider without a sender, for commands that only read.
	ReadOnly bool

	dialLite liteDialer
}

// resolved is everything Build decided before touching the network.
type resolved struct {
	net      network.Network
	linkNet  network.Network
	desc     network.BackendDescriptor
	explorer network.Explorer
	sender   SenderKind
}

func oneOrZero(group string, names []string, set []bool) error {
	var chosen []string
	for i, s := range set {
		if s {
			chosen = append(chosen, names[i])
		}
	}
	if len(chosen) > 1 {
		return fmt.Errorf("%w: only one of %s may be given, got %s", network.ErrConfig, group, strings.Join(chosen, ", "))
	}
	return nil
}

// Validate checks flag combinations.
func (f Flags) Validate() error {
	if err := oneOrZero("--mainnet, --testnet, --custom",
		[]string{"--mainnet", "--testnet", "--custom"},
		[]bool{f.Mainnet, f.Testnet, f.Custom != ""}); err != nil {
		return err
	}
	if f.Custom == "" {
		for _, opt := range [][2]string{
			{"--custom-type", f.CustomType},
			{"--custom-version", f.CustomVersion},
			{"--custom-key", f.CustomKey},
		} {
			if opt[1] != "" {
				return fmt.Errorf("%w: %s is only allowed together with --custom", network.ErrConfig, opt[0])
			}
		}
	}
	if err := oneOrZero("--tonconnect, --deeplink, --mnemonic",
		[]string{"--tonconnect", "--deeplink", "--mnemonic"},
		[]bool{f.TonConnect, f.Deeplink, f.Mnemonic}); err != nil {
		return err
	}
	return oneOrZero("--tonscan, --tonviewer, --toncx, --dton",
		[]string{"--tonscan", "--tonviewer", "--toncx", "--dton"},
		[]bool{f.Tonscan, f.Tonviewer, f.Toncx, f.Dton})
}

func (f Flags) explorer() network.Explorer {
	switch {
	case f.Tonscan:
		return network.Tonscan
	case f.Tonviewer:
		return network.Tonviewer
	case f.Toncx:
		return network.Toncx
	case f.Dton:
		return network.Dton
	}
	return ""
}

func (f Flags) senderKind() SenderKind {
	switch {
	case f.TonConnect:
		return SenderTonConnect
	case f.Deeplink:
		return SenderDeeplink
	case f.Mnemonic:
		return SenderMnemonic
	}
	return ""
}

func (b *Builder) config() *config.Config {
	if b.Config == nil {
		return &config.Config{RequestTimeout: config.DefaultRequestTimeout, ManifestURL: config.DefaultManifestURL}
	}
	return b.Config
}

func (b *Builder) logger() *zap.SugaredLogger {
	if b.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return b.Logger
}

// customDescriptor builds the descriptor of a custom network.
func customDescriptor(endpoint, version, key, typ string) (network.BackendDescriptor, network.Network, error) {
	if version == "" {
		version = string(network.BackendV2)
	}
	kind, err := network.ParseBackendKind(version)
	if err != nil {
		return network.BackendDescriptor{}, "", err
	}
	linkNet := network.Custom
	if typ != "" {
		if linkNet, err = network.ParseNetwork(typ); err != nil {
			return network.BackendDescriptor{}, "", err
		}
	}
	desc := network.BackendDescriptor{Kind: kind, Endpoint: endpoint, APIKey: key}
	return desc, linkNet, desc.Validate()
}

func (b *Builder) resolveNetwork() (*resolved, error) {
	f, cfg := b.Flags, b.config()
	r := &resolved{}

	var err error
	switch {
	case f.Custom != "":
		r.net = network.Custom
		r.desc, r.linkNet, err = customDescriptor(f.Custom, f.CustomVersion, f.CustomKey, f.CustomType)
		return r, err
	case f.Mainnet:
		r.net = network.Mainnet
	case f.Testnet:
		r.net = network.Testnet
	case cfg.Custom != nil:
		r.net = network.Custom
		c := cfg.Custom
		r.desc, r.linkNet, err = customDescriptor(c.Endpoint, c.Version, c.Key, c.Type)
		return r, err
	case cfg.Network != "":
		if r.net, err = network.ParseNetwork(cfg.Network); err != nil {
			return nil, err
		}
	default:
		nets := []network.Network{network.Mainnet, network.Testnet}
		if r.net, err = ui.Choose(b.UI, "Which network do you want to use?", nets, func(n network.Network) string {
			return string(n)
		}); err != nil {
			return nil, fmt.Errorf("choosing network: %w", err)
		}
	}
	r.linkNet = r.net
	r.desc, err = network.DefaultBackend(r.net)
	return r, err
}

func (b *Builder) resolve() (*resolved, error) {
	if err := b.Flags.Validate(); err != nil {
		return nil, err
	}
	r, err := b.resolveNetwork()
	if err != nil {
		return nil, err
	}

	r.explorer = b.Flags.explorer()
	if r.explorer == "" && b.config().Explorer != "" {
		if r.explorer, err = network.ParseExplorer(b.config().Explorer); err != nil {
			return nil, err
		}
	}
	if r.explorer == "" {
		r.explorer = network.DefaultExplorer
	}

	r.sender = b.Flags.senderKind()
	if r.sender == "" && !b.ReadOnly {
		kinds := []SenderKind{SenderTonConnect, SenderDeeplink, SenderMnemonic}
		if r.sender, err = ui.Choose(b.UI, "How are you going to sign the transactions?", kinds, func(k SenderKind) string {
			return senderLabels[k]
		}); err != nil {
			return nil, fmt.Errorf("choosing sender: %w", err)
		}
	}
	return r, nil
}

func (b *Builder) transport() *backend.Transport {
	cfg := b.config()
	return backend.NewTransport(backend.TransportConfig{
		Timeout:       cfg.RequestTimeout,
		InitialDelay:  config.BackoffInitialDelay,
		MaxRetries:    config.BackoffMaxRetries,
		RatePerSecond: cfg.RateLimit,
		HTTPClient:    b.HTTPClient,
		Logger:        b.logger(),
	})
}

func (b *Builder) liteclient(ctx context.Context, t *backend.Transport, configURL string) (*backend.Liteclient, error) {
	lc, err := backend.FetchLiteConfig(ctx, t, configURL)
	if err != nil {
		return nil, err
	}
	dial := b.dialLite
	if dial == nil {
		dial = backend.DialLiteclient
	}
	return dial(ctx, lc, &backend.Options{Transport: t, Logger: b.logger()})
}

// Build resolves everything, connects the sender and returns the provider.
// Configuration errors are reported before any network call.
func (b *Builder) Build(ctx context.Context) (*Provider, error) {
	log := b.logger()
	r, err := b.resolve()
	if err != nil {
		return nil, err
	}
	log.Debugw("Resolved provider", "network", r.net, "type", r.linkNet, "backend", r.desc.Kind,
		"endpoint", r.desc.Endpoint, "explorer", r.explorer, "sender", r.sender)

	t := b.transport()
	opts := &backend.Options{Transport: t, Logger: log}

	var client backend.Client
	if r.desc.Kind == network.BackendLiteclient {
		if client, err = b.liteclient(ctx, t, r.desc.Endpoint); err != nil {
			return nil, fmt.Errorf("connecting to liteservers: %w", err)
		}
	} else if client, err = backend.New(r.desc, opts); err != nil {
		return nil, err
	}

	var s sender.Sender
	if !b.ReadOnly {
		if s, err = b.newSender(ctx, r, client, t); err != nil {
			return nil, err
		}
		if err := s.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connecting sender: %w", err)
		}
	}

	return New(Options{
		Client:      client,
		Sender:      s,
		Network:     r.net,
		LinkNetwork: r.linkNet,
		Explorer:    r.explorer,
		UI:          b.UI,
		Logger:      log,
		Sleep:       b.Sleep,
		CrossCheck:  crossChecker(client, r.linkNet, opts),
	}), nil
}

func (b *Builder) newSender(ctx context.Context, r *resolved, client backend.Client, t *backend.Transport) (sender.Sender, error) {
	log := b.logger()
	switch r.sender {
	case SenderDeeplink:
		return sender.NewDeeplink(r.linkNet, b.UI), nil

	case SenderMnemonic:
		words, version, err := sender.MnemonicEnv()
		if err != nil {
			return nil, err
		}
		if _, err := sender.WalletVersion(version, r.linkNet); err != nil {
			return nil, err
		}
		lite, ok := client.(*backend.Liteclient)
		if !ok {
			url, found := network.DefaultEndpoint(r.linkNet, network.BackendLiteclient)
			if !found {
				return nil, fmt.Errorf("%w: the mnemonic sender on a custom network needs a liteclient backend", network.ErrConfig)
			}
			if lite, err = b.liteclient(ctx, t, url); err != nil {
				return nil, fmt.Errorf("connecting wallet to liteservers: %w", err)
			}
		}
		return sender.NewMnemonic(lite.API(), words, version, r.linkNet, b.UI, log)

	case SenderTonConnect:
		store := b.Store
		if store == nil {
			ring, err := sender.OpenKeyring()
			if err != nil {
				return nil, err
			}
			store = sender.NewKeyringStore(ring)
		}
		return sender.NewTonConnect(sender.TonConnectOptions{
			ManifestURL: b.config().ManifestURL,
			Network:     r.linkNet,
			Store:       store,
			Transport:   t,
			UI:          b.UI,
			Logger:      log,
		}), nil
	}
	return nil, fmt.Errorf("%w: unknown sender %q", network.ErrConfig, r.sender)
}

// crossChecker picks the indexer used to double-check deployments: the
// client itself when it is one, otherwise the public indexer of n.
func crossChecker(client backend.Client, n network.Network, opts *backend.Options) backend.TxLookup {
	if l, ok := client.(backend.TxLookup); ok {
		return l
	}
	ep, ok := network.DefaultEndpoint(n, network.BackendIndexer)
	if !ok {
		return nil
	}
	return backend.NewTonapi(ep, "", opts)
}
