package sender

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/ton/wallet"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/tonblueprint/internal/network"
	"github.com/Mohsinsiddi/tonblueprint/internal/ui"
)

// Environment variables read by the mnemonic sender.
const (
	EnvMnemonic      = "WALLET_MNEMONIC"
	EnvWalletVersion = "WALLET_VERSION"
)

// Network global ids used by v5 wallets.
const (
	mainnetGlobalID = -239
	testnetGlobalID = -3
)

// walletClient is the part of *wallet.Wallet the sender uses.
type walletClient interface {
	WalletAddress() *address.Address
	Send(ctx context.Context, message *wallet.Message, waitConfirmation ...bool) error
}

// MnemonicEnv returns the seed words and wallet version from the environment.
func MnemonicEnv() ([]string, string, error) {
	words := strings.Fields(os.Getenv(EnvMnemonic))
	version := strings.TrimSpace(os.Getenv(EnvWalletVersion))
	if len(words) == 0 || version == "" {
		return nil, "", fmt.Errorf("%w: %w", network.ErrConfig, ErrMissingMnemonic)
	}
	return words, version, nil
}

// WalletVersion maps a WALLET_VERSION tag to a wallet contract.
func WalletVersion(tag string, n network.Network) (wallet.VersionConfig, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "v3r1":
		return wallet.V3R1, nil
	case "v3r2", "v3":
		return wallet.V3R2, nil
	case "v4", "v4r2":
		return wallet.V4R2, nil
	case "v5r1", "v5":
		id := int32(mainnetGlobalID)
		if n.IsTestnet() {
			id = testnetGlobalID
		}
		return wallet.ConfigV5R1Final{NetworkGlobalID: id, Workchain: 0}, nil
	default:
		return nil, fmt.Errorf("%w: %w %q (expected v3r1, v3r2, v4 or v5r1)", network.ErrConfig, ErrUnknownWalletVersion, tag)
	}
}

// Mnemonic signs locally with a seed phrase and broadcasts through a liteclient API.
type Mnemonic struct {
	api     wallet.TonAPI
	words   []string
	version wallet.VersionConfig
	ui      ui.UI
	log     *zap.SugaredLogger

	w    walletClient
	last *WalletSendResult
}

// NewMnemonic validates the version tag; keys are derived in Connect.
func NewMnemonic(api wallet.TonAPI, words []string, versionTag string, n network.Network, u ui.UI, log *zap.SugaredLogger) (*Mnemonic, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: %w", network.ErrConfig, ErrMissingMnemonic)
	}
	version, err := WalletVersion(versionTag, n)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Mnemonic{api: api, words: words, version: version, ui: u, log: log}, nil
}

func (m *Mnemonic) Connect(_ context.Context) error {
	w, err := wallet.FromSeed(m.api, m.words, m.version)
	if err != nil {
		return fmt.Errorf("deriving wallet from mnemonic: %w", err)
	}
	m.w = w
	m.log.Debugw("mnemonic wallet ready", "address", w.WalletAddress().String())
	return nil
}

func (m *Mnemonic) Send(ctx context.Context, msg Message) error {
	if m.w == nil {
		return ErrNotConnected
	}
	if err := checkMessage(m.ui, "mnemonic", msg); err != nil {
		return err
	}

	wm := &wallet.Message{
		Mode: wallet.PayGasSeparately + wallet.IgnoreErrors,
		InternalMessage: &tlb.InternalMessage{
			IHRDisabled: true,
			Bounce:      msg.To.IsBounceable(),
			DstAddr:     msg.To,
			Amount:      msg.Value,
			Body:        msg.Body,
			StateInit:   msg.Init,
		},
	}
	if err := m.w.Send(ctx, wm, false); err != nil {
		return fmt.Errorf("sending from %s: %w", m.w.WalletAddress().String(), err)
	}
	m.last = &WalletSendResult{Wallet: m.w.WalletAddress(), To: msg.To, Value: msg.Value}
	m.ui.Write(ui.Success("Sent transaction"))
	return nil
}

func (m *Mnemonic) Address() *address.Address {
	if m.w == nil {
		return nil
	}
	return m.w.WalletAddress()
}

func (m *Mnemonic) LastSendResult() any {
	if m.last == nil {
		return nil
	}
	return m.last
}

func (m *Mnemonic) Close() error { return nil }
