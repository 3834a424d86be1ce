package sender

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/tonblueprint/internal/backend"
	"github.com/Mohsinsiddi/tonblueprint/internal/network"
	"github.com/Mohsinsiddi/tonblueprint/internal/ui"
)

// requestValidity bounds how long a wallet may take to sign a request.
const requestValidity = 5 * time.Minute

// WalletApp is a TonConnect-compatible wallet with an HTTP bridge.
type WalletApp struct {
	Name         string
	BridgeURL    string
	UniversalURL string
}

// DefaultWallets are offered when no wallet list is configured.
var DefaultWallets = []WalletApp{
	{Name: "Tonkeeper", BridgeURL: "https://bridge.tonapi.io/bridge", UniversalURL: "https://app.tonkeeper.com/ton-connect"},
	{Name: "MyTonWallet", BridgeURL: "https://tonconnectbridge.mytonwallet.org/bridge", UniversalURL: "https://connect.mytonwallet.org"},
	{Name: "Tonhub", BridgeURL: "https://connect.tonhubapi.com/tonconnect", UniversalURL: "https://tonhub.com/ton-connect"},
}

// TonConnectOptions configures a TonConnect sender.
type TonConnectOptions struct {
	ManifestURL string
	// Network is the network type the wallet must be connected to; custom skips the check.
	Network   network.Network
	Store     SessionStore
	Transport *backend.Transport
	Wallets   []WalletApp
	UI        ui.UI
	Logger    *zap.SugaredLogger
	// RequestValidity bounds the wait for a signature, 5 minutes by default.
	RequestValidity time.Duration
}

// TonConnect signs through a remote wallet over the TonConnect HTTP bridge.
type TonConnect struct {
	opts TonConnectOptions
	log  *zap.SugaredLogger

	session   *Session
	keys      *keyPair
	walletPub *[32]byte
	bridge    *bridge
	addr      *address.Address
	last      *TonConnectSendResult
}

// NewTonConnect creates a TonConnect sender. Nothing is contacted until Connect.
func NewTonConnect(opts TonConnectOptions) *TonConnect {
	if opts.Transport == nil {
		opts.Transport = backend.NewTransport(backend.TransportConfig{Logger: opts.Logger})
	}
	if len(opts.Wallets) == 0 {
		opts.Wallets = DefaultWallets
	}
	if opts.RequestValidity <= 0 {
		opts.RequestValidity = requestValidity
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &TonConnect{opts: opts, log: log}
}

// chainID is the TonConnect network id, "" when unchecked.
func chainID(n network.Network) string {
	switch n {
	case network.Mainnet:
		return "-239"
	case network.Testnet:
		return "-3"
	}
	return ""
}

type connectItem struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Network string `json:"network"`
}

type walletEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Items  []connectItem `json:"items"`
		Device struct {
			AppName string `json:"appName"`
		} `json:"device"`
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"payload"`
}

type walletResponse struct {
	ID     json.RawMessage `json:"id"`
	Event  string          `json:"event"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (t *TonConnect) Connect(ctx context.Context) error {
	if t.opts.Store != nil {
		s, err := t.opts.Store.Load()
		if err != nil {
			return err
		}
		if s.Paired() {
			if err := t.restore(s); err != nil {
				return err
			}
			t.opts.UI.Write(fmt.Sprintf("Using TonConnect session with %s (%s)",
				s.WalletName, network.FormatAddress(t.opts.Network, t.addr)))
			return nil
		}
	}
	return t.pair(ctx)
}

func (t *TonConnect) restore(s *Session) error {
	priv, err := parseKey(s.ClientSecret)
	if err != nil {
		return err
	}
	pub, err := parseKey(s.ClientPublic)
	if err != nil {
		return err
	}
	walletPub, err := parseKey(s.WalletPublic)
	if err != nil {
		return err
	}
	addr, err := address.ParseRawAddr(s.WalletAddress)
	if err != nil {
		return fmt.Errorf("stored wallet address: %w", err)
	}
	t.session, t.keys, t.walletPub, t.addr = s, &keyPair{pub: pub, priv: priv}, walletPub, addr
	t.bridge = newBridge(s.BridgeURL, t.opts.Transport, t.log)
	return nil
}

func (t *TonConnect) pair(ctx context.Context) error {
	app, err := ui.Choose(t.opts.UI, "Choose your wallet", t.opts.Wallets, func(w WalletApp) string { return w.Name })
	if err != nil {
		return err
	}
	keys, err := newKeyPair()
	if err != nil {
		return err
	}

	request, err := json.Marshal(map[string]any{
		"manifestUrl": t.opts.ManifestURL,
		"items":       []map[string]string{{"name": "ton_addr"}},
	})
	if err != nil {
		return err
	}
	link := app.UniversalURL + "?v=2&id=" + keyHex(keys.pub) + "&r=" + url.QueryEscape(string(request)) + "&ret=none"
	t.opts.UI.Write("Connect your wallet by opening this link:")
	t.opts.UI.Write(ui.Addr(link))

	t.opts.UI.SetActionPrompt("Waiting for wallet approval...")
	defer t.opts.UI.ClearActionPrompt()

	b := newBridge(app.BridgeURL, t.opts.Transport, t.log)
	var (
		walletPub string
		item      connectItem
		device    string
	)
	lastID, err := b.listen(ctx, keys, "", func(from string, payload []byte) (bool, error) {
		var ev walletEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return false, nil
		}
		switch ev.Event {
		case "connect":
			for _, it := range ev.Payload.Items {
				if it.Name == "ton_addr" {
					item = it
				}
			}
			if item.Address == "" {
				return true, fmt.Errorf("wallet did not share its address")
			}
			walletPub, device = from, ev.Payload.Device.AppName
			return true, nil
		case "connect_error":
			return true, fmt.Errorf("wallet rejected the connection: %s (code %d)", ev.Payload.Message, ev.Payload.Code)
		}
		return false, nil
	})
	if err != nil {
		return fmt.Errorf("connecting wallet: %w", err)
	}

	if want := chainID(t.opts.Network); want != "" && item.Network != want {
		return fmt.Errorf("wallet is connected to network %s, expected %s", item.Network, want)
	}
	if device == "" {
		device = app.Name
	}

	s := &Session{
		ClientSecret:  keyHex(keys.priv),
		ClientPublic:  keyHex(keys.pub),
		WalletPublic:  walletPub,
		BridgeURL:     app.BridgeURL,
		WalletName:    device,
		WalletAddress: item.Address,
		LastEventID:   lastID,
	}
	if err := t.restore(s); err != nil {
		return err
	}
	t.save()
	t.opts.UI.Write(ui.Success(fmt.Sprintf("Connected to %s", network.FormatAddress(t.opts.Network, t.addr))))
	return nil
}

// save persists the session; failures only cost a re-pairing next run.
func (t *TonConnect) save() {
	if t.opts.Store == nil {
		return
	}
	if err := t.opts.Store.Save(t.session); err != nil {
		t.log.Warnw("could not store TonConnect session", "err", err)
	}
}

type txMessage struct {
	Address   string `json:"address"`
	Amount    string `json:"amount"`
	Payload   string `json:"payload,omitempty"`
	StateInit string `json:"stateInit,omitempty"`
}

type txRequest struct {
	ValidUntil int64       `json:"valid_until"`
	Network    string      `json:"network,omitempty"`
	From       string      `json:"from"`
	Messages   []txMessage `json:"messages"`
}

func (t *TonConnect) Send(ctx context.Context, msg Message) error {
	if t.session == nil {
		return ErrNotConnected
	}
	if err := checkMessage(t.opts.UI, "TonConnect", msg); err != nil {
		return err
	}

	m := txMessage{
		Address: network.FormatAddress(t.opts.Network, msg.To),
		Amount:  msg.Value.Nano().String(),
	}
	if msg.Body != nil {
		m.Payload = base64.StdEncoding.EncodeToString(msg.Body.ToBOC())
	}
	if msg.Init != nil {
		c, err := tlb.ToCell(msg.Init)
		if err != nil {
			return fmt.Errorf("serializing state init: %w", err)
		}
		m.StateInit = base64.StdEncoding.EncodeToString(c.ToBOC())
	}
	tx, err := json.Marshal(txRequest{
		ValidUntil: time.Now().Add(t.opts.RequestValidity).Unix(),
		Network:    chainID(t.opts.Network),
		From:       t.addr.StringRaw(),
		Messages:   []txMessage{m},
	})
	if err != nil {
		return err
	}

	t.session.NextRequestID++
	id := strconv.FormatUint(t.session.NextRequestID, 10)
	req, err := json.Marshal(map[string]any{
		"method": "sendTransaction",
		"params": []string{string(tx)},
		"id":     id,
	})
	if err != nil {
		return err
	}
	if err := t.bridge.send(ctx, t.keys, t.walletPub, "sendTransaction", req); err != nil {
		return err
	}

	t.opts.UI.SetActionPrompt("Approve the transaction in your wallet...")
	defer t.opts.UI.ClearActionPrompt()

	// The wallet refuses to sign after valid_until, so stop waiting then too.
	waitCtx, cancel := context.WithTimeout(ctx, t.opts.RequestValidity)
	defer cancel()

	var result string
	lastID, err := t.bridge.listen(waitCtx, t.keys, t.session.LastEventID, func(from string, payload []byte) (bool, error) {
		if from != t.session.WalletPublic {
			return false, nil
		}
		var resp walletResponse
		if err := json.Unmarshal(payload, &resp); err != nil {
			return false, nil
		}
		if resp.Event == "disconnect" {
			return true, errWalletDisconnected
		}
		if string(bytes.Trim(resp.ID, `"`)) != id {
			return false, nil
		}
		if resp.Error != nil {
			return true, fmt.Errorf("wallet rejected the transaction: %s (code %d)", resp.Error.Message, resp.Error.Code)
		}
		return true, json.Unmarshal(resp.Result, &result)
	})
	t.session.LastEventID = lastID
	if errors.Is(err, errWalletDisconnected) && t.opts.Store != nil {
		_ = t.opts.Store.Clear()
		return err
	}
	t.save()
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w after %s", ErrRequestExpired, t.opts.RequestValidity)
	}
	if err != nil {
		return err
	}

	boc, err := base64.StdEncoding.DecodeString(result)
	if err != nil {
		return fmt.Errorf("wallet returned an invalid BOC: %w", err)
	}
	t.last = &TonConnectSendResult{BOC: boc}
	t.opts.UI.Write(ui.Success("Sent transaction"))
	return nil
}

var errWalletDisconnected = errors.New("wallet disconnected the session")

func (t *TonConnect) Address() *address.Address { return t.addr }

func (t *TonConnect) LastSendResult() any {
	if t.last == nil {
		return nil
	}
	return t.last
}

func (t *TonConnect) Close() error { return nil }
