package sender

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/Mohsinsiddi/tonblueprint/internal/backend"
	"github.com/Mohsinsiddi/tonblueprint/internal/network"
	"github.com/Mohsinsiddi/tonblueprint/internal/ui"
)

type sseEvent struct {
	id   int
	data string
}

// walletBridge is an httptest bridge with a wallet behind it that approves
// every connection and answers every sendTransaction request.
type walletBridge struct {
	t       *testing.T
	keys    *keyPair
	addr    string
	network string
	// reject makes the wallet decline transactions.
	reject bool
	// silent makes the wallet never answer transactions.
	silent bool
	signed []byte

	mu        sync.Mutex
	nextID    int
	events    map[string][]sseEvent
	connected map[string]bool
	requests  []map[string]any
	eventGETs int
}

func newWalletBridge(t *testing.T, chain string) (*walletBridge, *httptest.Server) {
	keys, err := newKeyPair()
	require.NoError(t, err)
	wb := &walletBridge{
		t:         t,
		keys:      keys,
		addr:      destRaw,
		network:   chain,
		signed:    cell.BeginCell().MustStoreUInt(0xC0FFEE, 24).EndCell().ToBOC(),
		events:    map[string][]sseEvent{},
		connected: map[string]bool{},
	}
	srv := httptest.NewServer(wb)
	t.Cleanup(srv.Close)
	return wb, srv
}

func (wb *walletBridge) push(client string, payload any) {
	clientKey, err := parseKey(client)
	require.NoError(wb.t, err)
	raw, err := json.Marshal(payload)
	require.NoError(wb.t, err)
	sealed, err := seal(raw, clientKey, wb.keys.priv)
	require.NoError(wb.t, err)
	env, err := json.Marshal(bridgeMessage{From: keyHex(wb.keys.pub), Message: base64.StdEncoding.EncodeToString(sealed)})
	require.NoError(wb.t, err)
	wb.nextID++
	wb.events[client] = append(wb.events[client], sseEvent{id: wb.nextID, data: string(env)})
}

func (wb *walletBridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	client := r.URL.Query().Get("client_id")

	switch r.URL.Path {
	case "/events":
		wb.eventGETs++
		if !wb.connected[client] {
			wb.connected[client] = true
			wb.push(client, map[string]any{
				"event": "connect",
				"id":    1,
				"payload": map[string]any{
					"items":  []map[string]string{{"name": "ton_addr", "address": wb.addr, "network": wb.network}},
					"device": map[string]string{"appName": "FakeWallet"},
				},
			})
		}
		last, _ := strconv.Atoi(r.URL.Query().Get("last_event_id"))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: heartbeat\ndata: heartbeat\n\n")
		for _, ev := range wb.events[client] {
			if ev.id > last {
				fmt.Fprintf(w, "id: %d\ndata: %s\n\n", ev.id, ev.data)
			}
		}

	case "/message":
		assert.Equal(wb.t, "sendTransaction", r.URL.Query().Get("topic"))
		assert.Equal(wb.t, keyHex(wb.keys.pub), r.URL.Query().Get("to"))
		body, _ := io.ReadAll(r.Body)
		sealed, err := base64.StdEncoding.DecodeString(string(body))
		require.NoError(wb.t, err)
		clientKey, err := parseKey(client)
		require.NoError(wb.t, err)
		plain, err := open(sealed, clientKey, wb.keys.priv)
		require.NoError(wb.t, err)

		var req map[string]any
		require.NoError(wb.t, json.Unmarshal(plain, &req))
		wb.requests = append(wb.requests, req)

		switch {
		case wb.silent:
		case wb.reject:
			wb.push(client, map[string]any{"id": req["id"], "error": map[string]any{"code": 300, "message": "User declined"}})
		default:
			wb.push(client, map[string]any{"id": req["id"], "result": base64.StdEncoding.EncodeToString(wb.signed)})
		}
		w.WriteHeader(http.StatusOK)

	default:
		http.NotFound(w, r)
	}
}

func newTestTonConnect(srv *httptest.Server, store SessionStore, n network.Network, out *bytes.Buffer) *TonConnect {
	return NewTonConnect(TonConnectOptions{
		ManifestURL: "https://example.com/manifest.json",
		Network:     n,
		Store:       store,
		Transport:   backend.NewTransport(backend.TransportConfig{}),
		Wallets:     []WalletApp{{Name: "Fake", BridgeURL: srv.URL, UniversalURL: "https://fake.example/tc"}},
		UI:          ui.NewPlain(out).WithChoices(0),
	})
}

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestTonConnectPairAndSend(t *testing.T) {
	wb, srv := newWalletBridge(t, "-3")
	store := NewKeyringStore(keyring.NewArrayKeyring(nil))
	var out bytes.Buffer
	tc := newTestTonConnect(srv, store, network.Testnet, &out)
	ctx := testCtx(t)

	assert.ErrorIs(t, tc.Send(ctx, testMessage()), ErrNotConnected)
	require.NoError(t, tc.Connect(ctx))
	require.NotNil(t, tc.Address())
	assert.Equal(t, destRaw, tc.Address().StringRaw())
	assert.Contains(t, out.String(), "https://fake.example/tc?v=2&id=")

	require.NoError(t, tc.Send(ctx, testMessage()))
	res, ok := tc.LastSendResult().(*TonConnectSendResult)
	require.True(t, ok)
	assert.Equal(t, wb.signed, res.BOC)

	require.Len(t, wb.requests, 1)
	req := wb.requests[0]
	assert.Equal(t, "sendTransaction", req["method"])
	params := req["params"].([]any)
	var tx txRequest
	require.NoError(t, json.Unmarshal([]byte(params[0].(string)), &tx))
	assert.Equal(t, "-3", tx.Network)
	assert.Equal(t, destRaw, tx.From)
	require.Len(t, tx.Messages, 1)
	assert.Equal(t, "50000000", tx.Messages[0].Amount)
	assert.NotEmpty(t, tx.Messages[0].Payload)
	assert.Empty(t, tx.Messages[0].StateInit)

	stored, err := store.Load()
	require.NoError(t, err)
	require.True(t, stored.Paired())
	assert.Equal(t, "FakeWallet", stored.WalletName)
	assert.Equal(t, uint64(1), stored.NextRequestID)
	assert.NotEmpty(t, stored.LastEventID)
}

func TestTonConnectRestoresSession(t *testing.T) {
	wb, srv := newWalletBridge(t, "-3")
	store := NewKeyringStore(keyring.NewArrayKeyring(nil))
	ctx := testCtx(t)
	require.NoError(t, newTestTonConnect(srv, store, network.Testnet, &bytes.Buffer{}).Connect(ctx))
	gets := wb.eventGETs

	// no scripted choice: pairing again would fail
	tc := NewTonConnect(TonConnectOptions{Network: network.Testnet, Store: store, UI: ui.NewPlain(&bytes.Buffer{})})
	require.NoError(t, tc.Connect(ctx))
	assert.Equal(t, destRaw, tc.Address().StringRaw())
	assert.Equal(t, gets, wb.eventGETs)

	require.NoError(t, tc.Send(ctx, testMessage()))
	assert.NotNil(t, tc.LastSendResult())
}

func TestTonConnectWrongNetwork(t *testing.T) {
	_, srv := newWalletBridge(t, "-239")
	store := NewKeyringStore(keyring.NewArrayKeyring(nil))
	tc := newTestTonConnect(srv, store, network.Testnet, &bytes.Buffer{})

	err := tc.Connect(testCtx(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-239")
	s, _ := store.Load()
	assert.Nil(t, s)
}

func TestTonConnectCustomNetworkSkipsCheck(t *testing.T) {
	_, srv := newWalletBridge(t, "-239")
	tc := newTestTonConnect(srv, nil, network.Custom, &bytes.Buffer{})
	require.NoError(t, tc.Connect(testCtx(t)))
}

func TestTonConnectRejectedSend(t *testing.T) {
	wb, srv := newWalletBridge(t, "-3")
	wb.reject = true
	tc := newTestTonConnect(srv, nil, network.Testnet, &bytes.Buffer{})
	ctx := testCtx(t)
	require.NoError(t, tc.Connect(ctx))

	err := tc.Send(ctx, testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "User declined")
	assert.Nil(t, tc.LastSendResult())
}

func TestTonConnectUnansweredSendExpires(t *testing.T) {
	wb, srv := newWalletBridge(t, "-3")
	wb.silent = true
	tc := newTestTonConnect(srv, nil, network.Testnet, &bytes.Buffer{})
	tc.opts.RequestValidity = 300 * time.Millisecond
	ctx := testCtx(t)
	require.NoError(t, tc.Connect(ctx))

	start := time.Now()
	err := tc.Send(ctx, testMessage())
	assert.ErrorIs(t, err, ErrRequestExpired)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Nil(t, tc.LastSendResult())
	require.Len(t, wb.requests, 1)
}

func TestTonConnectUnsupportedSendMode(t *testing.T) {
	_, srv := newWalletBridge(t, "-3")
	tc := newTestTonConnect(srv, nil, network.Testnet, &bytes.Buffer{})
	require.NoError(t, tc.Connect(testCtx(t)))

	msg := testMessage()
	msg.SendMode = u8(64)
	assert.ErrorIs(t, tc.Send(testCtx(t), msg), ErrUnsupportedSendMode)
}

func TestSealOpen(t *testing.T) {
	a, err := newKeyPair()
	require.NoError(t, err)
	b, err := newKeyPair()
	require.NoError(t, err)

	sealed, err := seal([]byte("hello"), b.pub, a.priv)
	require.NoError(t, err)
	plain, err := open(sealed, a.pub, b.priv)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(plain))

	_, err = open(sealed, b.pub, b.priv)
	assert.Error(t, err)
	_, err = open([]byte("short"), a.pub, b.priv)
	assert.Error(t, err)
}
