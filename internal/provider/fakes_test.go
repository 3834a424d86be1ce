package provider

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/xssnick/tonutils-go/address"

	"github.com/Mohsinsiddi/tonblueprint/internal/backend"
	"github.com/Mohsinsiddi/tonblueprint/internal/network"
	"github.com/Mohsinsiddi/tonblueprint/internal/sender"
	"github.com/Mohsinsiddi/tonblueprint/internal/ui"
)

var (
	contractAddr = address.MustParseRawAddr("0:" + strings.Repeat("ab", 32))
	walletAddr   = address.MustParseRawAddr("0:" + strings.Repeat("11", 32))
)

// fakeClient answers from scripted functions and counts calls.
type fakeClient struct {
	state func(call int, addr *address.Address) (*backend.AccountState, error)
	txs   func(call int, addr *address.Address, limit int) ([]*backend.TransactionRecord, error)

	stateCalls int
	txCalls    int
	txLimits   []int
	sent       [][]byte
	methods    []string
}

func (f *fakeClient) GetState(_ context.Context, addr *address.Address) (*backend.AccountState, error) {
	f.stateCalls++
	if f.state == nil {
		return nil, backend.ErrStateUnavailable
	}
	return f.state(f.stateCalls, addr)
}

func (f *fakeClient) GetTransactions(_ context.Context, addr *address.Address, _ uint64, _ []byte, limit int) ([]*backend.TransactionRecord, error) {
	f.txCalls++
	f.txLimits = append(f.txLimits, limit)
	if f.txs == nil {
		return nil, nil
	}
	return f.txs(f.txCalls, addr, limit)
}

func (f *fakeClient) CallGetMethod(_ context.Context, _ *address.Address, method string, args ...any) ([]any, error) {
	f.methods = append(f.methods, method)
	return args, nil
}

func (f *fakeClient) SendMessage(_ context.Context, boc []byte) error {
	f.sent = append(f.sent, boc)
	return nil
}

func (f *fakeClient) Kind() network.BackendKind { return network.BackendV4 }

// activeAfter reports the account as active from poll n on.
func activeAfter(n int) func(int, *address.Address) (*backend.AccountState, error) {
	return func(call int, _ *address.Address) (*backend.AccountState, error) {
		if call < n {
			return nil, backend.ErrStateUnavailable
		}
		return &backend.AccountState{Status: backend.StatusActive}, nil
	}
}

func alwaysTxs(recs ...*backend.TransactionRecord) func(int, *address.Address, int) ([]*backend.TransactionRecord, error) {
	return func(int, *address.Address, int) ([]*backend.TransactionRecord, error) {
		return recs, nil
	}
}

type fakeSender struct {
	addr      *address.Address
	last      any
	sent      []sender.Message
	connected bool
}

func (f *fakeSender) Connect(context.Context) error {
	f.connected = true
	return nil
}

func (f *fakeSender) Send(_ context.Context, msg sender.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) Address() *address.Address { return f.addr }
func (f *fakeSender) LastSendResult() any       { return f.last }
func (f *fakeSender) Close() error              { return nil }

type fakeLookup struct {
	rec *backend.TransactionRecord
	err error
}

func (f *fakeLookup) GetTransactionByHash(context.Context, []byte) (*backend.TransactionRecord, error) {
	return f.rec, f.err
}

// sleepRecorder replaces the real sleep and remembers every request.
type sleepRecorder struct {
	slept []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.slept = append(s.slept, d)
	return ctx.Err()
}

type testEnv struct {
	p      *Provider
	client *fakeClient
	sender *fakeSender
	sleeps *sleepRecorder
	out    *bytes.Buffer
}

func newTestEnv(client *fakeClient, lookup backend.TxLookup) *testEnv {
	env := &testEnv{
		client: client,
		sender: &fakeSender{addr: walletAddr},
		sleeps: &sleepRecorder{},
		out:    &bytes.Buffer{},
	}
	timings := Timings{
		SettleDelay:    5 * time.Second,
		VerifyAttempts: 3,
		VerifyInterval: 2 * time.Second,
		TxWindow:       10,
	}
	opts := Options{
		Client:   client,
		Sender:   env.sender,
		Network:  network.Testnet,
		Explorer: network.Tonviewer,
		UI:       ui.NewPlain(env.out),
		Sleep:    env.sleeps.sleep,
		Timings:  &timings,
	}
	if lookup != nil {
		opts.CrossCheck = lookup
	}
	env.p = New(opts)
	return env
}

func int32p(v int32) *int32 { return &v }
func boolp(v bool) *bool    { return &v }
