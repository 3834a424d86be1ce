// Package backend hides the four supported chain-access protocols behind one
// capability interface. All backend-specific response shapes are normalized
// here; callers only ever see AccountState and TransactionRecord.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/xssnick/tonutils-go/address"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/tonblueprint/internal/network"
)

var (
	// ErrStateUnavailable is returned by GetState for addresses that were never touched on-chain.
	ErrStateUnavailable = errors.New("account state unavailable")
	// ErrTransportExhausted is returned once the rate-limit backoff gives up.
	ErrTransportExhausted = errors.New("transport retries exhausted")
	// ErrUnsupportedBackend is returned for descriptors no adapter can serve.
	ErrUnsupportedBackend = errors.New("unsupported backend")
)

// ConfigAddress is the well-known address of the masterchain config contract.
var ConfigAddress = address.MustParseRawAddr("-1:5555555555555555555555555555555555555555555555555555555555555555")

// Client is the capability surface every backend adapter provides.
type Client interface {
	// GetState returns the account state. Never-touched addresses yield ErrStateUnavailable.
	GetState(ctx context.Context, addr *address.Address) (*AccountState, error)
	// GetTransactions returns up to limit transactions, newest first, starting at
	// (fromLT, fromHash). A zero fromLT starts at the account's last transaction.
	GetTransactions(ctx context.Context, addr *address.Address, fromLT uint64, fromHash []byte, limit int) ([]*TransactionRecord, error)
	// CallGetMethod runs a get-method. Args and results are *big.Int, *cell.Cell,
	// *cell.Slice or nil.
	CallGetMethod(ctx context.Context, addr *address.Address, method string, args ...any) ([]any, error)
	// SendMessage broadcasts a serialized external message.
	SendMessage(ctx context.Context, boc []byte) error
	Kind() network.BackendKind
}

// TxLookup is implemented by backends that can fetch a transaction by hash alone.
type TxLookup interface {
	GetTransactionByHash(ctx context.Context, hash []byte) (*TransactionRecord, error)
}

// Options configures adapter construction.
type Options struct {
	Transport *Transport
	Logger    *zap.SugaredLogger
}

func (o *Options) logger() *zap.SugaredLogger {
	if o == nil || o.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return o.Logger
}

func (o *Options) transport() *Transport {
	if o == nil || o.Transport == nil {
		return NewTransport(TransportConfig{})
	}
	return o.Transport
}

// New builds the HTTP adapter matching desc. Light-client backends need a
// connected peer pool and are built with DialLiteclient instead.
func New(desc network.BackendDescriptor, opts *Options) (Client, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	switch desc.Kind {
	case network.BackendV2:
		return NewToncenter(desc.Endpoint, desc.APIKey, opts), nil
	case network.BackendV4:
		return NewTonhub(desc.Endpoint, opts), nil
	case network.BackendIndexer:
		return NewTonapi(desc.Endpoint, desc.APIKey, opts), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, desc.Kind)
	}
}
