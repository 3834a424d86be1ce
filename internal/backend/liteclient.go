package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/liteclient"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/ton"
	"github.com/xssnick/tonutils-go/tvm/cell"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/tonblueprint/internal/network"
)

// DefaultTxLimit bounds transaction queries when the caller gives no limit.
const DefaultTxLimit = 10

// Liteclient talks to liteservers directly over ADNL.
type Liteclient struct {
	api ton.APIClientWrapped
	log *zap.SugaredLogger
}

// DialLiteclient connects to the peers of cfg. It succeeds when at least one
// peer accepts the connection.
func DialLiteclient(ctx context.Context, cfg *LiteConfig, opts *Options) (*Liteclient, error) {
	log := opts.logger()
	pool := liteclient.NewConnectionPool()

	connected := 0
	for _, s := range cfg.Liteservers {
		if err := pool.AddConnection(ctx, s.Addr(), s.Key); err != nil {
			log.Warnw("Liteserver connection failed", "addr", s.Addr(), "err", err)
			continue
		}
		connected++
	}
	if connected == 0 {
		return nil, fmt.Errorf("no liteserver of %d accepted the connection", len(cfg.Liteservers))
	}
	log.Debugw("Connected to liteservers", "connected", connected, "total", len(cfg.Liteservers))

	return NewLiteclient(ton.NewAPIClient(pool).WithRetry(), opts), nil
}

// NewLiteclient wraps an existing API client.
func NewLiteclient(api ton.APIClientWrapped, opts *Options) *Liteclient {
	return &Liteclient{api: api, log: opts.logger()}
}

func (c *Liteclient) Kind() network.BackendKind { return network.BackendLiteclient }

// API exposes the underlying client so wallets can share the connection.
func (c *Liteclient) API() ton.APIClientWrapped { return c.api }

func (c *Liteclient) account(ctx context.Context, addr *address.Address) (*tlb.Account, error) {
	block, err := c.api.CurrentMasterchainInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching masterchain info: %w", err)
	}
	acc, err := c.api.WaitForBlock(block.SeqNo).GetAccount(ctx, block, addr)
	if err != nil {
		return nil, fmt.Errorf("fetching account: %w", err)
	}
	return acc, nil
}

// GetState reads the account at the current masterchain block.
func (c *Liteclient) GetState(ctx context.Context, addr *address.Address) (*AccountState, error) {
	acc, err := c.account(ctx, addr)
	if err != nil {
		return nil, err
	}
	if acc.State == nil {
		return nil, ErrStateUnavailable
	}
	st := &AccountState{
		Balance:  acc.State.Balance,
		Code:     acc.Code,
		Data:     acc.Data,
		LastLT:   acc.LastTxLT,
		LastHash: acc.LastTxHash,
	}
	switch {
	case acc.IsActive:
		st.Status = StatusActive
	case strings.EqualFold(string(acc.State.Status), "frozen"):
		st.Status = StatusFrozen
	default:
		st.Status = StatusUninit
	}
	return st, nil
}

// GetTransactions lists up to limit transactions, newest first.
func (c *Liteclient) GetTransactions(ctx context.Context, addr *address.Address, fromLT uint64, fromHash []byte, limit int) ([]*TransactionRecord, error) {
	if limit <= 0 {
		limit = DefaultTxLimit
	}
	if fromLT == 0 {
		acc, err := c.account(ctx, addr)
		if err != nil {
			return nil, err
		}
		if acc.LastTxLT == 0 {
			return nil, nil
		}
		fromLT, fromHash = acc.LastTxLT, acc.LastTxHash
	}

	txs, err := c.api.ListTransactions(ctx, addr, uint32(limit), fromLT, fromHash)
	if err != nil {
		if errors.Is(err, ton.ErrNoTransactionsWereFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	// The liteserver returns the batch oldest first.
	out := make([]*TransactionRecord, 0, len(txs))
	for i := len(txs) - 1; i >= 0; i-- {
		out = append(out, recordFromTLB(txs[i]))
	}
	return out, nil
}

// CallGetMethod runs a get-method locally on the liteserver.
func (c *Liteclient) CallGetMethod(ctx context.Context, addr *address.Address, method string, args ...any) ([]any, error) {
	block, err := c.api.CurrentMasterchainInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching masterchain info: %w", err)
	}
	res, err := c.api.WaitForBlock(block.SeqNo).RunGetMethod(ctx, block, addr, method, args...)
	if err != nil {
		return nil, fmt.Errorf("running %s: %w", method, err)
	}
	return res.AsTuple(), nil
}

// SendMessage parses the BOC as an external message and broadcasts it.
func (c *Liteclient) SendMessage(ctx context.Context, boc []byte) error {
	root, err := cell.FromBOC(boc)
	if err != nil {
		return fmt.Errorf("parsing message BOC: %w", err)
	}
	var msg tlb.ExternalMessage
	if err := tlb.LoadFromCell(&msg, root.BeginParse()); err != nil {
		return fmt.Errorf("parsing external message: %w", err)
	}
	if err := c.api.SendExternalMessage(ctx, &msg); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}
