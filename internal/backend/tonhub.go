package backend

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/tvm/cell"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/tonblueprint/internal/network"
)

// Tonhub is the v4 HTTP adapter. Every read is pinned to the latest
// masterchain block, which is fetched first.
type Tonhub struct {
	url string
	t   *Transport
	log *zap.SugaredLogger
}

// NewTonhub creates a v4 adapter. The v4 protocol has no API keys.
func NewTonhub(url string, opts *Options) *Tonhub {
	return &Tonhub{url: strings.TrimRight(url, "/"), t: opts.transport(), log: opts.logger()}
}

func (c *Tonhub) Kind() network.BackendKind { return network.BackendV4 }

func (c *Tonhub) latestSeqno(ctx context.Context) (uint32, error) {
	var res struct {
		Last struct {
			Seqno uint32 `json:"seqno"`
		} `json:"last"`
	}
	if err := c.t.GetJSON(ctx, c.url+"/block/latest", nil, &res); err != nil {
		return 0, fmt.Errorf("fetching latest block: %w", err)
	}
	return res.Last.Seqno, nil
}

// GetState reads the account at the latest block.
func (c *Tonhub) GetState(ctx context.Context, addr *address.Address) (*AccountState, error) {
	seqno, err := c.latestSeqno(ctx)
	if err != nil {
		return nil, err
	}
	var acc tonhubAccount
	if err := c.t.GetJSON(ctx, fmt.Sprintf("%s/block/%d/%s", c.url, seqno, addr.String()), nil, &acc); err != nil {
		return nil, fmt.Errorf("fetching account: %w", err)
	}
	return acc.state()
}

// GetTransactions pages back from (fromLT, fromHash), or from the account's
// last transaction when fromLT is zero. The endpoint returns a fixed page,
// which is truncated to limit.
func (c *Tonhub) GetTransactions(ctx context.Context, addr *address.Address, fromLT uint64, fromHash []byte, limit int) ([]*TransactionRecord, error) {
	if fromLT == 0 {
		st, err := c.GetState(ctx, addr)
		if err != nil {
			return nil, err
		}
		if st.LastLT == 0 {
			return nil, nil
		}
		fromLT, fromHash = st.LastLT, st.LastHash
	}

	var res struct {
		BOC string `json:"boc"`
	}
	url := fmt.Sprintf("%s/account/%s/tx/%d/%s", c.url, addr.String(), fromLT, base64.URLEncoding.EncodeToString(fromHash))
	if err := c.t.GetJSON(ctx, url, nil, &res); err != nil {
		return nil, fmt.Errorf("fetching transactions: %w", err)
	}
	if res.BOC == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(res.BOC)
	if err != nil {
		return nil, fmt.Errorf("decoding transactions BOC: %w", err)
	}
	roots, err := cell.FromBOCMultiRoot(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing transactions BOC: %w", err)
	}

	out := make([]*TransactionRecord, 0, len(roots))
	for _, root := range roots {
		rec, err := parseTLBTransaction(root)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// CallGetMethod runs a get-method at the latest block. Arguments are sent as
// a serialized TVM stack.
func (c *Tonhub) CallGetMethod(ctx context.Context, addr *address.Address, method string, args ...any) ([]any, error) {
	seqno, err := c.latestSeqno(ctx)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/block/%d/%s/run/%s", c.url, seqno, addr.String(), method)
	if len(args) > 0 {
		var stack tlb.Stack
		for i := len(args) - 1; i >= 0; i-- {
			stack.Push(args[i])
		}
		sc, err := stack.ToCell()
		if err != nil {
			return nil, fmt.Errorf("encoding arguments: %w", err)
		}
		url += "/" + base64.RawURLEncoding.EncodeToString(sc.ToBOC())
	}

	var res struct {
		ExitCode int32              `json:"exitCode"`
		Result   []tonhubStackEntry `json:"result"`
	}
	if err := c.t.GetJSON(ctx, url, nil, &res); err != nil {
		return nil, fmt.Errorf("running %s: %w", method, err)
	}
	if res.ExitCode != 0 && res.ExitCode != 1 {
		return nil, fmt.Errorf("get-method %s failed with exit code %d", method, res.ExitCode)
	}
	return parseTonhubStack(res.Result)
}

// SendMessage posts a BOC to /send.
func (c *Tonhub) SendMessage(ctx context.Context, boc []byte) error {
	var res struct {
		Status int `json:"status"`
	}
	body := map[string]string{"boc": base64.StdEncoding.EncodeToString(boc)}
	if err := c.t.PostJSON(ctx, c.url+"/send", nil, body, &res); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	if res.Status != 1 {
		return fmt.Errorf("message rejected with status %d", res.Status)
	}
	return nil
}
