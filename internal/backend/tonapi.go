package backend

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/xssnick/tonutils-go/address"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/tonblueprint/internal/network"
)

// Tonapi is the REST indexer adapter. Besides the common surface it can look
// up a transaction by hash alone, which the confirmation engine uses as an
// independent cross-check.
type Tonapi struct {
	url    string
	header http.Header
	t      *Transport
	log    *zap.SugaredLogger
}

// NewTonapi creates an indexer adapter for a tonapi base URL.
func NewTonapi(baseURL, apiKey string, opts *Options) *Tonapi {
	h := http.Header{}
	if apiKey != "" {
		h.Set("Authorization", "Bearer "+apiKey)
	}
	return &Tonapi{url: strings.TrimRight(baseURL, "/"), header: h, t: opts.transport(), log: opts.logger()}
}

func (c *Tonapi) Kind() network.BackendKind { return network.BackendIndexer }

func (c *Tonapi) accountURL(addr *address.Address) string {
	return c.url + "/v2/blockchain/accounts/" + url.PathEscape(addr.StringRaw())
}

// GetState reads the account. Unknown accounts yield ErrStateUnavailable.
func (c *Tonapi) GetState(ctx context.Context, addr *address.Address) (*AccountState, error) {
	var acc tonapiAccount
	if err := c.t.GetJSON(ctx, c.accountURL(addr), c.header, &acc); err != nil {
		if IsNotFound(err) {
			return nil, ErrStateUnavailable
		}
		return nil, fmt.Errorf("fetching account: %w", err)
	}
	return acc.state()
}

// GetTransactions returns at most limit transactions, newest first.
func (c *Tonapi) GetTransactions(ctx context.Context, addr *address.Address, fromLT uint64, _ []byte, limit int) ([]*TransactionRecord, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if fromLT != 0 {
		// before_lt is exclusive.
		q.Set("before_lt", fmt.Sprint(fromLT+1))
	}
	var res struct {
		Transactions []tonapiTx `json:"transactions"`
	}
	u := c.accountURL(addr) + "/transactions"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	if err := c.t.GetJSON(ctx, u, c.header, &res); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching transactions: %w", err)
	}
	out := make([]*TransactionRecord, 0, len(res.Transactions))
	for i := range res.Transactions {
		rec, err := res.Transactions[i].record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// GetTransactionByHash fetches one transaction by its hash.
func (c *Tonapi) GetTransactionByHash(ctx context.Context, hash []byte) (*TransactionRecord, error) {
	var tx tonapiTx
	u := c.url + "/v2/blockchain/transactions/" + hex.EncodeToString(hash)
	if err := c.t.GetJSON(ctx, u, c.header, &tx); err != nil {
		return nil, fmt.Errorf("fetching transaction: %w", err)
	}
	return tx.record()
}

// CallGetMethod executes a get-method through the indexer.
func (c *Tonapi) CallGetMethod(ctx context.Context, addr *address.Address, method string, args ...any) ([]any, error) {
	params, err := tonapiArgs(args)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	for _, p := range params {
		q.Add("args", p)
	}
	u := c.accountURL(addr) + "/methods/" + url.PathEscape(method)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var res struct {
		Success  bool               `json:"success"`
		ExitCode int32              `json:"exit_code"`
		Stack    []tonapiStackEntry `json:"stack"`
	}
	if err := c.t.GetJSON(ctx, u, c.header, &res); err != nil {
		return nil, fmt.Errorf("running %s: %w", method, err)
	}
	if !res.Success {
		return nil, fmt.Errorf("get-method %s failed with exit code %d", method, res.ExitCode)
	}
	return parseTonapiStack(res.Stack)
}

// SendMessage posts a BOC to the indexer's message endpoint.
func (c *Tonapi) SendMessage(ctx context.Context, boc []byte) error {
	body := map[string]string{"boc": base64.StdEncoding.EncodeToString(boc)}
	if err := c.t.PostJSON(ctx, c.url+"/v2/blockchain/message", c.header, body, nil); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}
