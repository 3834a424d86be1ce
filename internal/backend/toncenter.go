package backend

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/xssnick/tonutils-go/address"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/tonblueprint/internal/network"
)

// Toncenter is the v2 JSON-RPC adapter.
type Toncenter struct {
	url    string
	header http.Header
	t      *Transport
	log    *zap.SugaredLogger
}

// NewToncenter creates a v2 adapter pointed at a jsonRPC endpoint.
func NewToncenter(url, apiKey string, opts *Options) *Toncenter {
	h := http.Header{}
	if apiKey != "" {
		h.Set("X-API-Key", apiKey)
	}
	return &Toncenter{url: url, header: h, t: opts.transport(), log: opts.logger()}
}

func (c *Toncenter) Kind() network.BackendKind { return network.BackendV2 }

// GetState returns the account state via getAddressInformation.
func (c *Toncenter) GetState(ctx context.Context, addr *address.Address) (*AccountState, error) {
	var info toncenterAddressInfo
	if err := c.call(ctx, "getAddressInformation", map[string]any{"address": addr.String()}, &info); err != nil {
		return nil, err
	}
	return info.state()
}

// GetTransactions always asks for archival data; non-archival nodes silently
// return nothing for accounts without recent activity.
func (c *Toncenter) GetTransactions(ctx context.Context, addr *address.Address, fromLT uint64, fromHash []byte, limit int) ([]*TransactionRecord, error) {
	params := map[string]any{
		"address":  addr.String(),
		"archival": true,
	}
	if limit > 0 {
		params["limit"] = limit
	}
	if fromLT != 0 {
		params["lt"] = fmt.Sprint(fromLT)
		params["hash"] = base64.StdEncoding.EncodeToString(fromHash)
	}

	var raw []toncenterTx
	if err := c.call(ctx, "getTransactions", params, &raw); err != nil {
		return nil, err
	}
	out := make([]*TransactionRecord, 0, len(raw))
	for i := range raw {
		rec, err := raw[i].record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// CallGetMethod runs a get-method via runGetMethod.
func (c *Toncenter) CallGetMethod(ctx context.Context, addr *address.Address, method string, args ...any) ([]any, error) {
	stack, err := toncenterStackArgs(args)
	if err != nil {
		return nil, err
	}
	var res struct {
		ExitCode int32    `json:"exit_code"`
		Stack    [][2]any `json:"stack"`
	}
	params := map[string]any{"address": addr.String(), "method": method, "stack": stack}
	if err := c.call(ctx, "runGetMethod", params, &res); err != nil {
		return nil, err
	}
	if res.ExitCode != 0 && res.ExitCode != 1 {
		return nil, fmt.Errorf("get-method %s failed with exit code %d", method, res.ExitCode)
	}
	return parseToncenterStack(res.Stack)
}

// SendMessage broadcasts a BOC via sendBoc.
func (c *Toncenter) SendMessage(ctx context.Context, boc []byte) error {
	return c.call(ctx, "sendBoc", map[string]any{"boc": base64.StdEncoding.EncodeToString(boc)}, nil)
}

// --- internal JSON-RPC plumbing ---

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int    `json:"id"`
}

type rpcResponse struct {
	OK     *bool           `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
	Code   int             `json:"code"`
}

func (c *Toncenter) call(ctx context.Context, method string, params, out any) error {
	c.log.Debugw("toncenter call", "method", method)

	var resp rpcResponse
	err := c.t.PostJSON(ctx, c.url, c.header, rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}, &resp)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if (resp.OK != nil && !*resp.OK) || (len(resp.Error) > 0 && string(resp.Error) != "null") {
		return fmt.Errorf("%s: RPC error %d: %s", method, resp.Code, strings.Trim(string(resp.Error), `"`))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("%s: parsing result: %w", method, err)
	}
	return nil
}
