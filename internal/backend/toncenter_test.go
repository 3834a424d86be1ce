package backend

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRPC struct {
	Method string         `json:"method"`
	Params map[string]any `json:"params"`
	APIKey string         `json:"-"`
}

// toncenterMock answers JSON-RPC methods from responses and records requests.
func toncenterMock(t *testing.T, responses map[string]any, seen *[]capturedRPC) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req capturedRPC
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		req.APIKey = r.Header.Get("X-API-Key")
		if seen != nil {
			*seen = append(*seen, req)
		}
		w.Header().Set("Content-Type", "application/json")
		result, ok := responses[req.Method]
		if !ok {
			json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "method not found", "code": 404}) //nolint:errcheck
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result}) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv
}

// ---------------------------------------------------------------------------
// Toncenter: getTransactions
// ---------------------------------------------------------------------------

func TestToncenterGetTransactionsSetsArchival(t *testing.T) {
	var seen []capturedRPC
	srv := toncenterMock(t, map[string]any{"getTransactions": []any{}}, &seen)

	c := NewToncenter(srv.URL, "secret", nil)
	txs, err := c.GetTransactions(context.Background(), testAddr(1), 0, nil, 5)
	require.NoError(t, err)
	assert.Empty(t, txs)

	require.Len(t, seen, 1)
	assert.Equal(t, "getTransactions", seen[0].Method)
	assert.Equal(t, true, seen[0].Params["archival"])
	assert.Equal(t, float64(5), seen[0].Params["limit"])
	assert.NotContains(t, seen[0].Params, "lt")
	assert.Equal(t, "secret", seen[0].APIKey)
}

func TestToncenterGetTransactionsFromCursor(t *testing.T) {
	var seen []capturedRPC
	srv := toncenterMock(t, map[string]any{"getTransactions": []any{}}, &seen)

	hash := make([]byte, 32)
	hash[31] = 1
	_, err := NewToncenter(srv.URL, "", nil).GetTransactions(context.Background(), testAddr(1), 77, hash, 0)
	require.NoError(t, err)

	require.Len(t, seen, 1)
	assert.Equal(t, "77", seen[0].Params["lt"])
	assert.Equal(t, base64.StdEncoding.EncodeToString(hash), seen[0].Params["hash"])
	assert.Equal(t, true, seen[0].Params["archival"])
	assert.Empty(t, seen[0].APIKey)
}

// ---------------------------------------------------------------------------
// Toncenter: getAddressInformation / errors
// ---------------------------------------------------------------------------

func TestToncenterGetStateUntouched(t *testing.T) {
	srv := toncenterMock(t, map[string]any{
		"getAddressInformation": map[string]any{
			"balance":             "0",
			"state":               "uninitialized",
			"last_transaction_id": map[string]any{"lt": "0", "hash": base64.StdEncoding.EncodeToString(make([]byte, 32))},
		},
	}, nil)

	_, err := NewToncenter(srv.URL, "", nil).GetState(context.Background(), testAddr(2))
	assert.ErrorIs(t, err, ErrStateUnavailable)
}

func TestToncenterRPCError(t *testing.T) {
	srv := toncenterMock(t, map[string]any{}, nil)

	_, err := NewToncenter(srv.URL, "", nil).GetState(context.Background(), testAddr(2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "method not found")
}

func TestToncenterRunGetMethod(t *testing.T) {
	var seen []capturedRPC
	srv := toncenterMock(t, map[string]any{
		"runGetMethod": map[string]any{"exit_code": 0, "stack": [][]any{{"num", "0x2a"}}},
	}, &seen)

	res, err := NewToncenter(srv.URL, "", nil).CallGetMethod(context.Background(), testAddr(3), "counter")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "42", res[0].(interface{ String() string }).String())
	assert.Equal(t, "counter", seen[0].Params["method"])
}

func TestToncenterRunGetMethodExitCode(t *testing.T) {
	srv := toncenterMock(t, map[string]any{
		"runGetMethod": map[string]any{"exit_code": 11, "stack": []any{}},
	}, nil)

	_, err := NewToncenter(srv.URL, "", nil).CallGetMethod(context.Background(), testAddr(3), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit code 11")
}
