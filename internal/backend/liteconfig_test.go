package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/tonblueprint/internal/network"
)

const validLiteConfig = `{
  "liteservers": [
    {"ip": 2130706433, "port": 4443, "id": {"@type": "pub.ed25519", "key": "n4VDnSCUuSpjnCyUk9e3QOOd6o0ItSWYbTnW3Wnn8wk="}},
    {"ip": -1062731775, "port": 4444, "id": {"@type": "pub.ed25519", "key": "aGVsbG8="}}
  ]
}`

// ---------------------------------------------------------------------------
// ParseLiteConfig
// ---------------------------------------------------------------------------

func TestParseLiteConfigValid(t *testing.T) {
	cfg, err := ParseLiteConfig([]byte(validLiteConfig))
	require.NoError(t, err)
	require.Len(t, cfg.Liteservers, 2)
	assert.Equal(t, "127.0.0.1:4443", cfg.Liteservers[0].Addr())
	assert.Equal(t, "192.168.0.1:4444", cfg.Liteservers[1].Addr())
	assert.Equal(t, "aGVsbG8=", cfg.Liteservers[1].Key)
}

func TestParseLiteConfigMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"no servers", `{"liteservers": []}`},
		{"string ip", `{"liteservers": [{"ip": "127.0.0.1", "port": 1, "id": {"key": "k"}}]}`},
		{"fractional port", `{"liteservers": [{"ip": 1, "port": 1.5, "id": {"key": "k"}}]}`},
		{"missing port", `{"liteservers": [{"ip": 1, "id": {"key": "k"}}]}`},
		{"string id", `{"liteservers": [{"ip": 1, "port": 1, "id": "k"}]}`},
		{"numeric key", `{"liteservers": [{"ip": 1, "port": 1, "id": {"key": 5}}]}`},
		{"second entry bad", `{"liteservers": [{"ip": 1, "port": 1, "id": {"key": "k"}}, {"ip": 1, "port": 1}]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := ParseLiteConfig([]byte(tc.doc))
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.True(t, errors.Is(err, network.ErrConfig))
		})
	}
}

func TestFetchLiteConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(validLiteConfig)) //nolint:errcheck
	}))
	defer srv.Close()

	cfg, err := FetchLiteConfig(context.Background(), NewTransport(TransportConfig{}), srv.URL)
	require.NoError(t, err)
	assert.Len(t, cfg.Liteservers, 2)
}
