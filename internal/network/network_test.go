package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/address"
)

const rawAddr = "0:83dfd552e63729b472fcbcc8c45ebcc6691702558b68ec7527e1ba403a0f31a8"

func TestParseNetwork(t *testing.T) {
	for in, want := range map[string]Network{"mainnet": Mainnet, " Testnet ": Testnet, "CUSTOM": Custom} {
		got, err := ParseNetwork(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseNetwork("devnet")
	assert.ErrorIs(t, err, ErrConfig)
}

func TestParseBackendKind(t *testing.T) {
	cases := map[string]BackendKind{
		"v2": BackendV2, "V4": BackendV4, "tonapi": BackendIndexer,
		"indexer": BackendIndexer, "liteclient": BackendLiteclient, "lite": BackendLiteclient,
	}
	for in, want := range cases {
		got, err := ParseBackendKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseBackendKind("v3")
	assert.ErrorIs(t, err, ErrConfig)
}

func TestBackendDescriptorValidate(t *testing.T) {
	tests := []struct {
		name    string
		desc    BackendDescriptor
		wantErr bool
	}{
		{"v2 with key", BackendDescriptor{BackendV2, "https://x", "k"}, false},
		{"indexer with key", BackendDescriptor{BackendIndexer, "https://x", "k"}, false},
		{"v4 without key", BackendDescriptor{BackendV4, "https://x", ""}, false},
		{"v4 with key", BackendDescriptor{BackendV4, "https://x", "k"}, true},
		{"liteclient with key", BackendDescriptor{BackendLiteclient, "https://x", "k"}, true},
		{"missing endpoint", BackendDescriptor{BackendV2, "", ""}, true},
		{"unknown kind", BackendDescriptor{"v9", "https://x", ""}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.desc.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultBackend(t *testing.T) {
	d, err := DefaultBackend(Testnet)
	require.NoError(t, err)
	assert.Equal(t, BackendV4, d.Kind)
	assert.Equal(t, "https://testnet-v4.tonhubapi.com", d.Endpoint)

	_, err = DefaultBackend(Custom)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestDefaultEndpoint(t *testing.T) {
	ep, ok := DefaultEndpoint(Mainnet, BackendLiteclient)
	assert.True(t, ok)
	assert.Equal(t, "https://ton.org/global-config.json", ep)

	_, ok = DefaultEndpoint(Custom, BackendV2)
	assert.False(t, ok)
}

func TestFormatAddressTestnetFlag(t *testing.T) {
	addr := address.MustParseRawAddr(rawAddr)
	main := FormatAddress(Mainnet, addr)
	test := FormatAddress(Testnet, addr)
	assert.NotEqual(t, main, test)

	parsed, err := address.ParseAddr(test)
	require.NoError(t, err)
	assert.True(t, parsed.IsTestnetOnly())
	assert.Equal(t, addr.StringRaw(), parsed.StringRaw())
	assert.Empty(t, FormatAddress(Mainnet, nil))
}

func TestExplorerLinks(t *testing.T) {
	addr := address.MustParseRawAddr(rawAddr)
	friendly := FormatAddress(Mainnet, addr)

	assert.Equal(t, "https://tonscan.org/address/"+friendly, Tonscan.AddressLink(Mainnet, addr))
	assert.Equal(t, "https://tonviewer.com/transaction/ab12", Tonviewer.TxLink(Mainnet, addr, 42, "ab12"))
	assert.Equal(t, "https://ton.cx/tx/42:ab12:"+friendly, Toncx.TxLink(Mainnet, addr, 42, "ab12"))
	assert.Contains(t, Dton.AddressLink(Testnet, addr), "https://testnet.dton.io/a/")
}

func TestExplorerLinksCustomNetwork(t *testing.T) {
	addr := address.MustParseRawAddr(rawAddr)
	assert.Empty(t, Tonscan.AddressLink(Custom, addr))
	assert.Empty(t, Tonscan.TxLink(Custom, addr, 1, "ab"))
}

func TestParseExplorer(t *testing.T) {
	e, err := ParseExplorer("TonViewer")
	require.NoError(t, err)
	assert.Equal(t, Tonviewer, e)

	_, err = ParseExplorer("etherscan")
	assert.ErrorIs(t, err, ErrConfig)
}
