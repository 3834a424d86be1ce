package network

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfig marks configuration errors: bad flag combinations, missing
// required values and the like. They are fatal and never retried.
var ErrConfig = errors.New("configuration error")

// BackendKind identifies the client protocol behind a provider.
type BackendKind string

const (
	BackendV2         BackendKind = "v2"
	BackendV4         BackendKind = "v4"
	BackendIndexer    BackendKind = "indexer"
	BackendLiteclient BackendKind = "liteclient"
)

// ParseBackendKind accepts the --custom-version spellings.
func ParseBackendKind(s string) (BackendKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "v2":
		return BackendV2, nil
	case "v4":
		return BackendV4, nil
	case "tonapi", "indexer":
		return BackendIndexer, nil
	case "liteclient", "lite":
		return BackendLiteclient, nil
	default:
		return "", fmt.Errorf("%w: unknown backend version %q (expected v2, v4, tonapi or liteclient)", ErrConfig, s)
	}
}

// BackendDescriptor describes the single backend a provider talks to.
// It is fixed when the provider is built.
type BackendDescriptor struct {
	Kind     BackendKind
	Endpoint string
	APIKey   string
}

// Validate checks the descriptor without touching the network.
func (d BackendDescriptor) Validate() error {
	switch d.Kind {
	case BackendV2, BackendV4, BackendIndexer, BackendLiteclient:
	default:
		return fmt.Errorf("%w: unknown backend kind %q", ErrConfig, d.Kind)
	}
	if d.Endpoint == "" {
		return fmt.Errorf("%w: %s backend requires an endpoint", ErrConfig, d.Kind)
	}
	if d.Kind == BackendV4 && d.APIKey != "" {
		return fmt.Errorf("%w: the v4 backend does not support API keys", ErrConfig)
	}
	if d.Kind == BackendLiteclient && d.APIKey != "" {
		return fmt.Errorf("%w: the liteclient backend does not support API keys", ErrConfig)
	}
	return nil
}

// Default endpoints per network.
var (
	v4Endpoints = map[Network]string{
		Mainnet: "https://mainnet-v4.tonhubapi.com",
		Testnet: "https://testnet-v4.tonhubapi.com",
	}
	v2Endpoints = map[Network]string{
		Mainnet: "https://toncenter.com/api/v2/jsonRPC",
		Testnet: "https://testnet.toncenter.com/api/v2/jsonRPC",
	}
	indexerEndpoints = map[Network]string{
		Mainnet: "https://tonapi.io",
		Testnet: "https://testnet.tonapi.io",
	}
	liteConfigURLs = map[Network]string{
		Mainnet: "https://ton.org/global-config.json",
		Testnet: "https://ton.org/testnet-global.config.json",
	}
)

// DefaultBackend is the backend used for mainnet and testnet when no custom
// endpoint is configured.
func DefaultBackend(n Network) (BackendDescriptor, error) {
	ep, ok := v4Endpoints[n]
	if !ok {
		return BackendDescriptor{}, fmt.Errorf("%w: network %q has no default backend", ErrConfig, n)
	}
	return BackendDescriptor{Kind: BackendV4, Endpoint: ep}, nil
}

// DefaultEndpoint returns the public endpoint of kind on network n, if any.
func DefaultEndpoint(n Network, kind BackendKind) (string, bool) {
	var m map[Network]string
	switch kind {
	case BackendV2:
		m = v2Endpoints
	case BackendV4:
		m = v4Endpoints
	case BackendIndexer:
		m = indexerEndpoints
	case BackendLiteclient:
		m = liteConfigURLs
	}
	ep, ok := m[n]
	return ep, ok
}
