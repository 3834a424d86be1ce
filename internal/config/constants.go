package config

import "time"

// Confirmation engine defaults.
const (
	DeployAttempts    = 20
	DeployInterval    = 2 * time.Second
	DeployCLIAttempts = 10 // deploy --attempts; wait-deploy uses DeployAttempts
	SettleDelay       = 5 * time.Second
	VerifyAttempts    = 5
	VerifyInterval    = 2 * time.Second
	LastTxAttempts    = 20
	LastTxInterval    = 2 * time.Second
	TransactionWindow = 10
)

// HTTP transport defaults.
const (
	BackoffInitialDelay   = 400 * time.Millisecond
	BackoffMaxRetries     = 5
	DefaultRequestTimeout = 10 * time.Second
)

// DefaultManifestURL is the TonConnect manifest presented to wallets.
const DefaultManifestURL = "https://raw.githubusercontent.com/ton-org/blueprint/main/tonconnect/manifest.json"
