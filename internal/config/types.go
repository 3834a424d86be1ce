package config

import "time"

// CustomNetwork is the object form of the "network" key.
type CustomNetwork struct {
	Endpoint string `mapstructure:"endpoint"`
	Version  string `mapstructure:"version"` // v2 | v4 | tonapi | liteclient
	Key      string `mapstructure:"key"`
	Type     string `mapstructure:"type"` // mainnet | testnet | custom
}

// Config is the project configuration, consumed read-only when the provider is built.
type Config struct {
	// Network is "mainnet", "testnet", "custom" or empty when unset.
	Network string
	// Custom is set when the config file describes a custom network.
	Custom *CustomNetwork

	ManifestURL    string
	RequestTimeout time.Duration
	Explorer       string
	RateLimit      float64

	// path of the file that was read, empty when running on defaults
	path string
}
