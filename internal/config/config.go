package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Mohsinsiddi/tonblueprint/internal/network"
)

const configName = "blueprint.config"

// Load reads blueprint.config.{json,yaml,toml} from dir, or file when it is
// non-empty. A missing project config yields defaults; an explicit file must exist.
func Load(dir, file string) (*Config, error) {
	v := viper.New()
	v.SetDefault("requestTimeout", DefaultRequestTimeout.Milliseconds())
	v.SetDefault("manifestUrl", DefaultManifestURL)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		if dir == "" {
			dir = "."
		}
		v.SetConfigName(configName)
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{
		ManifestURL: v.GetString("manifestUrl"),
		Explorer:    strings.ToLower(v.GetString("explorer")),
		RateLimit:   v.GetFloat64("rateLimit"),
		path:        v.ConfigFileUsed(),
	}

	ms := v.GetInt64("requestTimeout")
	if ms <= 0 {
		return nil, fmt.Errorf("%w: requestTimeout must be positive, got %d", network.ErrConfig, ms)
	}
	cfg.RequestTimeout = time.Duration(ms) * time.Millisecond

	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("%w: rateLimit must not be negative", network.ErrConfig)
	}
	if cfg.Explorer != "" {
		if _, err := network.ParseExplorer(cfg.Explorer); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadNetwork(v); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadNetwork decodes the "network" key, which is either a name or a custom network object.
func (c *Config) loadNetwork(v *viper.Viper) error {
	switch raw := v.Get("network").(type) {
	case nil:
		return nil
	case string:
		n, err := network.ParseNetwork(raw)
		if err != nil {
			return err
		}
		if n == network.Custom {
			return fmt.Errorf("%w: a custom network must be given as an object with an endpoint", network.ErrConfig)
		}
		c.Network = string(n)
		return nil
	case map[string]any:
		var custom CustomNetwork
		if err := v.UnmarshalKey("network", &custom); err != nil {
			return fmt.Errorf("parsing custom network: %w", err)
		}
		if custom.Endpoint == "" {
			return fmt.Errorf("%w: custom network requires an endpoint", network.ErrConfig)
		}
		if custom.Version == "" {
			custom.Version = string(network.BackendV2)
		}
		if _, err := network.ParseBackendKind(custom.Version); err != nil {
			return err
		}
		if custom.Type == "" {
			custom.Type = string(network.Custom)
		}
		if _, err := network.ParseNetwork(custom.Type); err != nil {
			return err
		}
		c.Network = string(network.Custom)
		c.Custom = &custom
		return nil
	default:
		return fmt.Errorf("%w: network must be a string or an object, got %T", network.ErrConfig, raw)
	}
}

// Path returns the config file that was read, or "".
func (c *Config) Path() string {
	return c.path
}

// LoadEnv loads dir/.env into the process environment. Variables that are
// already set win; a missing file is not an error.
func LoadEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}
