package backend

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/Mohsinsiddi/tonblueprint/internal/network"
)

// LiteServer is one validated peer of a global config document.
type LiteServer struct {
	IP   int64
	Port int
	Key  string // base64 ed25519 public key
}

// Addr returns host:port. The config stores IPv4 addresses as signed 32-bit integers.
func (s LiteServer) Addr() string {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(int32(s.IP)))
	return net.JoinHostPort(net.IP(b).String(), strconv.Itoa(s.Port))
}

// LiteConfig is the validated peer list of a global config document.
type LiteConfig struct {
	Liteservers []LiteServer
}

// ParseLiteConfig validates every liteserver entry. A single malformed entry
// fails the whole document; peers are never skipped silently.
func ParseLiteConfig(data []byte) (*LiteConfig, error) {
	var doc struct {
		Liteservers []map[string]any `json:"liteservers"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid liteclient config: %v", network.ErrConfig, err)
	}
	if len(doc.Liteservers) == 0 {
		return nil, fmt.Errorf("%w: liteclient config lists no liteservers", network.ErrConfig)
	}

	cfg := &LiteConfig{Liteservers: make([]LiteServer, 0, len(doc.Liteservers))}
	for i, entry := range doc.Liteservers {
		ip, ok := integral(entry["ip"])
		if !ok {
			return nil, fmt.Errorf("%w: liteserver %d: ip must be a number", network.ErrConfig, i)
		}
		port, ok := integral(entry["port"])
		if !ok || port <= 0 || port > math.MaxUint16 {
			return nil, fmt.Errorf("%w: liteserver %d: port must be a number", network.ErrConfig, i)
		}
		id, ok := entry["id"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: liteserver %d: id must be an object", network.ErrConfig, i)
		}
		key, ok := id["key"].(string)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: liteserver %d: id.key must be a string", network.ErrConfig, i)
		}
		cfg.Liteservers = append(cfg.Liteservers, LiteServer{IP: ip, Port: int(port), Key: key})
	}
	return cfg, nil
}

func integral(v any) (int64, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

// FetchLiteConfig downloads and validates a global config document.
func FetchLiteConfig(ctx context.Context, t *Transport, url string) (*LiteConfig, error) {
	data, err := t.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching liteclient config: %w", err)
	}
	return ParseLiteConfig(data)
}
