package sender

import (
	"bufio"
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/nacl/box"

	"github.com/Mohsinsiddi/tonblueprint/internal/backend"
)

// messageTTL is how long the bridge keeps an undelivered request, in seconds.
const messageTTL = 300

// keyPair is a TonConnect session key pair.
type keyPair struct {
	pub  *[32]byte
	priv *[32]byte
}

func newKeyPair() (*keyPair, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating session keys: %w", err)
	}
	return &keyPair{pub: pub, priv: priv}, nil
}

func parseKey(s string) (*[32]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return nil, fmt.Errorf("invalid session key %q", s)
	}
	var k [32]byte
	copy(k[:], b)
	return &k, nil
}

func keyHex(k *[32]byte) string { return hex.EncodeToString(k[:]) }

// seal encrypts msg for peer; the nonce is prepended.
func seal(msg []byte, peer, priv *[32]byte) ([]byte, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	return box.Seal(nonce[:], msg, &nonce, peer, priv), nil
}

func open(data []byte, peer, priv *[32]byte) ([]byte, error) {
	if len(data) < 24+box.Overhead {
		return nil, fmt.Errorf("bridge message too short")
	}
	var nonce [24]byte
	copy(nonce[:], data[:24])
	out, ok := box.Open(nil, data[24:], &nonce, peer, priv)
	if !ok {
		return nil, fmt.Errorf("bridge message failed to decrypt")
	}
	return out, nil
}

// bridgeMessage is the envelope the bridge delivers over SSE.
type bridgeMessage struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// bridge talks to a TonConnect HTTP bridge.
type bridge struct {
	baseURL string
	// posts go through the shared transport so 429s back off.
	transport *backend.Transport
	// events need a client without a response timeout.
	stream     *http.Client
	retryDelay time.Duration
	log        *zap.SugaredLogger
}

func newBridge(baseURL string, t *backend.Transport, log *zap.SugaredLogger) *bridge {
	return &bridge{
		baseURL:    strings.TrimRight(baseURL, "/"),
		transport:  t,
		stream:     &http.Client{},
		retryDelay: time.Second,
		log:        log,
	}
}

// send posts an encrypted payload from client to the wallet.
func (b *bridge) send(ctx context.Context, keys *keyPair, to *[32]byte, topic string, payload []byte) error {
	sealed, err := seal(payload, to, keys.priv)
	if err != nil {
		return err
	}
	body := base64.StdEncoding.EncodeToString(sealed)

	q := url.Values{}
	q.Set("client_id", keyHex(keys.pub))
	q.Set("to", keyHex(to))
	q.Set("ttl", fmt.Sprint(messageTTL))
	q.Set("topic", topic)
	endpoint := b.baseURL + "/message?" + q.Encode()

	_, err = b.transport.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "text/plain")
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("posting to bridge: %w", err)
	}
	return nil
}

// listen reads the client's event stream, reconnecting when it drops, until
// handle returns true. handle receives decrypted payloads and the sender's key.
// The returned string is the last event id seen.
func (b *bridge) listen(ctx context.Context, keys *keyPair, lastEventID string,
	handle func(from string, payload []byte) (bool, error)) (string, error) {
	for {
		done, id, err := b.readStream(ctx, keys, lastEventID, handle)
		if id != "" {
			lastEventID = id
		}
		if done || err != nil {
			return lastEventID, err
		}
		b.log.Debugw("bridge stream closed, reconnecting", "lastEventID", lastEventID)
		select {
		case <-ctx.Done():
			return lastEventID, ctx.Err()
		case <-time.After(b.retryDelay):
		}
	}
}

func (b *bridge) readStream(ctx context.Context, keys *keyPair, lastEventID string,
	handle func(from string, payload []byte) (bool, error)) (bool, string, error) {
	q := url.Values{}
	q.Set("client_id", keyHex(keys.pub))
	if lastEventID != "" {
		q.Set("last_event_id", lastEventID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/events?"+q.Encode(), nil)
	if err != nil {
		return false, "", err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := b.stream.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, "", ctx.Err()
		}
		b.log.Debugw("bridge connection failed", "err", err)
		return false, "", nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, "", &backend.HTTPError{StatusCode: resp.StatusCode, Body: string(excerpt)}
	}

	var (
		seen string
		id   string
		data bytes.Buffer
	)
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if data.Len() > 0 {
				if id != "" {
					seen = id
				}
				done, err := b.dispatch(keys, data.Bytes(), handle)
				data.Reset()
				if done || err != nil {
					return done, seen, err
				}
			}
			id = ""
		case strings.HasPrefix(line, "id:"):
			id = strings.TrimSpace(strings.TrimPrefix(line, "id:"))
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	if ctx.Err() != nil {
		return false, seen, ctx.Err()
	}
	return false, seen, nil
}

func (b *bridge) dispatch(keys *keyPair, data []byte, handle func(string, []byte) (bool, error)) (bool, error) {
	// heartbeats carry plain text
	if len(data) == 0 || data[0] != '{' {
		return false, nil
	}
	var msg bridgeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		b.log.Debugw("skipping malformed bridge event", "err", err)
		return false, nil
	}
	from, err := parseKey(msg.From)
	if err != nil {
		return false, nil
	}
	sealed, err := base64.StdEncoding.DecodeString(msg.Message)
	if err != nil {
		return false, nil
	}
	payload, err := open(sealed, from, keys.priv)
	if err != nil {
		b.log.Debugw("skipping undecryptable bridge event", "from", msg.From)
		return false, nil
	}
	return handle(msg.From, payload)
}
