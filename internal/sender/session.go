package sender

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/99designs/keyring"
)

const keychainService = "tonblueprint"

// sessionKey is the keyring item holding the TonConnect session.
const sessionKey = keychainService + ".tonconnect"

// Session is a persisted TonConnect pairing. Keys are hex encoded.
type Session struct {
	ClientSecret  string `json:"clientSecret"`
	ClientPublic  string `json:"clientPublic"`
	WalletPublic  string `json:"walletPublic,omitempty"`
	BridgeURL     string `json:"bridgeUrl,omitempty"`
	WalletName    string `json:"walletName,omitempty"`
	WalletAddress string `json:"walletAddress,omitempty"` // raw form
	LastEventID   string `json:"lastEventId,omitempty"`
	NextRequestID uint64 `json:"nextRequestId"`
}

// Paired reports whether a wallet approved this session.
func (s *Session) Paired() bool {
	return s != nil && s.WalletPublic != "" && s.WalletAddress != ""
}

// SessionStore persists a single TonConnect session.
type SessionStore interface {
	// Load returns nil, nil when nothing is stored.
	Load() (*Session, error)
	Save(s *Session) error
	Clear() error
}

// KeyringStore keeps the session in the OS keychain.
type KeyringStore struct {
	ring keyring.Keyring
}

// NewKeyringStore wraps an opened keyring; tests pass keyring.NewArrayKeyring.
func NewKeyringStore(ring keyring.Keyring) *KeyringStore {
	return &KeyringStore{ring: ring}
}

// OpenKeyring opens the OS keychain, falling back to an encrypted file under
// the user config dir.
func OpenKeyring() (keyring.Keyring, error) {
	cfg := keyring.Config{
		ServiceName:              keychainService,
		KeychainTrustApplication: true,
		FileDir:                  fileDir(),
		FilePasswordFunc:         keyring.FixedStringPrompt(keychainService),
	}

	// On Linux without a GUI, fall back to file-based storage.
	if runtime.GOOS == "linux" {
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.FileBackend,
		}
	}

	ring, err := keyring.Open(cfg)
	if err == nil {
		return ring, nil
	}
	cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
	ring, ferr := keyring.Open(cfg)
	if ferr != nil {
		return nil, fmt.Errorf("opening keyring: %w", errors.Join(err, ferr))
	}
	return ring, nil
}

func fileDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, keychainService, "keyring")
}

func (k *KeyringStore) Load() (*Session, error) {
	item, err := k.ring.Get(sessionKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("keychain retrieve: %w", err)
	}
	var s Session
	if err := json.Unmarshal(item.Data, &s); err != nil {
		return nil, fmt.Errorf("decoding stored session: %w", err)
	}
	return &s, nil
}

func (k *KeyringStore) Save(s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	err = k.ring.Set(keyring.Item{
		Key:   sessionKey,
		Data:  data,
		Label: "blueprint TonConnect session",
	})
	if err != nil {
		return fmt.Errorf("keychain store: %w", err)
	}
	return nil
}

func (k *KeyringStore) Clear() error {
	err := k.ring.Remove(sessionKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("keychain remove: %w", err)
	}
	return nil
}
