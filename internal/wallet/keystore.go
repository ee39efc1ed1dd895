package wallet

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"strings"
	"sync"

	"github.com/99designs/keyring"
)

const keychainService = "monsend"

// ErrKeyNotFound is returned when no key is stored under a reference.
var ErrKeyNotFound = errors.New("key not found")

// KeystoreBackend is where signing keys live. Keys are hex strings without
// the 0x prefix.
type KeystoreBackend interface {
	Store(name, hexKey string) (ref string, err error)
	Retrieve(ref string) (string, error)
	Delete(ref string) error
}

// Keystore wraps OS keychain access.
type Keystore struct {
	ring keyring.Keyring
}

// DefaultKeystore returns a keystore backed by the OS keychain, falling back
// to an encrypted file under ~/.monsend/keys on headless hosts.
func DefaultKeystore() (*Keystore, error) {
	cfg := keyring.Config{
		ServiceName:              keychainService,
		KeychainTrustApplication: true,
		FileDir:                  "~/.monsend/keys",
		FilePasswordFunc:         keyring.TerminalPrompt,
	}
	if runtime.GOOS == "linux" {
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.FileBackend,
		}
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening keychain: %w", err)
	}
	return &Keystore{ring: ring}, nil
}

// OpenFileKeystore opens an encrypted file keystore in dir. The password is
// supplied up front, which suits non-interactive use.
func OpenFileKeystore(dir, password string) (*Keystore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:      keychainService,
		AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
		FileDir:          dir,
		FilePasswordFunc: keyring.FixedStringPrompt(password),
	})
	if err != nil {
		return nil, fmt.Errorf("opening file keystore: %w", err)
	}
	return &Keystore{ring: ring}, nil
}

// Store saves a private key for a wallet name and returns a reference key.
func (k *Keystore) Store(name, hexKey string) (string, error) {
	ref := keyRef(name)
	err := k.ring.Set(keyring.Item{
		Key:         ref,
		Data:        []byte(normaliseHexKey(hexKey)),
		Label:       "monsend wallet " + name,
		Description: "EVM private key",
	})
	if err != nil {
		return "", fmt.Errorf("keychain store: %w", err)
	}
	return ref, nil
}

// Retrieve fetches a private key by its reference.
func (k *Keystore) Retrieve(ref string) (string, error) {
	item, err := k.ring.Get(ref)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, ref)
	}
	if err != nil {
		return "", fmt.Errorf("keychain retrieve: %w", err)
	}
	return string(item.Data), nil
}

// Delete removes a stored key. Deleting a missing key is not an error.
func (k *Keystore) Delete(ref string) error {
	err := k.ring.Remove(ref)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("keychain delete: %w", err)
	}
	return nil
}

// InMemoryKeystore keeps keys in process memory (for tests).
type InMemoryKeystore struct {
	mu   sync.Mutex
	data map[string]string
}

// NewInMemoryKeystore creates an in-memory keystore.
func NewInMemoryKeystore() *InMemoryKeystore {
	return &InMemoryKeystore{data: make(map[string]string)}
}

func (k *InMemoryKeystore) Store(name, hexKey string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	ref := keyRef(name)
	k.data[ref] = normaliseHexKey(hexKey)
	return ref, nil
}

func (k *InMemoryKeystore) Retrieve(ref string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.data[ref]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, ref)
	}
	return v, nil
}

func (k *InMemoryKeystore) Delete(ref string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.data, ref)
	return nil
}

func keyRef(name string) string { return keychainService + "." + name }

func normaliseHexKey(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}
