package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet types.
const (
	TypeWatchOnly = "watch-only"
	TypeSigning   = "signing"
)

// Errors.
var (
	ErrWalletNotFound = errors.New("wallet not found")
	ErrWalletExists   = errors.New("wallet already exists")
	ErrInvalidKey     = errors.New("invalid private key")
	ErrInvalidAddress = errors.New("invalid address")
	ErrNoKeystore     = errors.New("no keystore configured")
)

// Wallet holds metadata for a single wallet.
type Wallet struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	Type      string `json:"type"`
	KeyRef    string `json:"key_ref,omitempty"` // keychain reference for signing wallets
	Source    string `json:"source,omitempty"`  // "key" or "mnemonic"
	IsDefault bool   `json:"is_default"`
	CreatedAt string `json:"created_at"`
}

// CanSign reports whether the wallet has a stored key.
func (w *Wallet) CanSign() bool { return w.Type == TypeSigning && w.KeyRef != "" }

// Store is an interface for persisting wallets.
type Store interface {
	Load() ([]*Wallet, error)
	Save([]*Wallet) error
}

// Manager handles wallet CRUD.
type Manager struct {
	mu      sync.Mutex
	store   Store
	keys    KeystoreBackend
	wallets map[string]*Wallet
	loaded  bool
	now     func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithInMemoryStore uses an in-memory store (useful for tests).
func WithInMemoryStore() Option {
	return func(m *Manager) { m.store = &memStore{} }
}

// WithStore sets a custom store.
func WithStore(s Store) Option {
	return func(m *Manager) { m.store = s }
}

// WithKeystore sets where signing keys are kept.
func WithKeystore(ks KeystoreBackend) Option {
	return func(m *Manager) { m.keys = ks }
}

// NewManager creates a new wallet manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		wallets: make(map[string]*Wallet),
		store:   &memStore{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Keystore returns the manager's key backend (may be nil).
func (m *Manager) Keystore() KeystoreBackend { return m.keys }

// AddWatchOnly registers an address without a key.
func (m *Manager) AddWatchOnly(name, address string) (*Wallet, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return m.add(&Wallet{
		Name:    name,
		Address: common.HexToAddress(address).Hex(),
		Type:    TypeWatchOnly,
	}, "")
}

// AddWithKey derives the address from a hex private key and stores the key
// in the keystore.
func (m *Manager) AddWithKey(name, hexKey string) (*Wallet, error) {
	privKey, err := crypto.HexToECDSA(normaliseHexKey(hexKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return m.add(&Wallet{
		Name:    name,
		Address: crypto.PubkeyToAddress(privKey.PublicKey).Hex(),
		Type:    TypeSigning,
		Source:  "key",
	}, hexKey)
}

// AddWithMnemonic derives the first account (m/44'/60'/0'/0/0) of a BIP-39
// phrase and stores its private key.
func (m *Manager) AddWithMnemonic(name, mnemonic, passphrase string) (*Wallet, error) {
	addr, hexKey, err := DeriveFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	return m.add(&Wallet{
		Name:    name,
		Address: addr,
		Type:    TypeSigning,
		Source:  "mnemonic",
	}, hexKey)
}

func (m *Manager) add(w *Wallet, hexKey string) (*Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.load(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(w.Name) == "" {
		return nil, errors.New("wallet name is required")
	}
	if _, exists := m.wallets[w.Name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrWalletExists, w.Name)
	}

	if hexKey != "" {
		if m.keys == nil {
			return nil, ErrNoKeystore
		}
		ref, err := m.keys.Store(w.Name, hexKey)
		if err != nil {
			return nil, fmt.Errorf("storing key: %w", err)
		}
		w.KeyRef = ref
	}

	w.CreatedAt = m.now().UTC().Format(time.RFC3339)
	if len(m.wallets) == 0 {
		w.IsDefault = true
	}
	m.wallets[w.Name] = w
	return w, m.persist()
}

// Get returns a wallet by name.
func (m *Manager) Get(name string) (*Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.load(); err != nil {
		return nil, err
	}
	w, ok := m.wallets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, name)
	}
	return w, nil
}

// Resolve accepts a wallet name or a raw address. An empty string resolves
// to the default wallet. Raw addresses come back as unsaved watch-only wallets.
func (m *Manager) Resolve(nameOrAddress string) (*Wallet, error) {
	if nameOrAddress == "" {
		if w := m.Default(); w != nil {
			return w, nil
		}
		return nil, fmt.Errorf("%w: no default wallet (add one with `monsend wallet add`)", ErrWalletNotFound)
	}
	if w, err := m.Get(nameOrAddress); err == nil {
		return w, nil
	}
	if common.IsHexAddress(nameOrAddress) {
		for _, w := range m.List() {
			if strings.EqualFold(w.Address, nameOrAddress) {
				return w, nil
			}
		}
		return &Wallet{Address: common.HexToAddress(nameOrAddress).Hex(), Type: TypeWatchOnly}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, nameOrAddress)
}

// Remove deletes a wallet by name along with its stored key.
func (m *Manager) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.load(); err != nil {
		return err
	}
	w, ok := m.wallets[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrWalletNotFound, name)
	}
	if w.KeyRef != "" && m.keys != nil {
		if err := m.keys.Delete(w.KeyRef); err != nil {
			return err
		}
	}
	delete(m.wallets, name)
	return m.persist()
}

// List returns all wallets sorted by name.
func (m *Manager) List() []*Wallet {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.load() //nolint:errcheck
	return m.sorted()
}

// SetDefault marks a wallet as the default.
func (m *Manager) SetDefault(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.load(); err != nil {
		return err
	}
	if _, ok := m.wallets[name]; !ok {
		return fmt.Errorf("%w: %s", ErrWalletNotFound, name)
	}
	for _, w := range m.wallets {
		w.IsDefault = w.Name == name
	}
	return m.persist()
}

// Default returns the default wallet, or nil if none.
func (m *Manager) Default() *Wallet {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.load() //nolint:errcheck
	for _, w := range m.wallets {
		if w.IsDefault {
			return w
		}
	}
	if len(m.wallets) == 1 {
		for _, w := range m.wallets {
			return w
		}
	}
	return nil
}

// --- internal ---

func (m *Manager) load() error {
	if m.loaded {
		return nil
	}
	wallets, err := m.store.Load()
	if err != nil {
		return err
	}
	for _, w := range wallets {
		m.wallets[w.Name] = w
	}
	m.loaded = true
	return nil
}

func (m *Manager) persist() error {
	return m.store.Save(m.sorted())
}

func (m *Manager) sorted() []*Wallet {
	out := make([]*Wallet, 0, len(m.wallets))
	for _, w := range m.wallets {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// --- in-memory store ---

type memStore struct {
	wallets []*Wallet
}

func (s *memStore) Load() ([]*Wallet, error) { return s.wallets, nil }

func (s *memStore) Save(wallets []*Wallet) error {
	s.wallets = wallets
	return nil
}

// --- JSON file store ---

// JSONStore persists wallets to a JSON file.
type JSONStore struct {
	path string
}

// NewJSONStore creates a JSON-backed wallet store.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Load() ([]*Wallet, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var wallets []*Wallet
	if err := json.Unmarshal(data, &wallets); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	return wallets, nil
}

func (s *JSONStore) Save(wallets []*Wallet) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(wallets, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
