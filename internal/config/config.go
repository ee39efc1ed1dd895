package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	"github.com/Mohsinsiddi/monsend/internal/chain"
	"github.com/Mohsinsiddi/monsend/internal/frame"
)

const (
	defaultAlgorithm = "fastest"
	defaultStore     = "json"
	defaultListen    = ":3000"
	defaultAppURL    = "http://localhost:3000"

	configFile  = "config.json"
	walletsFile = "wallets.json"
	dbFile      = "monsend.db"
)

// Load reads config from dir (or creates defaults). dir defaults to
// ~/.monsend; MONSEND_CONFIG_DIR overrides both. A .env file in the working
// directory is loaded first when present.
func Load(dir string) (*Config, error) {
	_ = godotenv.Load()

	var e Env
	if err := env.Parse(&e); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if e.ConfigDir != "" {
		dir = e.ConfigDir
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".monsend")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)
	cfg.env = e

	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.configDir = dir
	cfg.fillDefaults()
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath is where the wallet list is stored.
func (c *Config) WalletsPath() string { return filepath.Join(c.configDir, walletsFile) }

// DBPath is the SQLite database used by the sqlite store and the
// notification token registry.
func (c *Config) DBPath() string { return filepath.Join(c.configDir, dbFile) }

// AddRPC adds a custom RPC URL.
func (c *Config) AddRPC(url string) error {
	url = strings.TrimSpace(url)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("RPC %q must be an http(s) URL", url)
	}
	if slices.Contains(c.CustomRPCs, url) {
		return fmt.Errorf("RPC %s already exists", url)
	}
	c.CustomRPCs = append(c.CustomRPCs, url)
	return nil
}

// RemoveRPC removes a custom RPC URL.
func (c *Config) RemoveRPC(url string) error {
	idx := slices.Index(c.CustomRPCs, url)
	if idx == -1 {
		return fmt.Errorf("RPC %s not found", url)
	}
	c.CustomRPCs = slices.Delete(c.CustomRPCs, idx, idx+1)
	return nil
}

// AddToken starts tracking an ERC-20 contract.
func (c *Config) AddToken(addr string) error {
	var err error
	c.Tokens, err = addAddress(c.Tokens, addr)
	return err
}

// AddNFT starts tracking an ERC-721 contract.
func (c *Config) AddNFT(addr string) error {
	var err error
	c.NFTs, err = addAddress(c.NFTs, addr)
	return err
}

func addAddress(list []string, addr string) ([]string, error) {
	addr = strings.TrimSpace(addr)
	if !common.IsHexAddress(addr) {
		return list, fmt.Errorf("invalid contract address %q", addr)
	}
	addr = common.HexToAddress(addr).Hex()
	for _, a := range list {
		if strings.EqualFold(a, addr) {
			return list, fmt.Errorf("%s is already tracked", addr)
		}
	}
	return append(list, addr), nil
}

// Network returns Monad Testnet with the MONAD_RPC_URL and MONAD_EXPLORER
// overrides applied.
func (c *Config) Network() chain.Network {
	return chain.MonadTestnet.WithOverrides(c.env.RPCURL, c.env.ExplorerURL)
}

// RPCURLs returns the network RPC followed by the custom ones.
func (c *Config) RPCURLs() []string {
	return append([]string{c.Network().RPCURL}, c.CustomRPCs...)
}

// StoreBackend returns the history backend, environment first.
func (c *Config) StoreBackend() string { return firstNonEmpty(c.env.Store, c.Store, defaultStore) }

// StoreDSN returns the Postgres DSN, environment first.
func (c *Config) StoreDSN() string { return firstNonEmpty(c.env.DSN, c.DSN) }

// ListenAddr returns the HTTP listen address.
func (c *Config) ListenAddr() string {
	return firstNonEmpty(c.env.Listen, c.Server.Listen, defaultListen)
}

// AppURL returns the public URL of the mini app.
func (c *Config) AppURL() string {
	return strings.TrimRight(firstNonEmpty(c.env.AppURL, c.Server.AppURL, defaultAppURL), "/")
}

// Level returns the configured log level name, environment first.
func (c *Config) Level() string { return firstNonEmpty(c.env.LogLevel, c.LogLevel, "info") }

// FrameConfig returns the frame listing rooted at AppURL.
func (c *Config) FrameConfig() frame.Config {
	f := c.Frame
	f.AppURL = c.AppURL()
	return f
}

// PollInterval returns the tracker poll interval.
func (c *Config) PollInterval() time.Duration { return seconds(c.Tracker.PollSeconds) }

// TrackTimeout returns the tracker ceiling.
func (c *Config) TrackTimeout() time.Duration { return seconds(c.Tracker.TimeoutSeconds) }

// Intervals returns the refresh intervals keyed by kind name.
func (c *Config) Intervals() map[string]time.Duration {
	return map[string]time.Duration{
		"balance": seconds(c.Refresh.Balance),
		"tokens":  seconds(c.Refresh.Tokens),
		"nfts":    seconds(c.Refresh.NFTs),
		"history": seconds(c.Refresh.History),
	}
}

// --- helpers ---

func defaults(dir string) *Config {
	c := &Config{configDir: dir}
	c.fillDefaults()
	return c
}

func (c *Config) fillDefaults() {
	if c.RPCAlgorithm == "" {
		c.RPCAlgorithm = defaultAlgorithm
	}
	if c.Store == "" {
		c.Store = defaultStore
	}
	setDefault(&c.Refresh.Balance, 10)
	setDefault(&c.Refresh.Tokens, 10)
	setDefault(&c.Refresh.NFTs, 60)
	setDefault(&c.Refresh.History, 30)
	setDefault(&c.Tracker.PollSeconds, 2)
	setDefault(&c.Tracker.TimeoutSeconds, 300)
	if c.Scan.Window == 0 {
		c.Scan.Window = 1000
	}
	if c.Scan.MaxBlocks == 0 {
		c.Scan.MaxBlocks = 50
	}
	setDefault(&c.Scan.RPS, 20)
	if c.Frame.Name == "" {
		assoc := c.Frame.AccountAssociation
		c.Frame = frame.DefaultConfig("")
		c.Frame.AccountAssociation = assoc
	}
}

func setDefault(v *int, d int) {
	if *v <= 0 {
		*v = d
	}
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
