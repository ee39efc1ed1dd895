package config

import "github.com/Mohsinsiddi/monsend/internal/frame"

// Config holds all monsend configuration stored in config.json.
type Config struct {
	DefaultWallet string   `json:"default_wallet"`
	RPCAlgorithm  string   `json:"rpc_algorithm"` // "fastest" | "round-robin" | "failover"
	CustomRPCs    []string `json:"custom_rpcs"`
	Tokens        []string `json:"tokens"` // tracked ERC-20 contracts
	NFTs          []string `json:"nfts"`   // tracked ERC-721 contracts

	Refresh RefreshConfig `json:"refresh"`
	Tracker TrackerConfig `json:"tracker"`
	Scan    ScanConfig    `json:"scan"`

	Store    string `json:"store"` // "json" | "sqlite" | "postgres"
	DSN      string `json:"dsn,omitempty"`
	LogLevel string `json:"log_level,omitempty"`

	Server ServerConfig `json:"server"`
	Frame  frame.Config `json:"frame"`

	// internal: config dir path used for Save()
	configDir string
	env       Env
}

// RefreshConfig holds refresh intervals in seconds.
type RefreshConfig struct {
	Balance int `json:"balance"`
	Tokens  int `json:"tokens"`
	NFTs    int `json:"nfts"`
	History int `json:"history"`
}

// TrackerConfig holds the receipt poll settings in seconds.
type TrackerConfig struct {
	PollSeconds    int `json:"poll_seconds"`
	TimeoutSeconds int `json:"timeout_seconds"`
}

// ScanConfig bounds the history block scan.
type ScanConfig struct {
	Window    uint64 `json:"window"`
	MaxBlocks uint64 `json:"max_blocks"`
	RPS       int    `json:"rps"` // block fetches per second
}

// ServerConfig configures `monsend serve`.
type ServerConfig struct {
	Listen string `json:"listen"`
	AppURL string `json:"app_url"`
}

// Env is the environment overlay. Values set here win over config.json but
// are never written back to it.
type Env struct {
	RPCURL      string `env:"MONAD_RPC_URL"`
	ExplorerURL string `env:"MONAD_EXPLORER"`
	Store       string `env:"MONSEND_STORE"`
	DSN         string `env:"MONSEND_DSN"`
	Listen      string `env:"MONSEND_LISTEN"`
	AppURL      string `env:"MONSEND_APP_URL"`
	LogLevel    string `env:"MONSEND_LOG_LEVEL"`
	ConfigDir   string `env:"MONSEND_CONFIG_DIR"`
}
