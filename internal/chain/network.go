package chain

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when the node has no record of a block or transaction.
var ErrNotFound = errors.New("not found")

// NativeAddress is the marker used in place of a contract address for the
// chain's base currency.
const NativeAddress = "native"

// Network holds the metadata for the single chain the wallet operates on.
type Network struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	NativeName     string `json:"native_name"`
	NativeSymbol   string `json:"native_symbol"`
	NativeDecimals int    `json:"native_decimals"`
	RPCURL         string `json:"rpc_url"`
	ExplorerName   string `json:"explorer_name"`
	ExplorerURL    string `json:"explorer_url"`
}

// MonadTestnet is the network the mini app is bound to.
var MonadTestnet = Network{
	ID:             10143,
	Name:           "Monad Testnet",
	Slug:           "monad-testnet",
	NativeName:     "Monad",
	NativeSymbol:   "MON",
	NativeDecimals: 18,
	RPCURL:         "https://testnet-rpc.monad.xyz",
	ExplorerName:   "Monad Explorer",
	ExplorerURL:    "https://testnet.monadexplorer.com",
}

// WithOverrides returns a copy of n with the RPC and explorer URLs replaced
// when the given values are non-empty.
func (n Network) WithOverrides(rpcURL, explorerURL string) Network {
	if rpcURL = strings.TrimSpace(rpcURL); rpcURL != "" {
		n.RPCURL = rpcURL
	}
	if explorerURL = strings.TrimSpace(explorerURL); explorerURL != "" {
		n.ExplorerURL = strings.TrimRight(explorerURL, "/")
	}
	return n
}

// TxURL returns the explorer link for a transaction hash.
func (n Network) TxURL(hash string) string {
	return n.ExplorerURL + "/tx/" + hash
}

// AddressURL returns the explorer link for an address.
func (n Network) AddressURL(addr string) string {
	return n.ExplorerURL + "/address/" + addr
}
