package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonadTestnetDefaults(t *testing.T) {
	assert.Equal(t, int64(10143), MonadTestnet.ID)
	assert.Equal(t, "MON", MonadTestnet.NativeSymbol)
	assert.Equal(t, 18, MonadTestnet.NativeDecimals)
}

func TestWithOverrides(t *testing.T) {
	n := MonadTestnet.WithOverrides(" https://rpc.example ", "https://explorer.example/")
	assert.Equal(t, "https://rpc.example", n.RPCURL)
	assert.Equal(t, "https://explorer.example", n.ExplorerURL)
	assert.Equal(t, "https://testnet-rpc.monad.xyz", MonadTestnet.RPCURL, "original must not change")
}

func TestWithOverridesEmptyKeepsDefaults(t *testing.T) {
	n := MonadTestnet.WithOverrides("", "  ")
	assert.Equal(t, MonadTestnet, n)
}

func TestExplorerLinks(t *testing.T) {
	assert.Equal(t, "https://testnet.monadexplorer.com/tx/0xabc", MonadTestnet.TxURL("0xabc"))
	assert.Equal(t, "https://testnet.monadexplorer.com/address/0xdef", MonadTestnet.AddressURL("0xdef"))
}
