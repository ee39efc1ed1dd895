package cmd

import (
	"context"
	"math/big"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/monsend/internal/chain"
	"github.com/Mohsinsiddi/monsend/internal/token"
	"github.com/Mohsinsiddi/monsend/internal/wallet"
)

const usdcAddr = "0xf817257fed379853cDe0fa4F97AB987181B1E5Ea"

func sampleTokens() []token.Token {
	return []token.Token{
		{Address: chain.NativeAddress, Symbol: "MON", Decimals: 18, Balance: "2", Raw: big.NewInt(2), Native: true},
		{Address: usdcAddr, Symbol: "USDC", Decimals: 6, Balance: "10", Raw: big.NewInt(10_000_000)},
	}
}

// ---------------------------------------------------------------------------
// command tree
// ---------------------------------------------------------------------------

func TestCommandsRegistered(t *testing.T) {
	paths := [][]string{
		{"wallet", "add"}, {"wallet", "list"}, {"wallet", "remove"}, {"wallet", "use"}, {"wallet", "show"},
		{"balance"}, {"tokens"}, {"token", "verify"}, {"nfts"}, {"history"}, {"watch"},
		{"send"}, {"status"},
		{"config", "list"}, {"config", "set-rpc"}, {"config", "set-algorithm"}, {"config", "rpcs"},
		{"config", "add-token"}, {"config", "add-nft"},
		{"serve"}, {"notify"}, {"frame", "manifest"}, {"frame", "associate"},
	}
	for _, p := range paths {
		c, _, err := rootCmd.Find(p)
		require.NoError(t, err, p)
		assert.Equal(t, p[len(p)-1], c.Name(), p)
	}
}

func TestHistoryAlias(t *testing.T) {
	c, _, err := rootCmd.Find([]string{"txs"})
	require.NoError(t, err)
	assert.Equal(t, "history", c.Name())
}

func TestSendFlags(t *testing.T) {
	for _, name := range []string{"to", "amount", "token", "wallet", "yes", "plain"} {
		assert.NotNil(t, sendCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "y", sendCmd.Flags().Lookup("yes").Shorthand)
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func TestDecimalsOfSkipsNative(t *testing.T) {
	got := decimalsOf(sampleTokens())
	assert.Equal(t, map[string]int{"0xf817257fed379853cde0fa4f97ab987181b1e5ea": 6}, got)
}

func TestWalletTypeLabel(t *testing.T) {
	assert.Equal(t, "watch-only", walletTypeLabel(&wallet.Wallet{Type: wallet.TypeWatchOnly}))
	assert.Equal(t, "mnemonic", walletTypeLabel(&wallet.Wallet{Type: wallet.TypeSigning, Source: "mnemonic"}))
	assert.Equal(t, "signing", walletTypeLabel(&wallet.Wallet{Type: wallet.TypeSigning, Source: "key"}))
}

func TestSelectTokenMatchesListedTokens(t *testing.T) {
	defer func(old string) { sendToken = old }(sendToken)

	cases := []struct{ want, symbol string }{
		{"native", "MON"},
		{"mon", "MON"},
		{"USDC", "USDC"},
		{"usdc", "USDC"},
		{usdcAddr, "USDC"},
		{"0xF817257FED379853CDE0FA4F97AB987181B1E5EA", "USDC"},
	}
	for _, tc := range cases {
		want, symbol := tc.want, tc.symbol
		sendToken = want
		tk, err := selectToken(context.Background(), nil, "", sampleTokens())
		require.NoError(t, err, want)
		require.NotNil(t, tk, want)
		assert.Equal(t, symbol, tk.Symbol, want)
	}
}

func TestNewLoggerLevels(t *testing.T) {
	assert.Equal(t, log.WarnLevel, newLogger("warn", false).GetLevel())
	assert.Equal(t, log.InfoLevel, newLogger("loud", false).GetLevel())
	assert.Equal(t, log.DebugLevel, newLogger("error", true).GetLevel())
}
