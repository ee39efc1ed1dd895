package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Mohsinsiddi/monsend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "fastest", cfg.RPCAlgorithm)
	assert.Equal(t, "json", cfg.StoreBackend())
	assert.Equal(t, 2*time.Second, cfg.PollInterval())
	assert.Equal(t, 5*time.Minute, cfg.TrackTimeout())
	assert.Equal(t, uint64(1000), cfg.Scan.Window)
	assert.Equal(t, uint64(50), cfg.Scan.MaxBlocks)
	assert.Equal(t, 20, cfg.Scan.RPS)
	assert.Equal(t, 10*time.Second, cfg.Intervals()["tokens"])
	assert.Equal(t, 60*time.Second, cfg.Intervals()["nfts"])
	assert.Equal(t, "MONSEND", cfg.Frame.Name)
	assert.Equal(t, ":3000", cfg.ListenAddr())
}

func TestSaveAndReloadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	cfg.DefaultWallet = "mywallet"
	cfg.RPCAlgorithm = "round-robin"
	cfg.Tracker.TimeoutSeconds = 60
	cfg.Frame.AccountAssociation.Header = "hdr"
	require.NoError(t, cfg.Save())

	info, err := os.Stat(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reloaded, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "mywallet", reloaded.DefaultWallet)
	assert.Equal(t, "round-robin", reloaded.RPCAlgorithm)
	assert.Equal(t, time.Minute, reloaded.TrackTimeout())
	assert.Equal(t, "hdr", reloaded.Frame.AccountAssociation.Header)
}

func TestPartialFileGetsDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"tokens":["0x1111111111111111111111111111111111111111"]}`), 0o600))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Len(t, cfg.Tokens, 1)
	assert.Equal(t, "fastest", cfg.RPCAlgorithm)
	assert.Equal(t, 2*time.Second, cfg.PollInterval())
}

func TestCorruptFileErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{`), 0o600))
	_, err := config.Load(dir)
	assert.ErrorContains(t, err, "parsing config")
}

func TestCustomRPCs(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cfg.AddRPC("https://rpc1.example"))
	require.NoError(t, cfg.AddRPC("https://rpc2.example"))
	assert.Error(t, cfg.AddRPC("https://rpc1.example"), "duplicate")
	assert.Error(t, cfg.AddRPC("ftp://nope"))

	assert.Equal(t, []string{"https://testnet-rpc.monad.xyz", "https://rpc1.example", "https://rpc2.example"}, cfg.RPCURLs())

	require.NoError(t, cfg.RemoveRPC("https://rpc1.example"))
	assert.NotContains(t, cfg.CustomRPCs, "https://rpc1.example")
	assert.Error(t, cfg.RemoveRPC("https://nonexistent.rpc"))
}

func TestAddTokenAndNFT(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cfg.AddToken("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"))
	assert.Equal(t, []string{"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"}, cfg.Tokens)
	assert.Error(t, cfg.AddToken("0xF39FD6E51AAD88F6F4CE6AB8827279CFFFB92266"), "duplicate regardless of case")
	assert.Error(t, cfg.AddToken("not-an-address"))

	require.NoError(t, cfg.AddNFT("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"))
	assert.Len(t, cfg.NFTs, 1)
}

func TestEnvironmentOverlay(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MONAD_RPC_URL", "https://private.rpc")
	t.Setenv("MONAD_EXPLORER", "https://explorer.example/")
	t.Setenv("MONSEND_STORE", "sqlite")
	t.Setenv("MONSEND_APP_URL", "https://app.example/")
	t.Setenv("MONSEND_LOG_LEVEL", "debug")

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	n := cfg.Network()
	assert.Equal(t, int64(10143), n.ID)
	assert.Equal(t, "https://private.rpc", n.RPCURL)
	assert.Equal(t, "https://explorer.example/tx/0xabc", n.TxURL("0xabc"))
	assert.Equal(t, "sqlite", cfg.StoreBackend())
	assert.Equal(t, "https://app.example", cfg.AppURL())
	assert.Equal(t, "https://app.example", cfg.FrameConfig().AppURL)
	assert.Equal(t, "debug", cfg.Level())

	// Overlay values are not persisted.
	require.NoError(t, cfg.Save())
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "private.rpc")
	assert.NotContains(t, string(data), "sqlite")
}

func TestConfigDirFromEnvironment(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "from-env")
	t.Setenv("MONSEND_CONFIG_DIR", dir)

	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Dir())
	assert.Equal(t, filepath.Join(dir, "wallets.json"), cfg.WalletsPath())
	assert.Equal(t, filepath.Join(dir, "monsend.db"), cfg.DBPath())
}

func TestLoadFromNonExistentDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "subdir")
	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}
