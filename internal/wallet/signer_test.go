package wallet

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPrivKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testSignerAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func signingWallet(t *testing.T) (*Wallet, KeystoreBackend) {
	t.Helper()
	ks := NewInMemoryKeystore()
	ref, err := ks.Store("main", testPrivKeyHex)
	require.NoError(t, err)
	return &Wallet{Name: "main", Address: testSignerAddr, Type: TypeSigning, KeyRef: ref}, ks
}

func TestSignTxRecoversSender(t *testing.T) {
	w, ks := signingWallet(t)
	to := common.HexToAddress("0x000000000000000000000000000000000000dEaD")
	chainID := big.NewInt(10143)

	raw, err := NewSigner(w, ks).SignTx(types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     3,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2),
		Gas:       21000,
		To:        &to,
		Value:     big.NewInt(5),
	}), chainID)
	require.NoError(t, err)

	var tx types.Transaction
	require.NoError(t, tx.UnmarshalBinary(raw))
	from, err := types.Sender(types.NewLondonSigner(chainID), &tx)
	require.NoError(t, err)
	assert.Equal(t, testSignerAddr, from.Hex())
	assert.Equal(t, uint64(3), tx.Nonce())
}

func TestSignTxWatchOnly(t *testing.T) {
	w := &Wallet{Name: "watch", Address: testSignerAddr, Type: TypeWatchOnly}
	_, err := NewSigner(w, NewInMemoryKeystore()).SignTx(types.NewTx(&types.DynamicFeeTx{}), big.NewInt(1))
	assert.ErrorContains(t, err, "watch-only")
}

func TestSignTxMissingKey(t *testing.T) {
	w := &Wallet{Name: "gone", Address: testSignerAddr, Type: TypeSigning, KeyRef: "monsend.gone"}
	_, err := NewSigner(w, NewInMemoryKeystore()).SignTx(types.NewTx(&types.DynamicFeeTx{}), big.NewInt(1))
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestSignMessageRoundTrip(t *testing.T) {
	w, ks := signingWallet(t)
	msg := []byte("monsend.example.com")

	sig, err := NewSigner(w, ks).SignMessage(msg)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64])

	addr, err := VerifyMessage(msg, sig)
	require.NoError(t, err)
	assert.Equal(t, testSignerAddr, addr.Hex())
}

func TestVerifyMessageBadLength(t *testing.T) {
	_, err := VerifyMessage([]byte("x"), []byte{1, 2, 3})
	assert.ErrorContains(t, err, "invalid signature length")
}
