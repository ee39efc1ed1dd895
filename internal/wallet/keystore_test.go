package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormaliseHexKey(t *testing.T) {
	assert.Equal(t, "abc123", normaliseHexKey("0xabc123"))
	assert.Equal(t, "abc123", normaliseHexKey("0Xabc123"))
	assert.Equal(t, "abc", normaliseHexKey("  0xabc  "))
	assert.Equal(t, "", normaliseHexKey("0x"))
	assert.Equal(t, "", normaliseHexKey(""))
}

func TestFileKeystoreRoundTrip(t *testing.T) {
	ks, err := OpenFileKeystore(t.TempDir(), "testpass")
	require.NoError(t, err)

	ref, err := ks.Store("main", "0xdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, "monsend.main", ref)

	got, err := ks.Retrieve(ref)
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", got)

	require.NoError(t, ks.Delete(ref))
	_, err = ks.Retrieve(ref)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, ks.Delete(ref), "deleting twice is fine")
}

func TestInMemoryKeystore(t *testing.T) {
	ks := NewInMemoryKeystore()
	ref, err := ks.Store("w", "0xabc")
	require.NoError(t, err)

	got, err := ks.Retrieve(ref)
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	require.NoError(t, ks.Delete(ref))
	_, err = ks.Retrieve(ref)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestDeriveFromMnemonic(t *testing.T) {
	addr, key, err := DeriveFromMnemonic("  Test test test test test test test test test test test JUNK ", "")
	require.NoError(t, err)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", addr)
	assert.Equal(t, "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80", key)
}

func TestDeriveFromMnemonicInvalid(t *testing.T) {
	_, _, err := DeriveFromMnemonic("not a real phrase at all", "")
	assert.ErrorIs(t, err, ErrInvalidMnemonic)
	assert.False(t, IsMnemonic("hello world"))
	assert.True(t, IsMnemonic("test test test test test test test test test test test junk"))
}
