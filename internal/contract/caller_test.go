package contract

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/monsend/internal/chain"
)

// fakeReader answers eth_call by selector.
type fakeReader struct {
	bySelector map[string][]byte
	err        error
	calls      []chain.CallMsg
}

func (f *fakeReader) Call(_ context.Context, msg chain.CallMsg) ([]byte, error) {
	f.calls = append(f.calls, msg)
	if f.err != nil {
		return nil, f.err
	}
	return f.bySelector[hex.EncodeToString(msg.Data[:4])], nil
}

func uintWord(n int64) []byte {
	return big.NewInt(n).FillBytes(make([]byte, 32))
}

const holder = "0x1111111111111111111111111111111111111111"

func TestCallerUint(t *testing.T) {
	r := &fakeReader{bySelector: map[string][]byte{"70a08231": uintWord(42)}}
	n, err := NewERC20Caller(r).Uint(context.Background(), "0xtoken", "balanceOf", holder)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n.Int64())
	require.Len(t, r.calls, 1)
	assert.Equal(t, "0xtoken", r.calls[0].To)
}

func TestCallerString(t *testing.T) {
	r := &fakeReader{bySelector: map[string][]byte{"06fdde03": abiString("Monad Punks")}}
	name, err := NewERC721Caller(r).String(context.Background(), "0xnft", "name")
	require.NoError(t, err)
	assert.Equal(t, "Monad Punks", name)
}

func TestCallerRejectsWriteFunction(t *testing.T) {
	_, err := NewERC20Caller(&fakeReader{}).Call(context.Background(), "0xtoken", "transfer", holder, "1")
	assert.ErrorContains(t, err, "not a read function")
}

func TestCallerUnknownFunction(t *testing.T) {
	_, err := NewERC20Caller(&fakeReader{}).Call(context.Background(), "0xtoken", "mint")
	assert.ErrorContains(t, err, "not found")
}

func TestCallerEmptyReturnData(t *testing.T) {
	_, err := NewERC20Caller(&fakeReader{}).Uint(context.Background(), "0xeoa", "decimals")
	assert.ErrorContains(t, err, "empty return data")
}

func TestCallerWrapsReaderError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewERC20Caller(&fakeReader{err: boom}).Uint(context.Background(), "0xtoken", "decimals")
	assert.ErrorIs(t, err, boom)
}

func TestPack(t *testing.T) {
	data, err := Pack(Builtin(ERC20), "transfer", holder, "5")
	require.NoError(t, err)
	assert.Len(t, data, 68)

	_, err = Pack(Builtin(ERC20), "approve", holder, "5")
	assert.Error(t, err)
}
