package history

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/monsend/internal/chain"
)

// fakeChain serves synthetic blocks and records which heights were asked for.
type fakeChain struct {
	latest    uint64
	latestErr error
	blocks    map[uint64]*chain.Block
	failing   map[uint64]bool

	mu        sync.Mutex
	requested []uint64
}

func (f *fakeChain) BlockNumber(context.Context) (uint64, error) { return f.latest, f.latestErr }

func (f *fakeChain) BlockByNumber(_ context.Context, n uint64) (*chain.Block, error) {
	f.mu.Lock()
	f.requested = append(f.requested, n)
	f.mu.Unlock()
	if f.failing[n] {
		return nil, errors.New("block unavailable")
	}
	if b, ok := f.blocks[n]; ok {
		return b, nil
	}
	return &chain.Block{Number: n, Timestamp: n * 10}, nil
}

const other = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

func TestScanMatchesOwnerCaseInsensitive(t *testing.T) {
	fc := &fakeChain{
		latest: 100,
		blocks: map[uint64]*chain.Block{
			100: {Number: 100, Timestamp: 1000, Transactions: []*chain.Transaction{
				{Hash: "0xsent", From: "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266", To: other, Value: big.NewInt(1)},
				{Hash: "0xunrelated", From: other, To: other, Value: big.NewInt(2)},
			}},
			98: {Number: 98, Timestamp: 980, Transactions: []*chain.Transaction{
				{Hash: "0xrecv", From: other, To: "0xF39FD6E51AAD88F6F4CE6AB8827279CFFFB92266", Value: big.NewInt(3)},
			}},
		},
	}

	out, err := NewScanner(fc).Scan(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "0xsent", out[0].Hash)
	assert.Equal(t, DirectionSent, out[0].Direction)
	assert.Equal(t, uint64(100), *out[0].BlockNumber)
	assert.Equal(t, int64(1000), out[0].Timestamp)
	assert.Equal(t, StatusConfirmed, out[0].Status)
	assert.Equal(t, "MON", out[0].TokenSymbol)
	assert.Equal(t, chain.NativeAddress, out[0].TokenAddress)

	assert.Equal(t, "0xrecv", out[1].Hash)
	assert.Equal(t, DirectionReceived, out[1].Direction)
}

func TestScanCapsAtMaxBlocks(t *testing.T) {
	fc := &fakeChain{latest: 5000}
	_, err := NewScanner(fc).Scan(context.Background(), owner)
	require.NoError(t, err)
	assert.Len(t, fc.requested, DefaultMaxBlocks)
	for _, n := range fc.requested {
		assert.True(t, n > 5000-DefaultMaxBlocks && n <= 5000, "block %d out of range", n)
	}
}

func TestScanShortChain(t *testing.T) {
	fc := &fakeChain{latest: 3}
	_, err := NewScanner(fc).Scan(context.Background(), owner)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{3, 2, 1}, fc.requested)
}

func TestScanCustomBounds(t *testing.T) {
	fc := &fakeChain{latest: 500}
	_, err := NewScanner(fc, WithBounds(10, 200)).Scan(context.Background(), owner)
	require.NoError(t, err)
	assert.Len(t, fc.requested, 10)
}

func TestScanSkipsFailingBlocks(t *testing.T) {
	fc := &fakeChain{
		latest:  10,
		failing: map[uint64]bool{10: true},
		blocks: map[uint64]*chain.Block{
			9: {Number: 9, Transactions: []*chain.Transaction{{Hash: "0xok", From: owner, To: other, Value: big.NewInt(1)}}},
		},
	}
	out, err := NewScanner(fc).Scan(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "0xok", out[0].Hash)
}

func TestScanLatestFailure(t *testing.T) {
	fc := &fakeChain{latestErr: errors.New("rpc down")}
	_, err := NewScanner(fc).Scan(context.Background(), owner)
	assert.ErrorContains(t, err, "rpc down")
}

func TestScanRequiresOwner(t *testing.T) {
	_, err := NewScanner(&fakeChain{latest: 1}).Scan(context.Background(), " ")
	assert.Error(t, err)
}

func TestScanRateLimitPacesBlockFetches(t *testing.T) {
	fc := &fakeChain{latest: 100}

	start := time.Now()
	_, err := NewScanner(fc, WithBounds(0, 6), WithRateLimit(20)).Scan(context.Background(), owner)
	require.NoError(t, err)

	// burst of 20 covers all six fetches
	assert.Less(t, time.Since(start), time.Second)
	assert.Len(t, fc.requested, 6)
}

func TestScanRateLimitStopsOnCancel(t *testing.T) {
	fc := &fakeChain{latest: 100}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewScanner(fc, WithBounds(0, 50), WithRateLimit(1)).Scan(ctx, owner)
	require.Error(t, err)

	fc.mu.Lock()
	defer fc.mu.Unlock()
	assert.Less(t, len(fc.requested), 50)
}
