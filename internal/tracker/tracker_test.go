package tracker

import (
	"context"
	"errors"
	"io"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/monsend/internal/chain"
	"github.com/Mohsinsiddi/monsend/internal/history"
)

const (
	sender    = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	recipient = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

// scriptedChain returns receipts from a script, one entry per poll. After the
// script runs out the last entry repeats.
type scriptedChain struct {
	mu       sync.Mutex
	script   []step
	polls    int
	tx       *chain.Transaction
	txLookup int
}

type step struct {
	receipt *chain.Receipt
	err     error
}

func (s *scriptedChain) TransactionReceipt(ctx context.Context, _ string) (*chain.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.script) == 0 {
		s.polls++
		return nil, nil
	}
	i := min(s.polls, len(s.script)-1)
	s.polls++
	return s.script[i].receipt, s.script[i].err
}

func (s *scriptedChain) TransactionByHash(context.Context, string) (*chain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txLookup++
	if s.tx == nil {
		return nil, chain.ErrNotFound
	}
	return s.tx, nil
}

func (s *scriptedChain) pollCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

// statusLog collects OnChange callbacks.
type statusLog struct {
	mu       sync.Mutex
	statuses []history.Status
}

func (l *statusLog) record(r history.Record) {
	l.mu.Lock()
	l.statuses = append(l.statuses, r.Status)
	l.mu.Unlock()
}

func (l *statusLog) all() []history.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]history.Status(nil), l.statuses...)
}

func newTracker(c ChainReader, store *history.MemStore, changes *statusLog, timeout time.Duration) *Tracker {
	return New(c, history.NewBook(store),
		WithPollInterval(5*time.Millisecond),
		WithTimeout(timeout),
		WithOnChange(changes.record),
		WithLogger(log.New(io.Discard)),
	)
}

func nativeSubmission(hash string) Submission {
	return Submission{Hash: hash, From: sender, To: recipient, Value: big.NewInt(15)}
}

func TestTrackConfirmed(t *testing.T) {
	c := &scriptedChain{
		script: []step{{}, {}, {receipt: &chain.Receipt{Status: 1, BlockNumber: 77}}},
		tx:     &chain.Transaction{From: sender, To: recipient, Value: big.NewInt(1500)},
	}
	store, changes := history.NewMemStore(), &statusLog{}

	rec, err := newTracker(c, store, changes, time.Second).Track(context.Background(), nativeSubmission("0xaaa"))
	require.NoError(t, err)

	assert.Equal(t, history.StatusConfirmed, rec.Status)
	require.NotNil(t, rec.BlockNumber)
	assert.Equal(t, uint64(77), *rec.BlockNumber)
	assert.Equal(t, int64(1500), rec.Value.Int64(), "value backfilled from the canonical transaction")
	assert.Equal(t, "MON", rec.TokenSymbol)
	assert.Equal(t, history.DirectionSent, rec.Direction)
	assert.NotZero(t, rec.Timestamp)

	assert.Equal(t, []history.Status{history.StatusPending, history.StatusConfirmed}, changes.all())

	stored, err := store.Load(context.Background(), history.Key(sender))
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, history.StatusConfirmed, stored[0].Status)
}

func TestTrackReverted(t *testing.T) {
	c := &scriptedChain{script: []step{{receipt: &chain.Receipt{Status: 0, BlockNumber: 5}}}}
	store, changes := history.NewMemStore(), &statusLog{}

	rec, err := newTracker(c, store, changes, time.Second).Track(context.Background(), nativeSubmission("0xbad"))
	require.NoError(t, err)
	assert.Equal(t, history.StatusFailed, rec.Status)
	assert.Equal(t, 0, c.txLookup)
	assert.Equal(t, []history.Status{history.StatusPending, history.StatusFailed}, changes.all())
}

func TestTrackRPCErrorsKeepPolling(t *testing.T) {
	boom := errors.New("rate limited")
	c := &scriptedChain{script: []step{{err: boom}, {err: boom}, {receipt: &chain.Receipt{Status: 1}}}}

	rec, err := newTracker(c, history.NewMemStore(), &statusLog{}, time.Second).Track(context.Background(), nativeSubmission("0xccc"))
	require.NoError(t, err)
	assert.Equal(t, history.StatusConfirmed, rec.Status)
	assert.GreaterOrEqual(t, c.pollCount(), 3)
}

func TestTrackTimeoutFailsExactlyOnce(t *testing.T) {
	c := &scriptedChain{} // never a receipt
	store, changes := history.NewMemStore(), &statusLog{}

	rec, err := newTracker(c, store, changes, 40*time.Millisecond).Track(context.Background(), nativeSubmission("0xlost"))
	require.NoError(t, err)
	assert.Equal(t, history.StatusFailed, rec.Status)
	assert.Nil(t, rec.BlockNumber)

	assert.Equal(t, []history.Status{history.StatusPending, history.StatusFailed}, changes.all())
	assert.Equal(t, 2, store.Saves())

	// Polling has stopped: nothing more is requested or written.
	polls := c.pollCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, polls, c.pollCount())
	assert.Equal(t, 2, store.Saves())
}

func TestTrackAlreadyTerminalIsIdempotent(t *testing.T) {
	store := history.NewMemStore()
	book := history.NewBook(store)
	bn := uint64(3)
	confirmed := history.Record{
		Hash: "0xdone", From: sender, To: recipient, Value: big.NewInt(1),
		Timestamp: 10, BlockNumber: &bn, Direction: history.DirectionSent, Status: history.StatusConfirmed,
	}
	require.NoError(t, book.Put(context.Background(), sender, confirmed))
	writes := store.Saves()

	c := &scriptedChain{}
	changes := &statusLog{}
	rec, err := newTracker(c, store, changes, time.Second).Track(context.Background(), nativeSubmission("0xDONE"))
	require.NoError(t, err)

	assert.Equal(t, confirmed, rec)
	assert.Equal(t, writes, store.Saves())
	assert.Zero(t, c.pollCount())
	assert.Empty(t, changes.all())

	stored, err := book.List(context.Background(), sender)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestTrackResumesKnownPendingRecord(t *testing.T) {
	store := history.NewMemStore()
	book := history.NewBook(store)
	submitted := time.Now().Unix()
	require.NoError(t, book.Put(context.Background(), sender, history.Record{
		Hash: "0xresume", From: sender, Value: big.NewInt(1), Timestamp: submitted, Status: history.StatusPending,
	}))

	c := &scriptedChain{script: []step{{receipt: &chain.Receipt{Status: 1}}}}
	rec, err := newTracker(c, store, &statusLog{}, time.Minute).Track(context.Background(), nativeSubmission("0xresume"))
	require.NoError(t, err)
	assert.Equal(t, history.StatusConfirmed, rec.Status)
	assert.Equal(t, submitted, rec.Timestamp, "original submission time is kept")
}

func TestTrackResumedCeilingCountsFromSubmission(t *testing.T) {
	store := history.NewMemStore()
	book := history.NewBook(store)
	submitted := time.Now().Add(-4*time.Minute - 59*time.Second)
	require.NoError(t, book.Put(context.Background(), sender, history.Record{
		Hash: "0xold", From: sender, Value: big.NewInt(1), Timestamp: submitted.Unix(), Status: history.StatusPending,
	}))

	c, changes := &scriptedChain{}, &statusLog{}
	start := time.Now()
	rec, err := newTracker(c, store, changes, 5*time.Minute).Track(context.Background(), nativeSubmission("0xold"))
	require.NoError(t, err)

	assert.Equal(t, history.StatusFailed, rec.Status)
	assert.Less(t, time.Since(start), 3*time.Second, "only the unspent part of the ceiling is waited")
	assert.Equal(t, []history.Status{history.StatusFailed}, changes.all())
}

func TestTrackResumedPastCeilingChecksOnce(t *testing.T) {
	store := history.NewMemStore()
	book := history.NewBook(store)
	stale := time.Now().Add(-time.Hour).Unix()
	require.NoError(t, book.Put(context.Background(), sender, history.Record{
		Hash: "0xlate", From: sender, Value: big.NewInt(1), Timestamp: stale, Status: history.StatusPending,
	}))
	require.NoError(t, book.Put(context.Background(), sender, history.Record{
		Hash: "0xlost", From: sender, Value: big.NewInt(1), Timestamp: stale, Status: history.StatusPending,
	}))

	mined := &scriptedChain{script: []step{{receipt: &chain.Receipt{Status: 1, BlockNumber: 9}}}}
	rec, err := newTracker(mined, store, &statusLog{}, time.Minute).Track(context.Background(), nativeSubmission("0xlate"))
	require.NoError(t, err)
	assert.Equal(t, history.StatusConfirmed, rec.Status)
	assert.Equal(t, 1, mined.pollCount())

	missing := &scriptedChain{}
	rec, err = newTracker(missing, store, &statusLog{}, time.Minute).Track(context.Background(), nativeSubmission("0xlost"))
	require.NoError(t, err)
	assert.Equal(t, history.StatusFailed, rec.Status)
	assert.Equal(t, 1, missing.pollCount())
}

func TestTrackCancelledStopsWithoutWriting(t *testing.T) {
	c := &scriptedChain{}
	store, changes := history.NewMemStore(), &statusLog{}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	rec, err := newTracker(c, store, changes, time.Minute).Track(ctx, nativeSubmission("0xgone"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, history.StatusPending, rec.Status)
	assert.Equal(t, []history.Status{history.StatusPending}, changes.all())
	assert.Equal(t, 1, store.Saves())
}

func TestTrackTokenTransferKeepsSubmissionFields(t *testing.T) {
	c := &scriptedChain{
		script: []step{{receipt: &chain.Receipt{Status: 1, BlockNumber: 9}}},
		tx:     &chain.Transaction{From: sender, To: "0xtoken", Value: big.NewInt(0)},
	}
	sub := Submission{
		Hash: "0xtok", From: sender, To: recipient, Value: big.NewInt(250),
		TokenSymbol: "USDC", TokenAddress: "0x1111111111111111111111111111111111111111",
	}
	rec, err := newTracker(c, history.NewMemStore(), &statusLog{}, time.Second).Track(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, recipient, rec.To)
	assert.Equal(t, int64(250), rec.Value.Int64())
	assert.Equal(t, "USDC", rec.TokenSymbol)
	assert.Zero(t, c.txLookup)
}

func TestTrackRequiresHashAndSender(t *testing.T) {
	_, err := New(&scriptedChain{}, history.NewBook(history.NewMemStore())).Track(context.Background(), Submission{Hash: "0x1"})
	assert.Error(t, err)
}
