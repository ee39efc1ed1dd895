// Package tracker follows a submitted transaction until the chain reports a
// terminal status or the tracking ceiling passes.
package tracker

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/Mohsinsiddi/monsend/internal/chain"
	"github.com/Mohsinsiddi/monsend/internal/history"
)

// Defaults for the poll loop.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultTimeout      = 5 * time.Minute
)

// ChainReader is the chain access the tracker needs.
type ChainReader interface {
	TransactionReceipt(ctx context.Context, hash string) (*chain.Receipt, error)
	TransactionByHash(ctx context.Context, hash string) (*chain.Transaction, error)
}

// Submission is what the send flow knows at the moment a hash comes back.
type Submission struct {
	Hash         string
	From         string
	To           string
	Value        *big.Int
	TokenSymbol  string
	TokenAddress string
}

// Tracker polls receipts and writes each transition to the history book.
type Tracker struct {
	client       ChainReader
	book         *history.Book
	pollInterval time.Duration
	timeout      time.Duration
	onChange     func(history.Record)
	logger       *log.Logger
	now          func() time.Time
	group        singleflight.Group
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithPollInterval sets the time between receipt requests.
func WithPollInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.pollInterval = d
		}
	}
}

// WithTimeout sets the ceiling after which a pending transaction is failed.
func WithTimeout(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithOnChange registers a callback invoked after every persisted transition.
func WithOnChange(fn func(history.Record)) Option {
	return func(t *Tracker) { t.onChange = fn }
}

// WithLogger sets the tracker's logger.
func WithLogger(l *log.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// New creates a Tracker.
func New(client ChainReader, book *history.Book, opts ...Option) *Tracker {
	t := &Tracker{
		client:       client,
		book:         book,
		pollInterval: DefaultPollInterval,
		timeout:      DefaultTimeout,
		logger:       log.Default(),
		now:          time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Track persists sub as pending (unless already known) and polls until the
// transaction is confirmed, reverted, timed out or ctx ends. A hash that is
// already terminal in the book is returned as is without any write.
// Concurrent calls for the same owner and hash share one poll loop.
func (t *Tracker) Track(ctx context.Context, sub Submission) (history.Record, error) {
	if sub.Hash == "" || sub.From == "" {
		return history.Record{}, errors.New("track: hash and sender are required")
	}
	key := strings.ToLower(sub.From + "/" + sub.Hash)
	v, err, _ := t.group.Do(key, func() (interface{}, error) {
		return t.track(ctx, sub)
	})
	return v.(history.Record), err
}

func (t *Tracker) track(ctx context.Context, sub Submission) (history.Record, error) {
	rec, known, err := t.book.Get(ctx, sub.From, sub.Hash)
	if err != nil {
		return history.Record{}, err
	}
	if known && rec.Status.Terminal() {
		return rec, nil
	}
	timeout := t.timeout
	if !known {
		rec = t.pendingRecord(sub)
		if err := t.commit(ctx, sub.From, rec); err != nil {
			return rec, err
		}
	} else if rec.Timestamp > 0 {
		// A resumed record keeps the ceiling counted from its submission.
		timeout -= t.now().Sub(time.Unix(rec.Timestamp, 0))
		if timeout <= 0 {
			return t.expire(ctx, sub.From, rec)
		}
	}

	deadline, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		if done, ok := t.poll(deadline, rec); ok && deadline.Err() == nil {
			return done, t.commit(ctx, sub.From, done)
		}

		select {
		case <-deadline.Done():
			if err := ctx.Err(); err != nil {
				return rec, err
			}
			return t.fail(ctx, sub.From, rec)
		case <-ticker.C:
		}
	}
}

// expire handles a resumed record whose ceiling passed while nothing was
// watching it: one last receipt check, then failed.
func (t *Tracker) expire(ctx context.Context, owner string, rec history.Record) (history.Record, error) {
	if done, ok := t.poll(ctx, rec); ok {
		return done, t.commit(ctx, owner, done)
	}
	if err := ctx.Err(); err != nil {
		return rec, err
	}
	return t.fail(ctx, owner, rec)
}

func (t *Tracker) fail(ctx context.Context, owner string, rec history.Record) (history.Record, error) {
	rec.Status = history.StatusFailed
	t.logger.Warn("transaction not mined before timeout", "hash", rec.Hash, "timeout", t.timeout)
	return rec, t.commit(ctx, owner, rec)
}

// poll asks for the receipt once. ok is true when a terminal record was built.
func (t *Tracker) poll(ctx context.Context, rec history.Record) (history.Record, bool) {
	receipt, err := t.client.TransactionReceipt(ctx, rec.Hash)
	if err != nil {
		if ctx.Err() == nil {
			t.logger.Debug("receipt poll failed", "hash", rec.Hash, "err", err)
		}
		return rec, false
	}
	if receipt == nil {
		return rec, false
	}

	bn := receipt.BlockNumber
	rec.BlockNumber = &bn
	if !receipt.Succeeded() {
		rec.Status = history.StatusFailed
		return rec, true
	}

	rec.Status = history.StatusConfirmed
	if isNative(rec.TokenAddress) {
		if tx, err := t.client.TransactionByHash(ctx, rec.Hash); err == nil {
			rec.From, rec.To = tx.From, tx.To
			if tx.Value != nil {
				rec.Value = tx.Value
			}
		} else {
			t.logger.Debug("transaction lookup failed", "hash", rec.Hash, "err", err)
		}
	}
	return rec, true
}

func (t *Tracker) pendingRecord(sub Submission) history.Record {
	value := sub.Value
	if value == nil {
		value = new(big.Int)
	}
	symbol, token := sub.TokenSymbol, sub.TokenAddress
	if token == "" {
		token = chain.NativeAddress
	}
	if symbol == "" && isNative(token) {
		symbol = chain.MonadTestnet.NativeSymbol
	}
	return history.Record{
		Hash:         sub.Hash,
		From:         sub.From,
		To:           sub.To,
		Value:        value,
		Timestamp:    t.now().Unix(),
		Direction:    history.DirectionSent,
		Status:       history.StatusPending,
		TokenSymbol:  symbol,
		TokenAddress: token,
	}
}

func (t *Tracker) commit(ctx context.Context, owner string, rec history.Record) error {
	if err := t.book.Put(ctx, owner, rec); err != nil {
		return err
	}
	t.logger.Debug("transaction status", "hash", rec.Hash, "status", rec.Status)
	if t.onChange != nil {
		t.onChange(rec)
	}
	return nil
}

func isNative(token string) bool { return token == "" || token == chain.NativeAddress }
