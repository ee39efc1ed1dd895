package history

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Mohsinsiddi/monsend/internal/chain"
)

// Scan bounds used when none are configured.
const (
	DefaultWindow    = 1000
	DefaultMaxBlocks = 50
	scanParallelism  = 8
)

// BlockReader is the chain access a Scanner needs.
type BlockReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	BlockByNumber(ctx context.Context, num uint64) (*chain.Block, error)
}

// Scanner finds an owner's transactions in recent blocks. It is the
// fallback used when no indexer is available, so it only looks at the tip.
type Scanner struct {
	client    BlockReader
	Window    uint64
	MaxBlocks uint64
	Symbol    string // native symbol stamped on observed records
	limiter   *rate.Limiter
	logger    *log.Logger
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithScanLogger sets the scanner's logger.
func WithScanLogger(l *log.Logger) ScannerOption { return func(s *Scanner) { s.logger = l } }

// WithBounds overrides the look-back window and block cap. Zero keeps the default.
func WithBounds(window, maxBlocks uint64) ScannerOption {
	return func(s *Scanner) {
		if window > 0 {
			s.Window = window
		}
		if maxBlocks > 0 {
			s.MaxBlocks = maxBlocks
		}
	}
}

// WithRateLimit caps block fetches at rps requests per second. Public
// endpoints throttle bursts of eth_getBlockByNumber. Zero means no limit.
func WithRateLimit(rps int) ScannerOption {
	return func(s *Scanner) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}

// NewScanner creates a scanner with the default bounds.
func NewScanner(client BlockReader, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		client:    client,
		Window:    DefaultWindow,
		MaxBlocks: DefaultMaxBlocks,
		Symbol:    chain.MonadTestnet.NativeSymbol,
		logger:    log.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Scan walks back from the latest block and returns every transaction sent
// from or to owner, newest block first. A block that fails to load is
// skipped; only a failure to read the tip is returned.
func (s *Scanner) Scan(ctx context.Context, owner string) ([]Record, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("scan: owner address is required")
	}
	latest, err := s.client.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading latest block: %w", err)
	}

	count := min(s.Window, latest, s.MaxBlocks)
	perBlock := make([][]Record, count)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scanParallelism)
	for i := uint64(0); i < count; i++ {
		num := latest - i
		g.Go(func() error {
			if s.limiter != nil {
				if err := s.limiter.Wait(gctx); err != nil {
					return err
				}
			}
			b, err := s.client.BlockByNumber(gctx, num)
			if err != nil {
				s.logger.Debug("skipping block", "block", num, "err", err)
				return nil
			}
			perBlock[i] = s.match(owner, b)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scanning blocks: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []Record
	for _, recs := range perBlock {
		out = append(out, recs...)
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].BlockNumber > *out[j].BlockNumber })
	return out, nil
}

func (s *Scanner) match(owner string, b *chain.Block) []Record {
	var out []Record
	for _, tx := range b.Transactions {
		if !strings.EqualFold(tx.From, owner) && !strings.EqualFold(tx.To, owner) {
			continue
		}
		bn := b.Number
		out = append(out, Record{
			Hash:         tx.Hash,
			From:         tx.From,
			To:           tx.To,
			Value:        tx.Value,
			Timestamp:    int64(b.Timestamp),
			BlockNumber:  &bn,
			Direction:    DirectionFor(owner, tx.From),
			Status:       StatusConfirmed,
			TokenSymbol:  s.Symbol,
			TokenAddress: chain.NativeAddress,
		})
	}
	return out
}
