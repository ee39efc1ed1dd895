// Package token aggregates native and ERC-20 balances for a wallet and
// checks ERC-721 collection ownership.
package token

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/Mohsinsiddi/monsend/internal/chain"
	"github.com/Mohsinsiddi/monsend/internal/contract"
)

var (
	// ErrInvalidToken is returned by Verify for a malformed contract address.
	ErrInvalidToken = errors.New("invalid token address")
	// ErrNotERC20 is returned by Verify when the contract does not answer the
	// ERC-20 metadata calls.
	ErrNotERC20 = errors.New("failed to verify token, make sure it's a valid ERC-20 token")
	// ErrZeroBalance accompanies a verified token the owner holds none of.
	// The token is still returned.
	ErrZeroBalance = errors.New("you have zero balance of this token")
)

// Reader is the chain access the aggregator needs. *chain.EVMClient
// satisfies it.
type Reader interface {
	contract.Reader
	Balance(ctx context.Context, addr string) (*big.Int, error)
}

// Token is one row of the wallet's token list.
type Token struct {
	Address  string   `json:"address"`
	Symbol   string   `json:"symbol"`
	Name     string   `json:"name"`
	Decimals int      `json:"decimals"`
	Balance  string   `json:"balance"`
	Raw      *big.Int `json:"-"`
	Native   bool     `json:"isNative"`
}

// Zero reports whether the token balance is zero.
func (t Token) Zero() bool { return t.Raw == nil || t.Raw.Sign() == 0 }

// Policy decides which tokens make it into the list.
type Policy struct {
	IncludeZero         bool
	AlwaysIncludeNative bool
}

// DefaultPolicy keeps the native entry even at zero and hides empty ERC-20s.
var DefaultPolicy = Policy{AlwaysIncludeNative: true}

func (p Policy) keep(t Token) bool {
	if t.Native && p.AlwaysIncludeNative {
		return true
	}
	return p.IncludeZero || !t.Zero()
}

// Aggregator reads balances for the configured token and collection lists.
type Aggregator struct {
	client  Reader
	erc20   *contract.Caller
	erc721  *contract.Caller
	network chain.Network
	tokens  []string
	nfts    []string
	policy  Policy
	logger  *log.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithTokens sets the tracked ERC-20 contract addresses.
func WithTokens(addrs ...string) Option {
	return func(a *Aggregator) { a.tokens = append(a.tokens, addrs...) }
}

// WithNFTs sets the tracked ERC-721 contract addresses.
func WithNFTs(addrs ...string) Option {
	return func(a *Aggregator) { a.nfts = append(a.nfts, addrs...) }
}

// WithPolicy replaces DefaultPolicy.
func WithPolicy(p Policy) Option { return func(a *Aggregator) { a.policy = p } }

// WithNetwork sets the network whose native currency is listed first.
func WithNetwork(n chain.Network) Option { return func(a *Aggregator) { a.network = n } }

// WithLogger sets the aggregator's logger.
func WithLogger(l *log.Logger) Option { return func(a *Aggregator) { a.logger = l } }

// NewAggregator creates an Aggregator over client.
func NewAggregator(client Reader, opts ...Option) *Aggregator {
	a := &Aggregator{
		client:  client,
		erc20:   contract.NewERC20Caller(client),
		erc721:  contract.NewERC721Caller(client),
		network: chain.MonadTestnet,
		policy:  DefaultPolicy,
		logger:  log.Default(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// TrackedTokens returns the configured ERC-20 addresses.
func (a *Aggregator) TrackedTokens() []string { return append([]string(nil), a.tokens...) }

// Balance returns the owner's native balance.
func (a *Aggregator) Balance(ctx context.Context, owner string) (Token, error) {
	raw, err := a.client.Balance(ctx, owner)
	if err != nil {
		return Token{}, fmt.Errorf("failed to fetch balance: %w", err)
	}
	return a.native(raw), nil
}

// Tokens lists the native balance followed by every tracked ERC-20, in
// configuration order. Tokens whose reads fail are logged and left out.
func (a *Aggregator) Tokens(ctx context.Context, owner string) []Token {
	slots := make([]*Token, len(a.tokens)+1)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := a.client.Balance(gctx, owner)
		if err != nil {
			a.logger.Debug("native balance failed", "owner", owner, "err", err)
			return nil
		}
		t := a.native(raw)
		slots[0] = &t
		return nil
	})
	for i, addr := range a.tokens {
		g.Go(func() error {
			t, err := a.read(gctx, owner, addr)
			if err != nil {
				a.logger.Debug("token read failed", "token", addr, "err", err)
				return nil
			}
			slots[i+1] = &t
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Token, 0, len(slots))
	for _, t := range slots {
		if t != nil && a.policy.keep(*t) {
			out = append(out, *t)
		}
	}
	return out
}

// Verify checks that addr is an ERC-20 contract and reads the owner's
// balance. A zero balance returns the token together with ErrZeroBalance.
func (a *Aggregator) Verify(ctx context.Context, owner, addr string) (Token, error) {
	addr = strings.TrimSpace(addr)
	if !common.IsHexAddress(addr) {
		return Token{}, ErrInvalidToken
	}
	t, err := a.read(ctx, owner, addr)
	if err != nil {
		a.logger.Debug("token verification failed", "token", addr, "err", err)
		return Token{}, fmt.Errorf("%w: %v", ErrNotERC20, err)
	}
	if t.Zero() {
		return t, ErrZeroBalance
	}
	return t, nil
}

// read fetches balanceOf, decimals, symbol and name concurrently.
func (a *Aggregator) read(ctx context.Context, owner, addr string) (Token, error) {
	var (
		raw, decimals *big.Int
		symbol, name  string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		raw, err = a.erc20.Uint(gctx, addr, "balanceOf", owner)
		return err
	})
	g.Go(func() (err error) {
		decimals, err = a.erc20.Uint(gctx, addr, "decimals")
		return err
	})
	g.Go(func() (err error) {
		symbol, err = a.erc20.String(gctx, addr, "symbol")
		return err
	})
	g.Go(func() (err error) {
		name, err = a.erc20.String(gctx, addr, "name")
		return err
	})
	if err := g.Wait(); err != nil {
		return Token{}, err
	}
	if !decimals.IsInt64() || decimals.Int64() > 255 {
		return Token{}, fmt.Errorf("%s: implausible decimals %s", addr, decimals)
	}
	d := int(decimals.Int64())
	return Token{
		Address:  addr,
		Symbol:   symbol,
		Name:     name,
		Decimals: d,
		Balance:  chain.FormatUnits(raw, d),
		Raw:      raw,
	}, nil
}

func (a *Aggregator) native(raw *big.Int) Token {
	return Token{
		Address:  chain.NativeAddress,
		Symbol:   a.network.NativeSymbol,
		Name:     a.network.NativeName,
		Decimals: a.network.NativeDecimals,
		Balance:  chain.FormatUnits(raw, a.network.NativeDecimals),
		Raw:      raw,
		Native:   true,
	}
}
