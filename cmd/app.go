package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/monsend/internal/chain"
	"github.com/Mohsinsiddi/monsend/internal/config"
	"github.com/Mohsinsiddi/monsend/internal/history"
	"github.com/Mohsinsiddi/monsend/internal/rpc"
	"github.com/Mohsinsiddi/monsend/internal/token"
	"github.com/Mohsinsiddi/monsend/internal/tracker"
	"github.com/Mohsinsiddi/monsend/internal/wallet"
)

// newWalletManager creates a Manager over the config-dir wallets file. The
// OS keychain is opened only when withKeys is set, since opening it may
// prompt.
func newWalletManager(withKeys bool) (*wallet.Manager, error) {
	opts := []wallet.Option{wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath()))}
	if withKeys {
		ks, err := wallet.DefaultKeystore()
		if err != nil {
			return nil, err
		}
		opts = append(opts, wallet.WithKeystore(ks))
	}
	return wallet.NewManager(opts...), nil
}

// resolveAddress turns a wallet name, a raw address or nothing (the default
// wallet) into an address.
func resolveAddress(arg string) (string, error) {
	mgr, err := newWalletManager(false)
	if err != nil {
		return "", err
	}
	if arg == "" {
		arg = cfg.DefaultWallet
	}
	w, err := mgr.Resolve(arg)
	if err != nil {
		return "", err
	}
	return w.Address, nil
}

// loadSigningWallet resolves a wallet that can sign, with its keystore. The
// keychain is only opened once the wallet is known to hold a key.
func loadSigningWallet(name string) (*wallet.Wallet, wallet.KeystoreBackend, error) {
	mgr, err := newWalletManager(false)
	if err != nil {
		return nil, nil, err
	}
	if name == "" {
		name = cfg.DefaultWallet
	}
	w, err := mgr.Resolve(name)
	if err != nil {
		return nil, nil, fmt.Errorf("%w (run `monsend wallet list` or set one with `monsend wallet use <name>`)", err)
	}
	if !w.CanSign() {
		label := w.Name
		if label == "" {
			label = w.Address
		}
		return nil, nil, fmt.Errorf("wallet %q is watch-only and cannot sign transactions\n  To add a signing wallet: monsend wallet add <name> --key <private-key>", label)
	}
	ks, err := wallet.DefaultKeystore()
	if err != nil {
		return nil, nil, err
	}
	return w, ks, nil
}

// chainClient picks an RPC endpoint with the configured algorithm.
func chainClient(ctx context.Context) (*chain.EVMClient, error) {
	algo, err := rpc.ParseAlgorithm(cfg.RPCAlgorithm)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, config.RPCSelectTimeout)
	defer cancel()
	pool := rpc.NewPool(cfg.RPCURLs(), cfg.Network().ID, algo, rpc.WithLogger(logger))
	return pool.Client(ctx)
}

// openBook opens the configured history store. The returned func closes it.
func openBook(ctx context.Context) (*history.Book, func() error, error) {
	store, err := history.Open(ctx, history.OpenOptions{
		Backend: cfg.StoreBackend(),
		DSN:     cfg.StoreDSN(),
		Dir:     cfg.Dir(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening history store: %w", err)
	}
	return history.NewBook(store), store.Close, nil
}

func newAggregator(client token.Reader) *token.Aggregator {
	return token.NewAggregator(client,
		token.WithTokens(cfg.Tokens...),
		token.WithNFTs(cfg.NFTs...),
		token.WithNetwork(cfg.Network()),
		token.WithLogger(logger),
	)
}

func newScanner(client history.BlockReader) *history.Scanner {
	s := history.NewScanner(client,
		history.WithBounds(cfg.Scan.Window, cfg.Scan.MaxBlocks),
		history.WithRateLimit(cfg.Scan.RPS),
		history.WithScanLogger(logger),
	)
	s.Symbol = cfg.Network().NativeSymbol
	return s
}

func newTracker(client tracker.ChainReader, book *history.Book, onChange func(history.Record)) *tracker.Tracker {
	return tracker.New(client, book,
		tracker.WithPollInterval(cfg.PollInterval()),
		tracker.WithTimeout(cfg.TrackTimeout()),
		tracker.WithLogger(logger),
		tracker.WithOnChange(onChange),
	)
}

// loadHistory scans recent blocks and merges them into the stored list. A
// failed scan still returns the stored list; scanErr reports it separately
// from a storage error.
func loadHistory(ctx context.Context, book *history.Book, scanner *history.Scanner, owner string) (records []history.Record, scanErr, err error) {
	observed, scanErr := scanner.Scan(ctx, owner)
	records, err = book.Load(ctx, owner, observed)
	return records, scanErr, err
}

// decimalsOf maps token contracts to their decimals for formatting history.
func decimalsOf(tokens []token.Token) map[string]int {
	out := make(map[string]int, len(tokens))
	for _, t := range tokens {
		if !t.Native {
			out[strings.ToLower(t.Address)] = t.Decimals
		}
	}
	return out
}
