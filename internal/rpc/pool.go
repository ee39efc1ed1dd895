package rpc

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/Mohsinsiddi/monsend/internal/chain"
)

// Pool is the set of RPC URLs the wallet may use for one chain.
type Pool struct {
	urls    []string
	chainID int64
	picker  *Picker
	logger  *log.Logger
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the pool's logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Pool) { p.logger = l }
}

// NewPool builds a pool from urls, dropping blanks and duplicates while
// keeping the given order (failover walks it front to back).
func NewPool(urls []string, chainID int64, algo Algorithm, opts ...Option) *Pool {
	p := &Pool{
		chainID: chainID,
		picker:  NewPicker(algo),
		logger:  log.Default(),
	}
	seen := make(map[string]bool, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		p.urls = append(p.urls, u)
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// URLs returns the pool's endpoints in configured order.
func (p *Pool) URLs() []string { return append([]string(nil), p.urls...) }

// Benchmark probes every URL in parallel. Results keep pool order.
func (p *Pool) Benchmark(ctx context.Context) []Endpoint {
	out := make([]Endpoint, len(p.urls))
	var g errgroup.Group
	for i, u := range p.urls {
		g.Go(func() error {
			ep, err := Probe(ctx, u, p.chainID, 0)
			if err != nil {
				p.logger.Debug("rpc probe failed", "url", u, "err", err)
			}
			out[i] = ep
			return nil
		})
	}
	_ = g.Wait()

	// Second pass applies the freshness rule against the observed tip.
	tip := tipOf(out)
	for i := range out {
		if out[i].Healthy && tip-out[i].BlockNumber > staleBlockThreshold {
			out[i].Healthy = false
		}
	}
	return out
}

// Resolve returns the URL to use now. A single-URL pool skips probing.
func (p *Pool) Resolve(ctx context.Context) (string, error) {
	switch len(p.urls) {
	case 0:
		return "", ErrNoHealthyRPC
	case 1:
		return p.urls[0], nil
	}
	winner, err := p.picker.Pick(p.Benchmark(ctx))
	if err != nil {
		return "", err
	}
	p.logger.Debug("rpc selected", "url", winner.URL, "latency", winner.Latency, "algo", p.picker.Algorithm())
	return winner.URL, nil
}

// Client resolves an endpoint and returns a client bound to it.
func (p *Pool) Client(ctx context.Context) (*chain.EVMClient, error) {
	url, err := p.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return chain.NewEVMClient(url), nil
}
