package rpc

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNoHealthyRPC is returned when no healthy RPC endpoint is available.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// Algorithm defines how an RPC endpoint is selected.
type Algorithm string

const (
	AlgorithmFastest    Algorithm = "fastest"
	AlgorithmRoundRobin Algorithm = "round-robin"
	AlgorithmFailover   Algorithm = "failover"
)

const (
	// Nodes more than this many blocks behind the tip are skipped.
	staleBlockThreshold = 3
	// A fastest-pick winner is reused for this long.
	winnerTTL = 2 * time.Minute
)

// ParseAlgorithm maps a config string onto an Algorithm. Empty means fastest.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(s); a {
	case "":
		return AlgorithmFastest, nil
	case AlgorithmFastest, AlgorithmRoundRobin, AlgorithmFailover:
		return a, nil
	default:
		return "", fmt.Errorf("unknown rpc algorithm %q (want fastest, round-robin or failover)", s)
	}
}

// Endpoint is one RPC URL with what we measured about it.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Healthy     bool // only meaningful when Checked
	Checked     bool
}

// Picker selects an endpoint according to its algorithm. It is safe for
// concurrent use and remembers round-robin position and the last winner.
type Picker struct {
	algo Algorithm

	mu      sync.Mutex
	next    int
	winner  string
	expires time.Time
	now     func() time.Time
}

// NewPicker creates a Picker for algo.
func NewPicker(algo Algorithm) *Picker {
	return &Picker{algo: algo, now: time.Now}
}

// Algorithm returns the picker's selection strategy.
func (p *Picker) Algorithm() Algorithm { return p.algo }

// Pick returns the chosen endpoint from endpoints.
func (p *Picker) Pick(endpoints []Endpoint) (*Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoHealthyRPC
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.algo {
	case AlgorithmRoundRobin:
		return p.roundRobin(endpoints)
	case AlgorithmFailover:
		return failover(endpoints)
	default:
		return p.fastest(endpoints)
	}
}

// Forget drops the cached fastest winner so the next Pick re-scores.
func (p *Picker) Forget() {
	p.mu.Lock()
	p.winner = ""
	p.mu.Unlock()
}

func (p *Picker) fastest(endpoints []Endpoint) (*Endpoint, error) {
	if p.winner != "" && p.now().Before(p.expires) {
		for i := range endpoints {
			if endpoints[i].URL == p.winner && usable(endpoints[i]) {
				return &endpoints[i], nil
			}
		}
	}

	tip := tipOf(endpoints)
	var (
		best      *Endpoint
		bestScore float64
	)
	for _, e := range eligible(endpoints) {
		if tip > 0 && tip-e.BlockNumber > staleBlockThreshold {
			continue
		}
		if s := score(e, tip); best == nil || s > bestScore {
			best, bestScore = e, s
		}
	}
	if best == nil {
		return nil, ErrNoHealthyRPC
	}

	p.winner = best.URL
	p.expires = p.now().Add(winnerTTL)
	return best, nil
}

func (p *Picker) roundRobin(endpoints []Endpoint) (*Endpoint, error) {
	candidates := eligible(endpoints)
	if len(candidates) == 0 {
		return nil, ErrNoHealthyRPC
	}
	i := p.next % len(candidates)
	p.next = i + 1
	return candidates[i], nil
}

// failover returns the first endpoint not known to be down, in list order.
func failover(endpoints []Endpoint) (*Endpoint, error) {
	for i := range endpoints {
		if usable(endpoints[i]) {
			return &endpoints[i], nil
		}
	}
	return nil, ErrNoHealthyRPC
}

func usable(e Endpoint) bool { return !e.Checked || e.Healthy }

// eligible filters out endpoints a health check has marked down.
func eligible(endpoints []Endpoint) []*Endpoint {
	out := make([]*Endpoint, 0, len(endpoints))
	for i := range endpoints {
		if usable(endpoints[i]) {
			out = append(out, &endpoints[i])
		}
	}
	return out
}

func tipOf(endpoints []Endpoint) uint64 {
	var tip uint64
	for _, e := range endpoints {
		if usable(e) && e.BlockNumber > tip {
			tip = e.BlockNumber
		}
	}
	return tip
}

// score favours low latency, then freshness. Each block behind costs a point.
func score(e *Endpoint, tip uint64) float64 {
	var s float64
	if ms := e.Latency.Milliseconds(); ms > 0 {
		s += 1000.0 / float64(ms)
	} else if e.Latency > 0 {
		s += 1000.0
	}
	if tip > 0 {
		s += 10 - float64(tip-e.BlockNumber)
	}
	return s
}
