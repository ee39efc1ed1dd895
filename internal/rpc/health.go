package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/monsend/internal/chain"
)

// probeTimeout bounds a single health probe.
const probeTimeout = 5 * time.Second

// Probe pings url and checks that it serves chainID. The returned endpoint
// is always Checked; Healthy is false when the node is unreachable, on the
// wrong chain, or more than staleBlockThreshold blocks behind tip (pass 0
// to skip the freshness check).
func Probe(ctx context.Context, url string, chainID int64, tip uint64) (Endpoint, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	c := chain.NewEVMClient(url)
	ep := Endpoint{URL: url, Checked: true}

	latency, block, err := c.Ping(ctx)
	ep.Latency, ep.BlockNumber = latency, block
	if err != nil {
		return ep, err
	}

	if chainID != 0 {
		got, err := c.ChainID(ctx)
		if err != nil {
			return ep, err
		}
		if got != chainID {
			return ep, fmt.Errorf("%s serves chain %d, want %d", url, got, chainID)
		}
	}

	ep.Healthy = tip == 0 || tip < block || tip-block <= staleBlockThreshold
	return ep, nil
}
