package token

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Collection is an ERC-721 contract the owner holds at least one item of.
type Collection struct {
	Contract string `json:"contract"`
	Name     string `json:"name"`
	Count    uint64 `json:"count"`
}

// NFTs checks every tracked ERC-721 contract and returns the collections the
// owner holds, in configuration order. Failing contracts are skipped.
func (a *Aggregator) NFTs(ctx context.Context, owner string) []Collection {
	slots := make([]*Collection, len(a.nfts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, addr := range a.nfts {
		g.Go(func() error {
			n, err := a.erc721.Uint(gctx, addr, "balanceOf", owner)
			if err != nil {
				a.logger.Debug("nft balance failed", "contract", addr, "err", err)
				return nil
			}
			if n.Sign() == 0 {
				return nil
			}
			name, err := a.erc721.String(gctx, addr, "name")
			if err != nil {
				a.logger.Debug("nft name failed", "contract", addr, "err", err)
				return nil
			}
			count := uint64(0)
			if n.IsUint64() {
				count = n.Uint64()
			}
			slots[i] = &Collection{Contract: addr, Name: name, Count: count}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Collection, 0, len(slots))
	for _, c := range slots {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out
}
