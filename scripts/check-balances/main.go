// check-balances: queries the MON balance of every configured wallet against
// every configured RPC endpoint in parallel and prints a summary table.
// Endpoints that disagree or lag show up side by side.
//
// Run from the module root:
//
//	go run ./scripts/check-balances
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Mohsinsiddi/monsend/internal/chain"
	"github.com/Mohsinsiddi/monsend/internal/config"
	"github.com/Mohsinsiddi/monsend/internal/wallet"
)

const rpcTimeout = 12 * time.Second

type result struct {
	endpoint string
	name     string
	wallet   string
	balance  string
	block    uint64
	err      string
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	wallets := wallet.NewManager(wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath()))).List()
	if len(wallets) == 0 {
		fmt.Println("no wallets configured; add one with: monsend wallet add <name> <address>")
		return
	}

	var (
		mu      sync.Mutex
		results []result
		g       errgroup.Group
	)
	g.SetLimit(16)

	for _, url := range cfg.RPCURLs() {
		for _, w := range wallets {
			g.Go(func() error {
				ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
				defer cancel()

				r := result{endpoint: url, name: w.Name, wallet: shortAddr(w.Address), balance: "—"}
				client := chain.NewEVMClient(url)
				if _, block, err := client.Ping(ctx); err != nil {
					r.err = "unreachable"
				} else if wei, err := client.Balance(ctx, w.Address); err != nil {
					r.err = shortErr(err)
				} else {
					r.balance = chain.WeiToMON(wei)
					r.block = block
				}

				mu.Lock()
				results = append(results, r)
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()

	printTable(results, cfg.Network().NativeSymbol)
}

func printTable(results []result, symbol string) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.name != b.name {
			return a.name < b.name
		}
		return a.endpoint < b.endpoint
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WALLET\tADDRESS\tENDPOINT\tBLOCK\tBALANCE\tNOTE")
	fmt.Fprintln(w, strings.Repeat("-", 10)+"\t"+
		strings.Repeat("-", 14)+"\t"+
		strings.Repeat("-", 30)+"\t"+
		strings.Repeat("-", 10)+"\t"+
		strings.Repeat("-", 24)+"\t"+
		strings.Repeat("-", 12))

	last := ""
	for _, r := range results {
		if r.name != last {
			if last != "" {
				fmt.Fprintln(w, "\t\t\t\t\t")
			}
			last = r.name
		}
		bal := r.balance
		if r.err == "" {
			bal += " " + symbol
		}
		block := "—"
		if r.block > 0 {
			block = fmt.Sprint(r.block)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", r.name, r.wallet, r.endpoint, block, bal, r.err)
	}
	w.Flush()
}

func shortAddr(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

func shortErr(err error) string {
	s := err.Error()
	if len(s) > 30 {
		return s[:30] + "…"
	}
	return s
}
