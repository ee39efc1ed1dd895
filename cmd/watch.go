package cmd

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/monsend/internal/refresh"
	"github.com/Mohsinsiddi/monsend/internal/ui"
)

var watchWallet string

var watchCmd = &cobra.Command{
	Use:   "watch [wallet-name-or-address]",
	Short: "Live wallet dashboard",
	Long: `Open the wallet dashboard: balance, coins, NFTs and transactions, each
refreshed on its own interval (see "refresh" in config.json).

Keyboard controls:
  tab / 1 2 3   switch tabs
  ↑↓ / j k      navigate rows
  r             refresh now
  o             open selected tx (or the address) in the explorer
  c             copy selected tx hash (or the address)
  q             quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 && watchWallet == "" {
			watchWallet = args[0]
		}
		address, err := resolveAddress(watchWallet)
		if err != nil {
			return err
		}
		return runWatch(cmd.Context(), address)
	},
}

func runWatch(ctx context.Context, address string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client, err := chainClient(ctx)
	if err != nil {
		return err
	}
	book, closeStore, err := openBook(ctx)
	if err != nil {
		return err
	}
	defer closeStore() //nolint:errcheck

	agg := newAggregator(client)
	scanner := newScanner(client)
	sched := refresh.NewScheduler(refresh.WithLogger(logger))
	defer sched.Stop()

	dash := ui.NewDashboard(address, cfg.Network(), func() { sched.TriggerAddress(address) })
	prog := tea.NewProgram(dash, tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout), tea.WithAltScreen())

	jobs := map[refresh.Kind]refresh.JobFunc{
		refresh.KindBalance: func(ctx context.Context) {
			tk, err := agg.Balance(ctx, address)
			prog.Send(ui.BalanceMsg{Token: tk, Err: err})
		},
		refresh.KindTokens: func(ctx context.Context) {
			prog.Send(ui.TokensMsg(agg.Tokens(ctx, address)))
		},
		refresh.KindNFTs: func(ctx context.Context) {
			prog.Send(ui.NFTsMsg(agg.NFTs(ctx, address)))
		},
		refresh.KindHistory: func(ctx context.Context) {
			records, scanErr, err := loadHistory(ctx, book, scanner, address)
			if err != nil {
				prog.Send(ui.HistoryMsg{Err: err})
				return
			}
			prog.Send(ui.HistoryMsg{Records: records, Err: scanErr})
		},
	}

	intervals := cfg.Intervals()
	for _, kind := range refresh.Kinds() {
		if err := sched.Schedule(ctx, refresh.NewKey(address, kind), intervals[string(kind)], jobs[kind]); err != nil {
			return err
		}
	}

	_, err = prog.Run()
	return err
}

func init() {
	watchCmd.Flags().StringVar(&watchWallet, "wallet", "", "wallet name or address")
}
