package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/monsend/internal/history"
	"github.com/Mohsinsiddi/monsend/internal/ui"
)

var (
	historyWallet string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:     "history [wallet-name-or-address]",
	Aliases: []string{"txs"},
	Short:   "Show recent transactions",
	Long: `Merge the locally recorded transactions with the ones found by scanning
recent blocks, newest first. Pending sends stay at the top until they
confirm. When the node cannot be reached the stored list is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 && historyWallet == "" {
			historyWallet = args[0]
		}
		address, err := resolveAddress(historyWallet)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		book, closeStore, err := openBook(ctx)
		if err != nil {
			return err
		}
		defer closeStore() //nolint:errcheck

		spin := ui.NewSpinner(os.Stdout, "Scanning recent blocks...")
		spin.Start()
		client, err := chainClient(ctx)
		if err != nil {
			spin.Stop()
			records, lerr := book.List(ctx, address)
			if lerr != nil {
				return lerr
			}
			fmt.Println(ui.Warn("Node unreachable, showing stored transactions: " + err.Error()))
			return printHistory(address, records, nil)
		}
		agg := newAggregator(client)
		records, scanErr, err := loadHistory(ctx, book, newScanner(client), address)
		if err != nil {
			spin.Stop()
			return err
		}
		decimals := decimalsOf(agg.Tokens(ctx, address))
		spin.Stop()

		if scanErr != nil {
			fmt.Println(ui.Warn("Block scan incomplete: " + scanErr.Error()))
		}
		return printHistory(address, records, decimals)
	},
}

func printHistory(address string, records []history.Record, decimals map[string]int) error {
	fmt.Println(ui.StyleTitle.Render("Transactions  " + ui.TruncateAddr(address)))
	if len(records) == 0 {
		fmt.Println(ui.Meta("No transactions found"))
		return nil
	}
	total := len(records)
	if historyLimit > 0 && total > historyLimit {
		records = records[:historyLimit]
	}
	fmt.Println(ui.HistoryTable(records, decimals).Render())
	fmt.Println(ui.Meta(fmt.Sprintf("showing %d of %d  ·  %s", len(records), total, cfg.Network().AddressURL(address))))
	return nil
}

func init() {
	historyCmd.Flags().StringVar(&historyWallet, "wallet", "", "wallet name or address")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "rows to show (0 for all)")
}
