package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/monsend/internal/history"
	"github.com/Mohsinsiddi/monsend/internal/tracker"
	"github.com/Mohsinsiddi/monsend/internal/ui"
)

var (
	statusFrom  string
	statusPlain bool
)

var statusCmd = &cobra.Command{
	Use:   "status <tx-hash>",
	Short: "Follow a transaction until it confirms",
	Long: `Show a transaction's status, waiting for it when it is still pending.

With --from (a wallet name or address) the result is recorded in that
wallet's history; a hash already confirmed or failed there is shown
without touching the node. Without --from the sender is read from the
node.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash := args[0]
		if len(common.FromHex(hash)) != common.HashLength {
			return fmt.Errorf("invalid transaction hash %q", hash)
		}
		ctx := cmd.Context()

		client, err := chainClient(ctx)
		if err != nil {
			return err
		}
		book, closeStore, err := openBook(ctx)
		if err != nil {
			return err
		}
		defer closeStore() //nolint:errcheck

		sub := tracker.Submission{Hash: hash}
		if statusFrom != "" {
			if sub.From, err = resolveAddress(statusFrom); err != nil {
				return err
			}
			if rec, ok, err := book.Get(ctx, sub.From, hash); err != nil {
				return err
			} else if ok {
				sub.To, sub.Value = rec.To, rec.Value
				sub.TokenSymbol, sub.TokenAddress = rec.TokenSymbol, rec.TokenAddress
			}
		} else {
			tx, err := client.TransactionByHash(ctx, hash)
			if err != nil {
				return fmt.Errorf("transaction not found: %w", err)
			}
			sub.From, sub.To, sub.Value = tx.From, tx.To, tx.Value
		}

		rec, err := followTx(ctx, client, book, sub, nil, statusPlain)
		if err != nil {
			return err
		}
		if rec.Status == history.StatusFailed {
			fmt.Println(ui.Err("Transaction failed"))
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusFrom, "from", "", "sender wallet name or address")
	statusCmd.Flags().BoolVar(&statusPlain, "plain", false, "wait without the full-screen view")
}
