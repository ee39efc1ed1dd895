package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/monsend/internal/ui"
)

var balanceWallet string

var balanceCmd = &cobra.Command{
	Use:   "balance [wallet-name-or-address]",
	Short: "Check the native MON balance",
	Long: `Check the native balance of a wallet on Monad Testnet.

Examples:
  monsend balance                    # default wallet
  monsend balance alice
  monsend balance 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 && balanceWallet == "" {
			balanceWallet = args[0]
		}
		address, err := resolveAddress(balanceWallet)
		if err != nil {
			return err
		}
		return printBalance(cmd.Context(), address)
	},
}

func printBalance(ctx context.Context, address string) error {
	n := cfg.Network()
	spin := ui.NewSpinner(os.Stdout, fmt.Sprintf("Fetching balance on %s...", ui.Brand(n.Name)))
	spin.Start()

	client, err := chainClient(ctx)
	if err != nil {
		spin.Stop()
		return err
	}
	bal, err := newAggregator(client).Balance(ctx, address)
	spin.Stop()
	if err != nil {
		return fmt.Errorf("failed to fetch balance: %w", err)
	}

	fmt.Println(ui.KeyValueBlock(fmt.Sprintf("Balance on %s", n.Name), [][2]string{
		{"Address", ui.Addr(address)},
		{"Network", fmt.Sprintf("%s (%d)", n.Name, n.ID)},
		{"Balance", ui.Val(bal.Balance + " " + bal.Symbol)},
		{"Explorer", n.AddressURL(address)},
	}))
	return nil
}

func init() {
	balanceCmd.Flags().StringVar(&balanceWallet, "wallet", "", "wallet name or address")
}
