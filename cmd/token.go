package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/monsend/internal/token"
	"github.com/Mohsinsiddi/monsend/internal/ui"
)

var (
	tokensWallet string
	tokenWallet  string
	tokenAdd     bool
)

var tokensCmd = &cobra.Command{
	Use:   "tokens [wallet-name-or-address]",
	Short: "List MON and tracked ERC-20 balances",
	Long: `List the native balance followed by every tracked ERC-20 token.

Empty ERC-20 balances are hidden. Track more tokens with:
  monsend token verify <address> --add`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 && tokensWallet == "" {
			tokensWallet = args[0]
		}
		address, err := resolveAddress(tokensWallet)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		spin := ui.NewSpinner(os.Stdout, "Fetching token balances...")
		spin.Start()
		client, err := chainClient(ctx)
		if err != nil {
			spin.Stop()
			return err
		}
		tokens := newAggregator(client).Tokens(ctx, address)
		spin.Stop()

		fmt.Println(ui.StyleTitle.Render("Tokens  " + ui.TruncateAddr(address)))
		if len(tokens) == 0 {
			fmt.Println(ui.Warn("Failed to fetch balance"))
			return nil
		}
		fmt.Println(ui.TokenTable(tokens).Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d token(s), %d tracked", len(tokens), len(cfg.Tokens))))
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Verify and track ERC-20 tokens",
}

var tokenVerifyCmd = &cobra.Command{
	Use:   "verify <contract-address>",
	Short: "Check that a contract is an ERC-20 and read your balance",
	Long: `Read the ERC-20 metadata and the wallet's balance of a contract.

With --add the token is tracked afterwards and shows up in 'monsend tokens'
and the send picker. A zero balance is reported but still tracked.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		address, err := resolveAddress(tokenWallet)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		spin := ui.NewSpinner(os.Stdout, "Verifying token...")
		spin.Start()
		client, err := chainClient(ctx)
		if err != nil {
			spin.Stop()
			return err
		}
		tk, err := newAggregator(client).Verify(ctx, address, args[0])
		spin.Stop()

		zero := errors.Is(err, token.ErrZeroBalance)
		if err != nil && !zero {
			return err
		}

		fmt.Println(ui.KeyValueBlock("Token", [][2]string{
			{"Name", tk.Name},
			{"Symbol", tk.Symbol},
			{"Decimals", fmt.Sprint(tk.Decimals)},
			{"Contract", ui.Addr(tk.Address)},
			{"Balance", ui.Val(tk.Balance + " " + tk.Symbol)},
		}))
		if zero {
			fmt.Println(ui.Warn("You have zero balance of this token"))
		}

		if !tokenAdd {
			fmt.Println(ui.Hint("Track it with: monsend token verify " + tk.Address + " --add"))
			return nil
		}
		if err := cfg.AddToken(tk.Address); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("%s added to tracked tokens.", tk.Symbol)))
		return nil
	},
}

var nftsWallet string

var nftsCmd = &cobra.Command{
	Use:   "nfts [wallet-name-or-address]",
	Short: "List tracked ERC-721 collections the wallet holds",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 && nftsWallet == "" {
			nftsWallet = args[0]
		}
		address, err := resolveAddress(nftsWallet)
		if err != nil {
			return err
		}
		if len(cfg.NFTs) == 0 {
			fmt.Println(ui.Info("No NFT collections tracked."))
			fmt.Println(ui.Hint("Track one with: monsend config add-nft <contract-address>"))
			return nil
		}
		ctx := cmd.Context()

		spin := ui.NewSpinner(os.Stdout, "Checking NFT collections...")
		spin.Start()
		client, err := chainClient(ctx)
		if err != nil {
			spin.Stop()
			return err
		}
		cols := newAggregator(client).NFTs(ctx, address)
		spin.Stop()

		if len(cols) == 0 {
			fmt.Println(ui.Meta("No NFTs found"))
			return nil
		}
		fmt.Println(ui.NFTTable(cols).Render())
		return nil
	},
}

func init() {
	tokensCmd.Flags().StringVar(&tokensWallet, "wallet", "", "wallet name or address")
	nftsCmd.Flags().StringVar(&nftsWallet, "wallet", "", "wallet name or address")

	tokenVerifyCmd.Flags().StringVar(&tokenWallet, "wallet", "", "wallet whose balance is read")
	tokenVerifyCmd.Flags().BoolVar(&tokenAdd, "add", false, "track the token after verifying it")
	tokenCmd.AddCommand(tokenVerifyCmd)
}
