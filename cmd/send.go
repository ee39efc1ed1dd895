package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/monsend/internal/chain"
	"github.com/Mohsinsiddi/monsend/internal/send"
	"github.com/Mohsinsiddi/monsend/internal/token"
	"github.com/Mohsinsiddi/monsend/internal/ui"
	"github.com/Mohsinsiddi/monsend/internal/wallet"
)

var (
	sendTo     string
	sendAmount string
	sendToken  string
	sendWallet string
	sendYes    bool
	sendPlain  bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send MON or an ERC-20 token",
	Long: `Send MON or a tracked ERC-20 token from a signing wallet, then follow the
transaction until it is confirmed or failed.

Without --token a picker lists the wallet's tokens. --token accepts a
symbol, a contract address or "MON".

Examples:
  monsend send --to 0x7099...79C8 --amount 0.5
  monsend send --to 0x7099...79C8 --amount 12 --token USDC --yes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		w, ks, err := loadSigningWallet(sendWallet)
		if err != nil {
			return err
		}

		spin := ui.NewSpinner(os.Stdout, "Connecting wallet...")
		spin.Start()
		client, err := chainClient(ctx)
		if err != nil {
			spin.Stop()
			return err
		}
		conn := wallet.NewLocalConnector(w, ks, client)
		if err := conn.Connect(ctx); err != nil {
			spin.Stop()
			return err
		}
		defer conn.Disconnect()

		agg := newAggregator(client)
		tokens := agg.Tokens(ctx, w.Address)
		spin.Stop()

		tk, err := selectToken(ctx, agg, w.Address, tokens)
		if err != nil {
			return err
		}
		if tk == nil {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}

		flow := send.NewFlow(send.NewSender(conn,
			send.WithNetwork(cfg.Network()),
			send.WithLogger(logger),
		))
		flow.Select(*tk)

		if _, err := send.Validate(sendTo, sendAmount, *tk); err != nil {
			return err
		}

		n := cfg.Network()
		fmt.Println(ui.KeyValueBlock("Send", [][2]string{
			{"From", ui.Addr(w.Address) + "  " + ui.Meta(w.Name)},
			{"To", ui.Addr(sendTo)},
			{"Amount", ui.Val(strings.TrimSpace(sendAmount) + " " + tk.Symbol)},
			{"Balance", tk.Balance + " " + tk.Symbol},
			{"Network", fmt.Sprintf("%s (%d)", n.Name, n.ID)},
		}))
		if !sendYes && !ui.Confirm(os.Stdin, os.Stdout, "Send this transaction?") {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}

		spin = ui.NewSpinner(os.Stdout, "Sending...")
		spin.Start()
		sub, err := flow.Submit(ctx, sendTo, sendAmount)
		spin.Stop()
		if err != nil {
			return err
		}
		fmt.Println(ui.Success("Transaction submitted: " + sub.Hash))

		book, closeStore, err := openBook(ctx)
		if err != nil {
			return err
		}
		defer closeStore() //nolint:errcheck

		_, err = followTx(ctx, client, book, sub, decimalsOf(tokens), sendPlain)
		return err
	},
}

// selectToken resolves --token against the wallet's tokens, verifying an
// untracked contract address. With no --token it opens the picker; a nil
// token means the user backed out.
func selectToken(ctx context.Context, agg *token.Aggregator, owner string, tokens []token.Token) (*token.Token, error) {
	want := strings.TrimSpace(sendToken)
	if want == "" {
		picked, err := ui.PickItem("Select token", ui.TokenItems(tokens))
		if err != nil {
			return nil, err
		}
		if picked == "" {
			return nil, nil
		}
		want = picked
	}

	for _, tk := range tokens {
		switch {
		case tk.Native && (strings.EqualFold(want, chain.NativeAddress) || strings.EqualFold(want, tk.Symbol)),
			strings.EqualFold(want, tk.Address),
			!tk.Native && strings.EqualFold(want, tk.Symbol):
			return &tk, nil
		}
	}

	// Tracked tokens with a zero balance are not in the list.
	tk, err := agg.Verify(ctx, owner, want)
	switch {
	case errors.Is(err, token.ErrZeroBalance):
		return nil, fmt.Errorf("%w: %s", send.ErrInsufficientBalance, tk.Symbol)
	case errors.Is(err, token.ErrInvalidToken):
		return nil, fmt.Errorf("unknown token %q (use a symbol from `monsend tokens` or a contract address)", want)
	case err != nil:
		return nil, err
	}
	return &tk, nil
}

func init() {
	sendCmd.Flags().StringVar(&sendTo, "to", "", "recipient address")
	sendCmd.Flags().StringVar(&sendAmount, "amount", "", "amount in whole tokens, e.g. 0.5")
	sendCmd.Flags().StringVar(&sendToken, "token", "", "token symbol or contract address (default: pick)")
	sendCmd.Flags().StringVar(&sendWallet, "wallet", "", "signing wallet (default: the default wallet)")
	sendCmd.Flags().BoolVarP(&sendYes, "yes", "y", false, "skip confirmation")
	sendCmd.Flags().BoolVar(&sendPlain, "plain", false, "follow the transaction without the full-screen view")
}
