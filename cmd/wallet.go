package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/monsend/internal/ui"
	"github.com/Mohsinsiddi/monsend/internal/wallet"
)

var (
	walletKeyFlag        string
	walletMnemonicFlag   string
	walletPassphraseFlag string
	walletYesFlag        bool
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage wallets",
}

var walletAddCmd = &cobra.Command{
	Use:   "add <name> [address]",
	Short: "Add a wallet",
	Long: `Add a watch-only wallet by address, or a signing wallet from a private
key or a BIP-39 mnemonic. Keys are kept in the OS keychain.

  monsend wallet add alice 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266
  monsend wallet add alice --key 0x...
  monsend wallet add alice --mnemonic "test test ... junk"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		signing := walletKeyFlag != "" || walletMnemonicFlag != ""
		if walletKeyFlag != "" && walletMnemonicFlag != "" {
			return fmt.Errorf("use either --key or --mnemonic, not both")
		}
		if !signing && len(args) < 2 {
			return fmt.Errorf("address required for watch-only wallet\n  Usage: monsend wallet add <name> <address>\n  Or for signing: monsend wallet add <name> --key <private-key>")
		}

		mgr, err := newWalletManager(signing)
		if err != nil {
			return err
		}

		var w *wallet.Wallet
		switch {
		case walletKeyFlag != "":
			w, err = mgr.AddWithKey(name, walletKeyFlag)
		case walletMnemonicFlag != "":
			w, err = mgr.AddWithMnemonic(name, walletMnemonicFlag, walletPassphraseFlag)
		default:
			w, err = mgr.AddWatchOnly(name, args[1])
		}
		if err != nil {
			return err
		}

		kind := "Watch-only"
		if w.CanSign() {
			kind = "Signing"
		}
		fmt.Println(ui.Success(fmt.Sprintf("%s wallet %q added: %s", kind, name, ui.Addr(w.Address))))
		if w.IsDefault {
			cfg.DefaultWallet = name
			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Println(ui.Meta("First wallet, set as default."))
		} else {
			fmt.Println(ui.Hint(fmt.Sprintf("Set as default with: monsend wallet use %s", name)))
		}
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all wallets",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := newWalletManager(false)
		if err != nil {
			return err
		}
		wallets := mgr.List()

		if len(wallets) == 0 {
			fmt.Println(ui.Info("No wallets configured yet."))
			fmt.Println(ui.Hint("Add one with: monsend wallet add myWallet 0xYourAddress"))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 16},
			{Title: "Address", Width: 44},
			{Title: "Type", Width: 12},
			{Title: "Default", Width: 8},
		})
		for _, w := range wallets {
			def := ""
			if w.IsDefault {
				def = ui.StyleSuccess.Render("✓")
			}
			t.AddRow(ui.Row{ui.Val(w.Name), ui.Addr(w.Address), ui.Meta(walletTypeLabel(w)), def})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d wallet(s) configured", len(wallets))))
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a wallet and its stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !walletYesFlag && !ui.ConfirmDanger(os.Stdin, os.Stdout, fmt.Sprintf("Remove wallet %q?", name)) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		mgr, err := newWalletManager(false)
		if err != nil {
			return err
		}
		w, err := mgr.Get(name)
		if err != nil {
			return err
		}
		if w.KeyRef != "" {
			if mgr, err = newWalletManager(true); err != nil {
				return err
			}
		}
		if err := mgr.Remove(name); err != nil {
			return err
		}
		if cfg.DefaultWallet == name {
			cfg.DefaultWallet = ""
			if err := cfg.Save(); err != nil {
				return err
			}
		}
		fmt.Println(ui.Success(fmt.Sprintf("Wallet %q removed.", name)))
		return nil
	},
}

var walletUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the default wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		mgr, err := newWalletManager(false)
		if err != nil {
			return err
		}
		if err := mgr.SetDefault(name); err != nil {
			return err
		}
		cfg.DefaultWallet = name
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default wallet set to %q.", name)))
		fmt.Println(ui.Hint("This wallet will be used for all commands when --wallet is not specified."))
		return nil
	},
}

var walletShowCmd = &cobra.Command{
	Use:   "show [name|address]",
	Short: "Show a wallet's address and explorer link",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := newWalletManager(false)
		if err != nil {
			return err
		}
		arg := cfg.DefaultWallet
		if len(args) > 0 {
			arg = args[0]
		}
		w, err := mgr.Resolve(arg)
		if err != nil {
			return err
		}
		n := cfg.Network()
		fmt.Println(ui.KeyValueBlock("Wallet", [][2]string{
			{"Name", w.Name},
			{"Address", w.Address},
			{"Type", walletTypeLabel(w)},
			{"Network", fmt.Sprintf("%s (%d)", n.Name, n.ID)},
			{"Explorer", n.AddressURL(w.Address)},
		}))
		return nil
	},
}

func walletTypeLabel(w *wallet.Wallet) string {
	switch {
	case w.Type == wallet.TypeWatchOnly:
		return "watch-only"
	case w.Source == "mnemonic":
		return "mnemonic"
	default:
		return "signing"
	}
}

func init() {
	walletAddCmd.Flags().StringVar(&walletKeyFlag, "key", "", "private key (hex) for a signing wallet")
	walletAddCmd.Flags().StringVar(&walletMnemonicFlag, "mnemonic", "", "BIP-39 mnemonic for a signing wallet")
	walletAddCmd.Flags().StringVar(&walletPassphraseFlag, "passphrase", "", "optional BIP-39 passphrase")
	walletRemoveCmd.Flags().BoolVarP(&walletYesFlag, "yes", "y", false, "skip confirmation")

	walletCmd.AddCommand(walletAddCmd, walletListCmd, walletRemoveCmd, walletUseCmd, walletShowCmd)
}
