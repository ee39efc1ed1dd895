package cmd

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/monsend/internal/frame"
	"github.com/Mohsinsiddi/monsend/internal/ui"
	"github.com/Mohsinsiddi/monsend/internal/wallet"
)

var (
	frameFID    int64
	frameDomain string
	frameWallet string
)

var frameCmd = &cobra.Command{
	Use:   "frame",
	Short: "Mini app manifest tools",
}

var frameManifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Print the manifest served at /.well-known/farcaster.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(frame.BuildManifest(cfg.FrameConfig()), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

var frameAssociateCmd = &cobra.Command{
	Use:   "associate",
	Short: "Sign the account association with a custody wallet",
	Long: `Sign the manifest's account association: a JSON Farcaster Signature
binding --fid to --domain, made with the custody address's key. The result
is saved to config.json and served by 'monsend serve'.

The domain defaults to the host of the app URL.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		domain := frameDomain
		if domain == "" {
			u, err := url.Parse(cfg.AppURL())
			if err != nil || u.Hostname() == "" {
				return fmt.Errorf("--domain is required (app URL %q has no host)", cfg.AppURL())
			}
			domain = u.Hostname()
		}

		w, ks, err := loadSigningWallet(frameWallet)
		if err != nil {
			return err
		}
		assoc, err := frame.Associate(wallet.NewSigner(w, ks), frameFID, domain)
		if err != nil {
			return err
		}
		got, err := frame.VerifyAssociation(assoc, wallet.VerifyMessage)
		if err != nil {
			return fmt.Errorf("checking signature: %w", err)
		}

		cfg.Frame.AccountAssociation = assoc
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.KeyValueBlock("Account association", [][2]string{
			{"FID", fmt.Sprint(frameFID)},
			{"Domain", got},
			{"Custody", ui.Addr(w.Address)},
			{"Header", ui.TruncateAddr(assoc.Header)},
		}))
		fmt.Println(ui.Success("Saved. Restart 'monsend serve' to publish it."))
		return nil
	},
}

func init() {
	frameAssociateCmd.Flags().Int64Var(&frameFID, "fid", 0, "Farcaster id of the custody account")
	frameAssociateCmd.Flags().StringVar(&frameDomain, "domain", "", "domain the app is served from")
	frameAssociateCmd.Flags().StringVar(&frameWallet, "wallet", "", "custody wallet (default: the default wallet)")
	frameCmd.AddCommand(frameManifestCmd, frameAssociateCmd)
}
