package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/monsend/internal/frame"
	"github.com/Mohsinsiddi/monsend/internal/history"
	"github.com/Mohsinsiddi/monsend/internal/refresh"
	"github.com/Mohsinsiddi/monsend/internal/server"
	"github.com/Mohsinsiddi/monsend/internal/ui"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the mini app manifest, webhook and wallet API",
	Long: `Run the HTTP side of the mini app:

  GET  /                              frame page with the fc:frame embed
  GET  /.well-known/farcaster.json    manifest
  POST /api/webhook                   lifecycle events (notification tokens)
  POST /api/send-notification         push a notification to a user
  GET  /api/wallets/:address/...      balance, tokens, nfts, transactions
  POST /api/transactions              track a submitted transaction
  GET  /api/transactions/:hash        transaction status
  POST /api/tokens/verify             ERC-20 verification

The listen address comes from --listen, MONSEND_LISTEN or config.json.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		client, err := chainClient(ctx)
		if err != nil {
			return err
		}
		book, closeStore, err := openBook(ctx)
		if err != nil {
			return err
		}
		defer closeStore() //nolint:errcheck

		tokens, err := openTokenStore()
		if err != nil {
			return err
		}
		defer tokens.Close() //nolint:errcheck

		cache := refresh.NewCache(refresh.DefaultTTL)
		invalidate := refresh.Invalidator(cache, nil)

		srv := server.New(server.Deps{
			Frame:    cfg.FrameConfig(),
			Network:  cfg.Network(),
			Webhook:  frame.NewWebhook(tokens, logger),
			Notifier: frame.NewNotifier(tokens, frame.WithNotifierLogger(logger)),
			Tokens:   newAggregator(client),
			Book:     book,
			Scanner:  newScanner(client),
			Receipts: client,
			Tracker:  newTracker(client, book, func(r history.Record) { invalidate(r.From, r.To) }),
			Cache:    cache,
			Logger:   logger,
		})

		addr := cfg.ListenAddr()
		if serveListen != "" {
			addr = serveListen
		}
		fmt.Println(ui.Banner())
		fmt.Println(ui.Info(fmt.Sprintf("Serving %s on %s", cfg.AppURL(), addr)))
		if cfg.Frame.AccountAssociation.Signature == "" {
			fmt.Println(ui.Warn("No account association yet; hosts will not verify the manifest."))
			fmt.Println(ui.Hint("Sign one with: monsend frame associate --fid <fid> --domain <domain>"))
		}
		return srv.Run(ctx, addr)
	},
}

// openTokenStore opens the notification token registry in the config-dir
// database.
func openTokenStore() (frame.TokenStore, error) {
	if cfg.StoreBackend() == history.BackendMemory {
		return frame.NewMemTokenStore(), nil
	}
	store, err := frame.OpenSQLiteTokens(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening notification tokens: %w", err)
	}
	return store, nil
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default from config, :3000)")
}
