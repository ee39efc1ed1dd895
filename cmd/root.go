package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/monsend/internal/config"
	"github.com/Mohsinsiddi/monsend/internal/ui"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/monsend/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgDir  string
	cfg     *config.Config
	logger  *log.Logger
	verbose bool
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "monsend",
	Short: "Send tokens on Monad Testnet",
	Long: `monsend is the wallet backend and terminal client of the MONSEND mini app.

  View balances, tokens, NFTs and transaction history, send MON or ERC-20
  tokens, follow a transaction until it confirms, and serve the mini app's
  manifest, webhook and wallet API with 'monsend serve'.

MONSEND_CONFIG_DIR overrides --config. Variables from a .env file in the
working directory are loaded before the environment is read.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger = newLogger(cfg.Level(), verbose)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Err(err.Error()))
		os.Exit(1)
	}
}

// newLogger builds the logger background components write to. --verbose
// forces debug output.
func newLogger(level string, verbose bool) *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "monsend"})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	if verbose {
		lvl = log.DebugLevel
	}
	l.SetLevel(lvl)
	return l
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "config directory (default: ~/.monsend)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		walletCmd,
		balanceCmd,
		tokensCmd,
		tokenCmd,
		nftsCmd,
		historyCmd,
		watchCmd,
		sendCmd,
		statusCmd,
		configCmd,
		serveCmd,
		notifyCmd,
		frameCmd,
	)
}
