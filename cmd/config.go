package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/monsend/internal/rpc"
	"github.com/Mohsinsiddi/monsend/internal/ui"
)

var configRemoveRPC bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("%s\n\n", ui.StyleTitle.Render("Current Configuration"))
		fmt.Println(string(data))
		fmt.Println(ui.Meta("Config directory: " + cfg.Dir()))
		fmt.Println(ui.Meta("History store:    " + cfg.StoreBackend()))
		return nil
	},
}

var configSetRPCCmd = &cobra.Command{
	Use:   "set-rpc <url>",
	Short: "Add (or with --remove, drop) a custom RPC endpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := args[0]
		if configRemoveRPC {
			if err := cfg.RemoveRPC(url); err != nil {
				return err
			}
		} else if err := cfg.AddRPC(url); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		if configRemoveRPC {
			fmt.Println(ui.Success("RPC removed: " + url))
		} else {
			fmt.Println(ui.Success("RPC added: " + url))
		}
		return nil
	},
}

var configSetAlgorithmCmd = &cobra.Command{
	Use:   "set-algorithm <fastest|round-robin|failover>",
	Short: "Choose how an RPC endpoint is picked",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		algo, err := rpc.ParseAlgorithm(args[0])
		if err != nil {
			return err
		}
		cfg.RPCAlgorithm = string(algo)
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("RPC algorithm set to %q", algo)))
		return nil
	},
}

var configRPCsCmd = &cobra.Command{
	Use:   "rpcs",
	Short: "Probe every configured RPC endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		algo, err := rpc.ParseAlgorithm(cfg.RPCAlgorithm)
		if err != nil {
			return err
		}
		pool := rpc.NewPool(cfg.RPCURLs(), cfg.Network().ID, algo, rpc.WithLogger(logger))
		endpoints := pool.Benchmark(cmd.Context())

		t := ui.NewTable([]ui.Column{
			{Title: "Endpoint", Width: 40},
			{Title: "Latency", Width: 10},
			{Title: "Block", Width: 12},
			{Title: "Status", Width: 10},
		})
		for _, ep := range endpoints {
			status := ui.StyleSuccess.Render("healthy")
			if !ep.Healthy {
				status = ui.StyleError.Render("down")
			}
			t.AddRow(ui.Row{ep.URL, ep.Latency.Round(time.Millisecond).String(), fmt.Sprint(ep.BlockNumber), status})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("algorithm: %s", algo)))
		return nil
	},
}

var configAddTokenCmd = &cobra.Command{
	Use:   "add-token <contract-address>",
	Short: "Track an ERC-20 token without verifying it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.AddToken(args[0]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success("Token tracked: " + args[0]))
		fmt.Println(ui.Hint("Check it first next time with: monsend token verify <address> --add"))
		return nil
	},
}

var configAddNFTCmd = &cobra.Command{
	Use:   "add-nft <contract-address>",
	Short: "Track an ERC-721 collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.AddNFT(args[0]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success("Collection tracked: " + args[0]))
		return nil
	},
}

func init() {
	configSetRPCCmd.Flags().BoolVar(&configRemoveRPC, "remove", false, "remove the endpoint instead")
	configCmd.AddCommand(configListCmd, configSetRPCCmd, configSetAlgorithmCmd, configRPCsCmd, configAddTokenCmd, configAddNFTCmd)
}
