package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/gymcli/internal/chain"
	"github.com/Mohsinsiddi/gymcli/internal/rpc"
	"github.com/Mohsinsiddi/gymcli/internal/ui"
	"github.com/spf13/cobra"
)

var (
	netAddChainID  int64
	netAddRPC      string
	netAddCurrency string
	netAddExplorer string
	netAddDisplay  string
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Manage networks",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known networks",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := chain.NewRegistry(cfg.CustomNetworks...)
		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 12},
			{Title: "Display", Width: 20},
			{Title: "Chain ID", Width: 10, Right: true},
			{Title: "Currency", Width: 10},
			{Title: "RPC", Width: 36},
			{Title: "Active", Width: 6},
		})
		for _, n := range reg.All() {
			endpoint := "in-process"
			if !n.InProcess {
				endpoint = "-"
				if urls := cfg.GetRPCs(n.Name); len(urls) > 0 {
					endpoint = urls[0]
				} else if len(n.RPCs) > 0 {
					endpoint = n.RPCs[0]
				}
			}
			active := ""
			if n.Name == cfg.Network {
				active = "✓"
			}
			t.AddRow(ui.Row{
				n.Name,
				n.DisplayName,
				fmt.Sprintf("%d", n.ChainID),
				n.Currency,
				endpoint,
				active,
			})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d networks · backend %s", len(reg.All()), cfg.Backend)))
		return nil
	},
}

var networkUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Switch the wallet's active network",
	Long: `Switch the wallet's active network and persist it. Without a name, pick
from a list. A running dashboard sees the switch as a network change.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := chain.NewRegistry(cfg.CustomNetworks...)

		var name string
		if len(args) == 1 {
			name = args[0]
		} else {
			var items []ui.PickerItem
			for _, n := range reg.All() {
				items = append(items, ui.PickerItem{
					Label:    n.Name,
					SubLabel: fmt.Sprintf("%s · %d", n.DisplayName, n.ChainID),
					Value:    n.Name,
					Active:   n.Name == cfg.Network,
				})
			}
			picked, err := ui.PickItem("Select network", items)
			if err != nil {
				return err
			}
			if picked == "" {
				fmt.Println(ui.Meta("Cancelled."))
				return nil
			}
			name = picked
		}

		n, err := reg.GetByName(name)
		if err != nil {
			return fmt.Errorf("unknown network %q — run `gymcli network list` to see all networks", name)
		}
		p := newProvider(newWalletManager())
		if err := p.SwitchNetwork(cmd.Context(), n.ChainID); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Active network set to %s (chain %d)", ui.ChainName(n.Name), n.ChainID)))
		return nil
	},
}

var networkAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a custom network",
	Long: `Add a custom EVM network and make it active. A network with the same name
or chain ID replaces the old entry.

Example:
  gymcli network add anvil --chain-id 31338 --rpc http://127.0.0.1:8546`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n := chain.Network{
			Name:             args[0],
			DisplayName:      netAddDisplay,
			ChainID:          netAddChainID,
			Currency:         netAddCurrency,
			CurrencyDecimals: 18,
			Explorer:         netAddExplorer,
		}
		if netAddRPC != "" {
			n.RPCs = []string{netAddRPC}
		}
		if n.DisplayName == "" {
			n.DisplayName = n.Name
		}
		p := newProvider(newWalletManager())
		if err := p.AddNetwork(cmd.Context(), n); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Network %s added (chain %d) and active.", ui.ChainName(n.Name), n.ChainID)))
		return nil
	},
}

var networkRPCsCmd = &cobra.Command{
	Use:   "rpcs [name]",
	Short: "Benchmark a network's RPC endpoints",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := cfg.Network
		if len(args) == 1 {
			name = args[0]
		}
		n, err := chain.NewRegistry(cfg.CustomNetworks...).GetByName(name)
		if err != nil {
			return err
		}
		if n.InProcess {
			fmt.Println(ui.Info(n.Name + " is served in-process; it has no RPC endpoints."))
			return nil
		}

		urls := newProvider(newWalletManager()).RPCs(n)
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()
		results, _ := withSpinner(fmt.Sprintf("Benchmarking %d endpoint(s) on %s…", len(urls), n.Name), func() ([]rpc.BenchmarkResult, error) {
			return rpc.Benchmark(ctx, urls, n.ChainID), nil
		})

		t := ui.NewTable([]ui.Column{
			{Title: "URL", Width: 44},
			{Title: "Latency", Width: 10, Right: true},
			{Title: "Block", Width: 10, Right: true},
			{Title: "Status", Width: 24},
		})
		for _, r := range results {
			if r.Err != nil {
				t.AddRow(ui.Row{r.URL, "-", "-", r.Err.Error()})
				continue
			}
			t.AddRow(ui.Row{r.URL, r.Latency.Round(time.Millisecond).String(), fmt.Sprintf("%d", r.BlockNumber), "ok"})
		}
		fmt.Println(t.Render())

		best, err := rpc.Best(ctx, urls, n.ChainID, rpc.ParseAlgorithm(cfg.RPCAlgorithm))
		if err != nil {
			fmt.Println(ui.Warn("No healthy endpoint: " + err.Error()))
			return nil
		}
		fmt.Println(ui.Meta(fmt.Sprintf("%s picks %s", cfg.RPCAlgorithm, best)))
		return nil
	},
}

func init() {
	networkAddCmd.Flags().Int64Var(&netAddChainID, "chain-id", 0, "chain ID (required)")
	networkAddCmd.Flags().StringVar(&netAddRPC, "rpc", "", "RPC endpoint URL (required)")
	networkAddCmd.Flags().StringVar(&netAddCurrency, "currency", "ETH", "base currency symbol")
	networkAddCmd.Flags().StringVar(&netAddExplorer, "explorer", "", "block explorer base URL")
	networkAddCmd.Flags().StringVar(&netAddDisplay, "display-name", "", "display name")
	_ = networkAddCmd.MarkFlagRequired("chain-id")
	_ = networkAddCmd.MarkFlagRequired("rpc")
	networkCmd.AddCommand(networkListCmd, networkUseCmd, networkAddCmd, networkRPCsCmd)
}
