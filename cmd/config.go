package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Mohsinsiddi/gymcli/internal/chain"
	"github.com/Mohsinsiddi/gymcli/internal/config"
	"github.com/Mohsinsiddi/gymcli/internal/rpc"
	"github.com/Mohsinsiddi/gymcli/internal/ui"
	"github.com/spf13/cobra"
)

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
		return nil
	},
}

var configSetBackendCmd = &cobra.Command{
	Use:   "set-backend <evm|local>",
	Short: "Choose where the ledger lives",
	Long: `Choose the ledger backend.

  evm    the UserProfile + GymCoin contracts on an EVM network
  local  an in-process devnet ledger stored in the config directory`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{config.BackendEVM, config.BackendLocal},
	RunE: func(cmd *cobra.Command, args []string) error {
		prev := cfg.Backend
		cfg.Backend = args[0]
		if err := cfg.Validate(); err != nil {
			cfg.Backend = prev
			return err
		}
		if cfg.Backend == config.BackendLocal {
			cfg.Network = "localhost"
		} else if cfg.Network == "localhost" {
			cfg.Network = chain.Sepolia().Name
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Backend set to %s (network %s)", cfg.Backend, ui.ChainName(cfg.Network))))
		return nil
	},
}

var configSetRPCCmd = &cobra.Command{
	Use:   "set-rpc <network> <url>",
	Short: "Add an RPC endpoint for a network",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		network, url := args[0], args[1]
		if err := cfg.AddRPC(network, url); err != nil {
			// Already exists, not fatal.
			fmt.Println(ui.Warn(err.Error()))
			return nil
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("RPC for %s added: %s", network, url)))
		return nil
	},
}

var configRemoveRPCCmd = &cobra.Command{
	Use:   "remove-rpc <network> <url>",
	Short: "Remove a custom RPC endpoint",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RemoveRPC(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("RPC removed from %s", args[0])))
		return nil
	},
}

var configSetAlgorithmCmd = &cobra.Command{
	Use:       "set-algorithm <fastest|round-robin|failover>",
	Short:     "Set how an RPC endpoint is picked",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(rpc.AlgorithmFastest), string(rpc.AlgorithmRoundRobin), string(rpc.AlgorithmFailover)},
	RunE: func(cmd *cobra.Command, args []string) error {
		algo := rpc.ParseAlgorithm(args[0])
		if string(algo) != args[0] {
			return fmt.Errorf("unknown algorithm %q (want fastest, round-robin or failover)", args[0])
		}
		cfg.RPCAlgorithm = string(algo)
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("RPC algorithm set to %s", algo)))
		return nil
	},
}

var configSetTimeoutCmd = &cobra.Command{
	Use:   "set-timeout <seconds>",
	Short: "Bound how long a write waits for confirmation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secs, err := positiveSeconds(args[0])
		if err != nil {
			return err
		}
		cfg.ConfirmTimeout = secs
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Confirm timeout set to %s", cfg.ConfirmWait())))
		return nil
	},
}

var configSetPollCmd = &cobra.Command{
	Use:   "set-poll <seconds>",
	Short: "Set how often wallet and network changes are checked",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secs, err := positiveSeconds(args[0])
		if err != nil {
			return err
		}
		cfg.PollInterval = secs
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Poll interval set to %s", cfg.Poll())))
		return nil
	},
}

func positiveSeconds(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("want a positive number of seconds, got %q", s)
	}
	return n, nil
}

func init() {
	configCmd.AddCommand(configListCmd, configSetBackendCmd, configSetRPCCmd, configRemoveRPCCmd,
		configSetAlgorithmCmd, configSetTimeoutCmd, configSetPollCmd)
}
