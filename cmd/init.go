package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/gymcli/internal/chain"
	"github.com/Mohsinsiddi/gymcli/internal/config"
	"github.com/Mohsinsiddi/gymcli/internal/rpc"
	"github.com/Mohsinsiddi/gymcli/internal/ui"
	"github.com/Mohsinsiddi/gymcli/internal/wallet"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive setup wizard",
	Long:  "Launch the interactive setup wizard to pick a backend, network and wallet.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(ui.Banner())

		var networks []string
		for _, n := range chain.NewRegistry(cfg.CustomNetworks...).All() {
			if !n.InProcess {
				networks = append(networks, n.Name)
			}
		}
		result, err := ui.RunWizard(ui.WizardOptions{
			Backends: []string{config.BackendEVM, config.BackendLocal},
			Networks: networks,
			Algorithms: []string{
				string(rpc.AlgorithmFastest),
				string(rpc.AlgorithmRoundRobin),
				string(rpc.AlgorithmFailover),
			},
		})
		if err != nil {
			return err
		}
		if result == nil {
			fmt.Println(ui.Meta("Setup cancelled, nothing saved."))
			return nil
		}

		applyWizard(cfg, result)

		if result.WalletAddress != "" {
			mgr := newWalletManager()
			w := &wallet.Wallet{Address: result.WalletAddress, Type: wallet.TypeWatchOnly}
			if err := mgr.Add(result.WalletName, w); err != nil {
				fmt.Println(ui.Warn(fmt.Sprintf("Could not add wallet: %v", err)))
			} else if err := mgr.SetDefault(result.WalletName); err == nil {
				cfg.DefaultWallet = result.WalletName
			}
		}

		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Println(ui.Success("gymcli configured! Run `gymcli --help` to explore commands."))
		if result.Backend == config.BackendLocal {
			fmt.Println(ui.Hint("Create the devnet ledger with: gymcli deploy"))
		}
		return nil
	},
}

// applyWizard copies the wizard's choices into c.
func applyWizard(c *config.Config, r *ui.WizardResult) {
	if r.Backend != "" {
		c.Backend = r.Backend
	}
	if c.Backend == config.BackendLocal {
		c.Network = "localhost"
		return
	}
	if r.Network != "" {
		c.Network = r.Network
	}
	if r.RPCAlgorithm != "" {
		c.RPCAlgorithm = r.RPCAlgorithm
	}
}
