package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/gymcli/internal/config"
	"github.com/Mohsinsiddi/gymcli/internal/ui"
	"github.com/Mohsinsiddi/gymcli/internal/wallet"
	"github.com/spf13/cobra"
)

var (
	walletKeyFlag     string
	walletFromEnvFlag bool
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage wallets",
}

var walletAddCmd = &cobra.Command{
	Use:   "add <name> [address]",
	Short: "Add a wallet",
	Long: `Add a watch-only wallet by address, or a signing wallet by private key.

Signing keys are stored in the OS keychain (or an encrypted file keyring
under the config directory, unlocked with $GYMCLI_KEYRING_PASSWORD).

Examples:
  gymcli wallet add alice 0x70997970C51812dc3A010C7d01b50e0d17dc79C8
  gymcli wallet add deployer --key 0xac09...
  gymcli wallet add deployer --from-env      # reads PRIVATE_KEY from .env`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		mgr := newWalletManager()

		key := walletKeyFlag
		if walletFromEnvFlag {
			key = config.PrivateKey()
			if key == "" {
				return fmt.Errorf("%s is not set (checked the environment and .env)", config.EnvPrivateKey)
			}
		}

		if key != "" {
			w, err := mgr.AddWithKey(name, key)
			if err != nil {
				return err
			}
			fmt.Println(ui.Success(fmt.Sprintf("Signing wallet %q added: %s", name, ui.Addr(w.Address))))
			fmt.Println(ui.Hint(fmt.Sprintf("Set as default with: gymcli wallet use %s", name)))
			return nil
		}

		if len(args) < 2 {
			return fmt.Errorf("address required for watch-only wallet\n  Usage: gymcli wallet add <name> <address>\n  Or for signing: gymcli wallet add <name> --key <private-key>")
		}
		w := &wallet.Wallet{Address: args[1], Type: wallet.TypeWatchOnly}
		if err := mgr.Add(name, w); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Watch-only wallet %q added: %s", name, ui.Addr(w.Address))))
		fmt.Println(ui.Hint(fmt.Sprintf("Set as default with: gymcli wallet use %s", name)))
		return nil
	},
}

var walletGenerateCmd = &cobra.Command{
	Use:   "generate <name>",
	Short: "Generate a new signing wallet",
	Long: `Generate a brand-new keypair and store the private key in the OS keychain.

Fund the new address with base currency before buying GymCoin on an EVM
network; the local devnet needs no funding.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := newWalletManager().Generate(args[0])
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Printf("  %s  %s\n", ui.Meta("Wallet :"), ui.Val(w.Name))
		fmt.Printf("  %s  %s\n\n", ui.Meta("Address:"), ui.Addr(w.Address))
		fmt.Println(ui.Success("Key stored in the keychain."))
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all wallets",
	RunE: func(cmd *cobra.Command, args []string) error {
		wallets := newWalletManager().List()

		if len(wallets) == 0 {
			fmt.Println(ui.Info("No wallets configured yet."))
			fmt.Println(ui.Hint("Add one with: gymcli wallet add myWallet 0xYourAddress"))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 16},
			{Title: "Address", Width: 42},
			{Title: "Type", Width: 12},
			{Title: "Active", Width: 6},
		})
		for _, w := range wallets {
			active := ""
			if isActive(w) {
				active = "✓"
			}
			t.AddRow(ui.Row{w.Name, w.Address, walletTypeLabel(w.Type), active})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d wallet(s) configured", len(wallets))))
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !confirmDanger(fmt.Sprintf("Remove wallet %q?", name)) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		if err := newWalletManager().Remove(name); err != nil {
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
	Use:   "use [name]",
	Short: "Set the active wallet",
	Long: `Set the wallet gymcli connects with. Without a name, pick from a list.

A running dashboard sees the change as an account switch.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := newWalletManager()

		var name string
		if len(args) == 1 {
			name = args[0]
		} else {
			var items []ui.PickerItem
			for _, w := range mgr.List() {
				items = append(items, ui.PickerItem{
					Label:    w.Name,
					SubLabel: ui.TruncateAddr(w.Address) + "  " + walletTypeLabel(w.Type),
					Value:    w.Name,
					Active:   isActive(w),
				})
			}
			picked, err := ui.PickItem("Select wallet", items)
			if err != nil {
				return err
			}
			if picked == "" {
				fmt.Println(ui.Meta("Cancelled."))
				return nil
			}
			name = picked
		}

		if err := mgr.SetDefault(name); err != nil {
			return err
		}
		cfg.DefaultWallet = name
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Active wallet set to %q.", name)))
		return nil
	},
}

func init() {
	walletAddCmd.Flags().StringVar(&walletKeyFlag, "key", "", "private key for signing wallet (stored in OS keychain)")
	walletAddCmd.Flags().BoolVar(&walletFromEnvFlag, "from-env", false, "read the private key from "+config.EnvPrivateKey)
	walletAddCmd.MarkFlagsMutuallyExclusive("key", "from-env")
	walletCmd.AddCommand(walletAddCmd, walletGenerateCmd, walletListCmd, walletRemoveCmd, walletUseCmd)
}

func isActive(w *wallet.Wallet) bool {
	if cfg.DefaultWallet != "" {
		return w.Name == cfg.DefaultWallet
	}
	return w.IsDefault
}

// walletTypeLabel converts an internal wallet type to a user-friendly label.
func walletTypeLabel(t string) string {
	switch t {
	case wallet.TypeSigning:
		return "read-write"
	default:
		return t // "watch-only" is already user-friendly
	}
}
