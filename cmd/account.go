package cmd

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/gymcli/internal/exchange"
	"github.com/Mohsinsiddi/gymcli/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var (
	registerUsername string
	registerEmail    string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register the active account",
	Long: `Register the active account with a username and email. Registration is
permanent and required before buying or selling GymCoin.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if isTerminal() {
			p := ui.Stdio()
			if registerUsername == "" {
				registerUsername = p.Ask("Username", "")
			}
			if registerEmail == "" {
				registerEmail = p.Ask("Email", "")
			}
		}

		a, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		res, err := withSpinner("Registering…", func() (exchange.TxResult, error) {
			return a.session.Register(cmd.Context(), registerUsername, registerEmail)
		})
		if err != nil {
			return err
		}
		printTx(a, fmt.Sprintf("Registered %s as %q", a.session.Snapshot().Account.Hex(), registerUsername), res)
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile [address|wallet]",
	Short: "Show a registration record",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		account, err := accountArg(cmd.Context(), a, args)
		if err != nil {
			return err
		}
		l, err := a.session.Ledger()
		if err != nil {
			return err
		}
		info, err := l.UserInfo(cmd.Context(), account)
		if err != nil {
			return err
		}
		if !info.Registered {
			fmt.Println(ui.Info(account.Hex() + " is not registered."))
			return nil
		}
		pairs := [][2]string{
			{"Address", account.Hex()},
			{"Username", info.Username},
			{"Email", info.Email},
		}
		if name := a.ensName(cmd.Context(), account); name != "" {
			pairs = append(pairs, [2]string{"ENS", name})
		}
		fmt.Println(ui.KeyValueBlock("Profile", pairs))
		return nil
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance [address|wallet]",
	Short: "Show a GymCoin balance",
	Long: `Show the GymCoin balance of the connected account, or of any address or
configured wallet name.

Examples:
  gymcli balance
  gymcli balance alice
  gymcli balance 0x70997970C51812dc3A010C7d01b50e0d17dc79C8`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		account, err := accountArg(cmd.Context(), a, args)
		if err != nil {
			return err
		}
		l, err := a.session.Ledger()
		if err != nil {
			return err
		}
		bal, err := l.BalanceOf(cmd.Context(), account)
		if err != nil {
			return err
		}
		fmt.Println(ui.KeyValueBlock("Balance", [][2]string{
			{"Address", account.Hex()},
			{"Network", a.session.Snapshot().Network},
			{"GymCoin", ui.GC(bal)},
		}))
		return nil
	},
}

// accountArg resolves an optional address or wallet argument, defaulting to
// the connected account.
func accountArg(ctx context.Context, a *app, args []string) (common.Address, error) {
	if len(args) == 0 {
		return a.session.Snapshot().Account, nil
	}
	return a.resolveAddress(ctx, args[0])
}

func init() {
	registerCmd.Flags().StringVar(&registerUsername, "username", "", "username")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "email address")
}
