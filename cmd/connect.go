package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/gymcli/internal/session"
	"github.com/Mohsinsiddi/gymcli/internal/ui"
	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect the active wallet to the exchange",
	Long: `Connect the active wallet: unlock it, switch it to the exchange's network
(adding the network if the wallet does not know it), then read the account's
role, registration, balance and the current rates.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		snap := a.session.Snapshot()
		fmt.Println(ui.Success(fmt.Sprintf("Connected %s on %s", ui.Addr(snap.Account.Hex()), ui.ChainName(snap.Network))))
		printStatus(snap, a.symbol())
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show account and exchange state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		printStatus(a.session.Snapshot(), a.symbol())
		return nil
	},
}

func printStatus(s session.Snapshot, symbol string) {
	reg := "no"
	if s.User.Registered {
		reg = fmt.Sprintf("%s <%s>", s.User.Username, s.User.Email)
	}
	fmt.Println(ui.KeyValueBlock("GymCoin", [][2]string{
		{"Account", s.Account.Hex()},
		{"Role", ui.Role(s.Role())},
		{"Network", fmt.Sprintf("%s (chain %d)", s.Network, s.Target)},
		{"Registered", reg},
		{"Balance", ui.GC(s.Balance)},
		{"Rates", ui.RateLine(s.Rates, symbol)},
		{"Reserve", ui.Coin(s.Reserve, symbol)},
		{"Total supply", ui.GC(s.Supply)},
	}))
	if s.Warning != "" {
		fmt.Println(ui.Warn(s.Warning))
	}
	if !s.CanTrade() {
		fmt.Println(ui.Hint("Register to buy and sell: gymcli register --username <name> --email <addr>"))
	}
}
