package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/gymcli/internal/exchange"
	"github.com/Mohsinsiddi/gymcli/internal/ui"
	"github.com/spf13/cobra"
)

var buyCmd = &cobra.Command{
	Use:   "buy <amount>",
	Short: "Buy GymCoin with base currency",
	Long: `Buy GymCoin from the owner's supply. The payment is computed from the
current buy rate: payment = amount / buy-rate.

Example:
  gymcli buy 100          # at 100 GC/ETH this pays 1 ETH`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(args[0])
		if err != nil {
			return err
		}
		a, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		payment, err := a.session.QuoteBuy(cmd.Context(), amount)
		if err != nil {
			return err
		}
		if !confirm(fmt.Sprintf("Buy %s for %s?", ui.GC(amount), ui.Coin(payment, a.symbol()))) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		res, err := withSpinner("Buying…", func() (exchange.TxResult, error) {
			return a.session.Buy(cmd.Context(), amount)
		})
		if err != nil {
			return err
		}
		printTx(a, fmt.Sprintf("Bought %s · balance %s", ui.GC(amount), ui.GC(a.session.Snapshot().Balance)), res)
		return nil
	},
}

var sellCmd = &cobra.Command{
	Use:   "sell <amount>",
	Short: "Sell GymCoin back to the exchange",
	Long: `Sell GymCoin back to the owner for base currency paid from the exchange
reserve: payout = amount / sell-rate.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(args[0])
		if err != nil {
			return err
		}
		a, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		payout, err := a.session.QuoteSell(cmd.Context(), amount)
		if err != nil {
			return err
		}
		if !confirm(fmt.Sprintf("Sell %s for %s?", ui.GC(amount), ui.Coin(payout, a.symbol()))) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		res, err := withSpinner("Selling…", func() (exchange.TxResult, error) {
			return a.session.Sell(cmd.Context(), amount)
		})
		if err != nil {
			return err
		}
		printTx(a, fmt.Sprintf("Sold %s for %s · balance %s", ui.GC(amount), ui.Coin(payout, a.symbol()), ui.GC(a.session.Snapshot().Balance)), res)
		return nil
	},
}

var transferCmd = &cobra.Command{
	Use:   "transfer <to> <amount>",
	Short: "Send GymCoin to another account",
	Long: `Send GymCoin to an address, a configured wallet name, or an ENS name
(mainnet and Sepolia). Transfers need no
registration on either side.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		a, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		to, err := a.resolveAddress(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !confirm(fmt.Sprintf("Send %s to %s?", ui.GC(amount), to.Hex())) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		res, err := withSpinner("Transferring…", func() (exchange.TxResult, error) {
			return a.session.Transfer(cmd.Context(), to, amount)
		})
		if err != nil {
			return err
		}
		printTx(a, fmt.Sprintf("Sent %s to %s", ui.GC(amount), to.Hex()), res)
		return nil
	},
}

var fundCmd = &cobra.Command{
	Use:   "fund <amount>",
	Short: "Add base currency to the exchange reserve",
	Long: `Send base currency into the exchange reserve so sells can be paid out.
Anyone may fund; the owner usually does.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(args[0])
		if err != nil {
			return err
		}
		a, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		if !confirmDanger(fmt.Sprintf("Send %s to the exchange reserve? It cannot be withdrawn.", ui.Coin(amount, a.symbol()))) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		res, err := withSpinner("Funding…", func() (exchange.TxResult, error) {
			return a.session.Fund(cmd.Context(), amount)
		})
		if err != nil {
			return err
		}
		printTx(a, fmt.Sprintf("Reserve now %s", ui.Coin(a.session.Snapshot().Reserve, a.symbol())), res)
		return nil
	},
}
