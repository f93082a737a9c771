package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/gymcli/internal/exchange"
	"github.com/Mohsinsiddi/gymcli/internal/ui"
	"github.com/spf13/cobra"
)

var (
	ratesBuy   string
	ratesSell  string
	ratesForce bool
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Show or set exchange rates",
}

var ratesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current rates and a sample quote",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		snap := a.session.Snapshot()
		sym := a.symbol()
		pairs := [][2]string{
			{"Buy rate", ui.GC(snap.Rates.Buy) + " per " + sym},
			{"Sell rate", ui.GC(snap.Rates.Sell) + " per " + sym},
			{"Reserve", ui.Coin(snap.Reserve, sym)},
		}
		if q, err := exchange.PaymentFor(exchange.One, snap.Rates.Buy); err == nil {
			pairs = append(pairs, [2]string{"1 GC costs", ui.Coin(q, sym)})
		}
		if q, err := exchange.PayoutFor(exchange.One, snap.Rates.Sell); err == nil {
			pairs = append(pairs, [2]string{"1 GC pays", ui.Coin(q, sym)})
		}
		fmt.Println(ui.KeyValueBlock("Rates", pairs))
		if err := snap.Rates.CheckSpread(); err != nil {
			fmt.Println(ui.Warn("Inverted spread: a buy-then-sell round trip drains the reserve."))
		}
		return nil
	},
}

var ratesSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set both rates (owner only)",
	Long: `Set the buy and sell rates in GC per 1 base unit. The sell rate must be
higher than the buy rate unless --force is given.

Example:
  gymcli rates set --buy 100 --sell 200`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		buy, err := parseAmount(ratesBuy)
		if err != nil {
			return fmt.Errorf("--buy: %w", err)
		}
		sell, err := parseAmount(ratesSell)
		if err != nil {
			return fmt.Errorf("--sell: %w", err)
		}
		r := exchange.Rates{Buy: buy, Sell: sell}

		a, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		if !confirmDanger(fmt.Sprintf("Set rates to %s?", ui.RateLine(r, a.symbol()))) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		res, err := withSpinner("Setting rates…", func() (exchange.TxResult, error) {
			return a.session.SetRates(cmd.Context(), r, ratesForce)
		})
		if err != nil {
			return err
		}
		printTx(a, "Rates set: "+ui.RateLine(a.session.Snapshot().Rates, a.symbol()), res)
		return nil
	},
}

func init() {
	ratesSetCmd.Flags().StringVar(&ratesBuy, "buy", "", "GC received per 1 base unit paid (required)")
	ratesSetCmd.Flags().StringVar(&ratesSell, "sell", "", "GC given per 1 base unit paid out (required)")
	ratesSetCmd.Flags().BoolVar(&ratesForce, "force", false, "allow a sell rate at or below the buy rate")
	_ = ratesSetCmd.MarkFlagRequired("buy")
	_ = ratesSetCmd.MarkFlagRequired("sell")
	ratesCmd.AddCommand(ratesShowCmd, ratesSetCmd)
}
