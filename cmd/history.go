package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/gymcli/internal/history"
	"github.com/Mohsinsiddi/gymcli/internal/ui"
	"github.com/spf13/cobra"
)

var (
	historyLimit       int
	historyInteractive bool
)

var historyCmd = &cobra.Command{
	Use:   "history [address|wallet]",
	Short: "Show recent GymCoin transfers",
	Long: `Show the most recent GymCoin movements for an account: buys, sells and
transfers, newest first. Defaults to the active wallet.

With --interactive, browse the list and press o (or enter) to open a
transaction in the explorer or c to copy its hash.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyLimit <= 0 {
			return fmt.Errorf("--limit must be positive")
		}
		a, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		account, err := accountArg(cmd.Context(), a, args)
		if err != nil {
			return err
		}
		src, err := a.backend.history(cmd.Context())
		if err != nil {
			return err
		}
		records, err := withSpinner("Reading history…", func() ([]history.Record, error) {
			return src.Recent(cmd.Context(), account, historyLimit)
		})
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println(ui.Meta("No GymCoin activity for " + account.Hex()))
			return nil
		}

		target := a.session.Target()
		table, rows := ui.HistoryTable(records, account, target)
		title := fmt.Sprintf("GymCoin history · %s · %s", ui.TruncateAddr(account.Hex()), target.DisplayName)
		if historyInteractive && isTerminal() {
			return ui.RunTxList(title, table, rows)
		}
		fmt.Println(ui.Meta(title))
		fmt.Println(table.Render())
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "number of entries to show")
	historyCmd.Flags().BoolVarP(&historyInteractive, "interactive", "i", false, "browse entries interactively")
}
