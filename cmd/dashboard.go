package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/gymcli/internal/session"
	"github.com/Mohsinsiddi/gymcli/internal/ui"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"watch"},
	Short:   "Live view of the connected session",
	Long: `Open a live dashboard for the active wallet. It follows wallet events
(account and network changes) and polls the ledger every poll interval.
If the node stops answering the session reconnects on the next poll.

Keys: r refresh · q quit`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isTerminal() {
			return fmt.Errorf("dashboard needs an interactive terminal; use `gymcli status`")
		}
		a, err := connect(cmd.Context())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go func() {
			if err := a.session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("session loop stopped", "err", err)
			}
		}()

		p := ui.NewDashboard(ui.DashboardConfig{
			Initial: a.session.Snapshot(),
			Updates: a.session.Updates(),
			Refresh: func() error {
				if err := a.backend.refresh(); err != nil {
					return err
				}
				// A dropped RPC resets the session; try again on every tick.
				if a.session.Snapshot().State == session.Disconnected {
					return a.session.Connect(ctx)
				}
				return a.session.Refresh(ctx)
			},
			Interval: cfg.Poll(),
			Symbol:   a.symbol(),
		})
		_, err = p.Run()
		return err
	},
}
