package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Mohsinsiddi/gymcli/internal/config"
	"github.com/Mohsinsiddi/gymcli/internal/session"
	"github.com/Mohsinsiddi/gymcli/internal/ui"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/gymcli/cmd.Version=1.2.3" .
var Version = "1.0.0"

var (
	cfgDir      string
	cfg         *config.Config
	logger      = slog.Default()
	verbose     bool
	networkFlag string
	assumeYes   bool
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "gymcli",
	Short: "GymCoin exchange from your terminal",
	Long: `gymcli — register, buy, sell and transfer GymCoin (GC).

  Talks to the UserProfile + GymCoin contracts on an EVM network, or to an
  in-process devnet ledger stored next to your config (backend "local").

Global flag --network targets a network for a single invocation; the wallet
is asked to switch to it (or add it) on connect. Without the flag the
configured network is used (default: sepolia).`,
	Version:       Version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger()
		slog.SetDefault(logger)

		// Load config (skip for commands that don't need it).
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := config.LoadEnv(cfg.Dir()); err != nil {
			return fmt.Errorf("loading .env: %w", err)
		}
		cfg.ApplyEnv()
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger.Debug("config loaded", "dir", cfg.Dir(), "backend", cfg.Backend, "network", cfg.Network)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Err(session.Describe(err)))
		logger.Debug("command failed", "err", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func init() {
	// GYMCLI_CONFIG_DIR env var overrides the --config default.
	if envDir := os.Getenv(config.EnvConfigDir); envDir != "" {
		cfgDir = envDir
	}

	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.gymcli)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
	rootCmd.PersistentFlags().StringVarP(&networkFlag, "network", "n", "", "network the exchange lives on (default: configured network)")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "answer yes to confirmation prompts")

	// Register all sub-commands.
	rootCmd.AddCommand(
		initCmd,
		configCmd,
		walletCmd,
		networkCmd,
		deployCmd,
		connectCmd,
		statusCmd,
		registerCmd,
		profileCmd,
		balanceCmd,
		buyCmd,
		sellCmd,
		transferCmd,
		fundCmd,
		ratesCmd,
		historyCmd,
		dashboardCmd,
	)
}
