package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Mohsinsiddi/gymcli/internal/chain"
	"github.com/Mohsinsiddi/gymcli/internal/config"
	"github.com/Mohsinsiddi/gymcli/internal/contract"
	"github.com/Mohsinsiddi/gymcli/internal/exchange"
	"github.com/Mohsinsiddi/gymcli/internal/ledger"
	"github.com/Mohsinsiddi/gymcli/internal/rpc"
	"github.com/Mohsinsiddi/gymcli/internal/ui"
	"github.com/spf13/cobra"
)

var (
	deployArtifacts string
	deployBuyRate   string
	deploySellRate  string
	deploySupply    string
	deployForce     bool
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy the exchange to the target network",
	Long: `Deploy the UserProfile registry and the GymCoin exchange ledger.

With the local backend this creates the devnet ledger owned by the active
wallet. On an EVM network it deploys compiled artifacts from a Hardhat
project (artifacts/contracts/<Name>.sol/<Name>.json) with the active signing
wallet and records the addresses in deployments.json.

Examples:
  gymcli deploy                                   # local devnet
  gymcli deploy --buy-rate 100 --sell-rate 200
  gymcli deploy --network hardhat --artifacts ./artifacts`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := targetNetwork()
		if err != nil {
			return err
		}
		rates, err := deployRates()
		if err != nil {
			return err
		}
		if err := rates.CheckSpread(); err != nil && !deployForce {
			return fmt.Errorf("%w (pass --force to deploy anyway)", err)
		}
		if target.InProcess {
			return deployLocal(rates)
		}
		return deployEVM(cmd.Context(), target, rates)
	},
}

var deployImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Record an existing deployment from an address file",
	Long: `Record contract addresses written by another tool, e.g. the
contractAddresses.json of the Hardhat deploy script:

  {"userProfile": "0x...", "gymCoin": "0x..."}`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := targetNetwork()
		if err != nil {
			return err
		}
		if target.InProcess {
			return fmt.Errorf("the local backend has no contract addresses to import")
		}
		d, err := config.ReadDeploymentFile(args[0])
		if err != nil {
			return err
		}
		if err := cfg.SaveDeployment(target.Name, *d); err != nil {
			return err
		}
		printDeployment(target, *d)
		return nil
	},
}

var deployShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the recorded deployment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := targetNetwork()
		if err != nil {
			return err
		}
		if target.InProcess {
			l, err := ledger.Open(ledger.NewFileStore(cfg.LedgerPath()))
			if err != nil {
				return err
			}
			fmt.Println(ui.KeyValueBlock("Local ledger", [][2]string{
				{"File", cfg.LedgerPath()},
				{"Owner", l.Owner().Hex()},
				{"Total supply", ui.GC(l.TotalSupply())},
			}))
			return nil
		}
		d, err := cfg.LoadDeployment(target.Name)
		if err != nil {
			return err
		}
		printDeployment(target, *d)
		return nil
	},
}

func deployRates() (exchange.Rates, error) {
	buy, err := parseAmount(deployBuyRate)
	if err != nil {
		return exchange.Rates{}, fmt.Errorf("--buy-rate: %w", err)
	}
	sell, err := parseAmount(deploySellRate)
	if err != nil {
		return exchange.Rates{}, fmt.Errorf("--sell-rate: %w", err)
	}
	r := exchange.Rates{Buy: buy, Sell: sell}
	return r, r.Validate()
}

func deployLocal(rates exchange.Rates) error {
	_, statErr := os.Stat(cfg.LedgerPath())
	exists := statErr == nil
	if exists && !deployForce {
		return fmt.Errorf("a local ledger already exists at %s (pass --force to replace it)", cfg.LedgerPath())
	}
	supply, err := parseAmount(deploySupply)
	if err != nil {
		return fmt.Errorf("--supply: %w", err)
	}

	owner, err := newProvider(newWalletManager()).ActiveWallet()
	if err != nil {
		return err
	}
	if exists && !confirmDanger("Replace the local ledger? All balances are lost.") {
		fmt.Println(ui.Meta("Cancelled."))
		return nil
	}

	l, err := ledger.New(owner.Account(),
		ledger.WithStore(ledger.NewFileStore(cfg.LedgerPath())),
		ledger.WithRates(rates),
		ledger.WithInitialSupply(supply),
	)
	if err != nil {
		return err
	}
	fmt.Println(ui.Success("Local ledger deployed."))
	fmt.Println(ui.KeyValueBlock("", [][2]string{
		{"Owner", owner.Address + " (" + owner.Name + ")"},
		{"Total supply", ui.GC(l.TotalSupply())},
		{"Rates", ui.RateLine(l.Rates(), "ETH")},
		{"File", cfg.LedgerPath()},
	}))
	return nil
}

func deployEVM(ctx context.Context, target chain.Network, rates exchange.Rates) error {
	profile, err := contract.LoadArtifact(contract.HardhatArtifactPath(deployArtifacts, "UserProfile"))
	if err != nil {
		return err
	}
	coin, err := contract.LoadArtifact(contract.HardhatArtifactPath(deployArtifacts, "GymCoin"))
	if err != nil {
		return err
	}

	p := newProvider(newWalletManager())
	signer, err := p.Signer()
	if err != nil {
		return err
	}
	url, err := rpc.Best(ctx, p.RPCs(target), target.ChainID, rpc.ParseAlgorithm(cfg.RPCAlgorithm))
	if err != nil {
		return fmt.Errorf("no usable RPC for %s: %w", target.Name, err)
	}
	client := chain.NewEVMClient(url)
	id, err := client.ChainID(ctx)
	if err != nil {
		return err
	}
	if id != target.ChainID {
		return fmt.Errorf("%s serves chain %d, want %d", url, id, target.ChainID)
	}

	if !confirm(fmt.Sprintf("Deploy UserProfile + GymCoin to %s from %s?", target.Name, signer.Address().Hex())) {
		fmt.Println(ui.Meta("Cancelled."))
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 2*cfg.ConfirmWait())
	defer cancel()
	tx := contract.NewTransactor(client, signer, target.ChainID, contract.WithLogger(logger))
	d, err := withSpinner("Deploying contracts…", func() (config.Deployment, error) {
		return contract.DeployExchange(ctx, tx, profile, coin)
	})
	if err != nil {
		return err
	}
	if err := cfg.SaveDeployment(target.Name, d); err != nil {
		return err
	}
	printDeployment(target, d)

	// The constructor sets its own rates; only override when asked to.
	if deployBuyRate == defaultBuyRate && deploySellRate == defaultSellRate {
		return nil
	}
	c, err := contract.NewClient(client, d, signer.Address(), tx)
	if err != nil {
		return err
	}
	res, err := withSpinner("Setting rates…", func() (exchange.TxResult, error) {
		return c.SetRates(ctx, rates)
	})
	if errors.Is(err, exchange.ErrNotOwner) {
		return fmt.Errorf("deployed, but setting rates failed: %w", err)
	}
	if err != nil {
		return err
	}
	fmt.Println(ui.Success(fmt.Sprintf("Rates set: %s (block %d)", ui.RateLine(rates, target.Currency), res.Block)))
	return nil
}

func printDeployment(target chain.Network, d config.Deployment) {
	fmt.Println(ui.Success(fmt.Sprintf("Deployment recorded for %s", ui.ChainName(target.Name))))
	fmt.Println(ui.KeyValueBlock("", [][2]string{
		{"UserProfile", d.UserRegistry},
		{"GymCoin", d.ExchangeLedger},
		{"Deployer", d.Deployer},
		{"Deployed at", d.DeployedAt},
	}))
}

const (
	defaultBuyRate  = "100"
	defaultSellRate = "200"
)

func init() {
	deployCmd.Flags().StringVar(&deployArtifacts, "artifacts", "artifacts", "Hardhat artifacts directory")
	deployCmd.Flags().StringVar(&deployBuyRate, "buy-rate", defaultBuyRate, "GC received per 1 base unit paid")
	deployCmd.Flags().StringVar(&deploySellRate, "sell-rate", defaultSellRate, "GC given per 1 base unit paid out")
	deployCmd.Flags().StringVar(&deploySupply, "supply", "1000000", "initial GC supply minted to the owner (local backend)")
	deployCmd.Flags().BoolVar(&deployForce, "force", false, "replace an existing local ledger or accept an inverted spread")
	deployCmd.AddCommand(deployImportCmd, deployShowCmd)
}
