package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/Mohsinsiddi/gymcli/internal/chain"
	"github.com/Mohsinsiddi/gymcli/internal/config"
	"github.com/Mohsinsiddi/gymcli/internal/contract"
	"github.com/Mohsinsiddi/gymcli/internal/ens"
	"github.com/Mohsinsiddi/gymcli/internal/exchange"
	"github.com/Mohsinsiddi/gymcli/internal/history"
	"github.com/Mohsinsiddi/gymcli/internal/ledger"
	"github.com/Mohsinsiddi/gymcli/internal/rpc"
	"github.com/Mohsinsiddi/gymcli/internal/session"
	"github.com/Mohsinsiddi/gymcli/internal/ui"
	"github.com/Mohsinsiddi/gymcli/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"golang.org/x/term"
)

// newWalletManager creates a Manager backed by the config-dir JSON store and
// the OS keychain. Without a keychain only watch-only wallets work.
func newWalletManager() *wallet.Manager {
	opts := []wallet.Option{wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath()))}
	ks, err := wallet.OpenKeystore(cfg.Dir())
	if err != nil {
		logger.Warn("keychain unavailable; signing wallets disabled", "err", err)
	} else {
		opts = append(opts, wallet.WithKeystore(ks))
	}
	return wallet.NewManager(opts...)
}

func newProvider(mgr *wallet.Manager) *wallet.Provider {
	return wallet.NewProvider(cfg, mgr,
		wallet.WithApprover(approveNetwork),
		wallet.WithProviderLogger(logger),
	)
}

// approveNetwork asks before the wallet learns a new network.
func approveNetwork(n chain.Network) bool {
	if assumeYes {
		return true
	}
	fmt.Println(ui.KeyValueBlock("Add network", [][2]string{
		{"Name", n.DisplayName},
		{"Chain ID", fmt.Sprintf("%d", n.ChainID)},
		{"RPC", strings.Join(n.RPCs, ", ")},
		{"Currency", n.Currency},
	}))
	return ui.Stdio().Confirm(fmt.Sprintf("Allow gymcli to add %s?", n.Name))
}

func confirm(prompt string) bool {
	return assumeYes || ui.Stdio().Confirm(prompt)
}

func confirmDanger(prompt string) bool {
	return assumeYes || ui.Stdio().ConfirmDanger(prompt)
}

// targetNetwork is the network the exchange lives on: the in-process devnet
// for the local backend, otherwise --network or the configured one.
func targetNetwork() (chain.Network, error) {
	reg := chain.NewRegistry(cfg.CustomNetworks...)
	if cfg.Backend == config.BackendLocal {
		return reg.GetByChainID(chain.ChainIDLocalhost)
	}
	name := networkFlag
	if name == "" {
		name = cfg.Network
	}
	n, err := reg.GetByName(name)
	if err != nil {
		return chain.Network{}, fmt.Errorf("%w — run `gymcli network list` to see known networks", err)
	}
	if n.InProcess {
		return chain.Network{}, fmt.Errorf("network %s is served by the local backend — run `gymcli config set-backend local`", n.Name)
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// backend
// ---------------------------------------------------------------------------

// backend opens whichever ledger the target network has and binds it to the
// connected account.
type backend struct {
	target   chain.Network
	provider *wallet.Provider

	mu     sync.Mutex
	local  *ledger.Ledger
	client *chain.EVMClient
	deploy *config.Deployment
}

func newBackend(target chain.Network, p *wallet.Provider) *backend {
	return &backend{target: target, provider: p}
}

func (b *backend) Bind(ctx context.Context, account common.Address) (exchange.Ledger, error) {
	if b.target.InProcess {
		l, err := b.ledger()
		if err != nil {
			return nil, err
		}
		return l.As(account), nil
	}

	client, err := b.rpc(ctx)
	if err != nil {
		return nil, err
	}
	d, err := b.deployment()
	if err != nil {
		return nil, err
	}

	var tx *contract.Transactor
	signer, err := b.provider.Signer()
	switch {
	case err == nil && signer.Address() == account:
		tx = contract.NewTransactor(client, signer, b.target.ChainID,
			contract.WithPollInterval(config.ReceiptPollEvery),
			contract.WithLogger(logger),
		)
	case err != nil && !errors.Is(err, wallet.ErrCapabilityUnavailable):
		return nil, err
	}
	logger.Debug("bound contract client", "account", account.Hex(), "exchange", d.ExchangeLedger, "read_only", tx == nil)
	return contract.NewClient(client, *d, account, tx)
}

// ledger opens the devnet ledger file, or reloads it when already open so
// writes from other gymcli processes are seen.
func (b *backend) ledger() (*ledger.Ledger, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.local != nil {
		return b.local, b.local.Reload()
	}
	l, err := ledger.Open(ledger.NewFileStore(cfg.LedgerPath()), ledger.WithRegistrationGate(true))
	if errors.Is(err, ledger.ErrNotDeployed) {
		return nil, fmt.Errorf("%w — run `gymcli deploy` first", err)
	}
	if err != nil {
		return nil, err
	}
	b.local = l
	return l, nil
}

func (b *backend) rpc(ctx context.Context) (*chain.EVMClient, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client != nil {
		return b.client, nil
	}
	url, err := rpc.Best(ctx, b.provider.RPCs(b.target), b.target.ChainID, rpc.ParseAlgorithm(cfg.RPCAlgorithm))
	if err != nil {
		return nil, fmt.Errorf("no usable RPC for %s: %w", b.target.Name, err)
	}
	logger.Debug("picked rpc", "network", b.target.Name, "url", url)
	b.client = chain.NewEVMClient(url)
	return b.client, nil
}

func (b *backend) deployment() (*config.Deployment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deploy != nil {
		return b.deploy, nil
	}
	d, err := cfg.LoadDeployment(b.target.Name)
	if errors.Is(err, config.ErrNoDeployment) {
		return nil, fmt.Errorf("%w — run `gymcli deploy` or `gymcli deploy import <file>`", err)
	}
	if err != nil {
		return nil, err
	}
	b.deploy = d
	return d, nil
}

// history returns the record source for the target network.
func (b *backend) history(ctx context.Context) (history.Source, error) {
	if b.target.InProcess {
		l, err := b.ledger()
		if err != nil {
			return nil, err
		}
		return history.NewLedgerSource(l), nil
	}
	client, err := b.rpc(ctx)
	if err != nil {
		return nil, err
	}
	d, err := b.deployment()
	if err != nil {
		return nil, err
	}
	return history.NewLogSource(client, common.HexToAddress(d.ExchangeLedger), config.HistoryBlockWindow), nil
}

// refresh re-reads shared state before a session refresh.
func (b *backend) refresh() error {
	if !b.target.InProcess {
		return nil
	}
	_, err := b.ledger()
	return err
}

// ---------------------------------------------------------------------------
// session
// ---------------------------------------------------------------------------

// app is what a command needs to talk to the exchange.
type app struct {
	wallets  *wallet.Manager
	provider *wallet.Provider
	backend  *backend
	session  *session.Session
}

func newApp() (*app, error) {
	target, err := targetNetwork()
	if err != nil {
		return nil, err
	}
	mgr := newWalletManager()
	p := newProvider(mgr)
	b := newBackend(target, p)
	s := session.New(p, b, target,
		session.WithTimeout(cfg.ConfirmWait()),
		session.WithLogger(logger),
	)
	return &app{wallets: mgr, provider: p, backend: b, session: s}, nil
}

// connect builds the app and connects its session.
func connect(ctx context.Context) (*app, error) {
	a, err := newApp()
	if err != nil {
		return nil, err
	}
	if err := a.session.Connect(ctx); err != nil {
		return nil, err
	}
	snap := a.session.Snapshot()
	logger.Debug("connected", "session", snap.ID, "account", snap.Account.Hex(), "network", snap.Network)
	return a, nil
}

// symbol is the base currency of the target network.
func (a *app) symbol() string {
	if c := a.session.Target().Currency; c != "" {
		return c
	}
	return "ETH"
}

// ---------------------------------------------------------------------------
// parsing and printing
// ---------------------------------------------------------------------------

// parseAmount reads a human amount ("1.5") into 18-decimal base units.
func parseAmount(s string) (*uint256.Int, error) {
	v, err := chain.ParseUnits(s, exchange.Decimals)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", exchange.ErrInvalidAmount, err)
	}
	if v.IsZero() {
		return nil, exchange.ErrInvalidAmount
	}
	return v, nil
}

// parseAddress accepts a hex address or the name of a configured wallet.
func parseAddress(s string, mgr *wallet.Manager) (common.Address, error) {
	if common.IsHexAddress(s) {
		return common.HexToAddress(s), nil
	}
	if mgr != nil {
		if w, err := mgr.Get(s); err == nil {
			return w.Account(), nil
		}
	}
	return common.Address{}, fmt.Errorf("%w: %q is neither an address nor a wallet name", exchange.ErrInvalidRecipient, s)
}

// ensName is the primary ENS name of addr, or "" when there is none or the
// network has no registry.
func (a *app) ensName(ctx context.Context, addr common.Address) string {
	target := a.session.Target()
	if target.InProcess || !ens.Supported(target.ChainID) {
		return ""
	}
	client, err := a.backend.rpc(ctx)
	if err != nil {
		return ""
	}
	name, err := ens.ReverseLookup(ctx, client, addr)
	if err != nil {
		logger.Debug("ens reverse lookup", "address", addr.Hex(), "err", err)
		return ""
	}
	return name
}

// resolveAddress is parseAddress plus ENS names on networks with a registry.
func (a *app) resolveAddress(ctx context.Context, s string) (common.Address, error) {
	addr, err := parseAddress(s, a.wallets)
	if err == nil || !ens.IsName(s) {
		return addr, err
	}
	target := a.session.Target()
	if target.InProcess || !ens.Supported(target.ChainID) {
		return common.Address{}, fmt.Errorf("%w: ENS names are not available on %s", exchange.ErrInvalidRecipient, target.Name)
	}
	client, err := a.backend.rpc(ctx)
	if err != nil {
		return common.Address{}, err
	}
	addr, err = ens.Resolve(ctx, client, s)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", exchange.ErrInvalidRecipient, err)
	}
	logger.Debug("resolved ens name", "name", s, "address", addr.Hex())
	return addr, nil
}

// printTx reports a confirmed write.
func printTx(a *app, what string, res exchange.TxResult) {
	fmt.Println(ui.Success(what))
	line := fmt.Sprintf("  tx %s · block %d", res.Hash.Hex(), res.Block)
	if url := a.session.Target().TxURL(res.Hash.Hex()); url != "" {
		line += " · " + url
	}
	fmt.Println(ui.Meta(line))
}

// withSpinner runs fn while a spinner shows msg on interactive terminals.
func withSpinner[T any](msg string, fn func() (T, error)) (T, error) {
	if !isTerminal() {
		return fn()
	}
	spin := ui.NewSpinner(msg)
	spin.Start()
	defer spin.Stop()
	return fn()
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}
