package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Mohsinsiddi/gymcli/internal/chain"
	"github.com/Mohsinsiddi/gymcli/internal/config"
	"github.com/ethereum/go-ethereum/common"
)

// Wallet capability errors.
var (
	ErrUserRejected          = errors.New("request rejected by user")
	ErrUnsupportedNetwork    = errors.New("unsupported network")
	ErrCapabilityUnavailable = errors.New("wallet unavailable")
	ErrUnknownNetwork        = errors.New("network unknown to wallet")
)

// EventKind identifies a wallet notification.
type EventKind int

const (
	AccountsChanged EventKind = iota + 1
	NetworkChanged
	Disconnected
)

func (k EventKind) String() string {
	switch k {
	case AccountsChanged:
		return "accountsChanged"
	case NetworkChanged:
		return "networkChanged"
	case Disconnected:
		return "disconnect"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a notification delivered by Subscribe. Accounts is set for
// AccountsChanged (empty means every account was removed), ChainID for
// NetworkChanged.
type Event struct {
	Kind     EventKind
	Accounts []common.Address
	ChainID  int64
}

// defaultMisses is how many failed chain polls in a row Subscribe tolerates
// before reporting Disconnected.
const defaultMisses = 3

// ApproveFunc decides whether an unknown network may be added.
type ApproveFunc func(chain.Network) bool

// Provider exposes the wallet store and the active network as the wallet
// capability a connection session talks to.
type Provider struct {
	mu      sync.Mutex
	cfg     *config.Config
	wallets *Manager
	approve ApproveFunc
	poll    time.Duration
	misses  int
	log     *slog.Logger
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithApprover sets the add-network approval hook. Without one every
// add-network request is rejected.
func WithApprover(fn ApproveFunc) ProviderOption {
	return func(p *Provider) { p.approve = fn }
}

// WithPoll overrides the config's poll interval for Subscribe.
func WithPoll(d time.Duration) ProviderOption {
	return func(p *Provider) { p.poll = d }
}

// WithDisconnectAfter sets how many failed chain polls in a row Subscribe
// tolerates before reporting Disconnected.
func WithDisconnectAfter(n int) ProviderOption {
	return func(p *Provider) {
		if n > 0 {
			p.misses = n
		}
	}
}

// WithProviderLogger sets the logger.
func WithProviderLogger(l *slog.Logger) ProviderOption {
	return func(p *Provider) { p.log = l }
}

// NewProvider creates a provider over cfg and wallets. cfg is updated and
// saved when the network is switched or added.
func NewProvider(cfg *config.Config, wallets *Manager, opts ...ProviderOption) *Provider {
	p := &Provider{
		cfg:     cfg,
		wallets: wallets,
		poll:    cfg.Poll(),
		misses:  defaultMisses,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RequestAccounts returns the active wallet's address. A signing wallet's
// key must be released by the keychain.
func (p *Provider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w, err := p.ActiveWallet()
	if err != nil {
		return nil, err
	}
	if w.CanSign() {
		ks := p.wallets.Keystore()
		if ks == nil {
			return nil, fmt.Errorf("%w: %v", ErrCapabilityUnavailable, ErrNoKeystore)
		}
		if _, err := ks.Retrieve(w.KeyRef); err != nil {
			return nil, fmt.Errorf("%w: unlocking %q: %v", ErrUserRejected, w.Name, err)
		}
	}
	return []common.Address{w.Account()}, nil
}

// ActiveWallet is the configured default wallet, or the only one.
func (p *Provider) ActiveWallet() (*Wallet, error) {
	p.mu.Lock()
	name := p.cfg.DefaultWallet
	p.mu.Unlock()
	return p.activeWallet(name)
}

func (p *Provider) activeWallet(name string) (*Wallet, error) {
	if name != "" {
		w, err := p.wallets.Get(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCapabilityUnavailable, err)
		}
		return w, nil
	}
	if w := p.wallets.Default(); w != nil {
		return w, nil
	}
	return nil, fmt.Errorf("%w: no wallet configured (run: gymcli wallet add)", ErrCapabilityUnavailable)
}

// Signer returns a transaction signer for the active wallet.
func (p *Provider) Signer() (*Signer, error) {
	w, err := p.ActiveWallet()
	if err != nil {
		return nil, err
	}
	return NewSigner(w, p.wallets.Keystore())
}

// Networks is the set of networks the wallet knows, built-in plus custom.
func (p *Provider) Networks() *chain.Registry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return chain.NewRegistry(p.cfg.CustomNetworks...)
}

// Network is the wallet's active network.
func (p *Provider) Network() (chain.Network, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.network()
}

func (p *Provider) network() (chain.Network, error) {
	n, err := chain.NewRegistry(p.cfg.CustomNetworks...).GetByName(p.cfg.Network)
	if err != nil {
		return chain.Network{}, fmt.Errorf("%w: %v", ErrUnsupportedNetwork, err)
	}
	return n, nil
}

// RPCs lists the endpoints for n: configured overrides first, then the
// network's own.
func (p *Provider) RPCs(n chain.Network) []string {
	p.mu.Lock()
	urls := p.cfg.GetRPCs(n.Name)
	p.mu.Unlock()
	for _, u := range n.RPCs {
		if !slices.Contains(urls, u) {
			urls = append(urls, u)
		}
	}
	return urls
}

// ChainID reports the active network's chain ID. RPC networks are asked
// with eth_chainId; the in-process devnet answers for itself.
func (p *Provider) ChainID(ctx context.Context) (int64, error) {
	n, err := p.Network()
	if err != nil {
		return 0, err
	}
	if n.InProcess {
		return n.ChainID, nil
	}
	urls := p.RPCs(n)
	if len(urls) == 0 {
		return 0, fmt.Errorf("%w: no RPC for %s", ErrCapabilityUnavailable, n.Name)
	}
	id, err := chain.NewEVMClient(urls[0]).ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrCapabilityUnavailable, n.Name, err)
	}
	return id, nil
}

// SwitchNetwork makes the known network with chainID active.
func (p *Provider) SwitchNetwork(ctx context.Context, chainID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	n, err := chain.NewRegistry(p.cfg.CustomNetworks...).GetByChainID(chainID)
	if err != nil {
		return fmt.Errorf("%w: chain id %d", ErrUnknownNetwork, chainID)
	}
	if p.cfg.Network == n.Name {
		return nil
	}
	p.cfg.Network = n.Name
	if err := p.cfg.Save(); err != nil {
		return fmt.Errorf("saving network: %w", err)
	}
	p.log.Info("switched network", "network", n.Name, "chain_id", n.ChainID)
	return nil
}

// AddNetwork stores n as a custom network and activates it, once approved.
func (p *Provider) AddNetwork(ctx context.Context, n chain.Network) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := n.Validate(); err != nil {
		return err
	}
	if p.approve == nil || !p.approve(n) {
		return fmt.Errorf("%w: adding network %s", ErrUserRejected, n.Name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.AddNetwork(n.Entry())
	p.cfg.Network = n.Name
	if err := p.cfg.Save(); err != nil {
		return fmt.Errorf("saving network: %w", err)
	}
	p.log.Info("added network", "network", n.Name, "chain_id", n.ChainID)
	return nil
}

// ---------------------------------------------------------------------------
// notifications
// ---------------------------------------------------------------------------

// Subscribe polls the config and wallet store and reports account and
// network changes until ctx ends or cancel is called. cancel closes the
// channel and may be called more than once.
func (p *Provider) Subscribe(ctx context.Context) (<-chan Event, func()) {
	ctx, stop := context.WithCancel(ctx)
	ch := make(chan Event)
	done := make(chan struct{})
	first := p.observe(ctx)

	go func() {
		defer close(done)
		defer close(ch)
		p.watch(ctx, ch, first)
	}()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			stop()
			<-done
		})
	}
}

type observation struct {
	accounts []common.Address
	chainID  int64
	up       bool
}

func (p *Provider) watch(ctx context.Context, ch chan<- Event, last observation) {
	ticker := time.NewTicker(p.poll)
	defer ticker.Stop()

	failed := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		p.refresh()
		next := p.observe(ctx)
		if ctx.Err() != nil {
			return
		}
		if next.up {
			failed = 0
		} else if last.up {
			failed++
			if failed < p.misses {
				p.log.Debug("chain poll missed", "misses", failed, "limit", p.misses)
				next.chainID, next.up = last.chainID, true
			}
		}
		for _, ev := range diff(last, next) {
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
		last = next
	}
}

func (p *Provider) observe(ctx context.Context) observation {
	var obs observation
	if w, err := p.ActiveWallet(); err == nil {
		obs.accounts = []common.Address{w.Account()}
	}
	id, err := p.ChainID(ctx)
	if err != nil {
		p.log.Debug("chain poll failed", "err", err)
		return obs
	}
	obs.chainID, obs.up = id, true
	return obs
}

func diff(prev, next observation) []Event {
	var out []Event
	if !slices.Equal(prev.accounts, next.accounts) {
		out = append(out, Event{Kind: AccountsChanged, Accounts: next.accounts})
	}
	switch {
	case prev.up && !next.up:
		out = append(out, Event{Kind: Disconnected})
	case next.up && (!prev.up || prev.chainID != next.chainID):
		out = append(out, Event{Kind: NetworkChanged, ChainID: next.chainID})
	}
	return out
}

// refresh picks up changes other gymcli processes saved to disk.
func (p *Provider) refresh() {
	fresh, err := config.Load(p.cfg.Dir())
	if err != nil {
		p.log.Warn("reloading config", "err", err)
	} else {
		fresh.ApplyEnv()
		p.mu.Lock()
		p.cfg.Network = fresh.Network
		p.cfg.DefaultWallet = fresh.DefaultWallet
		p.cfg.CustomNetworks = fresh.CustomNetworks
		p.mu.Unlock()
	}
	if err := p.wallets.Reload(); err != nil {
		p.log.Warn("reloading wallets", "err", err)
	}
}
