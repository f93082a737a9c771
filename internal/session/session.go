// Package session tracks a wallet connection to the GymCoin exchange: the
// active account, whether the wallet sits on the supported network, and the
// owner and registration status derived from the ledger.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Mohsinsiddi/gymcli/internal/chain"
	"github.com/Mohsinsiddi/gymcli/internal/config"
	"github.com/Mohsinsiddi/gymcli/internal/exchange"
	"github.com/Mohsinsiddi/gymcli/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Session errors.
var (
	ErrNotConnected   = errors.New("wallet not connected")
	ErrTimeout        = errors.New("timed out waiting for confirmation")
	ErrAlreadyRunning = errors.New("session is already listening for wallet events")
)

// State is the connection state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Wallet is the capability a session connects through.
type Wallet interface {
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	ChainID(ctx context.Context) (int64, error)
	SwitchNetwork(ctx context.Context, chainID int64) error
	AddNetwork(ctx context.Context, n chain.Network) error
	Subscribe(ctx context.Context) (<-chan wallet.Event, func())
}

// Binder returns the ledger surface acting on behalf of account.
type Binder interface {
	Bind(ctx context.Context, account common.Address) (exchange.Ledger, error)
}

// BinderFunc adapts a function to Binder.
type BinderFunc func(ctx context.Context, account common.Address) (exchange.Ledger, error)

func (f BinderFunc) Bind(ctx context.Context, account common.Address) (exchange.Ledger, error) {
	return f(ctx, account)
}

// Session is one wallet connection. It is safe for concurrent use; state
// transitions and writes are serialized.
type Session struct {
	wallet  Wallet
	binder  Binder
	target  chain.Network
	timeout time.Duration
	log     *slog.Logger

	op      sync.Mutex // serializes transitions and writes
	running atomic.Bool

	mu      sync.Mutex
	snap    Snapshot
	ledger  exchange.Ledger
	updates chan Snapshot
}

// Option configures a Session.
type Option func(*Session)

// WithTimeout bounds how long a write may wait for confirmation.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// New creates a disconnected session that connects through w to the
// exchange on target, binding ledgers with b.
func New(w Wallet, b Binder, target chain.Network, opts ...Option) *Session {
	s := &Session{
		wallet:  w,
		binder:  b,
		target:  target,
		timeout: config.TxConfirmTimeout,
		log:     slog.Default(),
		updates: make(chan Snapshot, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.snap = Snapshot{Network: target.Name, Target: target.ChainID}
	return s
}

// Target is the network the exchange lives on.
func (s *Session) Target() chain.Network { return s.target }

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.clone()
}

// Updates delivers a snapshot after every change. Slow readers only see the
// latest one.
func (s *Session) Updates() <-chan Snapshot {
	return s.updates
}

// Ledger is the ledger bound to the connected account.
func (s *Session) Ledger() (exchange.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.State != Connected || s.ledger == nil {
		return nil, ErrNotConnected
	}
	return s.ledger, nil
}

// ---------------------------------------------------------------------------
// lifecycle
// ---------------------------------------------------------------------------

// Connect requests account access, moves the wallet onto the target network
// (adding it if the wallet does not know it) and derives the account's
// status. On any failure the session is left Disconnected.
func (s *Session) Connect(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	id := uuid.NewString()
	s.update(func(sn *Snapshot) {
		*sn = Snapshot{ID: id, State: Connecting, Network: s.target.Name, Target: s.target.ChainID}
	})
	log := s.log.With("session", id)
	log.Debug("connecting", "network", s.target.Name)

	if err := s.connect(ctx); err != nil {
		log.Warn("connect failed", "err", err)
		s.reset()
		return err
	}
	snap := s.Snapshot()
	log.Info("connected", "account", snap.Account.Hex(), "owner", snap.IsOwner, "registered", snap.User.Registered)
	return nil
}

func (s *Session) connect(ctx context.Context) error {
	accounts, err := s.wallet.RequestAccounts(ctx)
	if err != nil {
		return fmt.Errorf("requesting accounts: %w", err)
	}
	if len(accounts) == 0 {
		return fmt.Errorf("%w: wallet returned no accounts", wallet.ErrCapabilityUnavailable)
	}
	if err := s.ensureNetwork(ctx); err != nil {
		return err
	}
	return s.bind(ctx, accounts[0])
}

// ensureNetwork switches the wallet to the target, adding the network first
// when the wallet has never seen it.
func (s *Session) ensureNetwork(ctx context.Context) error {
	id, err := s.wallet.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("reading wallet network: %w", err)
	}
	if id == s.target.ChainID {
		s.update(func(sn *Snapshot) { sn.ChainID, sn.NetworkOK = id, true })
		return nil
	}

	s.log.Debug("wallet on wrong network", "chain_id", id, "want", s.target.ChainID)
	err = s.wallet.SwitchNetwork(ctx, s.target.ChainID)
	if errors.Is(err, wallet.ErrUnknownNetwork) {
		err = s.wallet.AddNetwork(ctx, s.target)
	}
	if err != nil {
		return fmt.Errorf("switching to %s: %w", s.target.Name, err)
	}

	id, err = s.wallet.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("reading wallet network: %w", err)
	}
	if id != s.target.ChainID {
		return fmt.Errorf("%w: wallet is on chain %d, want %d", wallet.ErrUnsupportedNetwork, id, s.target.ChainID)
	}
	s.update(func(sn *Snapshot) { sn.ChainID, sn.NetworkOK = id, true })
	return nil
}

// bind attaches a ledger for account and derives everything the snapshot
// shows about it.
func (s *Session) bind(ctx context.Context, account common.Address) error {
	l, err := s.binder.Bind(ctx, account)
	if err != nil {
		return fmt.Errorf("binding ledger: %w", err)
	}
	d, err := derive(ctx, l, account)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ledger = l
	s.mu.Unlock()
	s.update(func(sn *Snapshot) {
		sn.State = Connected
		sn.Account = account
		d.apply(sn)
	})
	return nil
}

// Disconnect drops the connection.
func (s *Session) Disconnect() {
	s.op.Lock()
	defer s.op.Unlock()
	s.reset()
}

func (s *Session) reset() {
	s.mu.Lock()
	s.ledger = nil
	s.mu.Unlock()
	s.update(func(sn *Snapshot) {
		*sn = Snapshot{ID: sn.ID, State: Disconnected, Network: s.target.Name, Target: s.target.ChainID, LastTx: sn.LastTx}
	})
}

// Refresh re-reads the connected account's status from the ledger.
func (s *Session) Refresh(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()
	return s.refresh(ctx)
}

func (s *Session) refresh(ctx context.Context) error {
	s.mu.Lock()
	l, account, state := s.ledger, s.snap.Account, s.snap.State
	s.mu.Unlock()
	if state != Connected || l == nil {
		return ErrNotConnected
	}
	d, err := derive(ctx, l, account)
	if err != nil {
		return err
	}
	s.update(d.apply)
	return nil
}

// ---------------------------------------------------------------------------
// wallet events
// ---------------------------------------------------------------------------

// Handle applies one wallet notification. Errors leave the session in its
// last known-good state or Disconnected; they are returned for display.
func (s *Session) Handle(ctx context.Context, ev wallet.Event) error {
	s.op.Lock()
	defer s.op.Unlock()

	log := s.log.With("session", s.Snapshot().ID, "event", ev.Kind.String())
	switch ev.Kind {
	case wallet.Disconnected:
		log.Info("wallet disconnected")
		s.reset()
		return nil

	case wallet.AccountsChanged:
		if len(ev.Accounts) == 0 {
			log.Info("accounts removed")
			s.reset()
			return nil
		}
		if s.Snapshot().State != Connected {
			return nil
		}
		log.Info("account changed", "account", ev.Accounts[0].Hex())
		if err := s.bind(ctx, ev.Accounts[0]); err != nil {
			s.reset()
			return err
		}
		return nil

	case wallet.NetworkChanged:
		if s.Snapshot().State != Connected {
			return nil
		}
		ok := ev.ChainID == s.target.ChainID
		s.update(func(sn *Snapshot) {
			sn.ChainID = ev.ChainID
			sn.NetworkOK = ok
			sn.Warning = ""
			if !ok {
				sn.Warning = fmt.Sprintf("wallet switched to unsupported chain %d; switch back to %s", ev.ChainID, s.target.DisplayName)
			}
		})
		if !ok {
			log.Warn("unsupported network", "chain_id", ev.ChainID)
			return nil
		}
		return s.refresh(ctx)
	}
	return nil
}

// Run subscribes to wallet notifications and handles them until ctx ends.
// Only one Run may be active per session; the subscription is released on
// return.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	events, cancel := s.wallet.Subscribe(ctx)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.Handle(ctx, ev); err != nil {
				s.log.Warn("handling wallet event", "event", ev.Kind.String(), "err", err)
				s.update(func(sn *Snapshot) { sn.Warning = Describe(err) })
			}
		}
	}
}

// ---------------------------------------------------------------------------
// state
// ---------------------------------------------------------------------------

func (s *Session) update(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.snap)
	out := s.snap.clone()
	s.mu.Unlock()

	// Latest wins: drop an unread snapshot before publishing.
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- out:
	default:
	}
}
