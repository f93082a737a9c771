// Package ledger is an in-process GymCoin exchange: a token ledger, a user
// registry and a base-currency reserve behind one lock. It backs the "local"
// backend and serves as the reference semantics for the contract binding.
package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Mohsinsiddi/gymcli/internal/exchange"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// ErrNotDeployed is returned by Open when the store holds no ledger yet.
var ErrNotDeployed = errors.New("ledger not deployed")

// Kind names a journaled write.
type Kind string

const (
	KindRegister Kind = "register"
	KindBuy      Kind = "buy"
	KindSell     Kind = "sell"
	KindTransfer Kind = "transfer"
	KindSetRates Kind = "set_rates"
	KindFund     Kind = "fund"
)

// Entry is one applied write. Amount is GC moved from From to To, Value is
// base currency moved into (buy, fund) or out of (sell) the reserve.
type Entry struct {
	Hash   common.Hash
	Block  uint64
	Kind   Kind
	From   common.Address
	To     common.Address
	Amount *uint256.Int
	Value  *uint256.Int
	Time   time.Time
}

// Ledger is safe for concurrent use. Every write either applies completely
// or not at all.
type Ledger struct {
	mu    sync.RWMutex
	st    *state
	store Store
	gate  bool
	now   func() time.Time

	supply *uint256.Int
	rates  exchange.Rates
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithStore persists every applied write to s.
func WithStore(s Store) Option {
	return func(l *Ledger) { l.store = s }
}

// WithInitialSupply sets the supply minted to the owner by New.
func WithInitialSupply(n *uint256.Int) Option {
	return func(l *Ledger) { l.supply = n.Clone() }
}

// WithRates sets the starting rates used by New.
func WithRates(r exchange.Rates) Option {
	return func(l *Ledger) { l.rates = r.Clone() }
}

// WithRegistrationGate controls whether buy and sell require a registered
// caller. The owner is always exempt. Enabled by default.
func WithRegistrationGate(on bool) Option {
	return func(l *Ledger) { l.gate = on }
}

// WithClock overrides the journal timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// InitialSupply is 1,000,000 GC.
func InitialSupply() *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(1_000_000), exchange.One)
}

// DefaultRates are 100 GC per unit when buying and 200 GC per unit when selling.
func DefaultRates() exchange.Rates {
	return exchange.Rates{
		Buy:  new(uint256.Int).Mul(uint256.NewInt(100), exchange.One),
		Sell: new(uint256.Int).Mul(uint256.NewInt(200), exchange.One),
	}
}

func newLedger(opts []Option) *Ledger {
	l := &Ledger{
		gate:   true,
		now:    time.Now,
		supply: InitialSupply(),
		rates:  DefaultRates(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// New deploys a fresh ledger owned by owner, minting the initial supply to it.
// With a store configured the genesis state is saved immediately.
func New(owner common.Address, opts ...Option) (*Ledger, error) {
	l := newLedger(opts)
	if err := l.rates.Validate(); err != nil {
		return nil, err
	}
	st := &state{
		owner:    owner,
		balances: map[common.Address]*uint256.Int{owner: l.supply.Clone()},
		users:    make(map[common.Address]exchange.UserInfo),
		rates:    l.rates.Clone(),
		reserve:  new(uint256.Int),
		supply:   l.supply.Clone(),
	}
	if l.store != nil {
		if err := l.store.Save(st.snapshot()); err != nil {
			return nil, fmt.Errorf("saving genesis: %w", err)
		}
	}
	l.st = st
	return l, nil
}

// Open restores a ledger from store. Supply and rate options are ignored.
func Open(store Store, opts ...Option) (*Ledger, error) {
	l := newLedger(append(opts, WithStore(store)))
	snap, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading ledger: %w", err)
	}
	if snap == nil {
		return nil, ErrNotDeployed
	}
	st, err := snap.state()
	if err != nil {
		return nil, fmt.Errorf("decoding ledger: %w", err)
	}
	l.st = st
	return l, nil
}

// Reload replaces the in-memory state with the store's latest snapshot,
// picking up writes made by other processes sharing the same file.
func (l *Ledger) Reload() error {
	if l.store == nil {
		return nil
	}
	snap, err := l.store.Load()
	if err != nil {
		return fmt.Errorf("loading ledger: %w", err)
	}
	if snap == nil {
		return ErrNotDeployed
	}
	st, err := snap.state()
	if err != nil {
		return fmt.Errorf("decoding ledger: %w", err)
	}
	l.mu.Lock()
	l.st = st
	l.mu.Unlock()
	return nil
}

// ---------------------------------------------------------------------------
// writes
// ---------------------------------------------------------------------------

// Register records username and email for caller.
func (l *Ledger) Register(caller common.Address, username, email string) (exchange.TxResult, error) {
	if username == "" {
		return exchange.TxResult{}, fmt.Errorf("%w: username is empty", exchange.ErrInvalidInput)
	}
	return l.commit(caller, KindRegister, func(st *state) (Entry, error) {
		if st.users[caller].Registered {
			return Entry{}, fmt.Errorf("%w: %s", exchange.ErrAlreadyRegistered, caller.Hex())
		}
		st.users[caller] = exchange.UserInfo{Username: username, Email: email, Registered: true}
		return Entry{From: caller}, nil
	})
}

// Buy moves amount GC from the owner to caller in exchange for payment.
// Any payment above the quoted price stays in the reserve.
func (l *Ledger) Buy(caller common.Address, amount, payment *uint256.Int) (exchange.TxResult, error) {
	if amount == nil || amount.IsZero() {
		return exchange.TxResult{}, exchange.ErrInvalidAmount
	}
	if payment == nil {
		payment = new(uint256.Int)
	}
	return l.commit(caller, KindBuy, func(st *state) (Entry, error) {
		if err := l.checkGate(st, caller); err != nil {
			return Entry{}, err
		}
		price, err := exchange.PaymentFor(amount, st.rates.Buy)
		if err != nil {
			return Entry{}, err
		}
		if payment.Lt(price) {
			return Entry{}, fmt.Errorf("%w: sent %s, need %s", exchange.ErrInsufficientPayment, payment.Dec(), price.Dec())
		}
		if st.balance(st.owner).Lt(amount) {
			return Entry{}, fmt.Errorf("%w: owner holds %s", exchange.ErrOwnerReserveExhausted, st.balance(st.owner).Dec())
		}
		st.move(st.owner, caller, amount)
		st.reserve = new(uint256.Int).Add(st.reserve, payment)
		return Entry{From: st.owner, To: caller, Amount: amount.Clone(), Value: payment.Clone()}, nil
	})
}

// Sell moves amount GC from caller back to the owner and pays out of the reserve.
func (l *Ledger) Sell(caller common.Address, amount *uint256.Int) (exchange.TxResult, error) {
	if amount == nil || amount.IsZero() {
		return exchange.TxResult{}, exchange.ErrInvalidAmount
	}
	return l.commit(caller, KindSell, func(st *state) (Entry, error) {
		if err := l.checkGate(st, caller); err != nil {
			return Entry{}, err
		}
		if st.balance(caller).Lt(amount) {
			return Entry{}, fmt.Errorf("%w: have %s, selling %s", exchange.ErrInsufficientBalance, st.balance(caller).Dec(), amount.Dec())
		}
		payout, err := exchange.PayoutFor(amount, st.rates.Sell)
		if err != nil {
			return Entry{}, err
		}
		if st.reserve.Lt(payout) {
			return Entry{}, fmt.Errorf("%w: reserve %s, payout %s", exchange.ErrReserveExhausted, st.reserve.Dec(), payout.Dec())
		}
		st.move(caller, st.owner, amount)
		st.reserve = new(uint256.Int).Sub(st.reserve, payout)
		return Entry{From: caller, To: st.owner, Amount: amount.Clone(), Value: payout}, nil
	})
}

// Transfer moves amount GC from caller to to.
func (l *Ledger) Transfer(caller, to common.Address, amount *uint256.Int) (exchange.TxResult, error) {
	if amount == nil || amount.IsZero() {
		return exchange.TxResult{}, exchange.ErrInvalidAmount
	}
	if to == (common.Address{}) {
		return exchange.TxResult{}, fmt.Errorf("%w: zero address", exchange.ErrInvalidRecipient)
	}
	if to == caller {
		return exchange.TxResult{}, fmt.Errorf("%w: cannot transfer to self", exchange.ErrInvalidRecipient)
	}
	return l.commit(caller, KindTransfer, func(st *state) (Entry, error) {
		if st.balance(caller).Lt(amount) {
			return Entry{}, fmt.Errorf("%w: have %s, sending %s", exchange.ErrInsufficientBalance, st.balance(caller).Dec(), amount.Dec())
		}
		st.move(caller, to, amount)
		return Entry{From: caller, To: to, Amount: amount.Clone()}, nil
	})
}

// SetRates replaces both rates. Owner only. The spread is not enforced here.
func (l *Ledger) SetRates(caller common.Address, r exchange.Rates) (exchange.TxResult, error) {
	return l.commit(caller, KindSetRates, func(st *state) (Entry, error) {
		if caller != st.owner {
			return Entry{}, fmt.Errorf("%w: %s", exchange.ErrNotOwner, caller.Hex())
		}
		if err := r.Validate(); err != nil {
			return Entry{}, err
		}
		st.rates = r.Clone()
		return Entry{From: caller}, nil
	})
}

// Fund adds payment to the reserve.
func (l *Ledger) Fund(caller common.Address, payment *uint256.Int) (exchange.TxResult, error) {
	if payment == nil || payment.IsZero() {
		return exchange.TxResult{}, exchange.ErrInvalidAmount
	}
	return l.commit(caller, KindFund, func(st *state) (Entry, error) {
		st.reserve = new(uint256.Int).Add(st.reserve, payment)
		return Entry{From: caller, Value: payment.Clone()}, nil
	})
}

// ---------------------------------------------------------------------------
// reads
// ---------------------------------------------------------------------------

// UserInfo returns the registry record for account; the zero value if unregistered.
func (l *Ledger) UserInfo(account common.Address) exchange.UserInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.st.users[account]
}

// BalanceOf returns account's GC balance.
func (l *Ledger) BalanceOf(account common.Address) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.st.balance(account).Clone()
}

// Owner returns the account allowed to set rates.
func (l *Ledger) Owner() common.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.st.owner
}

// Rates returns the current rates.
func (l *Ledger) Rates() exchange.Rates {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.st.rates.Clone()
}

// Reserve returns the base currency held by the exchange.
func (l *Ledger) Reserve() *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.st.reserve.Clone()
}

// TotalSupply returns the fixed GC supply.
func (l *Ledger) TotalSupply() *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.st.supply.Clone()
}

// Entries returns up to n journal entries touching account, newest first.
// n <= 0 returns all of them.
func (l *Ledger) Entries(account common.Address, n int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Entry
	for i := len(l.st.journal) - 1; i >= 0; i-- {
		e := l.st.journal[i]
		if e.From != account && e.To != account {
			continue
		}
		out = append(out, e)
		if n > 0 && len(out) == n {
			break
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// internals
// ---------------------------------------------------------------------------

func (l *Ledger) checkGate(st *state, caller common.Address) error {
	if !l.gate || caller == st.owner || st.users[caller].Registered {
		return nil
	}
	return fmt.Errorf("%w: %s", exchange.ErrNotRegistered, caller.Hex())
}

// commit applies fn to a copy of the state, persists the copy and only then
// makes it current.
func (l *Ledger) commit(caller common.Address, kind Kind, fn func(*state) (Entry, error)) (exchange.TxResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.st.clone()
	e, err := fn(next)
	if err != nil {
		return exchange.TxResult{}, err
	}
	next.nonce++
	e.Kind = kind
	e.Block = next.nonce
	e.Hash = txHash(next.nonce, caller, kind)
	e.Time = l.now().UTC()
	next.journal = append(next.journal, e)

	if l.store != nil {
		if err := l.store.Save(next.snapshot()); err != nil {
			return exchange.TxResult{}, fmt.Errorf("persisting ledger: %w", err)
		}
	}
	l.st = next
	return exchange.TxResult{Hash: e.Hash, Block: e.Block}, nil
}

func txHash(nonce uint64, caller common.Address, kind Kind) common.Hash {
	h := sha3.NewLegacyKeccak256()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], nonce)
	h.Write(buf[:])
	h.Write(caller.Bytes())
	h.Write([]byte(kind))
	return common.BytesToHash(h.Sum(nil))
}
