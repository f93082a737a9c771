package ledger

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/Mohsinsiddi/gymcli/internal/exchange"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type state struct {
	owner    common.Address
	balances map[common.Address]*uint256.Int
	users    map[common.Address]exchange.UserInfo
	rates    exchange.Rates
	reserve  *uint256.Int
	supply   *uint256.Int
	nonce    uint64
	journal  []Entry
}

// clone copies everything a write may replace. Balance values are never
// mutated in place, so the map copy can share them.
func (s *state) clone() *state {
	return &state{
		owner:    s.owner,
		balances: maps.Clone(s.balances),
		users:    maps.Clone(s.users),
		rates:    s.rates.Clone(),
		reserve:  s.reserve,
		supply:   s.supply,
		nonce:    s.nonce,
		journal:  slices.Clip(s.journal),
	}
}

func (s *state) balance(a common.Address) *uint256.Int {
	if b, ok := s.balances[a]; ok {
		return b
	}
	return new(uint256.Int)
}

// move assumes the caller already checked from's balance.
func (s *state) move(from, to common.Address, amount *uint256.Int) {
	if from == to {
		return
	}
	s.balances[from] = new(uint256.Int).Sub(s.balance(from), amount)
	s.balances[to] = new(uint256.Int).Add(s.balance(to), amount)
	if s.balances[from].IsZero() && from != s.owner {
		delete(s.balances, from)
	}
}

// ---------------------------------------------------------------------------
// snapshot encoding
// ---------------------------------------------------------------------------

// Snapshot is the persisted form of a ledger. Amounts are decimal strings.
type Snapshot struct {
	Owner    string                       `json:"owner"`
	Supply   string                       `json:"supply"`
	BuyRate  string                       `json:"buy_rate"`
	SellRate string                       `json:"sell_rate"`
	Reserve  string                       `json:"reserve"`
	Nonce    uint64                       `json:"nonce"`
	Balances map[string]string            `json:"balances"`
	Users    map[string]exchange.UserInfo `json:"users"`
	Journal  []EntryRecord                `json:"journal"`
}

// EntryRecord is the persisted form of an Entry.
type EntryRecord struct {
	Hash   string    `json:"hash"`
	Block  uint64    `json:"block"`
	Kind   Kind      `json:"kind"`
	From   string    `json:"from"`
	To     string    `json:"to,omitempty"`
	Amount string    `json:"amount,omitempty"`
	Value  string    `json:"value,omitempty"`
	Time   time.Time `json:"time"`
}

func (s *state) snapshot() *Snapshot {
	snap := &Snapshot{
		Owner:    s.owner.Hex(),
		Supply:   s.supply.Dec(),
		BuyRate:  s.rates.Buy.Dec(),
		SellRate: s.rates.Sell.Dec(),
		Reserve:  s.reserve.Dec(),
		Nonce:    s.nonce,
		Balances: make(map[string]string, len(s.balances)),
		Users:    make(map[string]exchange.UserInfo, len(s.users)),
		Journal:  make([]EntryRecord, 0, len(s.journal)),
	}
	for a, b := range s.balances {
		snap.Balances[a.Hex()] = b.Dec()
	}
	for a, u := range s.users {
		snap.Users[a.Hex()] = u
	}
	for _, e := range s.journal {
		r := EntryRecord{
			Hash:  e.Hash.Hex(),
			Block: e.Block,
			Kind:  e.Kind,
			From:  e.From.Hex(),
			Time:  e.Time,
		}
		if e.To != (common.Address{}) {
			r.To = e.To.Hex()
		}
		if e.Amount != nil {
			r.Amount = e.Amount.Dec()
		}
		if e.Value != nil {
			r.Value = e.Value.Dec()
		}
		snap.Journal = append(snap.Journal, r)
	}
	return snap
}

func (snap *Snapshot) state() (*state, error) {
	if !common.IsHexAddress(snap.Owner) {
		return nil, fmt.Errorf("invalid owner %q", snap.Owner)
	}
	st := &state{
		owner:    common.HexToAddress(snap.Owner),
		balances: make(map[common.Address]*uint256.Int, len(snap.Balances)),
		users:    make(map[common.Address]exchange.UserInfo, len(snap.Users)),
		nonce:    snap.Nonce,
	}
	var err error
	if st.supply, err = decimal(snap.Supply, "supply"); err != nil {
		return nil, err
	}
	if st.reserve, err = decimal(snap.Reserve, "reserve"); err != nil {
		return nil, err
	}
	if st.rates.Buy, err = decimal(snap.BuyRate, "buy_rate"); err != nil {
		return nil, err
	}
	if st.rates.Sell, err = decimal(snap.SellRate, "sell_rate"); err != nil {
		return nil, err
	}
	for a, b := range snap.Balances {
		if !common.IsHexAddress(a) {
			return nil, fmt.Errorf("invalid balance address %q", a)
		}
		if st.balances[common.HexToAddress(a)], err = decimal(b, "balance of "+a); err != nil {
			return nil, err
		}
	}
	for a, u := range snap.Users {
		if !common.IsHexAddress(a) {
			return nil, fmt.Errorf("invalid user address %q", a)
		}
		st.users[common.HexToAddress(a)] = u
	}
	for _, r := range snap.Journal {
		e := Entry{
			Hash:  common.HexToHash(r.Hash),
			Block: r.Block,
			Kind:  r.Kind,
			From:  common.HexToAddress(r.From),
			Time:  r.Time,
		}
		if r.To != "" {
			e.To = common.HexToAddress(r.To)
		}
		if r.Amount != "" {
			if e.Amount, err = decimal(r.Amount, "journal amount"); err != nil {
				return nil, err
			}
		}
		if r.Value != "" {
			if e.Value, err = decimal(r.Value, "journal value"); err != nil {
				return nil, err
			}
		}
		st.journal = append(st.journal, e)
	}
	return st, nil
}

func decimal(s, field string) (*uint256.Int, error) {
	n, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return n, nil
}
