package session

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/gymcli/internal/exchange"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Snapshot is an immutable view of a session.
type Snapshot struct {
	ID      string // per-connection id, for log correlation
	State   State
	Account common.Address

	Network   string // target network name
	Target    int64  // target chain id
	ChainID   int64  // chain the wallet reports
	NetworkOK bool
	Warning   string

	IsOwner bool
	User    exchange.UserInfo
	Balance *uint256.Int
	Rates   exchange.Rates
	Reserve *uint256.Int
	Supply  *uint256.Int

	LastTx exchange.TxResult
}

// Role is "owner" or "user".
func (s Snapshot) Role() string {
	if s.IsOwner {
		return "owner"
	}
	return "user"
}

// CanTrade reports whether buy and sell are open to the account.
func (s Snapshot) CanTrade() bool {
	return s.IsOwner || s.User.Registered
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Balance = cloneInt(s.Balance)
	out.Reserve = cloneInt(s.Reserve)
	out.Supply = cloneInt(s.Supply)
	if s.Rates.Buy != nil || s.Rates.Sell != nil {
		out.Rates = exchange.Rates{Buy: cloneInt(s.Rates.Buy), Sell: cloneInt(s.Rates.Sell)}
	}
	return out
}

func cloneInt(v *uint256.Int) *uint256.Int {
	if v == nil {
		return nil
	}
	return v.Clone()
}

// derived is everything read from the ledger about one account.
type derived struct {
	owner   common.Address
	isOwner bool
	user    exchange.UserInfo
	balance *uint256.Int
	rates   exchange.Rates
	reserve *uint256.Int
	supply  *uint256.Int
}

func derive(ctx context.Context, l exchange.Reader, account common.Address) (derived, error) {
	var d derived
	var err error
	if d.owner, err = l.Owner(ctx); err != nil {
		return d, fmt.Errorf("reading owner: %w", err)
	}
	d.isOwner = d.owner == account
	if d.user, err = l.UserInfo(ctx, account); err != nil {
		return d, fmt.Errorf("reading user info: %w", err)
	}
	if d.balance, err = l.BalanceOf(ctx, account); err != nil {
		return d, fmt.Errorf("reading balance: %w", err)
	}
	if d.rates, err = exchange.ReadRates(ctx, l); err != nil {
		return d, fmt.Errorf("reading rates: %w", err)
	}
	if d.reserve, err = l.Reserve(ctx); err != nil {
		return d, fmt.Errorf("reading reserve: %w", err)
	}
	if d.supply, err = l.TotalSupply(ctx); err != nil {
		return d, fmt.Errorf("reading supply: %w", err)
	}
	return d, nil
}

func (d derived) apply(sn *Snapshot) {
	sn.IsOwner = d.isOwner
	sn.User = d.user
	sn.Balance = d.balance
	sn.Rates = d.rates
	sn.Reserve = d.reserve
	sn.Supply = d.supply
}
