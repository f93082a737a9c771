// Package exchange defines the GymCoin ledger surface shared by the
// in-process devnet and the EVM contract binding.
package exchange

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Decimals is the fixed-point precision of GC amounts, rates and base currency.
const Decimals = 18

// UserInfo is the registry record for one account.
type UserInfo struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Registered bool   `json:"registered"`
}

// TxResult identifies a confirmed write.
type TxResult struct {
	Hash  common.Hash
	Block uint64
}

// Reader is the read-only half of the ledger.
type Reader interface {
	UserInfo(ctx context.Context, account common.Address) (UserInfo, error)
	BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error)
	Owner(ctx context.Context) (common.Address, error)
	BuyRate(ctx context.Context) (*uint256.Int, error)
	SellRate(ctx context.Context) (*uint256.Int, error)
	Reserve(ctx context.Context) (*uint256.Int, error)
	TotalSupply(ctx context.Context) (*uint256.Int, error)
}

// Ledger is a Reader whose writes act on behalf of one bound caller.
// Writes block until the change is confirmed or ctx ends.
type Ledger interface {
	Reader

	// Caller is the account writes are issued from.
	Caller() common.Address

	Register(ctx context.Context, username, email string) (TxResult, error)
	Buy(ctx context.Context, amount, payment *uint256.Int) (TxResult, error)
	Sell(ctx context.Context, amount *uint256.Int) (TxResult, error)
	Transfer(ctx context.Context, to common.Address, amount *uint256.Int) (TxResult, error)
	SetRates(ctx context.Context, rates Rates) (TxResult, error)
	Fund(ctx context.Context, payment *uint256.Int) (TxResult, error)
}

// ReadRates fetches both rates from r.
func ReadRates(ctx context.Context, r Reader) (Rates, error) {
	buy, err := r.BuyRate(ctx)
	if err != nil {
		return Rates{}, err
	}
	sell, err := r.SellRate(ctx)
	if err != nil {
		return Rates{}, err
	}
	return Rates{Buy: buy, Sell: sell}, nil
}
