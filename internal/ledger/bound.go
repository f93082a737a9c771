package ledger

import (
	"context"

	"github.com/Mohsinsiddi/gymcli/internal/exchange"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// As binds the ledger to caller, giving it the same surface as the contract
// binding.
func (l *Ledger) As(caller common.Address) exchange.Ledger {
	return &bound{l: l, caller: caller}
}

type bound struct {
	l      *Ledger
	caller common.Address
}

var _ exchange.Ledger = (*bound)(nil)

func (b *bound) Caller() common.Address { return b.caller }

func (b *bound) UserInfo(ctx context.Context, account common.Address) (exchange.UserInfo, error) {
	if err := ctx.Err(); err != nil {
		return exchange.UserInfo{}, err
	}
	return b.l.UserInfo(account), nil
}

func (b *bound) BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.l.BalanceOf(account), nil
}

func (b *bound) Owner(ctx context.Context) (common.Address, error) {
	if err := ctx.Err(); err != nil {
		return common.Address{}, err
	}
	return b.l.Owner(), nil
}

func (b *bound) BuyRate(ctx context.Context) (*uint256.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.l.Rates().Buy, nil
}

func (b *bound) SellRate(ctx context.Context) (*uint256.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.l.Rates().Sell, nil
}

func (b *bound) Reserve(ctx context.Context) (*uint256.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.l.Reserve(), nil
}

func (b *bound) TotalSupply(ctx context.Context) (*uint256.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.l.TotalSupply(), nil
}

func (b *bound) Register(ctx context.Context, username, email string) (exchange.TxResult, error) {
	if err := ctx.Err(); err != nil {
		return exchange.TxResult{}, err
	}
	return b.l.Register(b.caller, username, email)
}

func (b *bound) Buy(ctx context.Context, amount, payment *uint256.Int) (exchange.TxResult, error) {
	if err := ctx.Err(); err != nil {
		return exchange.TxResult{}, err
	}
	return b.l.Buy(b.caller, amount, payment)
}

func (b *bound) Sell(ctx context.Context, amount *uint256.Int) (exchange.TxResult, error) {
	if err := ctx.Err(); err != nil {
		return exchange.TxResult{}, err
	}
	return b.l.Sell(b.caller, amount)
}

func (b *bound) Transfer(ctx context.Context, to common.Address, amount *uint256.Int) (exchange.TxResult, error) {
	if err := ctx.Err(); err != nil {
		return exchange.TxResult{}, err
	}
	return b.l.Transfer(b.caller, to, amount)
}

func (b *bound) SetRates(ctx context.Context, r exchange.Rates) (exchange.TxResult, error) {
	if err := ctx.Err(); err != nil {
		return exchange.TxResult{}, err
	}
	return b.l.SetRates(b.caller, r)
}

func (b *bound) Fund(ctx context.Context, payment *uint256.Int) (exchange.TxResult, error) {
	if err := ctx.Err(); err != nil {
		return exchange.TxResult{}, err
	}
	return b.l.Fund(b.caller, payment)
}
