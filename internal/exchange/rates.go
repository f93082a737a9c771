package exchange

import (
	"fmt"

	"github.com/holiman/uint256"
)

// One is 1.0 in 18-decimal fixed point.
var One = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(Decimals))

// Rates are expressed as GC per one unit of base currency.
//
// Buy is what a buyer receives per unit paid in. Sell is what a seller must
// hand back per unit paid out.
type Rates struct {
	Buy  *uint256.Int
	Sell *uint256.Int
}

// Validate rejects zero rates.
func (r Rates) Validate() error {
	if r.Buy == nil || r.Buy.IsZero() {
		return fmt.Errorf("%w: buy rate must be positive", ErrInvalidRate)
	}
	if r.Sell == nil || r.Sell.IsZero() {
		return fmt.Errorf("%w: sell rate must be positive", ErrInvalidRate)
	}
	return nil
}

// CheckSpread enforces Sell > Buy, under which buying and immediately
// selling the same amount never pays out more than was paid in.
func (r Rates) CheckSpread() error {
	if err := r.Validate(); err != nil {
		return err
	}
	if !r.Sell.Gt(r.Buy) {
		return fmt.Errorf("%w: buy %s, sell %s", ErrUnsafeSpread, r.Buy.Dec(), r.Sell.Dec())
	}
	return nil
}

// Clone returns a deep copy.
func (r Rates) Clone() Rates {
	out := Rates{}
	if r.Buy != nil {
		out.Buy = r.Buy.Clone()
	}
	if r.Sell != nil {
		out.Sell = r.Sell.Clone()
	}
	return out
}

// PaymentFor returns the base currency required to buy amount GC at buyRate,
// amount * 1e18 / buyRate, rounded down.
func PaymentFor(amount, buyRate *uint256.Int) (*uint256.Int, error) {
	return scale(amount, buyRate)
}

// PayoutFor returns the base currency paid for selling amount GC at sellRate,
// amount * 1e18 / sellRate, rounded down.
func PayoutFor(amount, sellRate *uint256.Int) (*uint256.Int, error) {
	return scale(amount, sellRate)
}

func scale(amount, rate *uint256.Int) (*uint256.Int, error) {
	if rate == nil || rate.IsZero() {
		return nil, fmt.Errorf("%w: rate is zero", ErrInvalidRate)
	}
	out, overflow := new(uint256.Int).MulDivOverflow(amount, One, rate)
	if overflow {
		return nil, fmt.Errorf("%w: amount %s overflows", ErrInvalidAmount, amount.Dec())
	}
	return out, nil
}
