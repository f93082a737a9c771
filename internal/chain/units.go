package chain

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// ParseUnits converts a human amount such as "1.5" into base units with the
// given number of decimals. Negative values and excess precision are rejected.
func ParseUnits(s string, decimals int32) (*uint256.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("amount %q is negative", s)
	}
	scaled := d.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", s, decimals)
	}
	n, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return nil, fmt.Errorf("amount %q is too large", s)
	}
	return n, nil
}

// FormatUnits renders base units as a human amount without trailing zeros.
func FormatUnits(v *uint256.Int, decimals int32) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v.ToBig(), -decimals).String()
}

// FormatUnitsFixed renders base units truncated to places decimals.
func FormatUnitsFixed(v *uint256.Int, decimals, places int32) string {
	if v == nil {
		v = new(uint256.Int)
	}
	return decimal.NewFromBigInt(v.ToBig(), -decimals).Truncate(places).StringFixed(places)
}
