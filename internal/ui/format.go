package ui

import (
	"strings"

	"github.com/Mohsinsiddi/gymcli/internal/chain"
	"github.com/Mohsinsiddi/gymcli/internal/exchange"
	"github.com/charmbracelet/lipgloss"
	"github.com/holiman/uint256"
)

// GC renders a GymCoin amount: "1234.5 GC".
func GC(v *uint256.Int) string {
	return chain.FormatUnits(v, exchange.Decimals) + " GC"
}

// Coin renders a base-currency amount with its symbol.
func Coin(v *uint256.Int, symbol string) string {
	if symbol == "" {
		symbol = "ETH"
	}
	return chain.FormatUnits(v, exchange.Decimals) + " " + symbol
}

// RateLine renders both rates as "buy 100 GC/ETH · sell 200 GC/ETH".
func RateLine(r exchange.Rates, symbol string) string {
	if r.Buy == nil || r.Sell == nil {
		return "-"
	}
	if symbol == "" {
		symbol = "ETH"
	}
	per := " GC/" + symbol
	return "buy " + chain.FormatUnits(r.Buy, exchange.Decimals) + per +
		" · sell " + chain.FormatUnits(r.Sell, exchange.Decimals) + per
}

// padR pads s to visible width n (ANSI-safe using lipgloss.Width).
func padR(s string, n int) string {
	w := lipgloss.Width(s)
	if w >= n {
		return s
	}
	return s + strings.Repeat(" ", n-w)
}

// trimErr shortens a transport error to its useful tail for a status line.
func trimErr(s string) string {
	for _, marker := range []string{
		"dial tcp", "connection refused", "context deadline", "execution reverted",
	} {
		if idx := strings.Index(s, marker); idx >= 0 {
			s = s[idx:]
			break
		}
	}
	if r := []rune(s); len(r) > 48 {
		return string(r[:48]) + "…"
	}
	return s
}
