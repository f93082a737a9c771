package session

import (
	"context"
	"errors"

	"github.com/Mohsinsiddi/gymcli/internal/exchange"
	"github.com/Mohsinsiddi/gymcli/internal/wallet"
)

var messages = []struct {
	err error
	msg string
}{
	{exchange.ErrAlreadyRegistered, "This address is already registered."},
	{exchange.ErrNotRegistered, "Please register before buying or selling GymCoin."},
	{exchange.ErrNotOwner, "Only the owner can change exchange rates."},
	{exchange.ErrInvalidRate, "Rates must be greater than zero."},
	{exchange.ErrUnsafeSpread, "The sell rate must be higher than the buy rate, or a buy-then-sell round trip pays out more than it took in."},
	{exchange.ErrInvalidAmount, "Amount must be greater than zero."},
	{exchange.ErrInvalidInput, "Please fill in all fields with valid values."},
	{exchange.ErrInvalidRecipient, "Invalid recipient address. You cannot send to yourself or the zero address."},
	{exchange.ErrInsufficientBalance, "Insufficient GymCoin balance."},
	{exchange.ErrInsufficientPayment, "Not enough funds to cover the payment."},
	{exchange.ErrOwnerReserveExhausted, "The exchange has run out of GymCoin to sell."},
	{exchange.ErrReserveExhausted, "The exchange does not hold enough funds to pay for this sale."},
	{exchange.ErrReverted, "The transaction failed on chain."},
	{ErrTimeout, "Timed out waiting for confirmation. The transaction may still be mined."},
	{ErrNotConnected, "Please connect your wallet first."},
	{ErrAlreadyRunning, "The session is already listening for wallet events."},
	{wallet.ErrUserRejected, "The request was rejected in the wallet."},
	{wallet.ErrUnsupportedNetwork, "Please switch your wallet to the supported network."},
	{wallet.ErrUnknownNetwork, "The wallet does not know the required network."},
	{wallet.ErrCapabilityUnavailable, "No wallet able to do this. Add a signing wallet with: gymcli wallet add --key"},
	{context.Canceled, "Cancelled."},
}

// Describe turns an error from any session operation into a message for the
// user. Unknown errors are shown as they are. When the transaction was
// already broadcast its hash is appended.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg + txSuffix(err)
		}
	}
	return err.Error()
}

func txSuffix(err error) string {
	var txErr *exchange.TxError
	if !errors.As(err, &txErr) {
		return ""
	}
	return " (tx " + txErr.Hash.Hex() + ")"
}
