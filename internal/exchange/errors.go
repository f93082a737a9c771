package exchange

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Ledger failures. Both the in-process ledger and the EVM binding return
// these (wrapped), so callers can match with errors.Is regardless of backend.
var (
	ErrAlreadyRegistered     = errors.New("user already registered")
	ErrNotRegistered         = errors.New("user not registered")
	ErrNotOwner              = errors.New("caller is not the owner")
	ErrInvalidRate           = errors.New("invalid rate")
	ErrInvalidAmount         = errors.New("amount must be greater than zero")
	ErrInvalidInput          = errors.New("invalid input")
	ErrInvalidRecipient      = errors.New("invalid recipient")
	ErrInsufficientBalance   = errors.New("insufficient token balance")
	ErrInsufficientPayment   = errors.New("insufficient payment")
	ErrOwnerReserveExhausted = errors.New("owner has insufficient tokens")
	ErrReserveExhausted      = errors.New("exchange has insufficient base currency")
	ErrUnsafeSpread          = errors.New("sell rate must exceed buy rate")
	ErrReverted              = errors.New("transaction reverted")
)

// TxError wraps a failure that happened after a transaction was broadcast,
// so the hash stays available for a later lookup.
type TxError struct {
	Hash common.Hash
	Err  error
}

func (e *TxError) Error() string {
	return fmt.Sprintf("tx %s: %v", e.Hash.Hex(), e.Err)
}

func (e *TxError) Unwrap() error { return e.Err }
