package contract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/gymcli/internal/chain"
	"github.com/Mohsinsiddi/gymcli/internal/exchange"
)

// Revert reasons emitted by the GymCoin and UserProfile contracts (and the
// OpenZeppelin bases they extend), matched by substring.
var revertReasons = []struct {
	match string
	err   error
}{
	{"User already registered", exchange.ErrAlreadyRegistered},
	{"User not registered", exchange.ErrNotRegistered},
	{"Owner has insufficient tokens", exchange.ErrOwnerReserveExhausted},
	{"Insufficient token balance", exchange.ErrInsufficientBalance},
	{"Contract has insufficient ETH", exchange.ErrReserveExhausted},
	{"caller is not the owner", exchange.ErrNotOwner},
	{"OwnableUnauthorizedAccount", exchange.ErrNotOwner},
	{"transfer amount exceeds balance", exchange.ErrInsufficientBalance},
	{"ERC20InsufficientBalance", exchange.ErrInsufficientBalance},
	{"transfer to the zero address", exchange.ErrInvalidRecipient},
	{"ERC20InvalidReceiver", exchange.ErrInvalidRecipient},
	{"Insufficient ETH", exchange.ErrInsufficientPayment},
	{"Incorrect ETH", exchange.ErrInsufficientPayment},
	{"insufficient funds", exchange.ErrInsufficientPayment},
	{"Rate must be", exchange.ErrInvalidRate},
	{"Invalid rate", exchange.ErrInvalidRate},
	{"Amount must be", exchange.ErrInvalidAmount},
}

// MapRevert translates a revert reason into the exchange error taxonomy.
// Unknown reasons wrap ErrReverted.
func MapRevert(reason string) error {
	for _, r := range revertReasons {
		if strings.Contains(reason, r.match) {
			return fmt.Errorf("%w: %s", r.err, reason)
		}
	}
	if reason == "" {
		return exchange.ErrReverted
	}
	return fmt.Errorf("%w: %s", exchange.ErrReverted, reason)
}

// classify maps RPC failures that carry a contract reason; anything else is
// returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var rev *chain.RevertError
	if errors.As(err, &rev) {
		return MapRevert(rev.Reason)
	}
	var rpcErr *chain.RPCError
	if errors.As(err, &rpcErr) && strings.Contains(rpcErr.Message, "insufficient funds") {
		return fmt.Errorf("%w: %s", exchange.ErrInsufficientPayment, rpcErr.Message)
	}
	return err
}
