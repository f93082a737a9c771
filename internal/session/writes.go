package session

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/Mohsinsiddi/gymcli/internal/exchange"
	"github.com/Mohsinsiddi/gymcli/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ready returns the bound ledger and a snapshot when writes are allowed.
func (s *Session) ready() (exchange.Ledger, Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.State != Connected || s.ledger == nil {
		return nil, Snapshot{}, ErrNotConnected
	}
	if !s.snap.NetworkOK {
		return nil, Snapshot{}, fmt.Errorf("%w: wallet is on chain %d, want %s", wallet.ErrUnsupportedNetwork, s.snap.ChainID, s.target.Name)
	}
	return s.ledger, s.snap.clone(), nil
}

// write runs fn under the confirmation timeout, then re-derives state.
func (s *Session) write(ctx context.Context, op string, fn func(ctx context.Context, l exchange.Ledger, snap Snapshot) (exchange.TxResult, error)) (exchange.TxResult, error) {
	s.op.Lock()
	defer s.op.Unlock()

	l, snap, err := s.ready()
	if err != nil {
		return exchange.TxResult{}, err
	}
	log := s.log.With("session", snap.ID, "op", op)

	wctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := fn(wctx, l, snap)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %s after %s: %w", ErrTimeout, op, s.timeout, err)
		}
		log.Debug("write failed", "err", err)
		return exchange.TxResult{}, err
	}
	log.Info("write confirmed", "hash", res.Hash.Hex(), "block", res.Block)

	s.update(func(sn *Snapshot) { sn.LastTx = res })
	if err := s.refresh(ctx); err != nil {
		log.Warn("refreshing after write", "err", err)
	}
	return res, nil
}

// Register records a username and email for the connected account.
func (s *Session) Register(ctx context.Context, username, email string) (exchange.TxResult, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	if username == "" || email == "" {
		return exchange.TxResult{}, fmt.Errorf("%w: username and email are required", exchange.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return exchange.TxResult{}, fmt.Errorf("%w: email %q", exchange.ErrInvalidInput, email)
	}
	return s.write(ctx, "register", func(ctx context.Context, l exchange.Ledger, snap Snapshot) (exchange.TxResult, error) {
		if snap.User.Registered {
			return exchange.TxResult{}, exchange.ErrAlreadyRegistered
		}
		return l.Register(ctx, username, email)
	})
}

// QuoteBuy is the payment Buy will send for amount at the current rate.
func (s *Session) QuoteBuy(ctx context.Context, amount *uint256.Int) (*uint256.Int, error) {
	if err := positive(amount); err != nil {
		return nil, err
	}
	l, err := s.Ledger()
	if err != nil {
		return nil, err
	}
	rate, err := l.BuyRate(ctx)
	if err != nil {
		return nil, err
	}
	return exchange.PaymentFor(amount, rate)
}

// QuoteSell is the payout Sell will receive for amount at the current rate.
func (s *Session) QuoteSell(ctx context.Context, amount *uint256.Int) (*uint256.Int, error) {
	if err := positive(amount); err != nil {
		return nil, err
	}
	l, err := s.Ledger()
	if err != nil {
		return nil, err
	}
	rate, err := l.SellRate(ctx)
	if err != nil {
		return nil, err
	}
	return exchange.PayoutFor(amount, rate)
}

// Buy purchases amount GC, paying exactly the quoted price at the rate in
// force when the call is made.
func (s *Session) Buy(ctx context.Context, amount *uint256.Int) (exchange.TxResult, error) {
	if err := positive(amount); err != nil {
		return exchange.TxResult{}, err
	}
	return s.write(ctx, "buy", func(ctx context.Context, l exchange.Ledger, snap Snapshot) (exchange.TxResult, error) {
		if !snap.CanTrade() {
			return exchange.TxResult{}, exchange.ErrNotRegistered
		}
		rate, err := l.BuyRate(ctx)
		if err != nil {
			return exchange.TxResult{}, err
		}
		payment, err := exchange.PaymentFor(amount, rate)
		if err != nil {
			return exchange.TxResult{}, err
		}
		return l.Buy(ctx, amount, payment)
	})
}

// Sell returns amount GC to the exchange for base currency.
func (s *Session) Sell(ctx context.Context, amount *uint256.Int) (exchange.TxResult, error) {
	if err := positive(amount); err != nil {
		return exchange.TxResult{}, err
	}
	return s.write(ctx, "sell", func(ctx context.Context, l exchange.Ledger, snap Snapshot) (exchange.TxResult, error) {
		if !snap.CanTrade() {
			return exchange.TxResult{}, exchange.ErrNotRegistered
		}
		if err := hasBalance(ctx, l, snap.Account, amount); err != nil {
			return exchange.TxResult{}, err
		}
		return l.Sell(ctx, amount)
	})
}

// Transfer sends amount GC to another account.
func (s *Session) Transfer(ctx context.Context, to common.Address, amount *uint256.Int) (exchange.TxResult, error) {
	if err := positive(amount); err != nil {
		return exchange.TxResult{}, err
	}
	if to == (common.Address{}) {
		return exchange.TxResult{}, fmt.Errorf("%w: zero address", exchange.ErrInvalidRecipient)
	}
	return s.write(ctx, "transfer", func(ctx context.Context, l exchange.Ledger, snap Snapshot) (exchange.TxResult, error) {
		if to == snap.Account {
			return exchange.TxResult{}, fmt.Errorf("%w: cannot transfer to yourself", exchange.ErrInvalidRecipient)
		}
		if err := hasBalance(ctx, l, snap.Account, amount); err != nil {
			return exchange.TxResult{}, err
		}
		return l.Transfer(ctx, to, amount)
	})
}

// SetRates changes both exchange rates. Unless allowInverted is set, rates
// where a buy-then-sell round trip would pay out more than it took in are
// refused with exchange.ErrUnsafeSpread.
func (s *Session) SetRates(ctx context.Context, r exchange.Rates, allowInverted bool) (exchange.TxResult, error) {
	check := r.CheckSpread
	if allowInverted {
		check = r.Validate
	}
	if err := check(); err != nil {
		return exchange.TxResult{}, err
	}
	return s.write(ctx, "set_rates", func(ctx context.Context, l exchange.Ledger, snap Snapshot) (exchange.TxResult, error) {
		if !snap.IsOwner {
			return exchange.TxResult{}, exchange.ErrNotOwner
		}
		return l.SetRates(ctx, r)
	})
}

// Fund sends base currency into the exchange reserve.
func (s *Session) Fund(ctx context.Context, payment *uint256.Int) (exchange.TxResult, error) {
	if err := positive(payment); err != nil {
		return exchange.TxResult{}, err
	}
	return s.write(ctx, "fund", func(ctx context.Context, l exchange.Ledger, _ Snapshot) (exchange.TxResult, error) {
		return l.Fund(ctx, payment)
	})
}

func positive(v *uint256.Int) error {
	if v == nil || v.IsZero() {
		return exchange.ErrInvalidAmount
	}
	return nil
}

func hasBalance(ctx context.Context, l exchange.Reader, account common.Address, amount *uint256.Int) error {
	bal, err := l.BalanceOf(ctx, account)
	if err != nil {
		return err
	}
	if bal.Lt(amount) {
		return fmt.Errorf("%w: have %s, need %s", exchange.ErrInsufficientBalance, bal.Dec(), amount.Dec())
	}
	return nil
}
