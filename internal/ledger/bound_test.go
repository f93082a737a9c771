package ledger_test

import (
	"context"
	"testing"

	"github.com/Mohsinsiddi/gymcli/internal/exchange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundLedgerActsAsCaller(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	alice := l.As(addr1)
	assert.Equal(t, addr1, alice.Caller())

	_, err := alice.Register(ctx, "alice", "a@gym.io")
	require.NoError(t, err)

	info, err := alice.UserInfo(ctx, addr1)
	require.NoError(t, err)
	assert.True(t, info.Registered)

	rates, err := exchange.ReadRates(ctx, alice)
	require.NoError(t, err)
	price, err := exchange.PaymentFor(gc(20), rates.Buy)
	require.NoError(t, err)

	_, err = alice.Buy(ctx, gc(20), price)
	require.NoError(t, err)

	bal, err := alice.BalanceOf(ctx, addr1)
	require.NoError(t, err)
	assert.Equal(t, gc(20).Dec(), bal.Dec())

	_, err = alice.SetRates(ctx, rates)
	assert.ErrorIs(t, err, exchange.ErrNotOwner)

	o, err := alice.Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, owner, o)
}

func TestBoundLedgerHonoursCancelledContext(t *testing.T) {
	l := newLedger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.As(owner).Transfer(ctx, addr1, gc(1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, l.BalanceOf(addr1).IsZero())
}
