package wallet

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known Hardhat/Anvil test account #0. Never fund it on mainnet.
const (
	testPrivKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testSignerAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func dynamicTx() *types.Transaction {
	to := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(31337),
		Nonce:     0,
		GasTipCap: big.NewInt(1e9),
		GasFeeCap: big.NewInt(3e9),
		Gas:       21000,
		To:        &to,
		Value:     big.NewInt(1),
	})
}

// ---------------------------------------------------------------------------
// NewSigner
// ---------------------------------------------------------------------------

func TestNewSignerWatchOnly(t *testing.T) {
	w := &Wallet{Name: "watcher", Address: testSignerAddr, Type: TypeWatchOnly}
	_, err := NewSigner(w, NewInMemoryKeystore())
	require.ErrorIs(t, err, ErrCapabilityUnavailable)
	assert.Contains(t, err.Error(), "watch-only")
}

func TestNewSignerNoKeystore(t *testing.T) {
	w := &Wallet{Name: "w", Address: testSignerAddr, Type: TypeSigning}
	_, err := NewSigner(w, nil)
	assert.ErrorIs(t, err, ErrCapabilityUnavailable)
}

func TestSignerAddress(t *testing.T) {
	w := &Wallet{Name: "w", Address: testSignerAddr, Type: TypeSigning}
	s, err := NewSigner(w, NewInMemoryKeystore())
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testSignerAddr), s.Address())
}

// ---------------------------------------------------------------------------
// SignTx
// ---------------------------------------------------------------------------

func TestSignTxKeyNotFoundIsRejection(t *testing.T) {
	w := &Wallet{Name: "missing", Address: testSignerAddr, Type: TypeSigning, KeyRef: "gymcli.doesnotexist"}
	s, err := NewSigner(w, testKeystore(t))
	require.NoError(t, err)

	_, err = s.SignTx(dynamicTx(), big.NewInt(31337))
	assert.ErrorIs(t, err, ErrUserRejected)
}

func TestSignTxSuccess(t *testing.T) {
	ks := testKeystore(t)
	ref, err := ks.Store("testwal", testPrivKeyHex)
	require.NoError(t, err)

	w := &Wallet{Name: "testwal", Address: testSignerAddr, Type: TypeSigning, KeyRef: ref}
	s, err := NewSigner(w, ks)
	require.NoError(t, err)

	raw, err := s.SignTx(dynamicTx(), big.NewInt(31337))
	require.NoError(t, err)

	var decoded types.Transaction
	require.NoError(t, decoded.UnmarshalBinary(raw))
	from, err := types.Sender(types.NewLondonSigner(big.NewInt(31337)), &decoded)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testSignerAddr), from)
}

func TestSignTxBadStoredKey(t *testing.T) {
	ks := NewInMemoryKeystore()
	ref, _ := ks.Store("broken", "zz")

	w := &Wallet{Name: "broken", Address: testSignerAddr, Type: TypeSigning, KeyRef: ref}
	s, err := NewSigner(w, ks)
	require.NoError(t, err)

	_, err = s.SignTx(dynamicTx(), big.NewInt(31337))
	assert.ErrorContains(t, err, "parsing private key")
}
