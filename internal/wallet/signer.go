package wallet

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer signs EVM transactions for a signing wallet.
type Signer struct {
	wallet *Wallet
	ks     KeystoreBackend
}

// NewSigner creates a signer for the given wallet.
func NewSigner(w *Wallet, ks KeystoreBackend) (*Signer, error) {
	if !w.CanSign() {
		return nil, fmt.Errorf("%w: wallet %q is watch-only and cannot sign", ErrCapabilityUnavailable, w.Name)
	}
	if ks == nil {
		return nil, fmt.Errorf("%w: %v", ErrCapabilityUnavailable, ErrNoKeystore)
	}
	return &Signer{wallet: w, ks: ks}, nil
}

// SignTx signs an EVM transaction and returns the raw signed bytes. A key
// the keychain will not release counts as the user declining to sign.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) ([]byte, error) {
	hexKey, err := s.ks.Retrieve(s.wallet.KeyRef)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieving key for %q: %v", ErrUserRejected, s.wallet.Name, err)
	}

	privKey, err := crypto.HexToECDSA(normaliseHexKey(hexKey))
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}

	signed, err := types.SignTx(tx, types.NewLondonSigner(chainID), privKey)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshaling signed tx: %w", err)
	}
	return raw, nil
}

// Address returns the wallet's address.
func (s *Signer) Address() common.Address {
	return s.wallet.Account()
}
