package contract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/Mohsinsiddi/gymcli/internal/chain"
	"github.com/Mohsinsiddi/gymcli/internal/config"
	"github.com/Mohsinsiddi/gymcli/internal/exchange"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// TxSigner signs transactions for one account.
type TxSigner interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) ([]byte, error)
}

// Transactor sends contract transactions and waits for them to be mined.
type Transactor struct {
	client  *chain.EVMClient
	signer  TxSigner
	chainID *big.Int
	poll    time.Duration
	log     *slog.Logger
}

// TransactorOption configures a Transactor.
type TransactorOption func(*Transactor)

// WithPollInterval sets how often receipts are polled.
func WithPollInterval(d time.Duration) TransactorOption {
	return func(t *Transactor) { t.poll = d }
}

// WithLogger sets the logger for transaction progress.
func WithLogger(l *slog.Logger) TransactorOption {
	return func(t *Transactor) { t.log = l }
}

// NewTransactor creates a Transactor for signer on the chain served by client.
func NewTransactor(client *chain.EVMClient, signer TxSigner, chainID int64, opts ...TransactorOption) *Transactor {
	t := &Transactor{
		client:  client,
		signer:  signer,
		chainID: big.NewInt(chainID),
		poll:    config.ReceiptPollEvery,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// From is the sending account.
func (t *Transactor) From() common.Address { return t.signer.Address() }

// Send simulates the call, signs and broadcasts it, then waits for the
// receipt until ctx ends. A call that would revert is never broadcast.
// to == nil deploys data as contract creation code.
func (t *Transactor) Send(ctx context.Context, to *common.Address, data []byte, value *big.Int, fallbackGas uint64) (*chain.TxReceipt, error) {
	if value == nil {
		value = new(big.Int)
	}
	from := t.signer.Address()
	msg := chain.CallMsg{From: from, To: to, Value: value, Data: data}

	if to != nil {
		if _, err := t.client.Call(ctx, msg); err != nil {
			return nil, classify(err)
		}
	}

	gas, err := t.client.EstimateGas(ctx, msg)
	if err != nil {
		var rev *chain.RevertError
		if errors.As(err, &rev) {
			return nil, classify(err)
		}
		t.log.Debug("gas estimate failed, using fallback", "err", err, "gas", fallbackGas)
		gas = fallbackGas
	} else {
		gas += gas / 5
	}

	tip, err := t.client.MaxPriorityFee(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting priority fee: %w", err)
	}
	gasPrice, err := t.client.GasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting gas price: %w", err)
	}
	feeCap := new(big.Int).Add(new(big.Int).Mul(gasPrice, big.NewInt(2)), tip)

	nonce, err := t.client.GetPendingNonce(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("getting nonce: %w", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   t.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        to,
		Value:     value,
		Data:      data,
	})

	raw, err := t.signer.SignTx(tx, t.chainID)
	if err != nil {
		return nil, err
	}

	hash, err := t.client.SendRawTransaction(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("broadcasting transaction: %w", classify(err))
	}
	t.log.Info("transaction sent", "hash", hash.Hex(), "nonce", nonce, "gas", gas)

	receipt, err := t.client.WaitForReceipt(ctx, hash, t.poll)
	if err != nil {
		return nil, &exchange.TxError{Hash: hash, Err: err}
	}
	if receipt.Status == 0 {
		return receipt, &exchange.TxError{Hash: hash, Err: exchange.ErrReverted}
	}
	t.log.Info("transaction mined", "hash", hash.Hex(), "block", receipt.BlockNumber, "gas_used", receipt.GasUsed)
	return receipt, nil
}
