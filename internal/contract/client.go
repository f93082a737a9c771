package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/gymcli/internal/chain"
	"github.com/Mohsinsiddi/gymcli/internal/config"
	"github.com/Mohsinsiddi/gymcli/internal/exchange"
	"github.com/Mohsinsiddi/gymcli/internal/wallet"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ErrReadOnly is returned by writes on a client built without a transactor,
// such as one bound to a watch-only wallet.
var ErrReadOnly = fmt.Errorf("%w: read-only client cannot send transactions", wallet.ErrCapabilityUnavailable)

// Client binds the exchange surface to a deployed UserProfile + GymCoin pair.
type Client struct {
	rpc     *chain.EVMClient
	tx      *Transactor
	caller  common.Address
	coin    common.Address
	profile common.Address

	coinABI    abi.ABI
	profileABI abi.ABI
}

var _ exchange.Ledger = (*Client)(nil)

// NewClient creates a client for the contracts in d. Writes are sent through
// tx; pass nil for a read-only client acting as caller.
func NewClient(rpc *chain.EVMClient, d config.Deployment, caller common.Address, tx *Transactor) (*Client, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if tx != nil {
		caller = tx.From()
	}
	return &Client{
		rpc:        rpc,
		tx:         tx,
		caller:     caller,
		coin:       common.HexToAddress(d.ExchangeLedger),
		profile:    common.HexToAddress(d.UserRegistry),
		coinABI:    mustBuiltin(BuiltinGymCoin),
		profileABI: mustBuiltin(BuiltinUserProfile),
	}, nil
}

// Caller is the account writes are issued from.
func (c *Client) Caller() common.Address { return c.caller }

// ExchangeAddress is the GymCoin contract address.
func (c *Client) ExchangeAddress() common.Address { return c.coin }

// ---------------------------------------------------------------------------
// reads
// ---------------------------------------------------------------------------

func (c *Client) UserInfo(ctx context.Context, account common.Address) (exchange.UserInfo, error) {
	out, err := c.read(ctx, c.profile, c.profileABI, "getUserInfo", account)
	if err != nil {
		return exchange.UserInfo{}, err
	}
	if len(out) != 3 {
		return exchange.UserInfo{}, fmt.Errorf("getUserInfo: unexpected %d outputs", len(out))
	}
	name, _ := out[0].(string)
	email, _ := out[1].(string)
	registered, _ := out[2].(bool)
	return exchange.UserInfo{Username: name, Email: email, Registered: registered}, nil
}

func (c *Client) BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error) {
	return c.readUint(ctx, "balanceOf", account)
}

func (c *Client) Owner(ctx context.Context) (common.Address, error) {
	out, err := c.read(ctx, c.coin, c.coinABI, "owner")
	if err != nil {
		return common.Address{}, err
	}
	owner, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("owner: unexpected type %T", out[0])
	}
	return owner, nil
}

// BuyRate reads the contract's sellRate().
func (c *Client) BuyRate(ctx context.Context) (*uint256.Int, error) {
	return c.readUint(ctx, "sellRate")
}

// SellRate reads the contract's buyRate().
func (c *Client) SellRate(ctx context.Context) (*uint256.Int, error) {
	return c.readUint(ctx, "buyRate")
}

// Reserve is the native balance held by the GymCoin contract.
func (c *Client) Reserve(ctx context.Context) (*uint256.Int, error) {
	bal, err := c.rpc.GetBalance(ctx, c.coin)
	if err != nil {
		return nil, err
	}
	return toUint256(bal)
}

func (c *Client) TotalSupply(ctx context.Context) (*uint256.Int, error) {
	return c.readUint(ctx, "totalSupply")
}

// ---------------------------------------------------------------------------
// writes
// ---------------------------------------------------------------------------

func (c *Client) Register(ctx context.Context, username, email string) (exchange.TxResult, error) {
	if username == "" {
		return exchange.TxResult{}, fmt.Errorf("%w: username is empty", exchange.ErrInvalidInput)
	}
	return c.write(ctx, c.profile, c.profileABI, nil, config.GasLimitRegister, "registerUser", username, email)
}

func (c *Client) Buy(ctx context.Context, amount, payment *uint256.Int) (exchange.TxResult, error) {
	if amount == nil || amount.IsZero() {
		return exchange.TxResult{}, exchange.ErrInvalidAmount
	}
	value := new(big.Int)
	if payment != nil {
		value = payment.ToBig()
	}
	return c.write(ctx, c.coin, c.coinABI, value, config.GasLimitBuy, "buy", amount.ToBig())
}

func (c *Client) Sell(ctx context.Context, amount *uint256.Int) (exchange.TxResult, error) {
	if amount == nil || amount.IsZero() {
		return exchange.TxResult{}, exchange.ErrInvalidAmount
	}
	return c.write(ctx, c.coin, c.coinABI, nil, config.GasLimitSell, "sell", amount.ToBig())
}

func (c *Client) Transfer(ctx context.Context, to common.Address, amount *uint256.Int) (exchange.TxResult, error) {
	if amount == nil || amount.IsZero() {
		return exchange.TxResult{}, exchange.ErrInvalidAmount
	}
	if to == (common.Address{}) || to == c.caller {
		return exchange.TxResult{}, fmt.Errorf("%w: %s", exchange.ErrInvalidRecipient, to.Hex())
	}
	return c.write(ctx, c.coin, c.coinABI, nil, config.GasLimitTransfer, "transfer", to, amount.ToBig())
}

// SetRates calls setRates(_sellRate, _buyRate) with (r.Buy, r.Sell).
func (c *Client) SetRates(ctx context.Context, r exchange.Rates) (exchange.TxResult, error) {
	if err := r.Validate(); err != nil {
		return exchange.TxResult{}, err
	}
	return c.write(ctx, c.coin, c.coinABI, nil, config.GasLimitSetRates, "setRates", r.Buy.ToBig(), r.Sell.ToBig())
}

// Fund sends payment to the GymCoin contract's receive function.
func (c *Client) Fund(ctx context.Context, payment *uint256.Int) (exchange.TxResult, error) {
	if payment == nil || payment.IsZero() {
		return exchange.TxResult{}, exchange.ErrInvalidAmount
	}
	if c.tx == nil {
		return exchange.TxResult{}, ErrReadOnly
	}
	coin := c.coin
	receipt, err := c.tx.Send(ctx, &coin, nil, payment.ToBig(), config.GasLimitFund)
	if err != nil {
		return exchange.TxResult{}, err
	}
	return exchange.TxResult{Hash: receipt.Hash, Block: receipt.BlockNumber}, nil
}

// ---------------------------------------------------------------------------
// plumbing
// ---------------------------------------------------------------------------

func (c *Client) read(ctx context.Context, target common.Address, a abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := a.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", method, err)
	}
	out, err := c.rpc.Call(ctx, chain.CallMsg{From: c.caller, To: &target, Data: data})
	if err != nil {
		return nil, classify(err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: empty result, is a contract deployed at %s?", method, target.Hex())
	}
	vals, err := a.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", method, err)
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("%s: no outputs", method)
	}
	return vals, nil
}

func (c *Client) readUint(ctx context.Context, method string, args ...interface{}) (*uint256.Int, error) {
	out, err := c.read(ctx, c.coin, c.coinABI, method, args...)
	if err != nil {
		return nil, err
	}
	n, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected type %T", method, out[0])
	}
	return toUint256(n)
}

func (c *Client) write(ctx context.Context, target common.Address, a abi.ABI, value *big.Int, gas uint64, method string, args ...interface{}) (exchange.TxResult, error) {
	if c.tx == nil {
		return exchange.TxResult{}, ErrReadOnly
	}
	data, err := a.Pack(method, args...)
	if err != nil {
		return exchange.TxResult{}, fmt.Errorf("encoding %s: %w", method, err)
	}
	receipt, err := c.tx.Send(ctx, &target, data, value, gas)
	if err != nil {
		return exchange.TxResult{}, fmt.Errorf("%s: %w", method, err)
	}
	return exchange.TxResult{Hash: receipt.Hash, Block: receipt.BlockNumber}, nil
}

func toUint256(n *big.Int) (*uint256.Int, error) {
	if n.Sign() < 0 {
		return nil, fmt.Errorf("negative value %s", n)
	}
	v, overflow := uint256.FromBig(n)
	if overflow {
		return nil, fmt.Errorf("value %s overflows 256 bits", n)
	}
	return v, nil
}
