package contract

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/Mohsinsiddi/gymcli/internal/config"
	"github.com/Mohsinsiddi/gymcli/internal/exchange"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	profileAddr = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	coinAddr    = common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")
	alice       = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	testDeploy  = config.Deployment{UserRegistry: profileAddr.Hex(), ExchangeLedger: coinAddr.Hex()}
)

// answer makes an eth_call handler returning method's packed outputs.
func answer(t *testing.T, a abi.ABI, method string, vals ...interface{}) func([]byte) (interface{}, *rpcFault) {
	t.Helper()
	out, err := a.Methods[method].Outputs.Pack(vals...)
	require.NoError(t, err)
	return func([]byte) (interface{}, *rpcFault) { return hexutil.Encode(out), nil }
}

func selector(a abi.ABI, method string) []byte { return a.Methods[method].ID }

func TestClientReads(t *testing.T) {
	coin := mustBuiltin(BuiltinGymCoin)
	profile := mustBuiltin(BuiltinUserProfile)
	node := newFakeNode(t)

	node.onCall(selector(coin, "sellRate"), answer(t, coin, "sellRate", big.NewInt(100)))
	node.onCall(selector(coin, "buyRate"), answer(t, coin, "buyRate", big.NewInt(200)))
	node.onCall(selector(coin, "totalSupply"), answer(t, coin, "totalSupply", big.NewInt(1_000_000)))
	node.onCall(selector(coin, "owner"), answer(t, coin, "owner", alice))
	node.onCall(selector(coin, "balanceOf"), func(data []byte) (interface{}, *rpcFault) {
		args, err := coin.Methods["balanceOf"].Inputs.Unpack(data[4:])
		require.NoError(t, err)
		assert.Equal(t, alice, args[0])
		out, _ := coin.Methods["balanceOf"].Outputs.Pack(big.NewInt(42))
		return hexutil.Encode(out), nil
	})
	node.onCall(selector(profile, "getUserInfo"), answer(t, profile, "getUserInfo", "alice", "a@gym.io", true))
	node.on("eth_getBalance", "0xde0b6b3a7640000")

	c, err := NewClient(node.client(), testDeploy, alice, nil)
	require.NoError(t, err)
	ctx := context.Background()

	assert.Equal(t, alice, c.Caller())
	assert.Equal(t, coinAddr, c.ExchangeAddress())

	rates, err := exchange.ReadRates(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(100), rates.Buy, "Buy comes from sellRate()")
	assert.Equal(t, uint256.NewInt(200), rates.Sell, "Sell comes from buyRate()")

	bal, err := c.BalanceOf(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(42), bal)

	supply, err := c.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1_000_000), supply)

	owner, err := c.Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, alice, owner)

	reserve, err := c.Reserve(ctx)
	require.NoError(t, err)
	assert.Equal(t, exchange.One, reserve)

	info, err := c.UserInfo(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, exchange.UserInfo{Username: "alice", Email: "a@gym.io", Registered: true}, info)
}

func TestClientEmptyCodeResult(t *testing.T) {
	node := newFakeNode(t)
	node.on("eth_call", "0x")

	c, err := NewClient(node.client(), testDeploy, alice, nil)
	require.NoError(t, err)

	_, err = c.TotalSupply(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a contract deployed")
}

func TestClientInvalidDeployment(t *testing.T) {
	node := newFakeNode(t)
	_, err := NewClient(node.client(), config.Deployment{UserRegistry: "nope"}, alice, nil)
	assert.Error(t, err)
}

func TestClientReadOnlyWrites(t *testing.T) {
	node := newFakeNode(t)
	c, err := NewClient(node.client(), testDeploy, alice, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Register(ctx, "alice", "a@gym.io")
	assert.ErrorIs(t, err, ErrReadOnly)
	_, err = c.Sell(ctx, uint256.NewInt(1))
	assert.ErrorIs(t, err, ErrReadOnly)
	_, err = c.Fund(ctx, uint256.NewInt(1))
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestClientWriteValidation(t *testing.T) {
	node := newFakeNode(t)
	c, err := NewClient(node.client(), testDeploy, alice, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Register(ctx, "", "x")
	assert.ErrorIs(t, err, exchange.ErrInvalidInput)
	_, err = c.Buy(ctx, uint256.NewInt(0), uint256.NewInt(1))
	assert.ErrorIs(t, err, exchange.ErrInvalidAmount)
	_, err = c.Transfer(ctx, common.Address{}, uint256.NewInt(1))
	assert.ErrorIs(t, err, exchange.ErrInvalidRecipient)
	_, err = c.Transfer(ctx, alice, uint256.NewInt(1))
	assert.ErrorIs(t, err, exchange.ErrInvalidRecipient)
	_, err = c.SetRates(ctx, exchange.Rates{Buy: uint256.NewInt(0), Sell: uint256.NewInt(1)})
	assert.ErrorIs(t, err, exchange.ErrInvalidRate)
	assert.Zero(t, node.count("eth_call"))
}

func TestClientBuySendsPayment(t *testing.T) {
	node := newFakeNode(t)
	node.on("eth_call", "0x")
	node.mineAll(nil)
	signer := newKeySigner(t)

	tx := NewTransactor(node.client(), signer, testChainID, WithPollInterval(10*time.Millisecond))
	c, err := NewClient(node.client(), testDeploy, common.Address{}, tx)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), c.Caller())

	res, err := c.Buy(context.Background(), uint256.NewInt(500), uint256.NewInt(5))
	require.NoError(t, err)
	assert.Equal(t, uint64(16), res.Block)
	assert.Equal(t, common.HexToHash("0xabc"), res.Hash)

	sent := node.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, coinAddr, *sent[0].To())
	assert.Equal(t, big.NewInt(5), sent[0].Value())

	coin := mustBuiltin(BuiltinGymCoin)
	args, err := coin.Methods["buy"].Inputs.Unpack(sent[0].Data()[4:])
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), args[0])
}

func TestClientSetRatesArgumentOrder(t *testing.T) {
	node := newFakeNode(t)
	node.on("eth_call", "0x")
	node.mineAll(nil)

	tx := NewTransactor(node.client(), newKeySigner(t), testChainID, WithPollInterval(10*time.Millisecond))
	c, err := NewClient(node.client(), testDeploy, common.Address{}, tx)
	require.NoError(t, err)

	_, err = c.SetRates(context.Background(), exchange.Rates{Buy: uint256.NewInt(100), Sell: uint256.NewInt(200)})
	require.NoError(t, err)

	sent := node.sent()
	require.Len(t, sent, 1)
	args, err := mustBuiltin(BuiltinGymCoin).Methods["setRates"].Inputs.Unpack(sent[0].Data()[4:])
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), args[0], "_sellRate carries Buy")
	assert.Equal(t, big.NewInt(200), args[1], "_buyRate carries Sell")
}

func TestClientRegisterRevertMapped(t *testing.T) {
	node := newFakeNode(t)
	node.onFunc("eth_call", func([]json.RawMessage) (interface{}, *rpcFault) {
		return nil, revertWith("User already registered")
	})
	node.mineAll(nil)

	tx := NewTransactor(node.client(), newKeySigner(t), testChainID)
	c, err := NewClient(node.client(), testDeploy, common.Address{}, tx)
	require.NoError(t, err)

	_, err = c.Register(context.Background(), "alice", "a@gym.io")
	assert.ErrorIs(t, err, exchange.ErrAlreadyRegistered)
	assert.Zero(t, node.count("eth_sendRawTransaction"))
}
