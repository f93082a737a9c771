package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// EVMClient is a minimal JSON-RPC client for EVM chains.
type EVMClient struct {
	url    string
	client *http.Client
	nextID atomic.Int64
}

// CallMsg describes an eth_call / eth_estimateGas request.
type CallMsg struct {
	From  common.Address
	To    *common.Address // nil for contract creation
	Value *big.Int
	Data  []byte
}

// TxReceipt holds the on-chain receipt of a mined transaction.
type TxReceipt struct {
	Hash            common.Hash
	Status          uint64 // 1 = success, 0 = reverted
	BlockNumber     uint64
	GasUsed         uint64
	ContractAddress common.Address // set when a contract was deployed
}

// Log holds one event log.
type Log struct {
	Address     common.Address
	Topics      []common.Hash
	Data        []byte
	BlockNumber uint64
	TxHash      common.Hash
	LogIndex    uint64
}

// LogFilter is an eth_getLogs filter. A nil topic position matches anything.
type LogFilter struct {
	Address   common.Address
	Topics    [][]common.Hash
	FromBlock uint64
	ToBlock   uint64 // 0 = latest
}

// RPCError is an error object returned by the node.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// RevertError is returned when a call or gas estimate hits a revert.
type RevertError struct {
	Reason string // decoded Error(string) reason, if any
	Data   []byte // raw revert data
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "execution reverted"
	}
	return "execution reverted: " + e.Reason
}

// ErrPending is returned by WaitForReceipt when ctx ends before the
// transaction is mined.
var ErrPending = errors.New("transaction not mined")

// NewEVMClient creates a new EVM JSON-RPC client pointed at url.
func NewEVMClient(url string) *EVMClient {
	return &EVMClient{
		url: url,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// URL returns the endpoint this client talks to.
func (c *EVMClient) URL() string { return c.url }

// ChainID returns the chain's ID.
func (c *EVMClient) ChainID(ctx context.Context) (int64, error) {
	n, err := c.callQuantity(ctx, "eth_chainId")
	if err != nil {
		return 0, err
	}
	return n.Int64(), nil
}

// BlockNumber returns the latest block number.
func (c *EVMClient) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.callQuantity(ctx, "eth_blockNumber")
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// GetBalance returns the native balance of address in wei.
func (c *EVMClient) GetBalance(ctx context.Context, address common.Address) (*big.Int, error) {
	return c.callQuantity(ctx, "eth_getBalance", address.Hex(), "latest")
}

// GetPendingNonce returns the transaction count including pending transactions.
func (c *EVMClient) GetPendingNonce(ctx context.Context, address common.Address) (uint64, error) {
	n, err := c.callQuantity(ctx, "eth_getTransactionCount", address.Hex(), "pending")
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// GasPrice returns the current gas price.
func (c *EVMClient) GasPrice(ctx context.Context) (*big.Int, error) {
	return c.callQuantity(ctx, "eth_gasPrice")
}

// MaxPriorityFee returns the node's suggested tip. Nodes without
// eth_maxPriorityFeePerGas get a 1 gwei default.
func (c *EVMClient) MaxPriorityFee(ctx context.Context) (*big.Int, error) {
	tip, err := c.callQuantity(ctx, "eth_maxPriorityFeePerGas")
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return big.NewInt(1_000_000_000), nil
		}
		return nil, err
	}
	return tip, nil
}

// EstimateGas estimates gas for msg. Reverts come back as *RevertError.
func (c *EVMClient) EstimateGas(ctx context.Context, msg CallMsg) (uint64, error) {
	n, err := c.callQuantity(ctx, "eth_estimateGas", toCallArg(msg))
	if err != nil {
		return 0, asRevert(err)
	}
	return n.Uint64(), nil
}

// Call executes msg against the latest block without creating a transaction.
// Reverts come back as *RevertError.
func (c *EVMClient) Call(ctx context.Context, msg CallMsg) ([]byte, error) {
	var out hexutil.Bytes
	if err := c.call(ctx, &out, "eth_call", toCallArg(msg), "latest"); err != nil {
		return nil, asRevert(err)
	}
	return out, nil
}

// SendRawTransaction broadcasts a signed raw transaction.
func (c *EVMClient) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	var hash common.Hash
	if err := c.call(ctx, &hash, "eth_sendRawTransaction", hexutil.Encode(raw)); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// GetTransactionReceipt fetches the receipt for hash.
// Returns nil, nil if the transaction is still pending.
func (c *EVMClient) GetTransactionReceipt(ctx context.Context, hash common.Hash) (*TxReceipt, error) {
	var r *struct {
		Status          string          `json:"status"`
		BlockNumber     string          `json:"blockNumber"`
		GasUsed         string          `json:"gasUsed"`
		ContractAddress *common.Address `json:"contractAddress"`
	}
	if err := c.call(ctx, &r, "eth_getTransactionReceipt", hash.Hex()); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, nil // still pending
	}

	receipt := &TxReceipt{Hash: hash}
	if r.ContractAddress != nil {
		receipt.ContractAddress = *r.ContractAddress
	}
	if s, ok := parseBigHex(r.Status); ok {
		receipt.Status = s.Uint64()
	}
	if bn, ok := parseBigHex(r.BlockNumber); ok {
		receipt.BlockNumber = bn.Uint64()
	}
	if gu, ok := parseBigHex(r.GasUsed); ok {
		receipt.GasUsed = gu.Uint64()
	}
	return receipt, nil
}

// WaitForReceipt polls every interval until the transaction is mined or ctx
// ends. A reverted receipt is returned without error; check Status.
func (c *EVMClient) WaitForReceipt(ctx context.Context, hash common.Hash, interval time.Duration) (*TxReceipt, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		receipt, err := c.GetTransactionReceipt(ctx, hash)
		if err != nil && ctx.Err() == nil {
			return nil, err
		}
		if receipt != nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrPending, hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// GetLogs queries event logs matching f.
func (c *EVMClient) GetLogs(ctx context.Context, f LogFilter) ([]Log, error) {
	filter := map[string]interface{}{
		"address":   f.Address.Hex(),
		"fromBlock": hexutil.EncodeUint64(f.FromBlock),
		"toBlock":   "latest",
	}
	if f.ToBlock > 0 {
		filter["toBlock"] = hexutil.EncodeUint64(f.ToBlock)
	}
	if len(f.Topics) > 0 {
		topics := make([]interface{}, len(f.Topics))
		for i, alts := range f.Topics {
			switch len(alts) {
			case 0:
				topics[i] = nil
			case 1:
				topics[i] = alts[0].Hex()
			default:
				hs := make([]string, len(alts))
				for j, h := range alts {
					hs[j] = h.Hex()
				}
				topics[i] = hs
			}
		}
		filter["topics"] = topics
	}

	var raw []struct {
		Address     common.Address `json:"address"`
		Topics      []common.Hash  `json:"topics"`
		Data        hexutil.Bytes  `json:"data"`
		BlockNumber string         `json:"blockNumber"`
		TxHash      common.Hash    `json:"transactionHash"`
		LogIndex    string         `json:"logIndex"`
	}
	if err := c.call(ctx, &raw, "eth_getLogs", filter); err != nil {
		return nil, fmt.Errorf("getting logs: %w", err)
	}

	logs := make([]Log, 0, len(raw))
	for _, r := range raw {
		l := Log{Address: r.Address, Topics: r.Topics, Data: r.Data, TxHash: r.TxHash}
		if bn, ok := parseBigHex(r.BlockNumber); ok {
			l.BlockNumber = bn.Uint64()
		}
		if li, ok := parseBigHex(r.LogIndex); ok {
			l.LogIndex = li.Uint64()
		}
		logs = append(logs, l)
	}
	return logs, nil
}

// GetCode returns the bytecode at an address. Empty means an EOA.
func (c *EVMClient) GetCode(ctx context.Context, address common.Address) ([]byte, error) {
	var code hexutil.Bytes
	if err := c.call(ctx, &code, "eth_getCode", address.Hex(), "latest"); err != nil {
		return nil, err
	}
	return code, nil
}

// Ping tests the RPC endpoint and returns latency + block number.
func (c *EVMClient) Ping(ctx context.Context) (latency time.Duration, blockNum uint64, err error) {
	start := time.Now()
	blockNum, err = c.BlockNumber(ctx)
	return time.Since(start), blockNum, err
}

// --- internal JSON-RPC plumbing ---

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int64         `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

func (c *EVMClient) call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("RPC request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if len(rpcResp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("parsing result: %w", err)
	}
	return nil
}

func (c *EVMClient) callQuantity(ctx context.Context, method string, params ...interface{}) (*big.Int, error) {
	var s string
	if err := c.call(ctx, &s, method, params...); err != nil {
		return nil, err
	}
	n, ok := parseBigHex(s)
	if !ok {
		return nil, fmt.Errorf("%s: could not parse quantity %q", method, s)
	}
	return n, nil
}

func toCallArg(msg CallMsg) map[string]interface{} {
	arg := map[string]interface{}{
		"from": msg.From.Hex(),
	}
	if msg.To != nil {
		arg["to"] = msg.To.Hex()
	}
	if len(msg.Data) > 0 {
		arg["data"] = hexutil.Encode(msg.Data)
	}
	if msg.Value != nil && msg.Value.Sign() > 0 {
		arg["value"] = hexutil.EncodeBig(msg.Value)
	}
	return arg
}

// asRevert converts node revert errors into *RevertError. Geth reports code 3
// with the revert data; other nodes only put the reason in the message.
func asRevert(err error) error {
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		return err
	}
	msg := rpcErr.Message
	if rpcErr.Code != 3 && !strings.Contains(strings.ToLower(msg), "revert") {
		return err
	}

	rev := &RevertError{}
	var dataHex string
	if len(rpcErr.Data) > 0 && json.Unmarshal(rpcErr.Data, &dataHex) == nil {
		if data, decErr := hexutil.Decode(dataHex); decErr == nil {
			rev.Data = data
			if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
				rev.Reason = reason
			}
		}
	}
	if rev.Reason == "" {
		rev.Reason = extractRevertReason(msg)
	}
	return rev
}

// extractRevertReason pulls the reason out of messages like
// "execution reverted: User already registered" or
// "VM Exception while processing transaction: reverted with reason string 'X'".
func extractRevertReason(msg string) string {
	if idx := strings.Index(msg, "reason string '"); idx >= 0 {
		rest := msg[idx+len("reason string '"):]
		if end := strings.LastIndex(rest, "'"); end >= 0 {
			return rest[:end]
		}
	}
	if idx := strings.Index(msg, "execution reverted:"); idx >= 0 {
		return strings.TrimSpace(msg[idx+len("execution reverted:"):])
	}
	return ""
}

func parseBigHex(s string) (*big.Int, bool) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return new(big.Int), true
	}
	return new(big.Int).SetString(s, 16)
}
