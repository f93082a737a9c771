package contract

import (
	"crypto/ecdsa"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Mohsinsiddi/gymcli/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// fake node
// ---------------------------------------------------------------------------

type rpcFault struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// fakeNode serves JSON-RPC from per-method handlers. eth_call is routed by
// the 4-byte selector through calls.
type fakeNode struct {
	t   *testing.T
	srv *httptest.Server

	mu      sync.Mutex
	methods map[string]func(params []json.RawMessage) (interface{}, *rpcFault)
	calls   map[string]func(data []byte) (interface{}, *rpcFault)
	seen    []string
	raw     [][]byte
}

func newFakeNode(t *testing.T) *fakeNode {
	t.Helper()
	n := &fakeNode{
		t:       t,
		methods: map[string]func([]json.RawMessage) (interface{}, *rpcFault){},
		calls:   map[string]func([]byte) (interface{}, *rpcFault){},
	}
	n.srv = httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(n.srv.Close)
	return n
}

func (n *fakeNode) client() *chain.EVMClient { return chain.NewEVMClient(n.srv.URL) }

func (n *fakeNode) on(method string, result interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.methods[method] = func([]json.RawMessage) (interface{}, *rpcFault) { return result, nil }
}

func (n *fakeNode) onFunc(method string, fn func([]json.RawMessage) (interface{}, *rpcFault)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.methods[method] = fn
}

func (n *fakeNode) onCall(selector []byte, fn func(data []byte) (interface{}, *rpcFault)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls[hexutil.Encode(selector)] = fn
}

func (n *fakeNode) count(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, m := range n.seen {
		if m == method {
			c++
		}
	}
	return c
}

func (n *fakeNode) sent() []*types.Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()
	var txs []*types.Transaction
	for _, raw := range n.raw {
		tx := new(types.Transaction)
		require.NoError(n.t, tx.UnmarshalBinary(raw))
		txs = append(txs, tx)
	}
	return txs
}

func (n *fakeNode) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     int64             `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	n.seen = append(n.seen, req.Method)
	if req.Method == "eth_sendRawTransaction" && len(req.Params) > 0 {
		var s string
		if json.Unmarshal(req.Params[0], &s) == nil {
			if raw, err := hexutil.Decode(s); err == nil {
				n.raw = append(n.raw, raw)
			}
		}
	}
	handler := n.methods[req.Method]
	if req.Method == "eth_call" && handler == nil {
		handler = n.routeCall
	}
	n.mu.Unlock()

	var (
		result interface{}
		fault  *rpcFault
	)
	if handler == nil {
		fault = &rpcFault{Code: -32601, Message: "method not found"}
	} else {
		result, fault = handler(req.Params)
	}

	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
	if fault != nil {
		resp["error"] = fault
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp) //nolint:errcheck
}

func (n *fakeNode) routeCall(params []json.RawMessage) (interface{}, *rpcFault) {
	var arg struct {
		Data string `json:"data"`
	}
	if len(params) > 0 {
		json.Unmarshal(params[0], &arg) //nolint:errcheck
	}
	data, _ := hexutil.Decode(arg.Data)
	if len(data) < 4 {
		return "0x", nil
	}
	n.mu.Lock()
	fn := n.calls[hexutil.Encode(data[:4])]
	n.mu.Unlock()
	if fn == nil {
		return nil, &rpcFault{Code: -32000, Message: "unexpected call " + hexutil.Encode(data[:4])}
	}
	return fn(data)
}

// mineAll wires the methods a successful Transactor.Send needs.
func (n *fakeNode) mineAll(contract *common.Address) {
	n.on("eth_estimateGas", "0x5208")
	n.on("eth_maxPriorityFeePerGas", "0x3b9aca00")
	n.on("eth_gasPrice", "0x77359400")
	n.on("eth_getTransactionCount", "0x7")
	n.onFunc("eth_sendRawTransaction", func([]json.RawMessage) (interface{}, *rpcFault) {
		return common.HexToHash("0xabc").Hex(), nil
	})
	n.onFunc("eth_getTransactionReceipt", func([]json.RawMessage) (interface{}, *rpcFault) {
		r := map[string]interface{}{"status": "0x1", "blockNumber": "0x10", "gasUsed": "0x5208"}
		if contract != nil {
			r["contractAddress"] = contract.Hex()
		}
		return r, nil
	})
}

// revertWith encodes an Error(string) revert the way geth reports it.
func revertWith(reason string) *rpcFault {
	return &rpcFault{
		Code:    3,
		Message: "execution reverted: " + reason,
		Data:    hexutil.Encode(encodeRevert(reason)),
	}
}

func encodeRevert(reason string) []byte {
	selector := crypto.Keccak256([]byte("Error(string)"))[:4]
	str := make([]byte, 32)
	big.NewInt(32).FillBytes(str)
	length := make([]byte, 32)
	big.NewInt(int64(len(reason))).FillBytes(length)
	body := common.RightPadBytes([]byte(reason), (len(reason)+31)/32*32)
	out := append(append([]byte{}, selector...), str...)
	out = append(out, length...)
	return append(out, body...)
}

// ---------------------------------------------------------------------------
// signer
// ---------------------------------------------------------------------------

type keySigner struct{ key *ecdsa.PrivateKey }

func newKeySigner(t *testing.T) keySigner {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return keySigner{key: key}
}

func (s keySigner) Address() common.Address { return crypto.PubkeyToAddress(s.key.PublicKey) }

func (s keySigner) SignTx(tx *types.Transaction, chainID *big.Int) ([]byte, error) {
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return nil, err
	}
	return signed.MarshalBinary()
}
