package ens

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Mohsinsiddi/gymcli/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Namehash (EIP-137 vectors)
// ---------------------------------------------------------------------------

func TestNamehash_Empty(t *testing.T) {
	assert.Equal(t, common.Hash{}, Namehash(""))
}

func TestNamehash_ETH(t *testing.T) {
	assert.Equal(t,
		common.HexToHash("0x93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae"),
		Namehash("eth"))
}

func TestNamehash_FooETH(t *testing.T) {
	assert.Equal(t,
		common.HexToHash("0xde9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f"),
		Namehash("foo.eth"))
}

func TestNamehash_DifferentNames(t *testing.T) {
	assert.NotEqual(t, Namehash("alice.eth"), Namehash("bob.eth"))
}

// ---------------------------------------------------------------------------
// IsName / Supported
// ---------------------------------------------------------------------------

func TestIsName(t *testing.T) {
	assert.True(t, IsName("alice.eth"))
	assert.True(t, IsName("Gym.Club.ETH"))
	assert.False(t, IsName(".eth"))
	assert.False(t, IsName("alice"))
	assert.False(t, IsName("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"))
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(chain.ChainIDMainnet))
	assert.True(t, Supported(chain.ChainIDSepolia))
	assert.False(t, Supported(chain.ChainIDHardhat))
	assert.False(t, Supported(chain.ChainIDLocalhost))
}

// ---------------------------------------------------------------------------
// Resolve / ReverseLookup against a mock node
// ---------------------------------------------------------------------------

var (
	resolverAddr = common.HexToAddress("0x4976fb03C32e5B8cfe2b6cCB31c09Ba78EBaBa41")
	aliceAddr    = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

func word(a common.Address) string {
	return hexutil.Encode(common.LeftPadBytes(a.Bytes(), 32))
}

// ensNode answers eth_call by (to, selector); unknown pairs return a zero word.
func ensNode(t *testing.T, answers map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int               `json:"id"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var arg struct {
			To   string `json:"to"`
			Data string `json:"data"`
		}
		_ = json.Unmarshal(req.Params[0], &arg)
		key := strings.ToLower(arg.To) + ":" + arg.Data[:10]
		result, ok := answers[key]
		if !ok {
			result = hexutil.Encode(make([]byte, 32))
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func key(to common.Address, sel string) string {
	return strings.ToLower(to.Hex()) + ":" + sel
}

func TestResolve(t *testing.T) {
	srv := ensNode(t, map[string]string{
		key(Registry, "0x0178b8bf"):     word(resolverAddr),
		key(resolverAddr, "0x3b3b57de"): word(aliceAddr),
	})

	got, err := Resolve(context.Background(), chain.NewEVMClient(srv.URL), "Alice.eth")
	require.NoError(t, err)
	assert.Equal(t, aliceAddr, got)
}

func TestResolve_NoResolver(t *testing.T) {
	srv := ensNode(t, nil)

	_, err := Resolve(context.Background(), chain.NewEVMClient(srv.URL), "nobody.eth")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve_NoAddressRecord(t *testing.T) {
	srv := ensNode(t, map[string]string{
		key(Registry, "0x0178b8bf"): word(resolverAddr),
	})

	_, err := Resolve(context.Background(), chain.NewEVMClient(srv.URL), "empty.eth")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReverseLookup(t *testing.T) {
	name, err := stringArgs.Pack("alice.eth")
	require.NoError(t, err)
	srv := ensNode(t, map[string]string{
		key(Registry, "0x0178b8bf"):     word(resolverAddr),
		key(resolverAddr, "0x691f3431"): hexutil.Encode(name),
	})

	got, err := ReverseLookup(context.Background(), chain.NewEVMClient(srv.URL), aliceAddr)
	require.NoError(t, err)
	assert.Equal(t, "alice.eth", got)
}

func TestReverseLookup_NoName(t *testing.T) {
	srv := ensNode(t, map[string]string{
		key(Registry, "0x0178b8bf"): word(resolverAddr),
	})

	_, err := ReverseLookup(context.Background(), chain.NewEVMClient(srv.URL), aliceAddr)
	assert.ErrorIs(t, err, ErrNotFound)
}
