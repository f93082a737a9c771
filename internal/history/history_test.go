package history_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Mohsinsiddi/gymcli/internal/chain"
	"github.com/Mohsinsiddi/gymcli/internal/exchange"
	"github.com/Mohsinsiddi/gymcli/internal/history"
	"github.com/Mohsinsiddi/gymcli/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	addr1 = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	addr2 = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
	token = common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")

	transferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
)

func gc(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), exchange.One)
}

// ---------------------------------------------------------------------------
// LedgerSource
// ---------------------------------------------------------------------------

func TestLedgerSourceRecent(t *testing.T) {
	l, err := ledger.New(owner)
	require.NoError(t, err)
	_, err = l.Register(addr1, "alice", "alice@gym.io")
	require.NoError(t, err)
	_, err = l.Buy(addr1, gc(100), exchange.One)
	require.NoError(t, err)
	_, err = l.Transfer(addr1, addr2, gc(10))
	require.NoError(t, err)

	src := history.NewLedgerSource(l)
	recs, err := src.Recent(context.Background(), addr1, 0)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "transfer", recs[0].Kind, "newest first")
	assert.False(t, recs[0].Incoming(addr1))
	assert.Equal(t, "buy", recs[1].Kind)
	assert.True(t, recs[1].Incoming(addr1))
	assert.Equal(t, exchange.One, recs[1].Value)
	assert.Equal(t, "register", recs[2].Kind)

	recs, err = src.Recent(context.Background(), addr1, 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestLedgerSourceCancelled(t *testing.T) {
	l, err := ledger.New(owner)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = history.NewLedgerSource(l).Recent(ctx, owner, 5)
	assert.ErrorIs(t, err, context.Canceled)
}

// ---------------------------------------------------------------------------
// LogSource
// ---------------------------------------------------------------------------

type rawLog struct {
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	BlockNumber string   `json:"blockNumber"`
	TxHash      string   `json:"transactionHash"`
	LogIndex    string   `json:"logIndex"`
}

func transferLog(from, to common.Address, amount *uint256.Int, block uint64, tx string) rawLog {
	return rawLog{
		Address:     token.Hex(),
		Topics:      []string{transferTopic.Hex(), common.BytesToHash(from.Bytes()).Hex(), common.BytesToHash(to.Bytes()).Hex()},
		Data:        hexutil.Encode(amount.PaddedBytes(32)),
		BlockNumber: hexutil.EncodeUint64(block),
		TxHash:      common.HexToHash(tx).Hex(),
		LogIndex:    "0x0",
	}
}

// logNode serves eth_blockNumber and answers eth_getLogs by whether the
// filter pins the sender (topic 1) or the recipient (topic 2).
func logNode(t *testing.T, head uint64, sent, received []rawLog, fromBlocks *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int64             `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck

		var result interface{}
		switch req.Method {
		case "eth_blockNumber":
			result = hexutil.EncodeUint64(head)
		case "eth_getLogs":
			var f struct {
				FromBlock string        `json:"fromBlock"`
				Topics    []interface{} `json:"topics"`
			}
			json.Unmarshal(req.Params[0], &f) //nolint:errcheck
			*fromBlocks = append(*fromBlocks, f.FromBlock)
			if len(f.Topics) == 2 {
				result = sent
			} else {
				result = received
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": result}) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLogSourceRecent(t *testing.T) {
	sent := []rawLog{transferLog(addr1, addr2, gc(5), 9_990, "0x02")}
	received := []rawLog{
		transferLog(owner, addr1, gc(100), 9_000, "0x01"),
		transferLog(owner, addr1, gc(7), 9_995, "0x03"),
	}
	var fromBlocks []string
	srv := logNode(t, 10_000, sent, received, &fromBlocks)

	src := history.NewLogSource(chain.NewEVMClient(srv.URL), token, 0)
	recs, err := src.Recent(context.Background(), addr1, 0)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, uint64(9_995), recs[0].Block)
	assert.Equal(t, gc(7), recs[0].Amount)
	assert.True(t, recs[0].Incoming(addr1))
	assert.Equal(t, addr2, recs[1].To)
	assert.False(t, recs[1].Incoming(addr1))
	assert.Equal(t, owner, recs[2].From)
	assert.Equal(t, "transfer", recs[2].Kind)

	require.Len(t, fromBlocks, 2)
	assert.Equal(t, hexutil.EncodeUint64(5_000), fromBlocks[0], "default window is 5000 blocks")
}

func TestLogSourceLimitAndShortChain(t *testing.T) {
	received := []rawLog{
		transferLog(owner, addr1, gc(1), 10, "0x01"),
		transferLog(owner, addr1, gc(2), 20, "0x02"),
	}
	var fromBlocks []string
	srv := logNode(t, 50, nil, received, &fromBlocks)

	src := history.NewLogSource(chain.NewEVMClient(srv.URL), token, 100)
	recs, err := src.Recent(context.Background(), addr1, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, gc(2), recs[0].Amount)
	assert.Equal(t, "0x0", fromBlocks[0], "window larger than the chain starts at genesis")
}
