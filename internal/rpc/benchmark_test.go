package rpc_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Mohsinsiddi/gymcli/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// node serves eth_blockNumber and eth_chainId.
func node(t *testing.T, block, chainID string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			ID     int64  `json:"id"`
		}
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		result := block
		if req.Method == "eth_chainId" {
			result = chainID
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": result}) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestToEndpoints(t *testing.T) {
	eps := rpc.ToEndpoints([]rpc.BenchmarkResult{
		{URL: "http://a", BlockNumber: 5},
		{URL: "http://b", Err: errors.New("down")},
	})
	require.Len(t, eps, 2)
	assert.True(t, eps[0].Healthy)
	assert.False(t, eps[1].Healthy)
	assert.Equal(t, uint64(5), eps[0].BlockNumber)
}

func TestBenchmarkRejectsWrongChain(t *testing.T) {
	good := node(t, "0x10", "0xaa36a7")
	wrong := node(t, "0x10", "0x1")

	results := rpc.Benchmark(context.Background(), []string{good.URL, wrong.URL}, 11155111)
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.ErrorContains(t, results[1].Err, "serves chain 1")
}

func TestBestPicksMatchingChain(t *testing.T) {
	good := node(t, "0x10", "0xaa36a7")
	wrong := node(t, "0x10", "0x1")

	url, err := rpc.Best(context.Background(), []string{wrong.URL, good.URL}, 11155111, rpc.AlgorithmFailover)
	require.NoError(t, err)
	assert.Equal(t, good.URL, url)
}

func TestBestSingleURLSkipsProbe(t *testing.T) {
	url, err := rpc.Best(context.Background(), []string{"http://unreachable.invalid"}, 1, rpc.AlgorithmFastest)
	require.NoError(t, err)
	assert.Equal(t, "http://unreachable.invalid", url)
}

func TestBestNoURLs(t *testing.T) {
	_, err := rpc.Best(context.Background(), nil, 1, rpc.AlgorithmFastest)
	assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)
}
