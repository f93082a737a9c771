package rpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Mohsinsiddi/gymcli/internal/chain"
)

// BenchmarkResult holds the result of a single endpoint benchmark.
type BenchmarkResult struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Err         error
}

// Benchmark pings every URL in parallel. When chainID is non-zero an endpoint
// serving a different chain is reported as failed.
func Benchmark(ctx context.Context, urls []string, chainID int64) []BenchmarkResult {
	results := make([]BenchmarkResult, len(urls))
	var wg sync.WaitGroup

	for i, url := range urls {
		wg.Add(1)
		go func(idx int, u string) {
			defer wg.Done()
			c := chain.NewEVMClient(u)
			latency, block, err := c.Ping(ctx)
			if err == nil && chainID != 0 {
				var got int64
				if got, err = c.ChainID(ctx); err == nil && got != chainID {
					err = fmt.Errorf("serves chain %d, want %d", got, chainID)
				}
			}
			results[idx] = BenchmarkResult{URL: u, Latency: latency, BlockNumber: block, Err: err}
		}(i, url)
	}

	wg.Wait()
	return results
}

// ToEndpoints converts benchmark results to picker Endpoints.
func ToEndpoints(results []BenchmarkResult) []Endpoint {
	endpoints := make([]Endpoint, 0, len(results))
	for _, r := range results {
		endpoints = append(endpoints, Endpoint{
			URL:         r.URL,
			Latency:     r.Latency,
			BlockNumber: r.BlockNumber,
			Healthy:     r.Err == nil,
		})
	}
	return endpoints
}

// Best benchmarks urls and returns the one picked by algo. A single URL is
// returned without probing.
func Best(ctx context.Context, urls []string, chainID int64, algo Algorithm) (string, error) {
	switch len(urls) {
	case 0:
		return "", ErrNoHealthyRPC
	case 1:
		return urls[0], nil
	}
	winner, err := NewPicker(algo).Pick(ToEndpoints(Benchmark(ctx, urls, chainID)))
	if err != nil {
		return "", err
	}
	return winner.URL, nil
}
