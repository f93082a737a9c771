// Package rpc picks the JSON-RPC endpoint used for a network.
package rpc

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNoHealthyRPC is returned when no healthy RPC endpoint is available.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// Algorithm defines how an RPC endpoint is selected.
type Algorithm string

const (
	AlgorithmFastest    Algorithm = "fastest"
	AlgorithmRoundRobin Algorithm = "round-robin"
	AlgorithmFailover   Algorithm = "failover"

	// Discard nodes more than this many blocks behind the best.
	staleBlockThreshold = 3
)

// ParseAlgorithm maps a config value to an Algorithm; unknown values mean fastest.
func ParseAlgorithm(s string) Algorithm {
	switch a := Algorithm(s); a {
	case AlgorithmRoundRobin, AlgorithmFailover:
		return a
	default:
		return AlgorithmFastest
	}
}

// Endpoint is one RPC endpoint with its measured attributes.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Healthy     bool
}

// Picker selects an endpoint according to its algorithm. It is safe for
// concurrent use; round-robin state is kept between calls.
type Picker struct {
	algo Algorithm

	mu      sync.Mutex
	rrIndex int
}

// NewPicker creates a new Picker with the given algorithm.
func NewPicker(algo Algorithm) *Picker {
	return &Picker{algo: algo}
}

// Pick selects an endpoint from endpoints. Unhealthy endpoints and endpoints
// lagging the best block by more than a few blocks are never chosen.
func (p *Picker) Pick(endpoints []Endpoint) (Endpoint, error) {
	candidates := usable(endpoints)
	if len(candidates) == 0 {
		return Endpoint{}, ErrNoHealthyRPC
	}

	switch p.algo {
	case AlgorithmFailover:
		return candidates[0], nil
	case AlgorithmRoundRobin:
		p.mu.Lock()
		defer p.mu.Unlock()
		e := candidates[p.rrIndex%len(candidates)]
		p.rrIndex++
		return e, nil
	default:
		fastest := make([]Endpoint, len(candidates))
		copy(fastest, candidates)
		sort.SliceStable(fastest, func(i, j int) bool { return fastest[i].Latency < fastest[j].Latency })
		return fastest[0], nil
	}
}

// usable keeps healthy, up-to-date endpoints in their original order.
func usable(endpoints []Endpoint) []Endpoint {
	var best uint64
	for _, e := range endpoints {
		if e.Healthy && e.BlockNumber > best {
			best = e.BlockNumber
		}
	}
	var out []Endpoint
	for _, e := range endpoints {
		if !e.Healthy {
			continue
		}
		if best-e.BlockNumber > staleBlockThreshold {
			continue
		}
		out = append(out, e)
	}
	return out
}
