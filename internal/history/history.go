// Package history answers "what happened to this account lately" for either
// backend. It only reads; nothing here is on a write path.
package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Mohsinsiddi/gymcli/internal/chain"
	"github.com/Mohsinsiddi/gymcli/internal/config"
	"github.com/Mohsinsiddi/gymcli/internal/contract"
	"github.com/Mohsinsiddi/gymcli/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Record is one past event touching an account.
type Record struct {
	Hash   common.Hash
	Block  uint64
	Kind   string
	From   common.Address
	To     common.Address
	Amount *uint256.Int // GC
	Value  *uint256.Int // base currency, when known
	Time   time.Time    // zero when the source does not know it
}

// Incoming reports whether account received the GC in r.
func (r Record) Incoming(account common.Address) bool {
	return r.To == account && r.From != account
}

// Source lists recent records for an account, newest first.
type Source interface {
	Recent(ctx context.Context, account common.Address, n int) ([]Record, error)
}

// ---------------------------------------------------------------------------
// local ledger
// ---------------------------------------------------------------------------

// LedgerSource reads the in-process ledger's journal.
type LedgerSource struct {
	l *ledger.Ledger
}

// NewLedgerSource creates a source over l.
func NewLedgerSource(l *ledger.Ledger) *LedgerSource {
	return &LedgerSource{l: l}
}

func (s *LedgerSource) Recent(ctx context.Context, account common.Address, n int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries := s.l.Entries(account, n)
	out := make([]Record, 0, len(entries))
	for _, e := range entries {
		out = append(out, Record{
			Hash:   e.Hash,
			Block:  e.Block,
			Kind:   string(e.Kind),
			From:   e.From,
			To:     e.To,
			Amount: e.Amount,
			Value:  e.Value,
			Time:   e.Time,
		})
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// EVM logs
// ---------------------------------------------------------------------------

// LogSource reads Transfer events of the exchange token over a bounded
// window of recent blocks.
type LogSource struct {
	client *chain.EVMClient
	token  common.Address
	window uint64
}

// NewLogSource creates a source for token. A zero window uses the default
// lookback.
func NewLogSource(client *chain.EVMClient, token common.Address, window uint64) *LogSource {
	if window == 0 {
		window = config.HistoryBlockWindow
	}
	return &LogSource{client: client, token: token, window: window}
}

func (s *LogSource) Recent(ctx context.Context, account common.Address, n int) ([]Record, error) {
	coin, ok := contract.GetBuiltin(contract.BuiltinGymCoin)
	if !ok {
		return nil, fmt.Errorf("gymcoin ABI not registered")
	}
	topic := coin.ABI.Events["Transfer"].ID

	head, err := s.client.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading head block: %w", err)
	}
	var from uint64
	if head > s.window {
		from = head - s.window
	}

	acct := common.BytesToHash(account.Bytes())
	sent, err := s.client.GetLogs(ctx, chain.LogFilter{
		Address:   s.token,
		Topics:    [][]common.Hash{{topic}, {acct}},
		FromBlock: from,
	})
	if err != nil {
		return nil, err
	}
	received, err := s.client.GetLogs(ctx, chain.LogFilter{
		Address:   s.token,
		Topics:    [][]common.Hash{{topic}, nil, {acct}},
		FromBlock: from,
	})
	if err != nil {
		return nil, err
	}

	type key struct {
		tx    common.Hash
		index uint64
	}
	seen := make(map[key]bool)
	var logs []chain.Log
	for _, l := range append(sent, received...) {
		k := key{l.TxHash, l.LogIndex}
		if seen[k] || len(l.Topics) < 3 {
			continue
		}
		seen[k] = true
		logs = append(logs, l)
	}
	sort.Slice(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber > logs[j].BlockNumber
		}
		return logs[i].LogIndex > logs[j].LogIndex
	})
	if n > 0 && len(logs) > n {
		logs = logs[:n]
	}

	out := make([]Record, 0, len(logs))
	for _, l := range logs {
		out = append(out, Record{
			Hash:   l.TxHash,
			Block:  l.BlockNumber,
			Kind:   "transfer",
			From:   common.BytesToAddress(l.Topics[1].Bytes()),
			To:     common.BytesToAddress(l.Topics[2].Bytes()),
			Amount: new(uint256.Int).SetBytes(l.Data),
		})
	}
	return out, nil
}
