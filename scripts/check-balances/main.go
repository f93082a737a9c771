// check-balances: reads the GymCoin and native balance of every configured
// wallet on every network with a deployment (plus the local devnet ledger)
// in parallel and prints a summary table.
//
// Run from the module root:
//
//	go run ./scripts/check-balances
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/Mohsinsiddi/gymcli/internal/chain"
	"github.com/Mohsinsiddi/gymcli/internal/config"
	"github.com/Mohsinsiddi/gymcli/internal/contract"
	"github.com/Mohsinsiddi/gymcli/internal/exchange"
	"github.com/Mohsinsiddi/gymcli/internal/ledger"
	"github.com/Mohsinsiddi/gymcli/internal/wallet"
	"github.com/holiman/uint256"
)

const rpcTimeout = 12 * time.Second

// ── types ─────────────────────────────────────────────────────────────────────

type result struct {
	network string
	wallet  string
	address string // short form
	gc      string
	native  string
	symbol  string
	err     string
}

// ── main ──────────────────────────────────────────────────────────────────────

func main() {
	cfg, err := config.Load(os.Getenv(config.EnvConfigDir))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	_ = config.LoadEnv(cfg.Dir())
	cfg.ApplyEnv()

	mgr := wallet.NewManager(wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())))
	wallets := mgr.List()
	if len(wallets) == 0 {
		fmt.Println("no wallets configured")
		return
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []result
	)
	add := func(r result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}

	for _, n := range chain.NewRegistry(cfg.CustomNetworks...).All() {
		if n.InProcess {
			results = append(results, localBalances(cfg, n, wallets)...)
			continue
		}
		d, err := cfg.LoadDeployment(n.Name)
		if err != nil {
			continue // not deployed here
		}
		wg.Add(1)
		go func(n chain.Network, d config.Deployment) {
			defer wg.Done()
			for _, r := range evmBalances(cfg, n, d, wallets) {
				add(r)
			}
		}(n, *d)
	}

	wg.Wait()

	printTable(results)
}

func localBalances(cfg *config.Config, n chain.Network, wallets []*wallet.Wallet) []result {
	l, err := ledger.Open(ledger.NewFileStore(cfg.LedgerPath()))
	if errors.Is(err, ledger.ErrNotDeployed) {
		return nil
	}
	var out []result
	for _, w := range wallets {
		r := result{network: n.Name, wallet: w.Name, address: shortAddr(w.Address), symbol: n.Currency, native: "—"}
		if err != nil {
			r.gc, r.err = "—", shortErr(err)
		} else {
			r.gc = chain.FormatUnits(l.BalanceOf(w.Account()), exchange.Decimals)
		}
		out = append(out, r)
	}
	return out
}

func evmBalances(cfg *config.Config, n chain.Network, d config.Deployment, wallets []*wallet.Wallet) []result {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	base := func(w *wallet.Wallet) result {
		return result{network: n.Name, wallet: w.Name, address: shortAddr(w.Address), symbol: n.Currency, gc: "—", native: "—"}
	}
	fail := func(err error) []result {
		out := make([]result, 0, len(wallets))
		for _, w := range wallets {
			r := base(w)
			r.err = shortErr(err)
			out = append(out, r)
		}
		return out
	}

	client, err := firstReachable(ctx, append(cfg.GetRPCs(n.Name), n.RPCs...))
	if err != nil {
		return fail(err)
	}
	gc, err := contract.NewClient(client, d, wallets[0].Account(), nil)
	if err != nil {
		return fail(err)
	}

	out := make([]result, 0, len(wallets))
	for _, w := range wallets {
		r := base(w)
		if bal, err := gc.BalanceOf(ctx, w.Account()); err != nil {
			r.err = shortErr(err)
		} else {
			r.gc = chain.FormatUnits(bal, exchange.Decimals)
		}
		if wei, err := client.GetBalance(ctx, w.Account()); err == nil {
			if v, overflow := uint256.FromBig(wei); !overflow {
				r.native = chain.FormatUnits(v, int32(n.CurrencyDecimals))
			}
		}
		out = append(out, r)
	}
	return out
}

// firstReachable pings urls in order and returns a client for the first that
// answers.
func firstReachable(ctx context.Context, urls []string) (*chain.EVMClient, error) {
	if len(urls) == 0 {
		return nil, errors.New("no RPC configured")
	}
	var last error
	for _, u := range urls {
		c := chain.NewEVMClient(u)
		if _, _, err := c.Ping(ctx); err != nil {
			last = err
			continue
		}
		return c, nil
	}
	return nil, fmt.Errorf("unreachable: %w", last)
}

// ── output ────────────────────────────────────────────────────────────────────

func printTable(results []result) {
	if len(results) == 0 {
		fmt.Println("nothing deployed; run `gymcli deploy` first")
		return
	}
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.network != b.network {
			return a.network < b.network
		}
		return a.wallet < b.wallet
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "NETWORK\tWALLET\tADDRESS\tGC\tNATIVE\tSYMBOL\tNOTE")
	fmt.Fprintln(w, strings.Repeat("-", 10)+"\t"+
		strings.Repeat("-", 10)+"\t"+
		strings.Repeat("-", 14)+"\t"+
		strings.Repeat("-", 20)+"\t"+
		strings.Repeat("-", 20)+"\t"+
		strings.Repeat("-", 6)+"\t"+
		strings.Repeat("-", 12))

	last := ""
	for _, r := range results {
		if r.network != last {
			if last != "" {
				fmt.Fprintln(w, "\t\t\t\t\t\t")
			}
			last = r.network
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.network, r.wallet, r.address, r.gc, r.native, r.symbol, r.err)
	}
	w.Flush()
}

// ── helpers ───────────────────────────────────────────────────────────────────

func shortAddr(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

func shortErr(err error) string {
	s := err.Error()
	if len(s) > 30 {
		return s[:30] + "…"
	}
	return s
}
