package chain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Mohsinsiddi/gymcli/internal/config"
)

// ErrNetworkNotFound is returned when a network is not in the registry.
var ErrNetworkNotFound = errors.New("network not found")

// Well-known chain IDs.
const (
	ChainIDMainnet   int64 = 1
	ChainIDSepolia   int64 = 11155111
	ChainIDHardhat   int64 = 31337
	ChainIDLocalhost int64 = 1337
)

// Network describes an EVM network the wallet can switch to. The same
// record is the payload used to add an unknown network.
type Network struct {
	Name             string   `json:"name"`
	DisplayName      string   `json:"display_name"`
	ChainID          int64    `json:"chain_id"`
	Currency         string   `json:"currency"`
	CurrencyDecimals int      `json:"currency_decimals"`
	RPCs             []string `json:"rpcs"`
	Explorer         string   `json:"explorer,omitempty"`
	// InProcess marks the devnet served by the local ledger rather than RPC.
	InProcess bool `json:"in_process,omitempty"`
}

// ChainIDHex is the chain ID in the 0x-prefixed form wallets use.
func (n Network) ChainIDHex() string {
	return fmt.Sprintf("0x%x", n.ChainID)
}

// TxURL links to a transaction on the network's explorer, if it has one.
func (n Network) TxURL(hash string) string {
	if n.Explorer == "" {
		return ""
	}
	return strings.TrimSuffix(n.Explorer, "/") + "/tx/" + hash
}

// Entry converts n into a config record.
func (n Network) Entry() config.NetworkEntry {
	return config.NetworkEntry{
		Name:             n.Name,
		DisplayName:      n.DisplayName,
		ChainID:          n.ChainID,
		Currency:         n.Currency,
		CurrencyDecimals: n.CurrencyDecimals,
		RPCs:             n.RPCs,
		Explorer:         n.Explorer,
	}
}

// Validate checks the fields a network needs to be usable.
func (n Network) Validate() error {
	if n.Name == "" {
		return errors.New("network name is required")
	}
	if n.ChainID <= 0 {
		return fmt.Errorf("network %s: chain id must be positive", n.Name)
	}
	if !n.InProcess && len(n.RPCs) == 0 {
		return fmt.Errorf("network %s: at least one RPC URL is required", n.Name)
	}
	if n.CurrencyDecimals < 0 || n.CurrencyDecimals > 36 {
		return fmt.Errorf("network %s: invalid currency decimals %d", n.Name, n.CurrencyDecimals)
	}
	return nil
}

// Sepolia is the network the exchange is deployed on.
func Sepolia() Network {
	return Network{
		Name:             "sepolia",
		DisplayName:      "Sepolia Testnet",
		ChainID:          ChainIDSepolia,
		Currency:         "SEP",
		CurrencyDecimals: 18,
		RPCs: []string{
			"https://ethereum-sepolia-rpc.publicnode.com",
			"https://rpc.sepolia.org",
			"https://sepolia.drpc.org",
		},
		Explorer: "https://sepolia.etherscan.io",
	}
}

func builtinNetworks() []Network {
	return []Network{
		Sepolia(),
		{
			Name:             "hardhat",
			DisplayName:      "Hardhat Node",
			ChainID:          ChainIDHardhat,
			Currency:         "ETH",
			CurrencyDecimals: 18,
			RPCs:             []string{"http://127.0.0.1:8545"},
		},
		{
			Name:             "localhost",
			DisplayName:      "Localhost",
			ChainID:          ChainIDLocalhost,
			Currency:         "ETH",
			CurrencyDecimals: 18,
			InProcess:        true,
		},
		{
			Name:             "mainnet",
			DisplayName:      "Ethereum Mainnet",
			ChainID:          ChainIDMainnet,
			Currency:         "ETH",
			CurrencyDecimals: 18,
			RPCs:             []string{"https://ethereum-rpc.publicnode.com", "https://eth.llamarpc.com"},
			Explorer:         "https://etherscan.io",
		},
	}
}

// Registry is the set of networks the wallet knows about.
type Registry struct {
	byName map[string]Network
	byID   map[int64]string
}

// NewRegistry returns the built-in networks overlaid with custom ones.
// A custom network replaces a built-in with the same name or chain ID.
func NewRegistry(custom ...config.NetworkEntry) *Registry {
	r := &Registry{
		byName: make(map[string]Network),
		byID:   make(map[int64]string),
	}
	for _, n := range builtinNetworks() {
		r.put(n)
	}
	for _, e := range custom {
		r.put(Network{
			Name:             strings.ToLower(e.Name),
			DisplayName:      e.DisplayName,
			ChainID:          e.ChainID,
			Currency:         e.Currency,
			CurrencyDecimals: e.CurrencyDecimals,
			RPCs:             e.RPCs,
			Explorer:         e.Explorer,
		})
	}
	return r
}

func (r *Registry) put(n Network) {
	if old, ok := r.byID[n.ChainID]; ok {
		delete(r.byName, old)
	}
	if old, ok := r.byName[n.Name]; ok {
		delete(r.byID, old.ChainID)
	}
	r.byName[n.Name] = n
	r.byID[n.ChainID] = n.Name
}

// All returns every network ordered by chain ID.
func (r *Registry) All() []Network {
	out := make([]Network, 0, len(r.byName))
	for _, n := range r.byName {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChainID < out[j].ChainID })
	return out
}

// GetByName finds a network by its slug (e.g. "sepolia").
func (r *Registry) GetByName(name string) (Network, error) {
	n, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return Network{}, fmt.Errorf("%w: %s", ErrNetworkNotFound, name)
	}
	return n, nil
}

// GetByChainID finds a network by its numeric chain ID.
func (r *Registry) GetByChainID(id int64) (Network, error) {
	name, ok := r.byID[id]
	if !ok {
		return Network{}, fmt.Errorf("%w: chain id %d", ErrNetworkNotFound, id)
	}
	return r.byName[name], nil
}
