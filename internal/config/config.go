package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const (
	defaultNetwork      = "sepolia"
	defaultBackend      = BackendEVM
	defaultAlgorithm    = "fastest"
	defaultConfirmSecs  = int(TxConfirmTimeout / time.Second)
	defaultPollInterval = 3

	configFile      = "config.json"
	walletsFile     = "wallets.json"
	deploymentsFile = "deployments.json"
	ledgerFile      = "ledger.json"
)

// Backends.
const (
	BackendEVM   = "evm"
	BackendLocal = "local"
)

// Load reads config from dir (or creates defaults). dir defaults to ~/.gymcli.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".gymcli")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.configDir = dir
	if cfg.CustomRPCs == nil {
		cfg.CustomRPCs = make(map[string][]string)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values a hand-edited config.json may get wrong.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendEVM, BackendLocal:
	default:
		return fmt.Errorf("invalid backend %q (want %s or %s)", c.Backend, BackendEVM, BackendLocal)
	}
	if c.ConfirmTimeout < 0 || c.PollInterval < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	for _, n := range c.CustomNetworks {
		if n.Name == "" || n.ChainID <= 0 {
			return fmt.Errorf("custom network %q: name and chain_id are required", n.Name)
		}
	}
	return nil
}

// Save writes the config to disk. Network and backend values that came
// from the environment are written back as they were in the file; a value
// changed after ApplyEnv is saved as is.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	out := *c
	if c.envNetwork != "" && c.Network == c.envNetwork {
		out.Network = c.fileNetwork
	}
	if c.envBackend != "" && c.Backend == c.envBackend {
		out.Backend = c.fileBackend
	}
	return saveJSON(filepath.Join(c.configDir, configFile), &out)
}

// AddRPC adds a custom RPC URL for a network.
func (c *Config) AddRPC(network, url string) error {
	if c.CustomRPCs == nil {
		c.CustomRPCs = make(map[string][]string)
	}
	if slices.Contains(c.CustomRPCs[network], url) {
		return fmt.Errorf("RPC %s already exists for network %s", url, network)
	}
	c.CustomRPCs[network] = append(c.CustomRPCs[network], url)
	return nil
}

// RemoveRPC removes a custom RPC URL for a network.
func (c *Config) RemoveRPC(network, url string) error {
	rpcs := c.CustomRPCs[network]
	idx := slices.Index(rpcs, url)
	if idx == -1 {
		return fmt.Errorf("RPC %s not found for network %s", url, network)
	}
	c.CustomRPCs[network] = slices.Delete(rpcs, idx, idx+1)
	return nil
}

// GetRPCs returns the RPCs to try for a network: an environment override
// first, then the configured custom RPCs.
func (c *Config) GetRPCs(network string) []string {
	var out []string
	if u := c.rpcOverrides[network]; u != "" {
		out = append(out, u)
	}
	for _, u := range c.CustomRPCs[network] {
		if !slices.Contains(out, u) {
			out = append(out, u)
		}
	}
	return out
}

// AddNetwork stores or replaces a custom network definition.
func (c *Config) AddNetwork(n NetworkEntry) {
	n.Name = strings.ToLower(n.Name)
	for i := range c.CustomNetworks {
		if c.CustomNetworks[i].Name == n.Name || c.CustomNetworks[i].ChainID == n.ChainID {
			c.CustomNetworks[i] = n
			return
		}
	}
	c.CustomNetworks = append(c.CustomNetworks, n)
}

// ConfirmWait is the bound on waiting for a write to confirm.
func (c *Config) ConfirmWait() time.Duration {
	if c.ConfirmTimeout <= 0 {
		return TxConfirmTimeout
	}
	return time.Duration(c.ConfirmTimeout) * time.Second
}

// Poll is the interval at which wallet and network changes are detected.
func (c *Config) Poll() time.Duration {
	if c.PollInterval <= 0 {
		return time.Duration(defaultPollInterval) * time.Second
	}
	return time.Duration(c.PollInterval) * time.Second
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath is the wallet store location.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, walletsFile)
}

// LedgerPath is the local backend's ledger state file.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.configDir, ledgerFile)
}

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		Network:        defaultNetwork,
		Backend:        defaultBackend,
		RPCAlgorithm:   defaultAlgorithm,
		ConfirmTimeout: defaultConfirmSecs,
		PollInterval:   defaultPollInterval,
		CustomRPCs:     make(map[string][]string),
		configDir:      dir,
	}
}

func loadJSON[T any](path string) (*T, error) {
	var zero T
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &zero, nil
	}
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
