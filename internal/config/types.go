package config

// Config holds all gymcli configuration.
type Config struct {
	Network        string              `json:"network"` // active network slug
	DefaultWallet  string              `json:"default_wallet"`
	Backend        string              `json:"backend"`         // "evm" | "local"
	RPCAlgorithm   string              `json:"rpc_algorithm"`   // "fastest" | "round-robin" | "failover"
	ConfirmTimeout int                 `json:"confirm_timeout"` // seconds
	PollInterval   int                 `json:"poll_interval"`   // seconds
	CustomRPCs     map[string][]string `json:"custom_rpcs"`
	CustomNetworks []NetworkEntry      `json:"custom_networks,omitempty"`

	// internal: config dir path used for Save()
	configDir string
	// internal: per-network RPC from the environment, never saved
	rpcOverrides map[string]string
	// internal: env values that replaced the file's network/backend
	envNetwork, fileNetwork string
	envBackend, fileBackend string
}

// NetworkEntry is a user-added network.
type NetworkEntry struct {
	Name             string   `json:"name"`
	DisplayName      string   `json:"display_name"`
	ChainID          int64    `json:"chain_id"`
	Currency         string   `json:"currency"`
	CurrencyDecimals int      `json:"currency_decimals"`
	RPCs             []string `json:"rpcs"`
	Explorer         string   `json:"explorer,omitempty"`
}
