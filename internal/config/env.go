package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables.
const (
	EnvConfigDir  = "GYMCLI_CONFIG_DIR"
	EnvNetwork    = "GYMCLI_NETWORK"
	EnvBackend    = "GYMCLI_BACKEND"
	EnvRPCURL     = "GYMCLI_RPC_URL"
	EnvSepoliaRPC = "SEPOLIA_RPC_URL"
	EnvPrivateKey = "PRIVATE_KEY"
)

// LoadEnv reads .env from the working directory and then from the config
// directory. Variables already set in the process environment win.
func LoadEnv(dir string) error {
	for _, p := range []string{".env", filepath.Join(dir, ".env")} {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overlays environment overrides on c without persisting them.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvNetwork); v != "" {
		if c.envNetwork == "" {
			c.fileNetwork = c.Network
		}
		c.envNetwork = strings.ToLower(v)
		c.Network = c.envNetwork
	}
	if v := os.Getenv(EnvBackend); v != "" {
		if c.envBackend == "" {
			c.fileBackend = c.Backend
		}
		c.envBackend = strings.ToLower(v)
		c.Backend = c.envBackend
	}
	if c.rpcOverrides == nil {
		c.rpcOverrides = make(map[string]string)
	}
	if v := os.Getenv(EnvSepoliaRPC); v != "" {
		c.rpcOverrides["sepolia"] = v
	}
	if v := os.Getenv(EnvRPCURL); v != "" {
		c.rpcOverrides[c.Network] = v
	}
}

// PrivateKey returns PRIVATE_KEY, if set.
func PrivateKey() string {
	return strings.TrimSpace(os.Getenv(EnvPrivateKey))
}
