package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrNoDeployment is returned when no contract pair is recorded for a network.
var ErrNoDeployment = errors.New("no deployment recorded")

// Deployment is the address pair produced once by deploy and read at startup.
type Deployment struct {
	UserRegistry   string `json:"userRegistry"`
	ExchangeLedger string `json:"exchangeLedger"`
	Deployer       string `json:"deployer,omitempty"`
	DeployedAt     string `json:"deployedAt,omitempty"`
}

// UnmarshalJSON also accepts the {userProfile, gymCoin} layout written by
// the Hardhat deploy script.
func (d *Deployment) UnmarshalJSON(data []byte) error {
	var raw struct {
		UserRegistry   string `json:"userRegistry"`
		ExchangeLedger string `json:"exchangeLedger"`
		UserProfile    string `json:"userProfile"`
		GymCoin        string `json:"gymCoin"`
		Deployer       string `json:"deployer"`
		DeployedAt     string `json:"deployedAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = Deployment{
		UserRegistry:   firstNonEmpty(raw.UserRegistry, raw.UserProfile),
		ExchangeLedger: firstNonEmpty(raw.ExchangeLedger, raw.GymCoin),
		Deployer:       raw.Deployer,
		DeployedAt:     raw.DeployedAt,
	}
	return nil
}

// Validate checks both addresses.
func (d Deployment) Validate() error {
	if !common.IsHexAddress(d.UserRegistry) {
		return fmt.Errorf("invalid user registry address %q", d.UserRegistry)
	}
	if !common.IsHexAddress(d.ExchangeLedger) {
		return fmt.Errorf("invalid exchange ledger address %q", d.ExchangeLedger)
	}
	return nil
}

// DeploymentsFile is the structure of deployments.json.
type DeploymentsFile struct {
	Networks map[string]Deployment `json:"networks"`
}

// LoadDeployment returns the deployment recorded for network.
func (c *Config) LoadDeployment(network string) (*Deployment, error) {
	df, err := loadJSON[DeploymentsFile](filepath.Join(c.configDir, deploymentsFile))
	if err != nil {
		return nil, fmt.Errorf("reading deployments: %w", err)
	}
	d, ok := df.Networks[strings.ToLower(network)]
	if !ok {
		return nil, fmt.Errorf("%w for network %s", ErrNoDeployment, network)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// SaveDeployment records d for network, replacing any previous record.
func (c *Config) SaveDeployment(network string, d Deployment) error {
	if err := d.Validate(); err != nil {
		return err
	}
	path := filepath.Join(c.configDir, deploymentsFile)
	df, err := loadJSON[DeploymentsFile](path)
	if err != nil {
		return fmt.Errorf("reading deployments: %w", err)
	}
	if df.Networks == nil {
		df.Networks = make(map[string]Deployment)
	}
	df.Networks[strings.ToLower(network)] = d
	return saveJSON(path, df)
}

// ReadDeploymentFile parses a standalone address file such as the
// contractAddresses.json emitted by the Hardhat deploy script.
func ReadDeploymentFile(path string) (*Deployment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d Deployment
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
