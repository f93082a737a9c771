package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/gymcli/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	registryAddr = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	ledgerAddr   = "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"
)

func TestDeploymentMissing(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	_, err = cfg.LoadDeployment("sepolia")
	assert.ErrorIs(t, err, config.ErrNoDeployment)
}

func TestSaveAndLoadDeployment(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cfg.SaveDeployment("Sepolia", config.Deployment{
		UserRegistry:   registryAddr,
		ExchangeLedger: ledgerAddr,
	}))

	d, err := cfg.LoadDeployment("sepolia")
	require.NoError(t, err)
	assert.Equal(t, registryAddr, d.UserRegistry)
	assert.Equal(t, ledgerAddr, d.ExchangeLedger)

	_, err = cfg.LoadDeployment("localhost")
	assert.ErrorIs(t, err, config.ErrNoDeployment)
}

func TestSaveDeploymentRejectsBadAddress(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	err = cfg.SaveDeployment("sepolia", config.Deployment{UserRegistry: "0x12", ExchangeLedger: ledgerAddr})
	assert.Error(t, err)
}

func TestReadLegacyAddressFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contractAddresses.json")
	body := `{"userProfile":"` + registryAddr + `","gymCoin":"` + ledgerAddr + `"}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	d, err := config.ReadDeploymentFile(path)
	require.NoError(t, err)
	assert.Equal(t, registryAddr, d.UserRegistry)
	assert.Equal(t, ledgerAddr, d.ExchangeLedger)
}
