package chain_test

import (
	"testing"

	"github.com/Mohsinsiddi/gymcli/internal/chain"
	"github.com/Mohsinsiddi/gymcli/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryBuiltins(t *testing.T) {
	r := chain.NewRegistry()

	n, err := r.GetByName("Sepolia")
	require.NoError(t, err)
	assert.Equal(t, int64(11155111), n.ChainID)
	assert.Equal(t, "0xaa36a7", n.ChainIDHex())
	assert.Equal(t, "SEP", n.Currency)
	assert.Equal(t, "https://sepolia.etherscan.io/tx/0xabc", n.TxURL("0xabc"))

	local, err := r.GetByChainID(chain.ChainIDLocalhost)
	require.NoError(t, err)
	assert.True(t, local.InProcess)
	assert.Empty(t, local.TxURL("0xabc"))
}

func TestRegistryUnknown(t *testing.T) {
	r := chain.NewRegistry()
	_, err := r.GetByName("solana")
	assert.ErrorIs(t, err, chain.ErrNetworkNotFound)
	_, err = r.GetByChainID(17000)
	assert.ErrorIs(t, err, chain.ErrNetworkNotFound)
}

func TestRegistryCustomNetworks(t *testing.T) {
	r := chain.NewRegistry(
		config.NetworkEntry{Name: "Holesky", ChainID: 17000, RPCs: []string{"https://h"}},
		config.NetworkEntry{Name: "my-sepolia", ChainID: chain.ChainIDSepolia, RPCs: []string{"https://mine"}},
	)

	h, err := r.GetByChainID(17000)
	require.NoError(t, err)
	assert.Equal(t, "holesky", h.Name)

	s, err := r.GetByChainID(chain.ChainIDSepolia)
	require.NoError(t, err)
	assert.Equal(t, "my-sepolia", s.Name)
	_, err = r.GetByName("sepolia")
	assert.ErrorIs(t, err, chain.ErrNetworkNotFound)
}

func TestRegistryAllSorted(t *testing.T) {
	all := chain.NewRegistry().All()
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ChainID, all[i].ChainID)
	}
}

func TestNetworkValidate(t *testing.T) {
	assert.NoError(t, chain.Sepolia().Validate())
	assert.Error(t, chain.Network{Name: "x", ChainID: 5}.Validate())
	assert.Error(t, chain.Network{Name: "x", RPCs: []string{"http://a"}}.Validate())
	assert.NoError(t, chain.Network{Name: "dev", ChainID: 9, InProcess: true}.Validate())
}

func TestNetworkEntryRoundTrip(t *testing.T) {
	e := chain.Sepolia().Entry()
	r := chain.NewRegistry(e)
	n, err := r.GetByName("sepolia")
	require.NoError(t, err)
	assert.Equal(t, chain.Sepolia(), n)
}
