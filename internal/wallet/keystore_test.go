package wallet

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testKeystore returns a file-backed Keystore isolated to a temp directory.
// Using the FileBackend avoids OS keychain prompts in CI.
func testKeystore(t *testing.T) *Keystore {
	t.Helper()
	ring, err := keyring.Open(keyring.Config{
		ServiceName:      "gymcli-test",
		AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
		FileDir:          t.TempDir(),
		FilePasswordFunc: keyring.FixedStringPrompt("testpass"),
	})
	require.NoError(t, err)
	return &Keystore{ring: ring}
}

// ---------------------------------------------------------------------------
// normaliseHexKey
// ---------------------------------------------------------------------------

func TestNormaliseHexKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"0xabc123", "abc123"},
		{"0Xabc123", "abc123"},
		{"abc123", "abc123"},
		{"  0xabc  ", "abc"},
		{"0x", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normaliseHexKey(tt.in), "input %q", tt.in)
	}
}

// ---------------------------------------------------------------------------
// Keystore (file backend)
// ---------------------------------------------------------------------------

func TestKeystoreStoreRetrieveDelete(t *testing.T) {
	ks := testKeystore(t)

	ref, err := ks.Store("alice", "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "gymcli.alice", ref)

	got, err := ks.Retrieve(ref)
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", got)

	require.NoError(t, ks.Delete(ref))
	_, err = ks.Retrieve(ref)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestKeystoreRetrieveMissing(t *testing.T) {
	ks := testKeystore(t)
	_, err := ks.Retrieve("gymcli.ghost")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestKeystoreDeleteMissing(t *testing.T) {
	ks := testKeystore(t)
	assert.NoError(t, ks.Delete("gymcli.ghost"))
}

func TestOpenKeystoreFileFallback(t *testing.T) {
	t.Setenv(EnvKeyringPassword, "pw")
	ks, err := OpenKeystore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, ks)
}

// ---------------------------------------------------------------------------
// InMemoryKeystore
// ---------------------------------------------------------------------------

func TestInMemoryKeystoreStoreAndRetrieve(t *testing.T) {
	iks := NewInMemoryKeystore()
	ref, err := iks.Store("mykey", "0xdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, "gymcli.mykey", ref)

	val, err := iks.Retrieve(ref)
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", val)
}

func TestInMemoryKeystoreRetrieveNotFound(t *testing.T) {
	iks := NewInMemoryKeystore()
	_, err := iks.Retrieve("gymcli.ghost")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestInMemoryKeystoreDelete(t *testing.T) {
	iks := NewInMemoryKeystore()
	ref, _ := iks.Store("del", "secret")

	require.NoError(t, iks.Delete(ref))
	_, err := iks.Retrieve(ref)
	require.Error(t, err, "key should be gone after delete")
	assert.NoError(t, iks.Delete("gymcli.ghost"), "deleting missing key must not error")
}

func TestInMemoryKeystoreOverwrite(t *testing.T) {
	iks := NewInMemoryKeystore()
	iks.Store("k", "first")  //nolint:errcheck
	iks.Store("k", "second") //nolint:errcheck

	val, err := iks.Retrieve("gymcli.k")
	require.NoError(t, err)
	assert.Equal(t, "second", val, "second store should overwrite first")
}
