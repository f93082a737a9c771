// Package ens resolves ENS names so a recipient can be given as "alice.eth".
package ens

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/gymcli/internal/chain"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// Registry is the ENS registry, deployed at the same address on mainnet and
// Sepolia.
var Registry = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")

var ErrNotFound = errors.New("ens record not found")

// Selectors of the registry and resolver reads.
var (
	selResolver = []byte{0x01, 0x78, 0xb8, 0xbf} // resolver(bytes32)
	selAddr     = []byte{0x3b, 0x3b, 0x57, 0xde} // addr(bytes32)
	selName     = []byte{0x69, 0x1f, 0x34, 0x31} // name(bytes32)
)

var stringArgs = func() abi.Arguments {
	t, _ := abi.NewType("string", "", nil)
	return abi.Arguments{{Type: t}}
}()

// Caller runs read-only contract calls. *chain.EVMClient satisfies it.
type Caller interface {
	Call(ctx context.Context, msg chain.CallMsg) ([]byte, error)
}

// Supported reports whether chainID has an ENS registry.
func Supported(chainID int64) bool {
	return chainID == chain.ChainIDMainnet || chainID == chain.ChainIDSepolia
}

// IsName reports whether s looks like an ENS name rather than an address or
// a wallet name.
func IsName(s string) bool {
	s = strings.ToLower(s)
	return strings.HasSuffix(s, ".eth") && len(s) > len(".eth")
}

// Resolve looks up the resolver for name in the registry, then asks it for
// the address record.
func Resolve(ctx context.Context, c Caller, name string) (common.Address, error) {
	node := Namehash(normalize(name))

	resolver, err := resolverOf(ctx, c, node)
	if err != nil {
		return common.Address{}, fmt.Errorf("resolving %q: %w", name, err)
	}

	out, err := c.Call(ctx, chain.CallMsg{To: &resolver, Data: calldata(selAddr, node)})
	if err != nil {
		return common.Address{}, fmt.Errorf("querying ENS resolver: %w", err)
	}
	addr, ok := wordAddress(out)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: no address record for %q", ErrNotFound, name)
	}
	return addr, nil
}

// ReverseLookup returns the primary name of address via addr.reverse.
func ReverseLookup(ctx context.Context, c Caller, address common.Address) (string, error) {
	node := Namehash(strings.ToLower(strings.TrimPrefix(address.Hex(), "0x")) + ".addr.reverse")

	resolver, err := resolverOf(ctx, c, node)
	if err != nil {
		return "", fmt.Errorf("reverse lookup of %s: %w", address.Hex(), err)
	}

	out, err := c.Call(ctx, chain.CallMsg{To: &resolver, Data: calldata(selName, node)})
	if err != nil {
		return "", fmt.Errorf("querying reverse resolver: %w", err)
	}
	vals, err := stringArgs.Unpack(out)
	if err != nil || len(vals) == 0 {
		return "", fmt.Errorf("%w: no reverse name for %s", ErrNotFound, address.Hex())
	}
	name, _ := vals[0].(string)
	if name == "" {
		return "", fmt.Errorf("%w: no reverse name for %s", ErrNotFound, address.Hex())
	}
	return name, nil
}

// Namehash implements the EIP-137 namehash. Labels are hashed right to left
// onto a zero root; callers normalize first.
func Namehash(name string) common.Hash {
	var node common.Hash
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		label := keccak256([]byte(labels[i]))
		copy(node[:], keccak256(node[:], label))
	}
	return node
}

func resolverOf(ctx context.Context, c Caller, node common.Hash) (common.Address, error) {
	registry := Registry
	out, err := c.Call(ctx, chain.CallMsg{To: &registry, Data: calldata(selResolver, node)})
	if err != nil {
		return common.Address{}, fmt.Errorf("querying ENS registry: %w", err)
	}
	resolver, ok := wordAddress(out)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: no resolver set", ErrNotFound)
	}
	return resolver, nil
}

// normalize lowercases and trims. Full UTS-46 mapping is not applied.
func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func calldata(sel []byte, node common.Hash) []byte {
	return append(append([]byte{}, sel...), node[:]...)
}

// wordAddress reads an address from the first 32-byte word; zero means unset.
func wordAddress(out []byte) (common.Address, bool) {
	if len(out) < 32 {
		return common.Address{}, false
	}
	addr := common.BytesToAddress(out[12:32])
	return addr, addr != (common.Address{})
}

func keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}
