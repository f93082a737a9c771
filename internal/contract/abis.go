package contract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Builtin is a contract ABI embedded in the binary.
type Builtin struct {
	ID          string // machine key, e.g. "gymcoin"
	Name        string // human label
	Description string
	JSON        string
	ABI         abi.ABI
}

var builtinRegistry = map[string]Builtin{}

// registerBuiltin parses and adds a built-in ABI. Called from init() in the
// file that defines the ABI; a malformed ABI is a programming error.
func registerBuiltin(b Builtin) {
	parsed, err := abi.JSON(strings.NewReader(b.JSON))
	if err != nil {
		panic(fmt.Sprintf("contract: builtin %s: %v", b.ID, err))
	}
	b.ABI = parsed
	builtinRegistry[b.ID] = b
}

// GetBuiltin returns a built-in by ID. ok is false if not found.
func GetBuiltin(id string) (Builtin, bool) {
	b, ok := builtinRegistry[id]
	return b, ok
}

// AllBuiltins returns all registered built-ins sorted by ID.
func AllBuiltins() []Builtin {
	out := make([]Builtin, 0, len(builtinRegistry))
	for _, b := range builtinRegistry {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func mustBuiltin(id string) abi.ABI {
	b, ok := builtinRegistry[id]
	if !ok {
		panic("contract: builtin not registered: " + id)
	}
	return b.ABI
}
