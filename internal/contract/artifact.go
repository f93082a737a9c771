package contract

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Mohsinsiddi/gymcli/internal/config"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Artifact is a compiled contract: its ABI and deployment bytecode.
type Artifact struct {
	Name     string
	ABI      abi.ABI
	Bytecode []byte
}

// LoadArtifact reads a Hardhat or Foundry artifact JSON file. It fails when
// the file has no "abi" array or no deployable bytecode.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read artifact file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("artifact file is empty: %s", path)
	}

	var raw struct {
		ContractName string          `json:"contractName"`
		ABI          json.RawMessage `json:"abi"`
		Bytecode     json.RawMessage `json:"bytecode"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid artifact JSON: %w", err)
	}
	if len(raw.ABI) < 2 || raw.ABI[0] != '[' {
		return nil, fmt.Errorf("artifact has no \"abi\" array: %s", path)
	}
	parsed, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, fmt.Errorf("parsing artifact ABI: %w", err)
	}
	if len(raw.Bytecode) == 0 {
		return nil, fmt.Errorf("artifact has no bytecode: %s", path)
	}

	bcHex, err := extractBytecodeHex(raw.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("extracting bytecode from artifact: %w", err)
	}
	bcHex = strings.TrimPrefix(bcHex, "0x")
	if bcHex == "" {
		return nil, fmt.Errorf("artifact bytecode is empty, cannot deploy an interface or abstract contract: %s", path)
	}
	code, err := hex.DecodeString(bcHex)
	if err != nil {
		return nil, fmt.Errorf("invalid bytecode hex in artifact: %w", err)
	}

	name := raw.ContractName
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &Artifact{Name: name, ABI: parsed, Bytecode: code}, nil
}

// HardhatArtifactPath is where Hardhat writes the artifact for contract name.
func HardhatArtifactPath(root, name string) string {
	return filepath.Join(root, "contracts", name+".sol", name+".json")
}

// extractBytecodeHex handles the two common artifact formats:
//   - Hardhat:  "bytecode": "0x608060..."
//   - Foundry:  "bytecode": {"object": "0x608060..."}
func extractBytecodeHex(raw json.RawMessage) (string, error) {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return strings.TrimSpace(str), nil
	}
	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Object != "" {
		return strings.TrimSpace(obj.Object), nil
	}
	return "", fmt.Errorf("bytecode field is neither a hex string nor a {\"object\":\"0x...\"} object")
}

// Deploy creates art on chain with the given constructor arguments and
// returns its address once mined.
func Deploy(ctx context.Context, tx *Transactor, art *Artifact, args ...interface{}) (common.Address, common.Hash, error) {
	ctorArgs, err := art.ABI.Pack("", args...)
	if err != nil {
		return common.Address{}, common.Hash{}, fmt.Errorf("encoding %s constructor: %w", art.Name, err)
	}
	code := append(append([]byte{}, art.Bytecode...), ctorArgs...)

	receipt, err := tx.Send(ctx, nil, code, nil, config.GasLimitDeploy)
	if err != nil {
		return common.Address{}, common.Hash{}, fmt.Errorf("deploying %s: %w", art.Name, err)
	}
	if receipt.ContractAddress == (common.Address{}) {
		return common.Address{}, receipt.Hash, fmt.Errorf("deploying %s: receipt has no contract address", art.Name)
	}
	return receipt.ContractAddress, receipt.Hash, nil
}

// DeployExchange deploys UserProfile, then GymCoin pointing at it, and
// returns the resulting deployment record.
func DeployExchange(ctx context.Context, tx *Transactor, profile, coin *Artifact) (config.Deployment, error) {
	registry, _, err := Deploy(ctx, tx, profile)
	if err != nil {
		return config.Deployment{}, err
	}
	exchangeAddr, _, err := Deploy(ctx, tx, coin, registry)
	if err != nil {
		return config.Deployment{}, err
	}
	return config.Deployment{
		UserRegistry:   registry.Hex(),
		ExchangeLedger: exchangeAddr.Hex(),
		Deployer:       tx.From().Hex(),
		DeployedAt:     time.Now().UTC().Format(time.RFC3339),
	}, nil
}
