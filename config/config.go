// Package config holds the explicit configuration injected at construction
// time. Endpoint selection (production, test-net, local dev) is a value the
// caller passes in, never a process-wide switch read implicitly.
package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// SubmitMode selects how signed vote calldata reaches the chain.
type SubmitMode string

const (
	// SubmitModeRelayer posts the calldata to a relayer service which
	// wraps it in a transaction and pays the gas.
	SubmitModeRelayer SubmitMode = "relayer"
	// SubmitModeDirect signs and sends the transaction straight to the
	// chain with a well-known test key. Development only.
	SubmitModeDirect SubmitMode = "direct"
)

// Config wires the voting core to its environment.
type Config struct {
	// Web3Endpoint is the JSON-RPC endpoint used for chain reads and, in
	// direct mode, transaction submission.
	Web3Endpoint string
	// RelayerEndpoint is the vote endpoint of the relayer service.
	// Required in relayer mode.
	RelayerEndpoint string
	// VotingContract is the proposals/voting contract address.
	VotingContract common.Address
	// RegistrationContract is the registration SMT contract address.
	RegistrationContract common.Address
	// Mode selects the submission path.
	Mode SubmitMode
	// MockProofs replaces circuit proving with shape-valid random proof
	// points. Only meaningful against a permissive local verifier.
	MockProofs bool
	// DevPrivKey is the hex private key used to sign transactions in
	// direct mode.
	DevPrivKey string
	// CircuitWasmPath and ProvingKeyPath locate the circom artifacts for
	// real proof generation.
	CircuitWasmPath string
	ProvingKeyPath  string
	// DataDir is the directory for the local key-value store.
	DataDir string
	// LogLevel is one of debug, info, warn, error, fatal.
	LogLevel string
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Web3Endpoint == "" {
		return fmt.Errorf("missing web3 endpoint")
	}
	if c.VotingContract == (common.Address{}) {
		return fmt.Errorf("missing voting contract address")
	}
	switch c.Mode {
	case SubmitModeRelayer:
		if c.RelayerEndpoint == "" {
			return fmt.Errorf("relayer mode requires a relayer endpoint")
		}
	case SubmitModeDirect:
		if c.DevPrivKey == "" {
			return fmt.Errorf("direct mode requires a dev private key")
		}
	default:
		return fmt.Errorf("unknown submit mode %q", c.Mode)
	}
	if !c.MockProofs && (c.CircuitWasmPath == "" || c.ProvingKeyPath == "") {
		return fmt.Errorf("real proofs require circuit wasm and proving key paths")
	}
	return nil
}
