package voter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/iden3/go-rapidsnark/prover"
	prooftypes "github.com/iden3/go-rapidsnark/types"
	"github.com/iden3/go-rapidsnark/witness"
)

// NewRapidsnarkProver loads the circom artifacts from disk and returns a
// ProveFunc that calculates the witness and runs the Groth16 prover.
func NewRapidsnarkProver(wasmPath, zkeyPath string) (ProveFunc, error) {
	wasm, err := os.ReadFile(wasmPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read circuit wasm: %w", err)
	}
	zkey, err := os.ReadFile(zkeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read proving key: %w", err)
	}
	return func(ctx context.Context, inputs *ProofInputs) (*prooftypes.ZKProof, error) {
		inputsJSON, err := inputs.CircuitInputsJSON()
		if err != nil {
			return nil, fmt.Errorf("circuit inputs: %w", err)
		}
		parsedInputs, err := witness.ParseInputs(inputsJSON)
		if err != nil {
			return nil, fmt.Errorf("parse circuit inputs: %w", err)
		}
		calc, err := witness.NewCircom2WitnessCalculator(wasm, true)
		if err != nil {
			return nil, fmt.Errorf("instance witness calculator: %w", err)
		}
		wtns, err := calc.CalculateWTNSBin(parsedInputs, true)
		if err != nil {
			return nil, fmt.Errorf("calculate witness: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		strProof, strPubSignals, err := prover.Groth16ProverRaw(zkey, wtns)
		if err != nil {
			return nil, fmt.Errorf("generate proof: %w", err)
		}
		proofData := &prooftypes.ProofData{}
		if err := json.Unmarshal([]byte(strProof), proofData); err != nil {
			return nil, fmt.Errorf("decode proof: %w", err)
		}
		var pubSignals []string
		if err := json.Unmarshal([]byte(strPubSignals), &pubSignals); err != nil {
			return nil, fmt.Errorf("decode public signals: %w", err)
		}
		return &prooftypes.ZKProof{Proof: proofData, PubSignals: pubSignals}, nil
	}, nil
}

// MockProver returns a ProveFunc that emits shape-valid random proof points
// without touching any circuit. Only useful against a permissive local
// verifier, to exercise the full submission path in development.
func MockProver() ProveFunc {
	return func(ctx context.Context, inputs *ProofInputs) (*prooftypes.ZKProof, error) {
		points := make([]string, 8)
		for i := range points {
			var e fr.Element
			if _, err := e.SetRandom(); err != nil {
				return nil, fmt.Errorf("random field element: %w", err)
			}
			points[i] = e.String()
		}
		return &prooftypes.ZKProof{
			Proof: &prooftypes.ProofData{
				A: []string{points[0], points[1], "1"},
				B: [][]string{{points[2], points[3]}, {points[4], points[5]}, {"1", "0"}},
				C: []string{points[6], points[7], "1"},
			},
			PubSignals: []string{inputs.Nullifier.String()},
		}, nil
	}
}
