package voter

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"
	"github.com/vocdoni/arbo"

	"github.com/freedomtool/passport-voting/ethabi"
	"github.com/freedomtool/passport-voting/types"
)

// ProofInputs is everything the circuit needs to prove a vote: the identity
// secret reduced into the proving field, the per-proposal nullifier, and the
// public values the contract checks the proof against.
type ProofInputs struct {
	ProposalID                uint64
	EventID                   *big.Int
	Secret                    *big.Int
	Nullifier                 *big.Int
	Citizenship               *big.Int
	IdentityCreationTimestamp uint64
	RegistrationRoot          [32]byte
	CurrentDate               []byte
	Votes                     []*big.Int
}

// BuildProofInputs derives the circuit inputs from the stored identity and
// the proposal's chain state. The nullifier is the Poseidon hash of the
// identity secret and the proposal event id, both reduced into the BN254
// base field, so the same identity always yields the same nullifier for a
// proposal and distinct ones across proposals.
func BuildProofInputs(identity *types.Identity, proposalID uint64, eventID *big.Int,
	registrationRoot [32]byte, currentDate []byte, selected []int,
) (*ProofInputs, error) {
	if identity == nil || len(identity.Secret) == 0 {
		return nil, ErrIdentityMissing
	}
	votes := ethabi.EncodeVoteBitmasks(selected)
	if len(votes) == 0 {
		return nil, fmt.Errorf("no options selected")
	}
	secret := arbo.BigToFF(arbo.BN254BaseField, new(big.Int).SetBytes(identity.Secret))
	nullifier, err := poseidon.Hash([]*big.Int{
		secret,
		arbo.BigToFF(arbo.BN254BaseField, eventID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to hash nullifier: %w", err)
	}
	return &ProofInputs{
		ProposalID:                proposalID,
		EventID:                   eventID,
		Secret:                    secret,
		Nullifier:                 nullifier,
		Citizenship:               new(big.Int).SetBytes([]byte(identity.Citizenship)),
		IdentityCreationTimestamp: identity.CreationTimestamp,
		RegistrationRoot:          registrationRoot,
		CurrentDate:               currentDate,
		Votes:                     votes,
	}, nil
}

// NullifierBytes returns the nullifier as a fixed 32-byte value, the form
// used as local bookkeeping key.
func (pi *ProofInputs) NullifierBytes() types.HexBytes {
	return pi.Nullifier.FillBytes(make([]byte, 32))
}

// CircuitInputsJSON renders the inputs as the JSON document the circom
// witness calculator parses. Field values marshal as decimal strings
// through types.BigInt.
func (pi *ProofInputs) CircuitInputsJSON() ([]byte, error) {
	votes := make([]*types.BigInt, len(pi.Votes))
	for i, v := range pi.Votes {
		votes[i] = (*types.BigInt)(v)
	}
	return json.Marshal(map[string]any{
		"proposalId":                new(types.BigInt).SetUint64(pi.ProposalID),
		"eventId":                   (*types.BigInt)(pi.EventID),
		"secret":                    (*types.BigInt)(pi.Secret),
		"nullifier":                 (*types.BigInt)(pi.Nullifier),
		"citizenship":               (*types.BigInt)(pi.Citizenship),
		"identityCreationTimestamp": new(types.BigInt).SetUint64(pi.IdentityCreationTimestamp),
		"root":                      new(types.BigInt).SetBytes(pi.RegistrationRoot[:]),
		"currentDate":               (*types.BigInt)(ethabi.DateToInt(pi.CurrentDate)),
		"vote":                      votes,
	})
}
