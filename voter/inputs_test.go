package voter

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/freedomtool/passport-voting/ethabi"
	"github.com/freedomtool/passport-voting/types"
	"github.com/freedomtool/passport-voting/util"
)

func TestBuildProofInputs(t *testing.T) {
	c := qt.New(t)
	identity := &types.Identity{
		Secret:            util.RandomBytes(32),
		Citizenship:       "GEO",
		CreationTimestamp: 1700000000,
	}
	var root [32]byte
	root[0] = 0x01
	date := ethabi.EncodeDateAsASCII(2026, 2, 23)

	inputs, err := BuildProofInputs(identity, 7, big.NewInt(42), root, date, []int{0, 2})
	c.Assert(err, qt.IsNil)
	c.Assert(inputs.Votes, qt.HasLen, 2)
	c.Assert(inputs.Votes[0].Uint64(), qt.Equals, uint64(1))
	c.Assert(inputs.Votes[1].Uint64(), qt.Equals, uint64(4))
	c.Assert(inputs.Citizenship.Bytes(), qt.DeepEquals, []byte("GEO"))
	c.Assert(inputs.NullifierBytes(), qt.HasLen, 32)

	// same identity and event always derive the same nullifier
	again, err := BuildProofInputs(identity, 7, big.NewInt(42), root, date, []int{0})
	c.Assert(err, qt.IsNil)
	c.Assert(again.Nullifier.Cmp(inputs.Nullifier), qt.Equals, 0)

	// a different event derives a different one
	other, err := BuildProofInputs(identity, 7, big.NewInt(43), root, date, []int{0})
	c.Assert(err, qt.IsNil)
	c.Assert(other.Nullifier.Cmp(inputs.Nullifier), qt.Not(qt.Equals), 0)
}

func TestBuildProofInputsErrors(t *testing.T) {
	c := qt.New(t)
	_, err := BuildProofInputs(nil, 1, big.NewInt(1), [32]byte{}, nil, []int{0})
	c.Assert(err, qt.Equals, ErrIdentityMissing)

	_, err = BuildProofInputs(&types.Identity{}, 1, big.NewInt(1), [32]byte{}, nil, []int{0})
	c.Assert(err, qt.Equals, ErrIdentityMissing)

	identity := &types.Identity{Secret: util.RandomBytes(32)}
	_, err = BuildProofInputs(identity, 1, big.NewInt(1), [32]byte{}, nil, nil)
	c.Assert(err, qt.IsNotNil)
}

func TestCircuitInputsJSON(t *testing.T) {
	c := qt.New(t)
	identity := &types.Identity{
		Secret:            util.RandomBytes(32),
		Citizenship:       "UKR",
		CreationTimestamp: 1700000000,
	}
	date := ethabi.EncodeDateAsASCII(2026, 2, 23)
	inputs, err := BuildProofInputs(identity, 7, big.NewInt(42), [32]byte{}, date, []int{1})
	c.Assert(err, qt.IsNil)

	raw, err := inputs.CircuitInputsJSON()
	c.Assert(err, qt.IsNil)
	doc := map[string]any{}
	c.Assert(json.Unmarshal(raw, &doc), qt.IsNil)
	c.Assert(doc["proposalId"], qt.Equals, "7")
	c.Assert(doc["eventId"], qt.Equals, "42")
	c.Assert(doc["nullifier"], qt.Equals, inputs.Nullifier.String())
	// the date field is the ASCII bytes read as an integer
	c.Assert(doc["currentDate"], qt.Equals, new(big.Int).SetBytes([]byte("260223")).String())
	c.Assert(doc["vote"], qt.DeepEquals, []any{"2"})
}

func TestMockProver(t *testing.T) {
	c := qt.New(t)
	identity := &types.Identity{Secret: util.RandomBytes(32), Citizenship: "UKR"}
	inputs, err := BuildProofInputs(identity, 1, big.NewInt(1), [32]byte{}, nil, []int{0})
	c.Assert(err, qt.IsNil)

	proof, err := MockProver()(context.Background(), inputs)
	c.Assert(err, qt.IsNil)
	c.Assert(proof.Proof.A, qt.HasLen, 3)
	c.Assert(proof.Proof.B, qt.HasLen, 3)
	c.Assert(proof.Proof.C, qt.HasLen, 3)

	// the mock proof must be encodable as execute() calldata
	_, err = ethabi.EncodeExecuteCalldata([]byte{1, 2, 3, 4}, [32]byte{}, big.NewInt(0), nil, proof)
	c.Assert(err, qt.IsNil)
}
