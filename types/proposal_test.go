package types

import (
	"encoding/json"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestProposalDerivedFields(t *testing.T) {
	c := qt.New(t)
	p := &ProposalInfo{
		ID:             7,
		Status:         ProposalStatusStarted,
		StartTimestamp: 1000,
		Duration:       600,
		VotingResults: VotingResults{
			{1, 2, 0, 0, 0, 0, 0, 0},
			{0, 0, 3, 0, 0, 0, 0, 4},
		},
		MultichoiceBitmask: 0b10,
	}
	c.Assert(p.IsActive(), qt.IsTrue)
	c.Assert(p.EndTimestamp(), qt.Equals, uint64(1600))
	c.Assert(p.TotalVotes(), qt.Equals, uint64(10))
	c.Assert(p.IsMultichoice(0), qt.IsFalse)
	c.Assert(p.IsMultichoice(1), qt.IsTrue)
	c.Assert(p.IsMultichoice(-1), qt.IsFalse)
	c.Assert(p.IsMultichoice(64), qt.IsFalse)

	p.Status = ProposalStatusEnded
	c.Assert(p.IsActive(), qt.IsFalse)
}

func TestHexBytesJSON(t *testing.T) {
	c := qt.New(t)
	b := HexStringToHexBytes("0xdeadbeef")
	data, err := json.Marshal(b)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `"0xdeadbeef"`)

	var back HexBytes
	c.Assert(json.Unmarshal([]byte(`"deadbeef"`), &back), qt.IsNil)
	c.Assert(back, qt.DeepEquals, b)
}

func TestBigIntJSON(t *testing.T) {
	c := qt.New(t)
	bi := new(BigInt).SetUint64(1234567890)
	data, err := json.Marshal(bi)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `"1234567890"`)

	var back BigInt
	c.Assert(json.Unmarshal(data, &back), qt.IsNil)
	c.Assert(back.String(), qt.Equals, bi.String())
}
