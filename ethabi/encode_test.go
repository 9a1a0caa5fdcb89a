package ethabi

import (
	"encoding/hex"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	prooftypes "github.com/iden3/go-rapidsnark/types"
)

func TestEncodeVoteBitmasks(t *testing.T) {
	c := qt.New(t)
	for i := 0; i <= 255; i++ {
		votes := EncodeVoteBitmasks([]int{i})
		c.Assert(votes, qt.HasLen, 1)
		want := new(big.Int).Lsh(big.NewInt(1), uint(i))
		c.Assert(votes[0].Cmp(want), qt.Equals, 0, qt.Commentf("index %d", i))
	}

	votes := EncodeVoteBitmasks([]int{0, 3, 7})
	c.Assert(votes, qt.HasLen, 3)
	c.Assert(votes[0].Uint64(), qt.Equals, uint64(1))
	c.Assert(votes[1].Uint64(), qt.Equals, uint64(8))
	c.Assert(votes[2].Uint64(), qt.Equals, uint64(128))

	c.Assert(EncodeVoteBitmasks(nil), qt.HasLen, 0)
	c.Assert(EncodeVoteBitmasks([]int{-1}), qt.HasLen, 0)
}

func TestEncodeDateAsASCII(t *testing.T) {
	c := qt.New(t)
	date := EncodeDateAsASCII(2026, 2, 23)
	c.Assert(string(date), qt.Equals, "260223")
	c.Assert(hex.EncodeToString(date), qt.Equals, "323630323233")
	c.Assert(DateToInt(date).Text(16), qt.Equals, "323630323233")

	c.Assert(string(EncodeDateAsASCII(1999, 12, 31)), qt.Equals, "991231")
	c.Assert(string(EncodeDateAsASCII(2000, 1, 1)), qt.Equals, "000101")
}

func TestEncodeUserPayload(t *testing.T) {
	c := qt.New(t)
	payload := EncodeUserPayload(
		big.NewInt(7),
		[]*big.Int{big.NewInt(1), big.NewInt(2)},
		big.NewInt(3), big.NewInt(4), big.NewInt(5),
	)
	c.Assert(payload, qt.HasLen, 8*WordSize)

	wordAt := func(i int) *big.Int {
		return new(big.Int).SetBytes(payload[i*WordSize : (i+1)*WordSize])
	}
	c.Assert(wordAt(0).Uint64(), qt.Equals, uint64(7))
	// fixed head of 5 words because the sub-struct is static and inlined
	c.Assert(wordAt(1).Uint64(), qt.Equals, uint64(0xa0))
	c.Assert(wordAt(2).Uint64(), qt.Equals, uint64(3))
	c.Assert(wordAt(3).Uint64(), qt.Equals, uint64(4))
	c.Assert(wordAt(4).Uint64(), qt.Equals, uint64(5))
	c.Assert(wordAt(5).Uint64(), qt.Equals, uint64(2))
	c.Assert(wordAt(6).Uint64(), qt.Equals, uint64(1))
	c.Assert(wordAt(7).Uint64(), qt.Equals, uint64(2))
}

func testProof() *prooftypes.ZKProof {
	return &prooftypes.ZKProof{
		Proof: &prooftypes.ProofData{
			A: []string{"11", "12", "1"},
			B: [][]string{{"21", "22"}, {"23", "24"}, {"1", "0"}},
			C: []string{"31", "32", "1"},
		},
		PubSignals: []string{"1"},
	}
}

func TestEncodeExecuteCalldata(t *testing.T) {
	c := qt.New(t)
	selector := []byte{0xde, 0xad, 0xbe, 0xef}
	var root [32]byte
	root[31] = 0x99
	payload := make([]byte, 33) // force right-padding
	payload[0] = 0xaa

	calldata, err := EncodeExecuteCalldata(selector, root, big.NewInt(0x323630323233), payload, testProof())
	c.Assert(err, qt.IsNil)

	raw, err := hex.DecodeString(calldata[2:])
	c.Assert(err, qt.IsNil)
	c.Assert(raw[:4], qt.DeepEquals, selector)
	// after the selector, the calldata is always word aligned
	c.Assert((len(raw)-4)%WordSize, qt.Equals, 0)

	wordAt := func(i int) *big.Int {
		off := 4 + i*WordSize
		return new(big.Int).SetBytes(raw[off : off+WordSize])
	}
	c.Assert(wordAt(0).Uint64(), qt.Equals, uint64(0x99))
	c.Assert(wordAt(1).Uint64(), qt.Equals, uint64(0x323630323233))
	c.Assert(wordAt(2).Uint64(), qt.Equals, uint64(executePayloadOffset))
	for i, want := range []uint64{11, 12, 21, 22, 23, 24, 31, 32} {
		c.Assert(wordAt(3+i).Uint64(), qt.Equals, want, qt.Commentf("proof word %d", i))
	}
	c.Assert(wordAt(11).Uint64(), qt.Equals, uint64(len(payload)))
	c.Assert(raw[4+12*WordSize], qt.Equals, byte(0xaa))
	c.Assert(len(raw), qt.Equals, 4+14*WordSize)
}

func TestEncodeExecuteCalldataErrors(t *testing.T) {
	c := qt.New(t)
	var root [32]byte
	_, err := EncodeExecuteCalldata([]byte{1, 2, 3}, root, big.NewInt(0), nil, testProof())
	c.Assert(err, qt.IsNotNil)

	_, err = EncodeExecuteCalldata([]byte{1, 2, 3, 4}, root, big.NewInt(0), nil, &prooftypes.ZKProof{})
	c.Assert(err, qt.IsNotNil)

	bad := testProof()
	bad.Proof.B = [][]string{{"1"}}
	_, err = EncodeExecuteCalldata([]byte{1, 2, 3, 4}, root, big.NewInt(0), nil, bad)
	c.Assert(err, qt.IsNotNil)
}

func TestParseBigIntString(t *testing.T) {
	c := qt.New(t)
	v, err := ParseBigIntString("0xff")
	c.Assert(err, qt.IsNil)
	c.Assert(v.Uint64(), qt.Equals, uint64(255))

	v, err = ParseBigIntString("255")
	c.Assert(err, qt.IsNil)
	c.Assert(v.Uint64(), qt.Equals, uint64(255))

	// non-decimal digits fall back to hex
	v, err = ParseBigIntString("ff")
	c.Assert(err, qt.IsNil)
	c.Assert(v.Uint64(), qt.Equals, uint64(255))

	_, err = ParseBigIntString("zz")
	c.Assert(err, qt.IsNotNil)
}
