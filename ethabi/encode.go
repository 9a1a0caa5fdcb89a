// Package ethabi implements the exact ABI shapes the voting protocol puts
// on the wire: decoding the getProposalInfo return tuple (whose dynamic
// offsets are relative to each enclosing struct, not to the response head)
// and encoding the execute() calldata. The general-purpose ABI codecs choke
// on the struct-relative offset scheme, so both directions are walked by
// hand and pinned by tests.
package ethabi

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	prooftypes "github.com/iden3/go-rapidsnark/types"
)

// WordSize is the ABI word size in bytes.
const WordSize = 32

// executePayloadOffset is the byte offset of the dynamic payload in the
// execute() argument area: 3 static words plus the 8 inlined proof words.
const executePayloadOffset = 11 * WordSize

// appendWord appends v as a 32-byte big-endian zero-left-padded word. Values
// wider than a word keep their low 32 bytes.
func appendWord(dst []byte, v *big.Int) []byte {
	b := v.Bytes()
	if len(b) > WordSize {
		b = b[len(b)-WordSize:]
	}
	word := make([]byte, WordSize)
	copy(word[WordSize-len(b):], b)
	return append(dst, word...)
}

// EncodeVoteBitmasks turns the selected option indices into the votes array
// of the user payload: one element per selected index, each 1 << index.
func EncodeVoteBitmasks(selected []int) []*big.Int {
	votes := make([]*big.Int, 0, len(selected))
	for _, idx := range selected {
		if idx < 0 {
			continue
		}
		votes = append(votes, new(big.Int).Lsh(big.NewInt(1), uint(idx)))
	}
	return votes
}

// EncodeDateAsASCII encodes a date as the six ASCII decimal digits "YYMMDD"
// (two-digit year). The circuit and the contract interpret those byte values
// as a big-endian integer, so the ASCII codes are what gets packed, not the
// numeric date.
func EncodeDateAsASCII(year, month, day int) []byte {
	return []byte(fmt.Sprintf("%02d%02d%02d", year%100, month, day))
}

// DateToInt interprets ASCII date bytes as a big-endian integer.
func DateToInt(date []byte) *big.Int {
	return new(big.Int).SetBytes(date)
}

// EncodeUserPayload ABI-encodes (uint256 proposalId, uint256[] votes,
// (uint256 nullifier, uint256 citizenship, uint256 identityCreationTimestamp)).
// The three-field sub-struct is static and inlined, so the head is exactly
// five words and the votes array offset is 0xa0.
func EncodeUserPayload(proposalID *big.Int, votes []*big.Int, nullifier, citizenship, identityCreationTimestamp *big.Int) []byte {
	const headWords = 5
	buf := make([]byte, 0, (headWords+1+len(votes))*WordSize)
	buf = appendWord(buf, proposalID)
	buf = appendWord(buf, big.NewInt(headWords*WordSize))
	buf = appendWord(buf, nullifier)
	buf = appendWord(buf, citizenship)
	buf = appendWord(buf, identityCreationTimestamp)
	buf = appendWord(buf, big.NewInt(int64(len(votes))))
	for _, v := range votes {
		buf = appendWord(buf, v)
	}
	return buf
}

// EncodeExecuteCalldata builds the full execute() transaction calldata:
// selector, inline bytes32 registration root, inline uint256 date, offset to
// the dynamic payload, the 8 flattened Groth16 proof words (a[2], b[2][2],
// c[2]) and finally the length-prefixed payload padded to a word boundary.
func EncodeExecuteCalldata(selector []byte, registrationRoot [32]byte, currentDate *big.Int, userPayload []byte, proof *prooftypes.ZKProof) (string, error) {
	if len(selector) != 4 {
		return "", fmt.Errorf("selector must be 4 bytes, got %d", len(selector))
	}
	words, err := proofWords(proof)
	if err != nil {
		return "", err
	}
	buf := make([]byte, 0, 4+executePayloadOffset+2*WordSize+len(userPayload))
	buf = append(buf, selector...)
	buf = append(buf, registrationRoot[:]...)
	buf = appendWord(buf, currentDate)
	buf = appendWord(buf, big.NewInt(executePayloadOffset))
	for _, w := range words {
		buf = appendWord(buf, w)
	}
	buf = appendWord(buf, big.NewInt(int64(len(userPayload))))
	buf = append(buf, userPayload...)
	if pad := len(userPayload) % WordSize; pad != 0 {
		buf = append(buf, make([]byte, WordSize-pad)...)
	}
	return hexutil.Encode(buf), nil
}

// proofWords flattens the Groth16 proof points to the calldata word order:
// a[0], a[1], b[0][0], b[0][1], b[1][0], b[1][1], c[0], c[1].
func proofWords(proof *prooftypes.ZKProof) ([8]*big.Int, error) {
	var words [8]*big.Int
	if proof == nil || proof.Proof == nil {
		return words, fmt.Errorf("missing proof")
	}
	p := proof.Proof
	if len(p.A) < 2 || len(p.C) < 2 || len(p.B) < 2 || len(p.B[0]) < 2 || len(p.B[1]) < 2 {
		return words, fmt.Errorf("unexpected proof point shape")
	}
	for i, s := range []string{
		p.A[0], p.A[1],
		p.B[0][0], p.B[0][1], p.B[1][0], p.B[1][1],
		p.C[0], p.C[1],
	} {
		v, err := ParseBigIntString(s)
		if err != nil {
			return words, fmt.Errorf("proof point %d: %w", i, err)
		}
		words[i] = v
	}
	return words, nil
}

// ParseBigIntString parses a numeric string as hex when it carries the "0x"
// prefix and as decimal otherwise, falling back to hex for strings that are
// not valid decimal.
func ParseBigIntString(s string) (*big.Int, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, ok := new(big.Int).SetString(s[2:], 16)
		if !ok {
			return nil, fmt.Errorf("invalid hex number %q", s)
		}
		return v, nil
	}
	if v, ok := new(big.Int).SetString(s, 10); ok {
		return v, nil
	}
	if v, ok := new(big.Int).SetString(s, 16); ok {
		return v, nil
	}
	return nil, fmt.Errorf("invalid number %q", s)
}
