package types

import (
	"fmt"
	"math/big"
)

// BigInt wraps big.Int with a decimal-string JSON representation, which is
// the format circom circuit inputs and Groth16 proof points use.
type BigInt big.Int

// MathBigInt converts b to a standard *big.Int.
func (b *BigInt) MathBigInt() *big.Int {
	return (*big.Int)(b)
}

// SetUint64 sets b to x and returns b.
func (b *BigInt) SetUint64(x uint64) *BigInt {
	return (*BigInt)((*big.Int)(b).SetUint64(x))
}

// SetBytes interprets buf as big-endian unsigned integer, sets b and returns b.
func (b *BigInt) SetBytes(buf []byte) *BigInt {
	return (*BigInt)((*big.Int)(b).SetBytes(buf))
}

func (b *BigInt) String() string {
	return (*big.Int)(b).String()
}

func (b *BigInt) MarshalJSON() ([]byte, error) {
	return []byte(`"` + b.String() + `"`), nil
}

func (b *BigInt) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if _, ok := (*big.Int)(b).SetString(s, 10); !ok {
		return fmt.Errorf("cannot parse %q as a decimal integer", s)
	}
	return nil
}

// MarshalBinary implements the BinaryMarshaler interface, used by cbor.
func (b *BigInt) MarshalBinary() ([]byte, error) {
	return (*big.Int)(b).Bytes(), nil
}

// UnmarshalBinary implements the BinaryUnmarshaler interface, used by cbor.
func (b *BigInt) UnmarshalBinary(data []byte) error {
	(*big.Int)(b).SetBytes(data)
	return nil
}
