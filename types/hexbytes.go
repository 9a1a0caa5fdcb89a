package types

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// HexBytes is a []byte which JSON-marshals as a "0x" prefixed hex string.
// It accepts hex input with or without the "0x" prefix.
type HexBytes []byte

func (b HexBytes) String() string {
	return "0x" + hex.EncodeToString(b)
}

// SetString decodes a hex string into b, ignoring any "0x" prefix.
func (b *HexBytes) SetString(s string) error {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	dec, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	*b = dec
	return nil
}

func (b HexBytes) MarshalJSON() ([]byte, error) {
	enc := make([]byte, hex.EncodedLen(len(b))+4)
	enc[0] = '"'
	enc[1] = '0'
	enc[2] = 'x'
	hex.Encode(enc[3:], b)
	enc[len(enc)-1] = '"'
	return enc, nil
}

func (b *HexBytes) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid JSON string: %q", data)
	}
	return b.SetString(string(data[1 : len(data)-1]))
}

// HexStringToHexBytes converts a hex string to HexBytes, panicking on
// malformed input. It is mostly useful for tests and hardcoded values.
func HexStringToHexBytes(s string) HexBytes {
	b := HexBytes{}
	if err := b.SetString(s); err != nil {
		panic(err)
	}
	return b
}
