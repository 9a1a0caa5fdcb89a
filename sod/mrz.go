package sod

import (
	"bytes"
	"fmt"
)

// mrzTag is the two-byte DER tag (high-tag-number form) wrapping the MRZ
// text inside the DG1 template.
var mrzTag = []byte{0x5f, 0x1f}

// MRZFromDG1 extracts the machine readable zone text from a DG1 data group.
func MRZFromDG1(dg1 []byte) (string, error) {
	idx := bytes.Index(dg1, mrzTag)
	if idx < 0 {
		return "", malformed("no MRZ element in DG1")
	}
	rest := dg1[idx+len(mrzTag):]
	if len(rest) == 0 {
		return "", malformed("truncated MRZ element")
	}
	n := int(rest[0])
	content := rest[1:]
	if n >= 0x80 {
		lenBytes := n - 0x80
		if lenBytes == 0 || lenBytes > 2 || len(content) < lenBytes {
			return "", malformed("invalid MRZ length encoding")
		}
		n = 0
		for _, b := range content[:lenBytes] {
			n = n<<8 | int(b)
		}
		content = content[lenBytes:]
	}
	if n == 0 || n > len(content) {
		return "", malformed("MRZ length %d exceeds data", n)
	}
	return string(content[:n]), nil
}

// NationalityFromMRZ returns the ISO 3166-1 alpha-3 nationality field of a
// TD3 (88 character) or TD1 (90 character) MRZ.
func NationalityFromMRZ(mrz string) (string, error) {
	switch len(mrz) {
	case 88: // TD3: second line, positions 11-13
		return mrz[54:57], nil
	case 90: // TD1: second line, positions 16-18
		return mrz[45:48], nil
	}
	return "", fmt.Errorf("unsupported MRZ length %d", len(mrz))
}
