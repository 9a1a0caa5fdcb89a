package sod

import (
	"fmt"
	"strconv"
	"strings"
)

// Minimal DER tag/length/value walker. The SOD grammar is small and fixed,
// so the parser walks raw TLV elements instead of going through a general
// ASN.1 decoder. Every read is bounds-checked; malformed input surfaces as
// an error, never as a panic.

const (
	tagInteger     = 0x02
	tagOctetString = 0x04
	tagOID         = 0x06
	tagSequence    = 0x30
	tagSet         = 0x31
	tagContext0    = 0xa0
	tagContext1    = 0xa1
	// tagICAOEnvelope is the single-byte envelope some readers wrap the
	// security object in before the CMS ContentInfo.
	tagICAOEnvelope = 0x77
)

// element is one decoded TLV: the tag, the content octets and the raw bytes
// of the whole element (tag and length included).
type element struct {
	tag   byte
	value []byte
	raw   []byte
}

// readElement decodes the TLV starting at data[0] and returns it together
// with the total number of bytes it occupies.
func readElement(data []byte) (element, int, error) {
	if len(data) < 2 {
		return element{}, 0, fmt.Errorf("truncated element: %d bytes", len(data))
	}
	tag := data[0]
	if tag&0x1f == 0x1f {
		return element{}, 0, fmt.Errorf("unsupported high tag number form (tag 0x%02x)", tag)
	}
	length := 0
	offset := 2
	switch b := data[1]; {
	case b < 0x80:
		length = int(b)
	case b == 0x80:
		return element{}, 0, fmt.Errorf("indefinite length is not valid DER")
	default:
		n := int(b & 0x7f)
		if n > 4 {
			return element{}, 0, fmt.Errorf("length of length too large: %d bytes", n)
		}
		if len(data) < 2+n {
			return element{}, 0, fmt.Errorf("truncated long-form length")
		}
		for _, c := range data[2 : 2+n] {
			length = length<<8 | int(c)
		}
		offset = 2 + n
	}
	end := offset + length
	if end < offset || end > len(data) {
		return element{}, 0, fmt.Errorf("element length %d exceeds available %d bytes", length, len(data)-offset)
	}
	return element{tag: tag, value: data[offset:end], raw: data[:end]}, end, nil
}

// children splits the content octets of a constructed element into its
// immediate child elements.
func children(value []byte) ([]element, error) {
	var elems []element
	for off := 0; off < len(value); {
		el, n, err := readElement(value[off:])
		if err != nil {
			return nil, err
		}
		elems = append(elems, el)
		off += n
	}
	return elems, nil
}

// oidString decodes the content octets of an OBJECT IDENTIFIER into its
// dotted decimal form.
func oidString(value []byte) (string, error) {
	if len(value) == 0 {
		return "", fmt.Errorf("empty OID")
	}
	var sb strings.Builder
	first := int(value[0])
	sb.WriteString(strconv.Itoa(first / 40))
	sb.WriteByte('.')
	sb.WriteString(strconv.Itoa(first % 40))
	arc := 0
	for i := 1; i < len(value); i++ {
		b := value[i]
		if arc > 1<<24 {
			return "", fmt.Errorf("OID arc overflow")
		}
		arc = arc<<7 | int(b&0x7f)
		if b&0x80 == 0 {
			sb.WriteByte('.')
			sb.WriteString(strconv.Itoa(arc))
			arc = 0
		}
	}
	if arc != 0 {
		return "", fmt.Errorf("truncated OID arc")
	}
	return sb.String(), nil
}

// derInt decodes a small non-negative INTEGER content.
func derInt(value []byte) (int, error) {
	if len(value) == 0 || len(value) > 4 {
		return 0, fmt.Errorf("unsupported INTEGER length %d", len(value))
	}
	if value[0]&0x80 != 0 {
		return 0, fmt.Errorf("negative INTEGER")
	}
	n := 0
	for _, b := range value {
		n = n<<8 | int(b)
	}
	return n, nil
}
