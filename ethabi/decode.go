package ethabi

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/freedomtool/passport-voting/types"
	"github.com/freedomtool/passport-voting/util"
)

// decoder is a lenient ABI word reader. A read past the end of the data
// yields the zero value of the requested shape instead of an error, so one
// short or garbled field defaults without losing the whole proposal.
type decoder struct {
	data []byte
}

// word returns the 32-byte word at the byte offset, or nil if out of range.
func (d *decoder) word(off int) []byte {
	if off < 0 || off+WordSize > len(d.data) {
		return nil
	}
	return d.data[off : off+WordSize]
}

func (d *decoder) bigAt(off int) *big.Int {
	w := d.word(off)
	if w == nil {
		return new(big.Int)
	}
	return new(big.Int).SetBytes(w)
}

// uintAt reads the word at off as an unsigned integer. Values wider than 64
// bits collapse to 0; every quantity this decoder reads fits in 64 bits.
func (d *decoder) uintAt(off int) uint64 {
	v := d.bigAt(off)
	if !v.IsUint64() {
		return 0
	}
	return v.Uint64()
}

// addrAt reads the low 20 bytes of the word at off as an address.
func (d *decoder) addrAt(off int) common.Address {
	w := d.word(off)
	if w == nil {
		return common.Address{}
	}
	return common.BytesToAddress(w[WordSize-common.AddressLength:])
}

// bytesAt reads a length-prefixed byte string at off, clamping the length to
// the available data.
func (d *decoder) bytesAt(off int) []byte {
	n := int(d.uintAt(off))
	start := off + WordSize
	if n <= 0 || start >= len(d.data) {
		return nil
	}
	if start+n > len(d.data) {
		n = len(d.data) - start
	}
	return d.data[start : start+n]
}

// arrayLenAt reads a dynamic array length at off, clamped to the number of
// words that actually follow. A length word beyond the int range wraps
// negative and is treated as zero.
func (d *decoder) arrayLenAt(off int) int {
	n := int(d.uintAt(off))
	if n < 0 {
		return 0
	}
	avail := (len(d.data) - off - WordSize) / WordSize
	if avail < 0 {
		avail = 0
	}
	if n > avail {
		n = avail
	}
	return n
}

func (d *decoder) uintArrayAt(off int) []uint64 {
	n := d.arrayLenAt(off)
	if n == 0 {
		return nil
	}
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		out[i] = d.uintAt(off + WordSize + i*WordSize)
	}
	return out
}

func (d *decoder) addrArrayAt(off int) []common.Address {
	n := d.arrayLenAt(off)
	if n == 0 {
		return nil
	}
	out := make([]common.Address, n)
	for i := 0; i < n; i++ {
		out[i] = d.addrAt(off + WordSize + i*WordSize)
	}
	return out
}

// bytesArrayAt reads a bytes[] at off. Each element is an offset into the
// array data region (starting right after the length word), resolved to a
// length-prefixed byte string.
func (d *decoder) bytesArrayAt(off int) [][]byte {
	n := d.arrayLenAt(off)
	if n == 0 {
		return nil
	}
	region := off + WordSize
	out := make([][]byte, n)
	for i := 0; i < n; i++ {
		elemOff := int(d.uintAt(region + i*WordSize))
		out[i] = d.bytesAt(region + elemOff)
	}
	return out
}

// proposalMeta is the JSON document optionally carried in the proposal
// description field.
type proposalMeta struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Options     []string `json:"options"`
}

// titleFallbackLen is how much of a plain-text description becomes the title
// when the description is not the expected JSON document.
const titleFallbackLen = 100

// DecodeProposalInfo decodes the raw getProposalInfo return value. The
// response is a head word pointing at a ProposalInfo struct whose dynamic
// members (ProposalConfig, votingResults) use offsets relative to the struct
// that declares them. Malformed or short data defaults the affected field
// and never aborts the whole decode; only non-hex input is an error.
func DecodeProposalInfo(rawHex string) (*types.ProposalInfo, error) {
	raw, err := hex.DecodeString(util.TrimHex(rawHex))
	if err != nil {
		return nil, fmt.Errorf("invalid hex response: %w", err)
	}
	d := &decoder{data: raw}

	base := int(d.uintAt(0))
	info := &types.ProposalInfo{
		ProposalSMT: d.addrAt(base),
		Status:      types.ProposalStatus(d.uintAt(base + WordSize)),
	}

	// ProposalConfig, offset relative to the proposal struct.
	cfg := base + int(d.uintAt(base+2*WordSize))
	info.StartTimestamp = d.uintAt(cfg)
	info.Duration = d.uintAt(cfg + WordSize)
	info.MultichoiceBitmask = d.uintAt(cfg + 2*WordSize)
	accepted := d.uintArrayAt(cfg + int(d.uintAt(cfg+3*WordSize)))
	description := d.bytesAt(cfg + int(d.uintAt(cfg+4*WordSize)))
	info.VotingWhitelist = d.addrArrayAt(cfg + int(d.uintAt(cfg+5*WordSize)))
	whitelistData := d.bytesArrayAt(cfg + int(d.uintAt(cfg+6*WordSize)))

	// votingResults: dynamic array of fixed 8-element uint256 rows, offset
	// relative to the proposal struct.
	results := base + int(d.uintAt(base+3*WordSize))
	rows := d.arrayLenAt(results)
	for i := 0; i < rows; i++ {
		var row [8]uint64
		for j := 0; j < 8; j++ {
			row[j] = d.uintAt(results + WordSize + (i*8+j)*WordSize)
		}
		info.VotingResults = append(info.VotingResults, row)
	}

	info.Title, info.Description, info.Options = parseDescription(description, accepted)
	if len(whitelistData) > 0 {
		info.CitizenshipWhitelist = decodeProposalRules(whitelistData[0])
	}
	return info, nil
}

// parseDescription derives title, description and options from the raw
// description bytes: a JSON {title, description, options} document when
// possible, otherwise the plain text with a truncated title and one
// "Option N" entry per accepted option.
func parseDescription(description []byte, accepted []uint64) (string, string, []types.VoteOption) {
	meta := proposalMeta{}
	if err := json.Unmarshal(description, &meta); err != nil {
		text := string(description)
		title := text
		if runes := []rune(text); len(runes) > titleFallbackLen {
			title = string(runes[:titleFallbackLen])
		}
		meta = proposalMeta{Title: title, Description: text}
	}
	var options []types.VoteOption
	if len(meta.Options) > 0 {
		for i, name := range meta.Options {
			options = append(options, types.VoteOption{Index: i, Name: name})
		}
	} else {
		for i := range accepted {
			options = append(options, types.VoteOption{Index: i, Name: fmt.Sprintf("Option %d", i+1)})
		}
	}
	return meta.Title, meta.Description, options
}

// decodeProposalRules recovers the citizenship whitelist from a
// votingWhitelistData entry, treated as an ABI-encoded ProposalRules struct:
// a selector word followed by the offset (relative to the struct start) of a
// uint256[] array. Short or empty data yields an empty whitelist.
func decodeProposalRules(entry []byte) []uint64 {
	if len(entry) == 0 {
		return nil
	}
	d := &decoder{data: entry}
	return d.uintArrayAt(int(d.uintAt(WordSize)))
}
