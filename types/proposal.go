package types

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
)

// ProposalStatus is the on-chain lifecycle state of a proposal.
type ProposalStatus uint8

const (
	ProposalStatusNone ProposalStatus = iota
	ProposalStatusWaiting
	ProposalStatusStarted
	ProposalStatusEnded
	ProposalStatusDoNotShow
)

func (s ProposalStatus) String() string {
	switch s {
	case ProposalStatusNone:
		return "none"
	case ProposalStatusWaiting:
		return "waiting"
	case ProposalStatusStarted:
		return "started"
	case ProposalStatusEnded:
		return "ended"
	case ProposalStatusDoNotShow:
		return "doNotShow"
	default:
		return "unknown"
	}
}

// VoteOption is a single selectable answer of a proposal.
type VoteOption struct {
	Index int    `json:"index" cbor:"0,keyasint"`
	Name  string `json:"name"  cbor:"1,keyasint"`
}

// tallySlots is the fixed number of per-option tally slots the voting
// contract reserves for each accepted option.
const tallySlots = 8

// VotingResults is one fixed-width tally row per accepted option.
type VotingResults [][tallySlots]uint64

// ProposalInfo is the decoded state of an on-chain proposal. It is
// constructed fresh on every fetch and never mutated in place; a new fetch
// reflects new tallies.
type ProposalInfo struct {
	ID                   uint64           `json:"id"`
	Title                string           `json:"title"`
	Description          string           `json:"description"`
	Options              []VoteOption     `json:"options"`
	StartTimestamp       uint64           `json:"startTimestamp"`
	Duration             uint64           `json:"duration"`
	Status               ProposalStatus   `json:"status"`
	VotingResults        VotingResults    `json:"votingResults"`
	MultichoiceBitmask   uint64           `json:"multichoiceBitmask"`
	VotingContract       common.Address   `json:"votingContract"`
	ProposalSMT          common.Address   `json:"proposalSMT"`
	VotingWhitelist      []common.Address `json:"votingWhitelist"`
	CitizenshipWhitelist []uint64         `json:"citizenshipWhitelist"`
}

// IsActive reports whether the proposal accepts votes right now.
func (p *ProposalInfo) IsActive() bool {
	return p.Status == ProposalStatusStarted
}

// EndTimestamp returns the unix time at which the proposal stops accepting
// votes. The contract guarantees it is in the future while Status is started.
func (p *ProposalInfo) EndTimestamp() uint64 {
	return p.StartTimestamp + p.Duration
}

// TotalVotes sums every tally slot of every option row.
func (p *ProposalInfo) TotalVotes() uint64 {
	var total uint64
	for _, row := range p.VotingResults {
		for _, cell := range row {
			total += cell
		}
	}
	return total
}

// IsMultichoice reports whether question i allows selecting several options.
func (p *ProposalInfo) IsMultichoice(i int) bool {
	if i < 0 || i > 63 {
		return false
	}
	return p.MultichoiceBitmask&(1<<uint(i)) != 0
}

func (p *ProposalInfo) String() string {
	data, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(data)
}
