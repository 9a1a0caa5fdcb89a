// Package voter sequences a vote attempt: building the circuit inputs from
// the stored identity and chain state, generating the zero-knowledge proof,
// encoding the execute() calldata and submitting it. Progress is reported to
// a single observer in state order; a failure aborts the sequence and carries
// the failing state.
package voter

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	prooftypes "github.com/iden3/go-rapidsnark/types"

	"github.com/freedomtool/passport-voting/ethabi"
	"github.com/freedomtool/passport-voting/log"
	"github.com/freedomtool/passport-voting/storage"
	"github.com/freedomtool/passport-voting/types"
	"github.com/freedomtool/passport-voting/web3"
)

// ErrIdentityMissing is returned when no passport-derived identity exists in
// the local store.
var ErrIdentityMissing = errors.New("no identity in local store")

// StageError is a vote attempt failure with the state it failed in.
type StageError struct {
	Stage Progress
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("vote failed while %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Progress, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// ChainReader reads the per-proposal chain state a proof binds to.
type ChainReader interface {
	ProposalEventID(ctx context.Context, id uint64) (*big.Int, error)
	RegistrationRoot(ctx context.Context) ([32]byte, error)
}

// Submitter delivers signed calldata to the chain, either directly or
// through a relayer.
type Submitter interface {
	Submit(ctx context.Context, calldata string, destination common.Address) (string, error)
}

// ProveFunc generates the Groth16 proof for the given inputs.
type ProveFunc func(ctx context.Context, inputs *ProofInputs) (*prooftypes.ZKProof, error)

// Voter drives vote attempts. It must not be used for concurrent attempts;
// the caller serializes them.
type Voter struct {
	chain     ChainReader
	submitter Submitter
	store     *storage.Storage
	prove     ProveFunc
}

// New creates a Voter over the given chain reader, submitter, local store
// and prover.
func New(chain ChainReader, submitter Submitter, store *storage.Storage, prove ProveFunc) *Voter {
	return &Voter{
		chain:     chain,
		submitter: submitter,
		store:     store,
		prove:     prove,
	}
}

// CastVote runs one vote attempt for the selected option indices and returns
// the transaction handle. The sink, if not nil, receives each Progress state
// as it is entered; after ProgressSubmitting completes the attempt cannot be
// rolled back. Errors carry the failing state as a StageError.
func (v *Voter) CastVote(ctx context.Context, proposal *types.ProposalInfo, selected []int, sink func(Progress)) (string, error) {
	notify := func(p Progress) {
		if sink != nil {
			sink(p)
		}
	}

	notify(ProgressBuildingInputs)
	if !proposal.IsActive() {
		return "", stageErr(ProgressBuildingInputs, fmt.Errorf("proposal %d is not active (%s)", proposal.ID, proposal.Status))
	}
	// Proposals carry a single question, so bit 0 of the multichoice
	// bitmask governs the whole selection.
	if len(selected) > 1 && !proposal.IsMultichoice(0) {
		return "", stageErr(ProgressBuildingInputs, fmt.Errorf("proposal %d allows a single option", proposal.ID))
	}
	identity, err := v.store.Identity()
	if errors.Is(err, storage.ErrNotFound) {
		return "", stageErr(ProgressBuildingInputs, ErrIdentityMissing)
	}
	if err != nil {
		return "", stageErr(ProgressBuildingInputs, err)
	}
	eventID, err := v.chain.ProposalEventID(ctx, proposal.ID)
	if err != nil {
		return "", stageErr(ProgressBuildingInputs, err)
	}
	root, err := v.chain.RegistrationRoot(ctx)
	if err != nil {
		return "", stageErr(ProgressBuildingInputs, err)
	}
	now := time.Now().UTC()
	date := ethabi.EncodeDateAsASCII(now.Year(), int(now.Month()), now.Day())
	inputs, err := BuildProofInputs(identity, proposal.ID, eventID, root, date, selected)
	if err != nil {
		return "", stageErr(ProgressBuildingInputs, err)
	}

	notify(ProgressGeneratingProof)
	proof, err := v.prove(ctx, inputs)
	if err != nil {
		return "", stageErr(ProgressGeneratingProof, err)
	}

	notify(ProgressSubmitting)
	payload := ethabi.EncodeUserPayload(
		new(big.Int).SetUint64(proposal.ID),
		inputs.Votes,
		inputs.Nullifier,
		inputs.Citizenship,
		new(big.Int).SetUint64(inputs.IdentityCreationTimestamp),
	)
	calldata, err := ethabi.EncodeExecuteCalldata(web3.ExecuteSelector(), root, ethabi.DateToInt(date), payload, proof)
	if err != nil {
		return "", stageErr(ProgressSubmitting, err)
	}
	txID, err := v.submitter.Submit(ctx, calldata, proposal.VotingContract)
	if err != nil {
		return "", stageErr(ProgressSubmitting, err)
	}

	// The vote is on chain; a bookkeeping failure only degrades UI state.
	record := &storage.VoteRecord{TxID: txID, Timestamp: uint64(now.Unix())}
	if err := v.store.MarkVoted(inputs.NullifierBytes(), proposal.VotingContract, record); err != nil {
		log.Warnw("failed to record vote locally", "proposal", proposal.ID, "error", err.Error())
	}
	if err := v.store.SetSelectedOption(proposal.ID, proposal.VotingContract, selected[0]); err != nil {
		log.Warnw("failed to record selected option", "proposal", proposal.ID, "error", err.Error())
	}
	log.Infow("vote submitted", "proposal", proposal.ID, "tx", txID)

	notify(ProgressConfirmed)
	return txID, nil
}

// HasVoted reports whether this identity already voted on the proposal,
// according to the local record. The contract remains the authority; this
// only drives idempotent UI state.
func (v *Voter) HasVoted(ctx context.Context, proposal *types.ProposalInfo) (bool, error) {
	identity, err := v.store.Identity()
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	eventID, err := v.chain.ProposalEventID(ctx, proposal.ID)
	if err != nil {
		return false, err
	}
	// Only the nullifier matters here; the other inputs are placeholders.
	inputs, err := BuildProofInputs(identity, proposal.ID, eventID, [32]byte{}, nil, []int{0})
	if err != nil {
		return false, err
	}
	return v.store.HasVoted(inputs.NullifierBytes(), proposal.VotingContract)
}
