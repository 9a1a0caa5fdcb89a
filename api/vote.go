package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/freedomtool/passport-voting/relayer"
	"github.com/freedomtool/passport-voting/types"
	"github.com/freedomtool/passport-voting/voter"
)

// VoteCaster runs vote attempts, normally backed by the voter package.
type VoteCaster interface {
	CastVote(ctx context.Context, proposal *types.ProposalInfo, selected []int, sink func(voter.Progress)) (string, error)
	HasVoted(ctx context.Context, proposal *types.ProposalInfo) (bool, error)
}

// VoteRequest is the body of POST /votes.
type VoteRequest struct {
	ProposalID uint64 `json:"proposalId"`
	Options    []int  `json:"options"`
}

// VoteResponse carries the transaction handle of an accepted vote.
type VoteResponse struct {
	TxID string `json:"txId"`
}

// castVote submits a vote for a proposal.
// POST /votes
func (a *API) castVote(w http.ResponseWriter, r *http.Request) {
	req := &VoteRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	if len(req.Options) == 0 {
		ErrMalformedBody.With("no options selected").Write(w)
		return
	}
	proposal, err := a.proposals.ProposalInfo(r.Context(), req.ProposalID)
	if err != nil {
		ErrProposalNotFound.WithErr(err).Write(w)
		return
	}
	voted, err := a.votes.HasVoted(r.Context(), proposal)
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	if voted {
		ErrAlreadyVoted.Withf("proposal %d", proposal.ID).Write(w)
		return
	}
	txID, err := a.votes.CastVote(r.Context(), proposal, req.Options, nil)
	if err != nil {
		writeVoteError(w, err)
		return
	}
	httpWriteJSON(w, &VoteResponse{TxID: txID})
}

// writeVoteError maps a vote attempt failure to the API error taxonomy.
func writeVoteError(w http.ResponseWriter, err error) {
	if errors.Is(err, voter.ErrIdentityMissing) {
		ErrNoIdentity.Write(w)
		return
	}
	var rejection *relayer.RejectionError
	if errors.As(err, &rejection) && rejection.Kind == relayer.RejectionAlreadyVoted {
		ErrAlreadyVoted.WithErr(rejection).Write(w)
		return
	}
	ErrVoteSubmissionFailed.WithErr(err).Write(w)
}
