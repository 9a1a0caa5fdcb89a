package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/freedomtool/passport-voting/types"
)

// ProposalSource reads proposal state, normally backed by the web3 client.
type ProposalSource interface {
	EnumerateProposals(ctx context.Context) ([]*types.ProposalInfo, error)
	ProposalInfo(ctx context.Context, id uint64) (*types.ProposalInfo, error)
}

// proposalList returns every readable proposal.
// GET /proposals
func (a *API) proposalList(w http.ResponseWriter, r *http.Request) {
	proposals, err := a.proposals.EnumerateProposals(r.Context())
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, map[string]any{"proposals": proposals})
}

// proposal returns a single proposal by id.
// GET /proposals/{proposalId}
func (a *API) proposal(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, ProposalURLParam), 10, 64)
	if err != nil {
		ErrMalformedProposalID.WithErr(err).Write(w)
		return
	}
	info, err := a.proposals.ProposalInfo(r.Context(), id)
	if err != nil {
		ErrProposalNotFound.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, info)
}
