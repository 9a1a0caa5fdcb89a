package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"

	"github.com/freedomtool/passport-voting/types"
	"github.com/freedomtool/passport-voting/voter"
)

type fakeSource struct {
	proposals map[uint64]*types.ProposalInfo
}

func (f *fakeSource) EnumerateProposals(ctx context.Context) ([]*types.ProposalInfo, error) {
	var out []*types.ProposalInfo
	for id := uint64(1); id <= uint64(len(f.proposals)); id++ {
		if p, ok := f.proposals[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeSource) ProposalInfo(ctx context.Context, id uint64) (*types.ProposalInfo, error) {
	p, ok := f.proposals[id]
	if !ok {
		return nil, fmt.Errorf("no proposal %d", id)
	}
	return p, nil
}

type fakeCaster struct {
	voted bool
	err   error
}

func (f *fakeCaster) CastVote(ctx context.Context, proposal *types.ProposalInfo, selected []int, sink func(voter.Progress)) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.voted = true
	return "0xtx1", nil
}

func (f *fakeCaster) HasVoted(ctx context.Context, proposal *types.ProposalInfo) (bool, error) {
	return f.voted, nil
}

func newTestAPI(t *testing.T, caster *fakeCaster) *httptest.Server {
	source := &fakeSource{proposals: map[uint64]*types.ProposalInfo{
		1: {ID: 1, Title: "First", Status: types.ProposalStatusStarted,
			VotingContract: common.HexToAddress("0x00000000000000000000000000000000000000cc")},
		2: {ID: 2, Title: "Second", Status: types.ProposalStatusEnded},
	}}
	a, err := New(&APIConfig{Host: "127.0.0.1", Port: 0, Proposals: source, Votes: caster})
	qt.Assert(t, err, qt.IsNil)
	srv := httptest.NewServer(a.Router())
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(c *qt.C, method, url string, body any) (int, []byte) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		c.Assert(err, qt.IsNil)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	c.Assert(err, qt.IsNil)
	resp, err := http.DefaultClient.Do(req)
	c.Assert(err, qt.IsNil)
	defer func() {
		c.Assert(resp.Body.Close(), qt.IsNil)
	}()
	data, err := io.ReadAll(resp.Body)
	c.Assert(err, qt.IsNil)
	return resp.StatusCode, data
}

func errCode(c *qt.C, data []byte) int {
	var e struct {
		Code int `json:"code"`
	}
	c.Assert(json.Unmarshal(data, &e), qt.IsNil)
	return e.Code
}

func TestProposalEndpoints(t *testing.T) {
	c := qt.New(t)
	srv := newTestAPI(t, &fakeCaster{})

	status, _ := doRequest(c, http.MethodGet, srv.URL+PingEndpoint, nil)
	c.Assert(status, qt.Equals, http.StatusOK)

	status, data := doRequest(c, http.MethodGet, srv.URL+ProposalsEndpoint, nil)
	c.Assert(status, qt.Equals, http.StatusOK)
	var list struct {
		Proposals []*types.ProposalInfo `json:"proposals"`
	}
	c.Assert(json.Unmarshal(data, &list), qt.IsNil)
	c.Assert(list.Proposals, qt.HasLen, 2)

	status, data = doRequest(c, http.MethodGet, srv.URL+"/proposals/1", nil)
	c.Assert(status, qt.Equals, http.StatusOK)
	var info types.ProposalInfo
	c.Assert(json.Unmarshal(data, &info), qt.IsNil)
	c.Assert(info.Title, qt.Equals, "First")

	status, data = doRequest(c, http.MethodGet, srv.URL+"/proposals/zz", nil)
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	c.Assert(errCode(c, data), qt.Equals, ErrMalformedProposalID.Code)

	status, data = doRequest(c, http.MethodGet, srv.URL+"/proposals/99", nil)
	c.Assert(status, qt.Equals, http.StatusNotFound)
	c.Assert(errCode(c, data), qt.Equals, ErrProposalNotFound.Code)
}

func TestVoteEndpoint(t *testing.T) {
	c := qt.New(t)
	caster := &fakeCaster{}
	srv := newTestAPI(t, caster)

	status, data := doRequest(c, http.MethodPost, srv.URL+VotesEndpoint,
		&VoteRequest{ProposalID: 1, Options: []int{0}})
	c.Assert(status, qt.Equals, http.StatusOK)
	var vr VoteResponse
	c.Assert(json.Unmarshal(data, &vr), qt.IsNil)
	c.Assert(vr.TxID, qt.Equals, "0xtx1")

	// the second attempt hits the local voted record
	status, data = doRequest(c, http.MethodPost, srv.URL+VotesEndpoint,
		&VoteRequest{ProposalID: 1, Options: []int{0}})
	c.Assert(status, qt.Equals, http.StatusConflict)
	c.Assert(errCode(c, data), qt.Equals, ErrAlreadyVoted.Code)

	status, data = doRequest(c, http.MethodPost, srv.URL+VotesEndpoint,
		&VoteRequest{ProposalID: 1})
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	c.Assert(errCode(c, data), qt.Equals, ErrMalformedBody.Code)
}

func TestVoteEndpointIdentityMissing(t *testing.T) {
	c := qt.New(t)
	caster := &fakeCaster{err: &voter.StageError{Stage: voter.ProgressBuildingInputs, Err: voter.ErrIdentityMissing}}
	srv := newTestAPI(t, caster)

	status, data := doRequest(c, http.MethodPost, srv.URL+VotesEndpoint,
		&VoteRequest{ProposalID: 1, Options: []int{0}})
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	c.Assert(errCode(c, data), qt.Equals, ErrNoIdentity.Code)
}
