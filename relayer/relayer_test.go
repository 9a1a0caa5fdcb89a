package relayer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
)

func TestSubmit(t *testing.T) {
	c := qt.New(t)
	destination := common.HexToAddress("0x00000000000000000000000000000000000000cc")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.Assert(r.Method, qt.Equals, http.MethodPost)
		c.Assert(r.Header.Get("Content-Type"), qt.Equals, "application/json")
		var env voteEnvelope
		c.Assert(json.NewDecoder(r.Body).Decode(&env), qt.IsNil)
		c.Assert(env.Data.Attributes.TxData, qt.Equals, "0xdeadbeef")
		c.Assert(env.Data.Attributes.Destination, qt.Equals, destination.Hex())
		w.Header().Set("Content-Type", "application/json")
		_, err := w.Write([]byte(`{"data":{"id":"0xabc123","type":"txs"}}`))
		c.Assert(err, qt.IsNil)
	}))
	defer srv.Close()

	cli, err := New(srv.URL)
	c.Assert(err, qt.IsNil)

	id, err := cli.Submit(context.Background(), "0xdeadbeef", destination)
	c.Assert(err, qt.IsNil)
	c.Assert(id, qt.Equals, "0xabc123")
}

func TestSubmitRejection(t *testing.T) {
	c := qt.New(t)
	cases := []struct {
		body string
		kind RejectionKind
	}{
		{`{"errors":[{"title":"conflict","detail":"identity has already voted"}]}`, RejectionAlreadyVoted},
		{`{"errors":[{"title":"forbidden","detail":"no eligible credential for proposal"}]}`, RejectionNoEligibleCredential},
		{`{"errors":[{"title":"internal","detail":"something broke"}]}`, RejectionUnknown},
	}
	for _, tc := range cases {
		body := tc.body
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			if _, err := w.Write([]byte(body)); err != nil {
				c.Logf("write failed: %v", err)
			}
		}))

		cli, err := New(srv.URL)
		c.Assert(err, qt.IsNil)

		_, err = cli.Submit(context.Background(), "0x00", common.Address{})
		c.Assert(err, qt.IsNotNil)
		var rejection *RejectionError
		c.Assert(errors.As(err, &rejection), qt.IsTrue, qt.Commentf("body %s", body))
		c.Assert(rejection.Kind, qt.Equals, tc.kind)
		c.Assert(rejection.Status, qt.Equals, http.StatusConflict)
		srv.Close()
	}
}

func TestSubmitMissingID(t *testing.T) {
	c := qt.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte(`{"data":{}}`)); err != nil {
			c.Logf("write failed: %v", err)
		}
	}))
	defer srv.Close()

	cli, err := New(srv.URL)
	c.Assert(err, qt.IsNil)

	_, err = cli.Submit(context.Background(), "0x00", common.Address{})
	c.Assert(err, qt.IsNotNil)
}

func TestSubmitUnreachable(t *testing.T) {
	c := qt.New(t)
	cli, err := New("http://127.0.0.1:1")
	c.Assert(err, qt.IsNil)

	_, err = cli.Submit(context.Background(), "0x00", common.Address{})
	c.Assert(err, qt.IsNotNil)
	var rejection *RejectionError
	c.Assert(errors.As(err, &rejection), qt.IsFalse)
}

// A submission that dies mid-flight must not be sent again: the relayer may
// already hold the transaction, and a second POST would double-submit.
func TestSubmitSingleAttempt(t *testing.T) {
	c := qt.New(t)
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		panic(http.ErrAbortHandler)
	}))
	defer srv.Close()

	cli, err := New(srv.URL)
	c.Assert(err, qt.IsNil)

	_, err = cli.Submit(context.Background(), "0x00", common.Address{})
	c.Assert(err, qt.IsNotNil)
	var rejection *RejectionError
	c.Assert(errors.As(err, &rejection), qt.IsFalse)
	c.Assert(atomic.LoadInt32(&calls), qt.Equals, int32(1))
}
