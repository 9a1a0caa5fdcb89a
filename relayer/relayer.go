// Package relayer submits vote calldata through the gas-paying relayer
// service, keeping the voter's own address off the chain.
package relayer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/freedomtool/passport-voting/log"
)

// DefaultTimeout is the default timeout for the HTTP client.
const DefaultTimeout = 30 * time.Second

// voteEnvelope is the JSON-API style request body the relayer expects.
type voteEnvelope struct {
	Data voteData `json:"data"`
}

type voteData struct {
	Attributes voteAttributes `json:"attributes"`
}

type voteAttributes struct {
	TxData      string `json:"tx_data"`
	Destination string `json:"destination"`
}

// voteResponse is the success body; Data.ID is the transaction handle.
type voteResponse struct {
	Data struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	} `json:"data"`
}

// RejectionKind classifies why the relayer refused a submission.
type RejectionKind int

const (
	RejectionUnknown RejectionKind = iota
	RejectionAlreadyVoted
	RejectionNoEligibleCredential
)

func (k RejectionKind) String() string {
	switch k {
	case RejectionAlreadyVoted:
		return "alreadyVoted"
	case RejectionNoEligibleCredential:
		return "noEligibleCredential"
	default:
		return "unknown"
	}
}

// RejectionError is a non-2xx answer from the relayer.
type RejectionError struct {
	Kind    RejectionKind
	Status  int
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("relayer rejected submission (%s, status %d): %s", e.Kind, e.Status, e.Message)
}

// classifyRejection maps the relayer's error text to a rejection kind.
// TODO: replace message sniffing with the relayer's error codes once the
// service exposes a stable code field.
func classifyRejection(message string) RejectionKind {
	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "already voted") || strings.Contains(msg, "double vote"):
		return RejectionAlreadyVoted
	case strings.Contains(msg, "not eligible") || strings.Contains(msg, "no eligible") ||
		strings.Contains(msg, "credential"):
		return RejectionNoEligibleCredential
	default:
		return RejectionUnknown
	}
}

// Client posts vote envelopes to the relayer vote endpoint.
type Client struct {
	c        *http.Client
	endpoint *url.URL
}

// New returns a client bound to the relayer vote endpoint URL.
func New(endpoint string) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid relayer endpoint: %w", err)
	}
	return &Client{
		c:        &http.Client{Timeout: DefaultTimeout},
		endpoint: u,
	}, nil
}

// SetTimeout configures the timeout for the HTTP client.
func (c *Client) SetTimeout(d time.Duration) {
	c.c.Timeout = d
}

// Submit posts the calldata for the destination contract and returns the
// relayer's transaction handle. A non-2xx answer becomes a RejectionError.
// The request is sent exactly once: the relayer may have broadcast the
// transaction even when the answer is lost, so a transport failure surfaces
// to the caller instead of risking a double submission.
func (c *Client) Submit(ctx context.Context, calldata string, destination common.Address) (string, error) {
	body, err := json.Marshal(voteEnvelope{
		Data: voteData{
			Attributes: voteAttributes{
				TxData:      calldata,
				Destination: destination.Hex(),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal vote envelope: %w", err)
	}
	log.Debugw("submitting vote to relayer", "endpoint", c.endpoint.String(), "destination", destination.Hex())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.c.Do(req)
	if err != nil {
		return "", fmt.Errorf("relayer unreachable: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warnw("failed to close relayer response body", "error", err.Error())
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read relayer response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(data)
		return "", &RejectionError{
			Kind:    classifyRejection(msg),
			Status:  resp.StatusCode,
			Message: msg,
		}
	}

	var vr voteResponse
	if err := json.Unmarshal(data, &vr); err != nil {
		return "", fmt.Errorf("unexpected relayer response: %w", err)
	}
	if vr.Data.ID == "" {
		return "", fmt.Errorf("relayer response carries no transaction id")
	}
	return vr.Data.ID, nil
}
