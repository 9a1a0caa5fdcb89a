// Package web3 provides the minimal JSON-RPC surface the voting core needs:
// eth_call reads against the voting and registration contracts, and a
// development-only raw transaction sender.
package web3

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/freedomtool/passport-voting/ethabi"
	"github.com/freedomtool/passport-voting/log"
	"github.com/freedomtool/passport-voting/types"
)

// Contract method selectors, fixed by the deployed ABI.
var (
	selLastProposalID     = methodID("lastProposalId()")
	selGetProposalInfo    = methodID("getProposalInfo(uint256)")
	selGetProposalEventID = methodID("getProposalEventId(uint256)")
	selGetRoot            = methodID("getRoot()")
	selExecute            = methodID("execute(bytes32,uint256,bytes,uint256[2],uint256[2][2],uint256[2])")
)

func methodID(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

// ExecuteSelector returns the 4-byte selector of the vote execute() method.
func ExecuteSelector() []byte {
	return append([]byte{}, selExecute...)
}

// ChainCallError carries the JSON-RPC error object returned by the node.
type ChainCallError struct {
	Code    int
	Message string
}

func (e *ChainCallError) Error() string {
	return fmt.Sprintf("chain call failed: %s (code %d)", e.Message, e.Code)
}

// wrapRPCError lifts a node-side JSON-RPC error into a ChainCallError.
// Transport failures pass through unchanged.
func wrapRPCError(err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return &ChainCallError{Code: rpcErr.ErrorCode(), Message: rpcErr.Error()}
	}
	return err
}

// Client reads voting state from the chain over a single JSON-RPC endpoint.
type Client struct {
	rpc                  *rpc.Client
	votingContract       common.Address
	registrationContract common.Address
}

// New dials the JSON-RPC endpoint and binds the client to the voting and
// registration contract addresses.
func New(ctx context.Context, endpoint string, votingContract, registrationContract common.Address) (*Client, error) {
	cli, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial web3 endpoint: %w", err)
	}
	return &Client{
		rpc:                  cli,
		votingContract:       votingContract,
		registrationContract: registrationContract,
	}, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.rpc.Close()
}

// VotingContract returns the bound voting contract address.
func (c *Client) VotingContract() common.Address {
	return c.votingContract
}

func (c *Client) ethCall(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	var result hexutil.Bytes
	arg := map[string]any{
		"to":   to,
		"data": hexutil.Bytes(data),
	}
	if err := c.rpc.CallContext(ctx, &result, "eth_call", arg, "latest"); err != nil {
		return nil, wrapRPCError(err)
	}
	return result, nil
}

// LastProposalID returns the id of the most recently created proposal.
// Proposal ids are assigned sequentially starting at 1, so this is also the
// proposal count.
func (c *Client) LastProposalID(ctx context.Context) (uint64, error) {
	raw, err := c.ethCall(ctx, c.votingContract, selLastProposalID)
	if err != nil {
		return 0, err
	}
	v := new(big.Int).SetBytes(raw)
	if !v.IsUint64() {
		return 0, fmt.Errorf("last proposal id out of range: %s", v)
	}
	return v.Uint64(), nil
}

// ProposalInfo fetches and decodes the on-chain state of a single proposal.
func (c *Client) ProposalInfo(ctx context.Context, id uint64) (*types.ProposalInfo, error) {
	data := append(append([]byte{}, selGetProposalInfo...), common.BigToHash(new(big.Int).SetUint64(id)).Bytes()...)
	raw, err := c.ethCall(ctx, c.votingContract, data)
	if err != nil {
		return nil, err
	}
	info, err := ethabi.DecodeProposalInfo(hexutil.Encode(raw))
	if err != nil {
		return nil, err
	}
	info.ID = id
	info.VotingContract = c.votingContract
	return info, nil
}

// ProposalEventID returns the event identifier the circuit binds a vote to.
func (c *Client) ProposalEventID(ctx context.Context, id uint64) (*big.Int, error) {
	data := append(append([]byte{}, selGetProposalEventID...), common.BigToHash(new(big.Int).SetUint64(id)).Bytes()...)
	raw, err := c.ethCall(ctx, c.votingContract, data)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}

// RegistrationRoot returns the current root of the registration SMT.
func (c *Client) RegistrationRoot(ctx context.Context) ([32]byte, error) {
	var root [32]byte
	raw, err := c.ethCall(ctx, c.registrationContract, selGetRoot)
	if err != nil {
		return root, err
	}
	copy(root[:], raw)
	return root, nil
}

// enumerateMaxRetries bounds the retries of a failed full enumeration. With
// the initial attempt this allows 5 tries.
const enumerateMaxRetries = 4

// EnumerateProposals fetches every proposal from 1 to lastProposalId. A read
// failure for one proposal id is logged and that id skipped; a failure to
// read the proposal count fails the whole pass, which is retried with
// exponential backoff up to the bounded number of tries.
func (c *Client) EnumerateProposals(ctx context.Context) ([]*types.ProposalInfo, error) {
	var proposals []*types.ProposalInfo
	pass := func() error {
		last, err := c.LastProposalID(ctx)
		if err != nil {
			return err
		}
		proposals = proposals[:0]
		for id := uint64(1); id <= last; id++ {
			info, err := c.ProposalInfo(ctx, id)
			if err != nil {
				log.Warnw("skipping unreadable proposal", "id", id, "error", err.Error())
				continue
			}
			proposals = append(proposals, info)
		}
		return nil
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), enumerateMaxRetries), ctx)
	if err := backoff.Retry(pass, bo); err != nil {
		return nil, err
	}
	return proposals, nil
}
