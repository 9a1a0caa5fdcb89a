package web3

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/freedomtool/passport-voting/log"
	"github.com/freedomtool/passport-voting/util"
)

// devGasLimit is a generous fixed gas limit. The development path does not
// estimate gas; the local chain mines whatever fits.
const devGasLimit = 10_000_000

// TxSender signs vote transactions with a locally held key and pushes them
// straight to the chain. Development path only: it pays gas from a well-known
// test account and offers none of the anonymity the relayer path provides.
type TxSender struct {
	client  *Client
	privKey *ecdsa.PrivateKey
	address common.Address
}

// NewTxSender wraps the client with a signing key given as hex.
func NewTxSender(client *Client, hexPrivKey string) (*TxSender, error) {
	privKey, err := crypto.HexToECDSA(util.TrimHex(hexPrivKey))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return &TxSender{
		client:  client,
		privKey: privKey,
		address: crypto.PubkeyToAddress(privKey.PublicKey),
	}, nil
}

// Address returns the address of the signing account.
func (s *TxSender) Address() common.Address {
	return s.address
}

// Submit signs the calldata as a legacy transaction to the destination
// contract and broadcasts it, returning the transaction hash.
func (s *TxSender) Submit(ctx context.Context, calldata string, destination common.Address) (string, error) {
	data, err := hexutil.Decode(calldata)
	if err != nil {
		return "", fmt.Errorf("invalid calldata: %w", err)
	}

	var chainID hexutil.Big
	if err := s.client.rpc.CallContext(ctx, &chainID, "eth_chainId"); err != nil {
		return "", wrapRPCError(err)
	}
	var nonce hexutil.Uint64
	if err := s.client.rpc.CallContext(ctx, &nonce, "eth_getTransactionCount", s.address, "pending"); err != nil {
		return "", wrapRPCError(err)
	}
	var gasPrice hexutil.Big
	if err := s.client.rpc.CallContext(ctx, &gasPrice, "eth_gasPrice"); err != nil {
		return "", wrapRPCError(err)
	}

	tx := ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    uint64(nonce),
		GasPrice: gasPrice.ToInt(),
		Gas:      devGasLimit,
		To:       &destination,
		Data:     data,
	})
	signed, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer((*big.Int)(&chainID)), s.privKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}
	rawTx, err := signed.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to encode transaction: %w", err)
	}

	var txHash common.Hash
	if err := s.client.rpc.CallContext(ctx, &txHash, "eth_sendRawTransaction", hexutil.Encode(rawTx)); err != nil {
		return "", wrapRPCError(err)
	}
	log.Debugw("transaction sent", "hash", txHash.Hex(), "nonce", uint64(nonce), "to", destination.Hex())
	return txHash.Hex(), nil
}
