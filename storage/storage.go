// Package storage keeps the voter's local state in a prefixed key-value
// store: the passport-derived identity, the per-proposal voted records and
// the cached option selections. The following prefixes are used:
//   - 'id/' for the identity
//   - 'vt/' for voted records, keyed by (nullifier, contract)
//   - 'sl/' for cached option selections, keyed by (proposal id, contract)
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fxamacker/cbor/v2"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/freedomtool/passport-voting/types"
)

var (
	// Prefixes for the keys in the database.
	identityPrefix  = []byte("id/")
	votedPrefix     = []byte("vt/")
	selectionPrefix = []byte("sl/")

	// identityKey is the single key under the identity prefix.
	identityKey = []byte("current")
)

// ErrNotFound is returned when the requested artifact does not exist.
var ErrNotFound = errors.New("not found")

// Storage wraps the key-value database with typed accessors.
type Storage struct {
	db db.Database
}

// New creates a new Storage instance on top of the given database.
func New(db db.Database) *Storage {
	return &Storage{db: db}
}

// Close closes the underlying database.
func (s *Storage) Close() error {
	return s.db.Close()
}

func encodeArtifact(a any) ([]byte, error) {
	encOpts := cbor.CoreDetEncOptions()
	em, err := encOpts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return em.Marshal(a)
}

func decodeArtifact(data []byte, out any) error {
	return cbor.Unmarshal(data, out)
}

func (s *Storage) setArtifact(prefix, key []byte, artifact any) error {
	data, err := encodeArtifact(artifact)
	if err != nil {
		return err
	}
	wTx := prefixeddb.NewPrefixedWriteTx(s.db.WriteTx(), prefix)
	defer wTx.Discard()
	if err := wTx.Set(key, data); err != nil {
		return err
	}
	return wTx.Commit()
}

// getArtifact fills out with the stored artifact, or returns ErrNotFound.
func (s *Storage) getArtifact(prefix, key []byte, out any) error {
	rd := prefixeddb.NewPrefixedReader(s.db, prefix)
	data, err := rd.Get(key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return decodeArtifact(data, out)
}

// SetIdentity stores the passport-derived identity. There is at most one.
func (s *Storage) SetIdentity(identity *types.Identity) error {
	return s.setArtifact(identityPrefix, identityKey, identity)
}

// Identity loads the stored identity, or ErrNotFound if none was created.
func (s *Storage) Identity() (*types.Identity, error) {
	identity := &types.Identity{}
	if err := s.getArtifact(identityPrefix, identityKey, identity); err != nil {
		return nil, err
	}
	return identity, nil
}

// VoteRecord is the local bookkeeping of a successful submission. It drives
// idempotent UI state only; the contract enforces double-vote rejection.
type VoteRecord struct {
	TxID      string `cbor:"0,keyasint"`
	Timestamp uint64 `cbor:"1,keyasint"`
}

func votedKey(nullifier types.HexBytes, contract common.Address) []byte {
	return append(append([]byte{}, nullifier...), contract.Bytes()...)
}

// MarkVoted records that the identity behind the nullifier voted through the
// given contract.
func (s *Storage) MarkVoted(nullifier types.HexBytes, contract common.Address, record *VoteRecord) error {
	return s.setArtifact(votedPrefix, votedKey(nullifier, contract), record)
}

// HasVoted reports whether a vote was recorded for the nullifier and contract.
func (s *Storage) HasVoted(nullifier types.HexBytes, contract common.Address) (bool, error) {
	record := &VoteRecord{}
	err := s.getArtifact(votedPrefix, votedKey(nullifier, contract), record)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// VotedRecord returns the stored record of a vote, or ErrNotFound.
func (s *Storage) VotedRecord(nullifier types.HexBytes, contract common.Address) (*VoteRecord, error) {
	record := &VoteRecord{}
	if err := s.getArtifact(votedPrefix, votedKey(nullifier, contract), record); err != nil {
		return nil, err
	}
	return record, nil
}

func selectionKey(proposalID uint64, contract common.Address) []byte {
	key := make([]byte, 8, 8+common.AddressLength)
	binary.BigEndian.PutUint64(key, proposalID)
	return append(key, contract.Bytes()...)
}

// SetSelectedOption caches the option the user picked for a proposal, so the
// UI can restore the selection across restarts.
func (s *Storage) SetSelectedOption(proposalID uint64, contract common.Address, option int) error {
	return s.setArtifact(selectionPrefix, selectionKey(proposalID, contract), option)
}

// SelectedOption returns the cached selection for a proposal, or -1 when
// nothing was selected yet.
func (s *Storage) SelectedOption(proposalID uint64, contract common.Address) (int, error) {
	var option int
	err := s.getArtifact(selectionPrefix, selectionKey(proposalID, contract), &option)
	if errors.Is(err, ErrNotFound) {
		return -1, nil
	}
	if err != nil {
		return -1, err
	}
	return option, nil
}
