package voter

import (
	"fmt"
	"time"

	"github.com/freedomtool/passport-voting/log"
	"github.com/freedomtool/passport-voting/sod"
	"github.com/freedomtool/passport-voting/storage"
	"github.com/freedomtool/passport-voting/types"
	"github.com/freedomtool/passport-voting/util"
)

// RegisterIdentity performs passive authentication over the passport's
// security object and, when it checks out, derives and stores a fresh voting
// identity. The identity secret is random; only its Poseidon-derived
// nullifiers ever leave the device. An existing identity is replaced.
func RegisterIdentity(store *storage.Storage, sodData, dg1, issuerCert []byte) (*types.Identity, error) {
	ok, err := sod.VerifyDG1Hash(sodData, dg1)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("DG1 does not match the security object")
	}
	ok, err = sod.VerifySODSignature(sodData, issuerCert)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("security object signature does not verify")
	}

	mrz, err := sod.MRZFromDG1(dg1)
	if err != nil {
		return nil, err
	}
	citizenship, err := sod.NationalityFromMRZ(mrz)
	if err != nil {
		return nil, err
	}

	identity := &types.Identity{
		Secret:            util.RandomBytes(32),
		Citizenship:       citizenship,
		CreationTimestamp: uint64(time.Now().Unix()),
	}
	if err := store.SetIdentity(identity); err != nil {
		return nil, fmt.Errorf("failed to store identity: %w", err)
	}
	log.Infow("identity registered", "citizenship", citizenship)
	return identity, nil
}
