package voter

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/freedomtool/passport-voting/sod"
	"github.com/freedomtool/passport-voting/storage"
)

func TestRegisterIdentityRejectsMalformed(t *testing.T) {
	c := qt.New(t)
	store := newTestStore(t)

	_, err := RegisterIdentity(store, []byte{0x01, 0x02}, []byte{0x03}, nil)
	c.Assert(err, qt.ErrorIs, sod.ErrMalformedDocument)

	// nothing must be stored after a failed registration
	_, err = store.Identity()
	c.Assert(err, qt.Equals, storage.ErrNotFound)
}
