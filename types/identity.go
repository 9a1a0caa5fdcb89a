package types

// Identity is the locally stored registered identity derived from a
// verified passport. The nullifier is never stored: it is derived from the
// secret and the proposal event id at vote time.
type Identity struct {
	Secret            HexBytes `json:"secret"            cbor:"0,keyasint"`
	Citizenship       string   `json:"citizenship"       cbor:"1,keyasint"`
	CreationTimestamp uint64   `json:"creationTimestamp" cbor:"2,keyasint"`
}
