package types

// DataGroupHash is one entry of the LDSSecurityObject hash manifest: the
// digest the issuing authority computed over a passport data group.
type DataGroupHash struct {
	Number int
	Hash   HexBytes
}

// SignerInfo carries the fields of the CMS SignerInfo needed to verify the
// document signer signature. SignedAttrsRaw, when present, is the raw DER of
// the IMPLICIT [0] signed-attributes element, exactly as it appears in the
// document.
type SignerInfo struct {
	DigestAlgorithmOID    string
	SignatureAlgorithmOID string
	Signature             HexBytes
	SignedAttrsRaw        HexBytes
}

// SODParseResult is the outcome of parsing a passport security object
// document (CMS SignedData wrapping an LDSSecurityObject). It is derived
// strictly from the SOD bytes, consumed once and not retained.
type SODParseResult struct {
	DataGroupHashes     []DataGroupHash
	HashAlgorithmOID    string
	Signer              SignerInfo
	EncapsulatedContent HexBytes
	// EmbeddedCertificate is the raw DER of the first certificate carried
	// in the SignedData, if any.
	EmbeddedCertificate HexBytes
}

// DataGroupHashFor returns the stored hash for the given data group number.
func (r *SODParseResult) DataGroupHashFor(number int) (HexBytes, bool) {
	for _, dg := range r.DataGroupHashes {
		if dg.Number == number {
			return dg.Hash, true
		}
	}
	return nil, false
}
