package sod

import (
	"crypto"
	// Register the digest implementations the OID table maps to.
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
)

const (
	oidSignedData = "1.2.840.113549.1.7.2"

	oidSHA1   = "1.3.14.3.2.26"
	oidSHA256 = "2.16.840.1.101.3.4.2.1"
	oidSHA384 = "2.16.840.1.101.3.4.2.2"
	oidSHA512 = "2.16.840.1.101.3.4.2.3"

	oidRSAEncryption = "1.2.840.113549.1.1.1"
	oidSHA1WithRSA   = "1.2.840.113549.1.1.5"
	oidRSASSAPSS     = "1.2.840.113549.1.1.10"
	oidSHA256WithRSA = "1.2.840.113549.1.1.11"
	oidSHA384WithRSA = "1.2.840.113549.1.1.12"
	oidSHA512WithRSA = "1.2.840.113549.1.1.13"

	oidECDSAWithSHA1   = "1.2.840.10045.4.1"
	oidECDSAWithSHA256 = "1.2.840.10045.4.3.2"
	oidECDSAWithSHA384 = "1.2.840.10045.4.3.3"
	oidECDSAWithSHA512 = "1.2.840.10045.4.3.4"
)

// hashByOID maps digest algorithm OIDs to the crypto.Hash they name.
var hashByOID = map[string]crypto.Hash{
	oidSHA1:   crypto.SHA1,
	oidSHA256: crypto.SHA256,
	oidSHA384: crypto.SHA384,
	oidSHA512: crypto.SHA512,
}

// hashBySignatureOID maps combined signature algorithm OIDs to the digest
// they imply. Algorithms that do not pin a digest (rsaEncryption, RSASSA-PSS)
// are absent; for those the SignerInfo digest algorithm decides.
var hashBySignatureOID = map[string]crypto.Hash{
	oidSHA1WithRSA:     crypto.SHA1,
	oidSHA256WithRSA:   crypto.SHA256,
	oidSHA384WithRSA:   crypto.SHA384,
	oidSHA512WithRSA:   crypto.SHA512,
	oidECDSAWithSHA1:   crypto.SHA1,
	oidECDSAWithSHA256: crypto.SHA256,
	oidECDSAWithSHA384: crypto.SHA384,
	oidECDSAWithSHA512: crypto.SHA512,
}
