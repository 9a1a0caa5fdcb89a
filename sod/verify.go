package sod

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/subtle"
	"crypto/x509"
	"encoding/pem"

	"github.com/freedomtool/passport-voting/types"
)

// dg1Number is the data group carrying the machine readable zone.
const dg1Number = 1

// VerifyDG1Hash recomputes the digest of dg1Bytes with the algorithm named
// by the security object and compares it against the stored hash for data
// group 1. It fails closed: any parse error or a missing DG1 entry yields
// false together with a wrapped ErrMalformedDocument.
func VerifyDG1Hash(sodBytes, dg1Bytes []byte) (bool, error) {
	result, err := ParseSOD(sodBytes)
	if err != nil {
		return false, err
	}
	hash, ok := hashByOID[result.HashAlgorithmOID]
	if !ok {
		return false, malformed("unsupported hash algorithm %s", result.HashAlgorithmOID)
	}
	stored, ok := result.DataGroupHashFor(dg1Number)
	if !ok {
		return false, malformed("no DG1 entry in the hash manifest")
	}
	h := hash.New()
	h.Write(dg1Bytes)
	return subtle.ConstantTimeCompare(h.Sum(nil), stored) == 1, nil
}

// VerifySODSignature verifies the document signer signature of the security
// object against the given certificate (PEM or raw DER). If certData is
// empty, the certificate embedded in the SOD is used. A wrong signature
// returns (false, nil); a structural anomaly returns false with a wrapped
// ErrMalformedDocument.
func VerifySODSignature(sodBytes, certData []byte) (bool, error) {
	result, err := ParseSOD(sodBytes)
	if err != nil {
		return false, err
	}
	cert, err := parseCertificate(certData, result)
	if err != nil {
		return false, err
	}
	signed, err := signedBytes(result)
	if err != nil {
		return false, err
	}

	digestHash, ok := hashBySignatureOID[result.Signer.SignatureAlgorithmOID]
	if !ok {
		// The signature algorithm does not pin a digest; the SignerInfo
		// digest algorithm decides.
		digestHash, ok = hashByOID[result.Signer.DigestAlgorithmOID]
		if !ok {
			return false, malformed("unsupported digest algorithm %s", result.Signer.DigestAlgorithmOID)
		}
	}
	h := digestHash.New()
	h.Write(signed)
	digest := h.Sum(nil)

	signature := []byte(result.Signer.Signature)
	switch pub := cert.PublicKey.(type) {
	case *rsa.PublicKey:
		if result.Signer.SignatureAlgorithmOID == oidRSASSAPSS {
			opts := &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto, Hash: digestHash}
			return rsa.VerifyPSS(pub, digestHash, digest, signature, opts) == nil, nil
		}
		return rsa.VerifyPKCS1v15(pub, digestHash, digest, signature) == nil, nil
	case *ecdsa.PublicKey:
		return ecdsa.VerifyASN1(pub, digest, signature), nil
	default:
		return false, malformed("unsupported public key type %T", cert.PublicKey)
	}
}

// signedBytes determines what the document signer actually signed. With
// signed attributes present, CMS defines the signature domain as the DER of
// the attribute set with its context tag rewritten from IMPLICIT [0] to the
// universal SET tag; otherwise it is the raw encapsulated content.
func signedBytes(result *types.SODParseResult) ([]byte, error) {
	attrs := result.Signer.SignedAttrsRaw
	if len(attrs) == 0 {
		return result.EncapsulatedContent, nil
	}
	if attrs[0] != tagContext0 {
		return nil, malformed("signed attributes tag is 0x%02x, expected 0xa0", attrs[0])
	}
	signed := make([]byte, len(attrs))
	copy(signed, attrs)
	signed[0] = tagSet
	return signed, nil
}

func parseCertificate(certData []byte, result *types.SODParseResult) (*x509.Certificate, error) {
	der := certData
	if block, _ := pem.Decode(certData); block != nil {
		der = block.Bytes
	}
	if len(der) == 0 {
		if len(result.EmbeddedCertificate) == 0 {
			return nil, malformed("no certificate provided and none embedded")
		}
		der = result.EmbeddedCertificate
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, malformed("cannot parse certificate: %v", err)
	}
	return cert, nil
}
