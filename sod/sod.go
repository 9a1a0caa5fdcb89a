// Package sod implements passive authentication of a biometric passport
// security object document (SOD): parsing the CMS SignedData that wraps the
// LDSSecurityObject hash manifest, recomputing the DG1 digest against it,
// and verifying the document signer signature with an issuing-authority
// certificate.
package sod

import (
	"errors"
	"fmt"

	"github.com/freedomtool/passport-voting/types"
)

// ErrMalformedDocument is returned (wrapped with detail) whenever the SOD
// bytes violate the expected ASN.1 structure. Structural violations never
// escape this package as panics.
var ErrMalformedDocument = errors.New("malformed security object document")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedDocument, fmt.Sprintf(format, args...))
}

// ParseSOD parses a passport security object. The input may optionally be
// wrapped in the single-byte ICAO envelope tag (0x77), which is stripped
// before CMS parsing.
func ParseSOD(sodBytes []byte) (*types.SODParseResult, error) {
	data := sodBytes
	if len(data) > 0 && data[0] == tagICAOEnvelope {
		env, _, err := readElement(data)
		if err != nil {
			return nil, malformed("invalid ICAO envelope: %v", err)
		}
		data = env.value
	}

	contentInfo, _, err := readElement(data)
	if err != nil {
		return nil, malformed("invalid ContentInfo: %v", err)
	}
	if contentInfo.tag != tagSequence {
		return nil, malformed("ContentInfo is not a SEQUENCE (tag 0x%02x)", contentInfo.tag)
	}
	ciChildren, err := children(contentInfo.value)
	if err != nil {
		return nil, malformed("invalid ContentInfo content: %v", err)
	}
	if len(ciChildren) != 2 || ciChildren[0].tag != tagOID || ciChildren[1].tag != tagContext0 {
		return nil, malformed("unexpected ContentInfo shape")
	}
	contentType, err := oidString(ciChildren[0].value)
	if err != nil {
		return nil, malformed("invalid content type OID: %v", err)
	}
	if contentType != oidSignedData {
		return nil, malformed("content type %s is not id-signedData", contentType)
	}

	signedData, _, err := readElement(ciChildren[1].value)
	if err != nil || signedData.tag != tagSequence {
		return nil, malformed("invalid SignedData")
	}
	sdChildren, err := children(signedData.value)
	if err != nil {
		return nil, malformed("invalid SignedData content: %v", err)
	}
	if len(sdChildren) < 4 ||
		sdChildren[0].tag != tagInteger ||
		sdChildren[1].tag != tagSet ||
		sdChildren[2].tag != tagSequence {
		return nil, malformed("unexpected SignedData shape")
	}

	result := &types.SODParseResult{}
	if err := parseEncapContent(sdChildren[2], result); err != nil {
		return nil, err
	}

	// Optional certificates [0], optional CRLs [1], then signerInfos SET.
	var signerInfos *element
	for i := 3; i < len(sdChildren); i++ {
		el := sdChildren[i]
		switch el.tag {
		case tagContext0:
			certs, err := children(el.value)
			if err != nil {
				return nil, malformed("invalid certificate set: %v", err)
			}
			if len(certs) > 0 {
				result.EmbeddedCertificate = certs[0].raw
			}
		case tagContext1:
			// CRLs are not used by passive authentication.
		case tagSet:
			signerInfos = &sdChildren[i]
		default:
			return nil, malformed("unexpected SignedData element (tag 0x%02x)", el.tag)
		}
	}
	if signerInfos == nil {
		return nil, malformed("missing signerInfos")
	}
	if err := parseSignerInfo(*signerInfos, result); err != nil {
		return nil, err
	}
	return result, nil
}

// parseEncapContent extracts the LDSSecurityObject from the encapsulated
// content and fills the hash manifest fields of the result.
func parseEncapContent(encap element, result *types.SODParseResult) error {
	eChildren, err := children(encap.value)
	if err != nil {
		return malformed("invalid encapContentInfo: %v", err)
	}
	if len(eChildren) != 2 || eChildren[0].tag != tagOID || eChildren[1].tag != tagContext0 {
		return malformed("unexpected encapContentInfo shape")
	}
	octets, _, err := readElement(eChildren[1].value)
	if err != nil || octets.tag != tagOctetString {
		return malformed("encapsulated content is not an OCTET STRING")
	}
	result.EncapsulatedContent = octets.value

	lds, _, err := readElement(octets.value)
	if err != nil || lds.tag != tagSequence {
		return malformed("invalid LDSSecurityObject")
	}
	ldsChildren, err := children(lds.value)
	if err != nil {
		return malformed("invalid LDSSecurityObject content: %v", err)
	}
	if len(ldsChildren) < 3 ||
		ldsChildren[0].tag != tagInteger ||
		ldsChildren[1].tag != tagSequence ||
		ldsChildren[2].tag != tagSequence {
		return malformed("unexpected LDSSecurityObject shape")
	}
	algChildren, err := children(ldsChildren[1].value)
	if err != nil || len(algChildren) == 0 || algChildren[0].tag != tagOID {
		return malformed("invalid hash AlgorithmIdentifier")
	}
	result.HashAlgorithmOID, err = oidString(algChildren[0].value)
	if err != nil {
		return malformed("invalid hash algorithm OID: %v", err)
	}

	entries, err := children(ldsChildren[2].value)
	if err != nil {
		return malformed("invalid dataGroupHashValues: %v", err)
	}
	for _, entry := range entries {
		if entry.tag != tagSequence {
			return malformed("data group entry is not a SEQUENCE")
		}
		fields, err := children(entry.value)
		if err != nil || len(fields) != 2 ||
			fields[0].tag != tagInteger || fields[1].tag != tagOctetString {
			return malformed("unexpected data group entry shape")
		}
		number, err := derInt(fields[0].value)
		if err != nil {
			return malformed("invalid data group number: %v", err)
		}
		result.DataGroupHashes = append(result.DataGroupHashes, types.DataGroupHash{
			Number: number,
			Hash:   fields[1].value,
		})
	}
	return nil
}

// parseSignerInfo fills the signer fields of the result from the first
// SignerInfo of the set.
func parseSignerInfo(signerInfos element, result *types.SODParseResult) error {
	infos, err := children(signerInfos.value)
	if err != nil || len(infos) == 0 || infos[0].tag != tagSequence {
		return malformed("invalid signerInfos")
	}
	fields, err := children(infos[0].value)
	if err != nil {
		return malformed("invalid SignerInfo content: %v", err)
	}
	// version, sid, digestAlgorithm, [signedAttrs], signatureAlgorithm, signature
	if len(fields) < 5 || fields[0].tag != tagInteger {
		return malformed("unexpected SignerInfo shape")
	}
	if fields[2].tag != tagSequence {
		return malformed("invalid digest AlgorithmIdentifier")
	}
	digestAlg, err := children(fields[2].value)
	if err != nil || len(digestAlg) == 0 || digestAlg[0].tag != tagOID {
		return malformed("invalid digest algorithm")
	}
	result.Signer.DigestAlgorithmOID, err = oidString(digestAlg[0].value)
	if err != nil {
		return malformed("invalid digest algorithm OID: %v", err)
	}

	i := 3
	if i < len(fields) && fields[i].tag == tagContext0 {
		result.Signer.SignedAttrsRaw = fields[i].raw
		i++
	}
	if i+1 >= len(fields) || fields[i].tag != tagSequence || fields[i+1].tag != tagOctetString {
		return malformed("unexpected SignerInfo tail")
	}
	sigAlg, err := children(fields[i].value)
	if err != nil || len(sigAlg) == 0 || sigAlg[0].tag != tagOID {
		return malformed("invalid signature algorithm")
	}
	result.Signer.SignatureAlgorithmOID, err = oidString(sigAlg[0].value)
	if err != nil {
		return malformed("invalid signature algorithm OID: %v", err)
	}
	result.Signer.Signature = fields[i+1].value
	return nil
}
