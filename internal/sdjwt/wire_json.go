package sdjwt

import "encoding/json"

// JWSJSONUnprotectedHeader carries the SD-JWT-specific extensions to an
// RFC 7515 JWS JSON serialization's unprotected header (spec §6.2).
type JWSJSONUnprotectedHeader struct {
	Disclosures []string `json:"disclosures"`
	KeyBindingJWT string `json:"kb_jwt,omitempty"`
}

// FlattenedJWSJSON is the RFC 7515 flattened JSON serialization, extended
// with the unprotected disclosures/kb_jwt header.
type FlattenedJWSJSON struct {
	Payload   string                   `json:"payload"`
	Protected string                   `json:"protected"`
	Header    JWSJSONUnprotectedHeader `json:"header"`
	Signature string                   `json:"signature"`
}

// GeneralJWSJSONSignature is one entry of a general-form JWS JSON
// serialization's signatures array.
type GeneralJWSJSONSignature struct {
	Protected string                   `json:"protected"`
	Header    JWSJSONUnprotectedHeader `json:"header"`
	Signature string                   `json:"signature"`
}

// GeneralJWSJSON is the RFC 7515 general JSON serialization, extended
// with the unprotected disclosures/kb_jwt header on each signature entry.
type GeneralJWSJSON struct {
	Payload    string                    `json:"payload"`
	Signatures []GeneralJWSJSONSignature `json:"signatures"`
}

// MarshalFlattened builds a flattened JWS JSON serialization from an
// already-produced compact JWS (protected.payload.signature) plus the
// disclosure list and optional key-binding JWT.
func MarshalFlattened(protected, payload, signature string, disclosures []*Disclosure, kbJWT string) ([]byte, error) {
	doc := FlattenedJWSJSON{
		Payload:   payload,
		Protected: protected,
		Header:    JWSJSONUnprotectedHeader{Disclosures: EncodedDisclosures(disclosures), KeyBindingJWT: kbJWT},
		Signature: signature,
	}
	return json.Marshal(doc)
}

// ParseFlattened parses a flattened JWS JSON serialization and decodes
// its disclosures.
func ParseFlattened(data []byte) (*FlattenedJWSJSON, []*Disclosure, error) {
	var doc FlattenedJWSJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, wrapError(ErrMalformedSdJwt, "ParseFlattened", err)
	}
	ds, err := DecodeDisclosures(doc.Header.Disclosures)
	if err != nil {
		return nil, nil, err
	}
	return &doc, ds, nil
}

// ParseGeneral parses a general-form JWS JSON serialization and decodes
// the disclosures of its first signature entry (SD-JWT issuance always
// carries exactly one issuer signature).
func ParseGeneral(data []byte) (*GeneralJWSJSON, []*Disclosure, error) {
	var doc GeneralJWSJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, wrapError(ErrMalformedSdJwt, "ParseGeneral", err)
	}
	if len(doc.Signatures) == 0 {
		return nil, nil, newError(ErrMalformedSdJwt, "ParseGeneral: no signatures")
	}
	ds, err := DecodeDisclosures(doc.Signatures[0].Header.Disclosures)
	if err != nil {
		return nil, nil, err
	}
	return &doc, ds, nil
}
