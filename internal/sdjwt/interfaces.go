package sdjwt

import "context"

// JWTHeader is the minimal JOSE header shape the core asks a signer to
// populate; collaborators are free to add fields such as kid or x5c.
type JWTHeader struct {
	Algorithm string `json:"alg"`
	Type      string `json:"typ,omitempty"`
	KeyID     string `json:"kid,omitempty"`
}

// JWTSigner is the pluggable JWS signing collaborator. The core never
// signs anything itself; embedders supply this to turn an issuer payload
// into a compact JWS.
type JWTSigner interface {
	Sign(ctx context.Context, header JWTHeader, payload JsonObject) (string, error)
}

// VerifiedJWT is the generic result a JWTVerifier hands back: the
// validated header and payload of a compact JWS whose signature has
// already been checked.
type VerifiedJWT struct {
	Header  JWTHeader
	Payload JsonObject
	Raw     string
}

// JWTVerifier is the pluggable JWS verification collaborator.
type JWTVerifier interface {
	Verify(ctx context.Context, raw string) (*VerifiedJWT, error)
}
