package sdjwt

// JsonObject is a JSON object decoded/encoded via encoding/json's default
// any-mapping: map[string]any for objects, []any for arrays.
type JsonObject = map[string]any

// UnsignedSDJWT is the output of issuance before external signing: the
// issuer payload (still containing _sd/_sd_alg structural claims) paired
// with the disclosure list a holder will selectively present from.
type UnsignedSDJWT struct {
	Payload     JsonObject
	Disclosures []*Disclosure
}

// DisclosuresPerClaim maps a ClaimPath's Key() to the ordered set of
// disclosures that were consumed to reveal it and everything above it —
// the authoritative input to the definition validator (C5).
type DisclosuresPerClaim map[string][]*Disclosure
