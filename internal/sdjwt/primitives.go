package sdjwt

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// HashAlg identifies a hash function by its IANA-registered lowercase
// alias. A single alias governs an entire SD-JWT; mixing is forbidden.
type HashAlg string

const (
	SHA256 HashAlg = "sha-256"
	SHA384 HashAlg = "sha-384"
	SHA512 HashAlg = "sha-512"

	// DefaultHashAlg is used whenever _sd_alg is absent from a payload.
	DefaultHashAlg HashAlg = SHA256
)

// reservedClaimNames must never be used as a disclosed object property
// name; they are the structural markers the factory itself writes.
var reservedClaimNames = map[string]bool{
	"_sd":     true,
	"_sd_alg": true,
	"...":     true,
}

// Hash computes the digest of data under alg, failing with
// ErrUnsupportedAlgorithm for any alias this package does not recognise.
func Hash(alg HashAlg, data []byte) ([]byte, error) {
	switch alg {
	case SHA256:
		sum := sha256.Sum256(data)
		return sum[:], nil
	case SHA384:
		sum := sha512.Sum384(data)
		return sum[:], nil
	case SHA512:
		sum := sha512.Sum512(data)
		return sum[:], nil
	default:
		return nil, newErrorPath(ErrUnsupportedAlgorithm, "Hash", string(alg))
	}
}

// EncodeB64 encodes b as unpadded base64url, the encoding used throughout
// SD-JWT for disclosures, digests and salts.
func EncodeB64(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeB64 decodes an unpadded base64url string, failing with
// ErrMalformedEncoding on invalid input.
func DecodeB64(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, wrapError(ErrMalformedEncoding, "DecodeB64", err)
	}
	return b, nil
}

// Salt is an opaque, uniformly-random, base64url-encoded byte string with
// at least 128 bits of entropy, embedded inside a Disclosure.
type Salt string

// SaltProvider produces fresh salts. Implementations must be safe for
// concurrent use and must not repeat values with non-negligible
// probability.
type SaltProvider interface {
	Next() (Salt, error)
}

// CryptoSaltProvider is the production SaltProvider, backed by
// crypto/rand. The zero value is ready to use.
type CryptoSaltProvider struct{}

// Next returns a fresh 128-bit random salt, base64url encoded.
func (CryptoSaltProvider) Next() (Salt, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", wrapError(ErrMalformedEncoding, "CryptoSaltProvider.Next", err)
	}
	return Salt(EncodeB64(buf)), nil
}

// DeterministicSaltProvider replays a fixed sequence of salts, for
// reproducible golden-vector tests. It is never used in production.
type DeterministicSaltProvider struct {
	Salts []Salt
	idx   int
}

// Next returns the next salt in the configured sequence, cycling once
// exhausted so long-running tests never panic on exhaustion.
func (p *DeterministicSaltProvider) Next() (Salt, error) {
	if len(p.Salts) == 0 {
		return "", newError(ErrMalformedEncoding, "DeterministicSaltProvider.Next")
	}
	s := p.Salts[p.idx%len(p.Salts)]
	p.idx++
	return s, nil
}

// DecoyGenerator manufactures digests indistinguishable from real ones,
// used to pad an object node's _sd array up to its minimum_digests floor.
type DecoyGenerator interface {
	Gen(alg HashAlg, n int) ([]string, error)
}

// CryptoDecoyGenerator is the production DecoyGenerator: each decoy is the
// digest of fresh random bytes under alg.
type CryptoDecoyGenerator struct{}

// Gen returns n decoy digests.
func (CryptoDecoyGenerator) Gen(alg HashAlg, n int) ([]string, error) {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, wrapError(ErrMalformedEncoding, "CryptoDecoyGenerator.Gen", err)
		}
		digest, err := Hash(alg, buf)
		if err != nil {
			return nil, err
		}
		out = append(out, EncodeB64(digest))
	}
	return out, nil
}

// Disclosure is a single salted, base64url-encoded JSON array: either an
// ObjectProperty ([salt, name, value]) or an ArrayElement ([salt, value]).
type Disclosure struct {
	Salt Salt
	// Name is nil for an ArrayElement disclosure, non-nil for an
	// ObjectProperty disclosure.
	Name    *string
	Value   any
	encoded string
}

// NewObjectProperty builds and encodes an ObjectProperty disclosure,
// failing with ErrReservedClaimName if name is _sd, _sd_alg, or ....
func NewObjectProperty(salt Salt, name string, value any) (*Disclosure, error) {
	if reservedClaimNames[name] {
		return nil, newErrorPath(ErrReservedClaimName, "NewObjectProperty", name)
	}
	d := &Disclosure{Salt: salt, Name: &name, Value: value}
	if err := d.encode(); err != nil {
		return nil, err
	}
	return d, nil
}

// NewArrayElement builds and encodes an ArrayElement disclosure. It
// always succeeds for any JSON-marshalable value.
func NewArrayElement(salt Salt, value any) (*Disclosure, error) {
	d := &Disclosure{Salt: salt, Value: value}
	if err := d.encode(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Disclosure) encode() error {
	var arr []any
	if d.Name != nil {
		arr = []any{string(d.Salt), *d.Name, d.Value}
	} else {
		arr = []any{string(d.Salt), d.Value}
	}
	b, err := json.Marshal(arr)
	if err != nil {
		return wrapError(ErrMalformedDisclosure, "Disclosure.encode", err)
	}
	d.encoded = EncodeB64(b)
	return nil
}

// Encoded returns the disclosure's base64url-encoded wire representation.
func (d *Disclosure) Encoded() string {
	return d.encoded
}

// IsObjectProperty reports whether this disclosure carries a claim name.
func (d *Disclosure) IsObjectProperty() bool { return d.Name != nil }

// Equal reports whether two disclosures have identical encoded strings,
// the equality relation the spec defines for Disclosure values.
func (d *Disclosure) Equal(other *Disclosure) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.encoded == other.encoded
}

// DecodeDisclosure decodes a base64url-encoded disclosure string, failing
// with ErrMalformedDisclosure if it is not base64url, not a JSON array, or
// of the wrong arity or element types.
func DecodeDisclosure(s string) (*Disclosure, error) {
	raw, err := DecodeB64(s)
	if err != nil {
		return nil, wrapError(ErrMalformedDisclosure, "DecodeDisclosure", err)
	}

	var arr []any
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil, wrapError(ErrMalformedDisclosure, "DecodeDisclosure", err)
	}

	switch len(arr) {
	case 2:
		salt, ok := arr[0].(string)
		if !ok {
			return nil, newError(ErrMalformedDisclosure, "DecodeDisclosure")
		}
		d := &Disclosure{Salt: Salt(salt), Value: arr[1], encoded: s}
		return d, nil
	case 3:
		salt, ok := arr[0].(string)
		if !ok {
			return nil, newError(ErrMalformedDisclosure, "DecodeDisclosure")
		}
		name, ok := arr[1].(string)
		if !ok {
			return nil, newError(ErrMalformedDisclosure, "DecodeDisclosure")
		}
		if reservedClaimNames[name] {
			return nil, newErrorPath(ErrReservedClaimName, "DecodeDisclosure", name)
		}
		d := &Disclosure{Salt: Salt(salt), Name: &name, Value: arr[2], encoded: s}
		return d, nil
	default:
		return nil, newError(ErrMalformedDisclosure, fmt.Sprintf("DecodeDisclosure: arity %d", len(arr)))
	}
}

// Digest computes the digest of a disclosure's encoded form under alg.
func Digest(d *Disclosure, alg HashAlg) (string, error) {
	sum, err := Hash(alg, []byte(d.encoded))
	if err != nil {
		return "", err
	}
	return EncodeB64(sum), nil
}
