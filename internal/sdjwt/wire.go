package sdjwt

import "strings"

// CompactSDJWT is the parsed form of the compact serialization
// `JWT '~' D1 '~' ... '~' Dn ['~' KB]` (spec §6.1).
type CompactSDJWT struct {
	JWT             string
	Disclosures     []string
	KeyBindingJWT   string
	hasKeyBinding   bool
}

// ParseCompact splits a compact SD-JWT string into its JWT, disclosure
// and optional key-binding-JWT parts. A string with no '~' at all fails
// with MalformedSdJwt.
func ParseCompact(s string) (*CompactSDJWT, error) {
	if !strings.Contains(s, "~") {
		return nil, newError(ErrMalformedSdJwt, "ParseCompact")
	}

	parts := strings.Split(s, "~")
	jwt := parts[0]
	rest := parts[1:]

	// If s does not end with '~', the final chunk is a key-binding JWT;
	// otherwise the trailing empty chunk produced by Split is dropped and
	// there is no key binding.
	result := &CompactSDJWT{JWT: jwt}
	if strings.HasSuffix(s, "~") {
		// Last element of rest is the empty string from the trailing
		// separator; every other element is a disclosure.
		if len(rest) > 0 {
			result.Disclosures = rest[:len(rest)-1]
		}
		return result, nil
	}

	if len(rest) == 0 {
		return result, nil
	}
	result.Disclosures = rest[:len(rest)-1]
	result.KeyBindingJWT = rest[len(rest)-1]
	result.hasKeyBinding = true
	return result, nil
}

// HasKeyBinding reports whether the parsed string carried a trailing
// key-binding JWT.
func (c *CompactSDJWT) HasKeyBinding() bool { return c.hasKeyBinding }

// String renders c back into compact serialization form.
func (c *CompactSDJWT) String() string {
	var b strings.Builder
	b.WriteString(c.JWT)
	for _, d := range c.Disclosures {
		b.WriteString("~")
		b.WriteString(d)
	}
	b.WriteString("~")
	if c.hasKeyBinding {
		b.WriteString(c.KeyBindingJWT)
	}
	return b.String()
}

// FormatCompact assembles a compact SD-JWT string from a signed JWT,
// encoded disclosure strings, and an optional key-binding JWT (empty
// string means no key binding).
func FormatCompact(jwt string, disclosures []string, keyBindingJWT string) string {
	c := &CompactSDJWT{
		JWT:           jwt,
		Disclosures:   disclosures,
		KeyBindingJWT: keyBindingJWT,
		hasKeyBinding: keyBindingJWT != "",
	}
	return c.String()
}

// EncodedDisclosures returns the encoded strings of ds in order, the form
// used by both wire formats.
func EncodedDisclosures(ds []*Disclosure) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Encoded()
	}
	return out
}

// DecodeDisclosures decodes each string in ss, failing on the first
// malformed entry.
func DecodeDisclosures(ss []string) ([]*Disclosure, error) {
	out := make([]*Disclosure, len(ss))
	for i, s := range ss {
		d, err := DecodeDisclosure(s)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}
