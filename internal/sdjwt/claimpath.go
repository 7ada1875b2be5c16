package sdjwt

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ClaimPathElement is one step of a ClaimPath: a named object attribute,
// an indexed array element, or a wildcard over every array element.
type ClaimPathElement interface {
	isClaimPathElement()
	String() string
}

// ClaimName selects an object attribute by key.
type ClaimName string

func (ClaimName) isClaimPathElement() {}
func (c ClaimName) String() string    { return string(c) }

// ArrayIndex selects a single array element by position.
type ArrayIndex uint32

func (ArrayIndex) isClaimPathElement() {}
func (i ArrayIndex) String() string    { return fmt.Sprintf("[%d]", uint32(i)) }

// AllArrayElements selects every element of an array (the wildcard).
type AllArrayElements struct{}

func (AllArrayElements) isClaimPathElement() {}
func (AllArrayElements) String() string      { return "[*]" }

// ClaimPath is a non-empty ordered sequence of ClaimPathElement values
// addressing a location inside nested JSON.
type ClaimPath []ClaimPathElement

// Parent drops the last element, returning ok=false for a single-element
// path (a root path has no parent).
func (p ClaimPath) Parent() (ClaimPath, bool) {
	if len(p) <= 1 {
		return nil, false
	}
	return p[:len(p)-1], true
}

// Head returns the first element of p.
func (p ClaimPath) Head() ClaimPathElement {
	return p[0]
}

// Tail returns every element after the first, possibly empty.
func (p ClaimPath) Tail() ClaimPath {
	return p[1:]
}

// Last returns the final element of p.
func (p ClaimPath) Last() ClaimPathElement {
	return p[len(p)-1]
}

// Contains reports whether p ⊇ other: same length, each position of p
// contains the corresponding position of other (AllArrayElements
// contains any ArrayIndex; every other pairing requires equality).
func (p ClaimPath) Contains(other ClaimPath) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if !elementContains(p[i], other[i]) {
			return false
		}
	}
	return true
}

func elementContains(a, b ClaimPathElement) bool {
	if _, ok := a.(AllArrayElements); ok {
		if _, ok := b.(ArrayIndex); ok {
			return true
		}
		if _, ok := b.(AllArrayElements); ok {
			return true
		}
		return false
	}
	switch av := a.(type) {
	case ClaimName:
		bv, ok := b.(ClaimName)
		return ok && av == bv
	case ArrayIndex:
		bv, ok := b.(ArrayIndex)
		return ok && av == bv
	default:
		return false
	}
}

// String renders the path for diagnostics, e.g. "address.[*].country".
func (p ClaimPath) String() string {
	parts := make([]string, len(p))
	for i, e := range p {
		parts[i] = e.String()
	}
	return strings.Join(parts, ".")
}

// Key returns a string safe to use as a map key for ClaimPath-indexed
// collections such as DisclosuresPerClaim, derived from its JSON form.
func (p ClaimPath) Key() string {
	b, _ := json.Marshal(p)
	return string(b)
}

// MarshalJSON serialises a ClaimPath as a JSON array whose elements are
// strings (ClaimName), integers (ArrayIndex), or null (AllArrayElements).
func (p ClaimPath) MarshalJSON() ([]byte, error) {
	raw := make([]any, len(p))
	for i, e := range p {
		switch v := e.(type) {
		case ClaimName:
			raw[i] = string(v)
		case ArrayIndex:
			raw[i] = uint32(v)
		case AllArrayElements:
			raw[i] = nil
		default:
			return nil, newError(ErrMalformedClaimPath, "ClaimPath.MarshalJSON")
		}
	}
	return json.Marshal(raw)
}

// UnmarshalJSON parses a ClaimPath from its JSON array form, failing with
// ErrMalformedClaimPath for any element that is not a string, a
// non-negative integer, or null.
func (p *ClaimPath) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return wrapError(ErrMalformedClaimPath, "ClaimPath.UnmarshalJSON", err)
	}
	out := make(ClaimPath, 0, len(raw))
	for _, v := range raw {
		switch tv := v.(type) {
		case string:
			out = append(out, ClaimName(tv))
		case nil:
			out = append(out, AllArrayElements{})
		case float64:
			if tv < 0 {
				return newError(ErrMalformedClaimPath, "ClaimPath.UnmarshalJSON")
			}
			out = append(out, ArrayIndex(uint32(tv)))
		default:
			return newError(ErrMalformedClaimPath, "ClaimPath.UnmarshalJSON")
		}
	}
	*p = out
	return nil
}

// EnsureObjectAttributes fails unless every path begins with a ClaimName
// element, the precondition for validating type-metadata definitions,
// whose top level is always an object.
func EnsureObjectAttributes(paths []ClaimPath) error {
	for _, p := range paths {
		if len(p) == 0 {
			return newError(ErrMalformedClaimPath, "EnsureObjectAttributes")
		}
		if _, ok := p.Head().(ClaimName); !ok {
			return newErrorPath(ErrMalformedClaimPath, "EnsureObjectAttributes", p.String())
		}
	}
	return nil
}

// Select traverses json following each element of path in turn.
//
//   - A Claim element expects the current node to be a JSON object; a
//     missing key yields (nil, false, nil); a non-object node fails with
//     PathTypeMismatch.
//   - An ArrayIndex element expects an array; an out-of-range index yields
//     (nil, false, nil); a non-array node fails with PathTypeMismatch.
//   - AllArrayElements at position i with a non-empty tail returns a JSON
//     array of the per-element selection results; with an empty tail it
//     returns the array itself.
func Select(json_ any, path ClaimPath) (any, bool, error) {
	if len(path) == 0 {
		return json_, true, nil
	}
	head, tail := path.Head(), path.Tail()

	switch h := head.(type) {
	case ClaimName:
		obj, ok := json_.(map[string]any)
		if !ok {
			return nil, false, newErrorPath(ErrPathTypeMismatch, "Select", path.String())
		}
		v, present := obj[string(h)]
		if !present {
			return nil, false, nil
		}
		return Select(v, tail)
	case ArrayIndex:
		arr, ok := json_.([]any)
		if !ok {
			return nil, false, newErrorPath(ErrPathTypeMismatch, "Select", path.String())
		}
		if int(h) >= len(arr) {
			return nil, false, nil
		}
		return Select(arr[h], tail)
	case AllArrayElements:
		arr, ok := json_.([]any)
		if !ok {
			return nil, false, newErrorPath(ErrPathTypeMismatch, "Select", path.String())
		}
		if len(tail) == 0 {
			return arr, true, nil
		}
		results := make([]any, 0, len(arr))
		for _, elem := range arr {
			v, present, err := Select(elem, tail)
			if err != nil {
				return nil, false, err
			}
			if present {
				results = append(results, v)
			}
		}
		return results, true, nil
	default:
		return nil, false, newError(ErrMalformedClaimPath, "Select")
	}
}
