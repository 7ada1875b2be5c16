package sdjwt

import (
	"errors"
	"fmt"
)

// ErrorKind identifies one of the flat, non-overlapping failure categories
// the core can raise. Validation violations are not errors of this kind;
// they are accumulated into a ValidationResult instead.
type ErrorKind string

const (
	ErrMalformedEncoding    ErrorKind = "malformed_encoding"
	ErrMalformedDisclosure  ErrorKind = "malformed_disclosure"
	ErrReservedClaimName    ErrorKind = "reserved_claim_name"
	ErrUnsupportedAlgorithm ErrorKind = "unsupported_algorithm"
	ErrNonUniqueDigests     ErrorKind = "non_unique_digests"
	ErrDuplicateDisclosures ErrorKind = "duplicate_disclosures"
	ErrDuplicateClaim       ErrorKind = "duplicate_claim"
	ErrUnusedDisclosure     ErrorKind = "unused_disclosure"
	ErrPathTypeMismatch     ErrorKind = "path_type_mismatch"
	ErrMalformedSdJwt       ErrorKind = "malformed_sd_jwt"
	ErrMalformedClaimPath   ErrorKind = "malformed_claim_path"
)

// Error is the core package's single error type: a flat kind, the
// operation that raised it, an optional claim path for context, and an
// optional wrapped cause.
type Error struct {
	Kind ErrorKind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		if e.Err != nil {
			return fmt.Sprintf("sdjwt: %s: %s (path=%s): %v", e.Op, e.Kind, e.Path, e.Err)
		}
		return fmt.Sprintf("sdjwt: %s: %s (path=%s)", e.Op, e.Kind, e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("sdjwt: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("sdjwt: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// newError builds an Error with no wrapped cause.
func newError(kind ErrorKind, op string) *Error {
	return &Error{Kind: kind, Op: op}
}

// newErrorPath builds an Error carrying a claim-path for context.
func newErrorPath(kind ErrorKind, op, path string) *Error {
	return &Error{Kind: kind, Op: op, Path: path}
}

// wrapError builds an Error wrapping a lower-level cause.
func wrapError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the ErrorKind of err if it is (or wraps) an *Error.
func KindOf(err error) (ErrorKind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}
