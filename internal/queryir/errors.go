package queryir

import (
	"errors"
	"fmt"
)

// Error is a request error detected while decoding, validating or compiling
// a query, or while reassembling its results.
//
// Kind separates "this request is wrong" from "this request will never work
// here" from "the connector broke its own contract", so callers can map
// errors onto protocol status codes without string matching.
type Error struct {
	// Kind identifies the error category.
	Kind ErrorKind

	// Message is a human-readable description.
	Message string

	// Path locates the offending node in the request (e.g. "query.where.expressions[1]").
	Path string
}

// ErrorKind categorizes request errors.
type ErrorKind string

const (
	// KindBadRequest indicates a malformed request: unknown tags, unknown
	// operators, unknown identifiers, negative pagination.
	KindBadRequest ErrorKind = "bad_request"

	// KindNotSupported indicates a well-formed request using a feature this
	// connector does not implement.
	KindNotSupported ErrorKind = "not_supported"

	// KindUnresolvedRelationship indicates a relationship name absent from
	// the request's collection_relationships.
	KindUnresolvedRelationship ErrorKind = "unresolved_relationship"

	// KindInternal indicates a compiler/storage contract breach detected
	// after execution.
	KindInternal ErrorKind = "internal"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (at %s)", e.Kind, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// At returns a copy of the error located at path.
func (e *Error) At(path string) *Error {
	cp := *e
	cp.Path = path
	return &cp
}

// BadRequest creates a KindBadRequest error.
func BadRequest(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

// NotSupported creates a KindNotSupported error.
func NotSupported(format string, args ...any) *Error {
	return &Error{Kind: KindNotSupported, Message: fmt.Sprintf(format, args...)}
}

// UnresolvedRelationship creates a KindUnresolvedRelationship error for name.
func UnresolvedRelationship(name string) *Error {
	return &Error{Kind: KindUnresolvedRelationship, Message: fmt.Sprintf("relationship %q is not defined", name)}
}

// Internal creates a KindInternal error.
func Internal(format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or "" when
// err is not a request error (e.g. a storage failure).
func KindOf(err error) ErrorKind {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return ""
}

// IsBadRequest reports whether err is a malformed-request error.
func IsBadRequest(err error) bool { return KindOf(err) == KindBadRequest }

// IsNotSupported reports whether err is an unsupported-feature error.
func IsNotSupported(err error) bool { return KindOf(err) == KindNotSupported }

// IsUnresolvedRelationship reports whether err names an unknown relationship.
func IsUnresolvedRelationship(err error) bool { return KindOf(err) == KindUnresolvedRelationship }

// IsInternal reports whether err is an internal contract violation.
func IsInternal(err error) bool { return KindOf(err) == KindInternal }
