package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/modelq/internal/queryir"
)

// QueryError represents a failure detected while running a query.
//
// Query errors include:
//   - Type not found: Requested type is not declared in the schema
//   - Attribute not found: Condition names an attribute the type lacks
//   - Unsupported comparator: Comparator outside the fixed set
//   - Unsupported composition: Operator other than "and"/"or"
//   - Invalid query: Malformed condition shape or kind mismatch
//
// All query errors are fatal. A query either returns its full result or
// fails with a QueryError; there are no partial results.
type QueryError struct {
	// Code identifies the error category.
	Code QueryErrorCode

	// Message is a human-readable description.
	Message string

	// TypeName is the queried type.
	TypeName string

	// Attribute is the offending attribute (for attribute and comparator errors).
	Attribute string

	// Details contains additional context.
	Details map[string]string
}

// QueryErrorCode categorizes query errors.
type QueryErrorCode string

const (
	// ErrCodeTypeNotFound indicates the requested type is absent from the schema.
	ErrCodeTypeNotFound QueryErrorCode = "TYPE_NOT_FOUND"

	// ErrCodeAttributeNotFound indicates the condition attribute is absent from the type.
	ErrCodeAttributeNotFound QueryErrorCode = "ATTRIBUTE_NOT_FOUND"

	// ErrCodeUnsupportedComparator indicates a comparator outside the supported set.
	ErrCodeUnsupportedComparator QueryErrorCode = "UNSUPPORTED_COMPARATOR"

	// ErrCodeUnsupportedComposition indicates an operator other than and/or.
	ErrCodeUnsupportedComposition QueryErrorCode = "UNSUPPORTED_COMPOSITION"

	// ErrCodeInvalidQuery indicates a malformed condition.
	ErrCodeInvalidQuery QueryErrorCode = "INVALID_QUERY"

	// ErrCodeMissingComposition marks the warning logged when two conditions
	// are given without an operator. It is never returned as an error.
	ErrCodeMissingComposition QueryErrorCode = "MISSING_COMPOSITION"
)

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.TypeName != "" && e.Attribute != "" {
		return fmt.Sprintf("%s: %s (type=%s, attribute=%s)", e.Code, e.Message, e.TypeName, e.Attribute)
	}
	if e.TypeName != "" {
		return fmt.Sprintf("%s: %s (type=%s)", e.Code, e.Message, e.TypeName)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode returns the QueryErrorCode carried by err, or "" if err is not
// a query error. A queryir.DecodeError reports ErrCodeInvalidQuery.
func ErrorCode(err error) QueryErrorCode {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code
	}
	if queryir.IsDecodeError(err) {
		return ErrCodeInvalidQuery
	}
	return ""
}

// IsTypeNotFound returns true if the error is a type-not-found error.
// Uses errors.As to handle wrapped errors.
func IsTypeNotFound(err error) bool {
	return ErrorCode(err) == ErrCodeTypeNotFound
}

// IsAttributeNotFound returns true if the error is an attribute-not-found error.
func IsAttributeNotFound(err error) bool {
	return ErrorCode(err) == ErrCodeAttributeNotFound
}

// IsUnsupportedComparator returns true if the error is an unsupported-comparator error.
func IsUnsupportedComparator(err error) bool {
	return ErrorCode(err) == ErrCodeUnsupportedComparator
}

// IsUnsupportedComposition returns true if the error is an unsupported-composition error.
func IsUnsupportedComposition(err error) bool {
	return ErrorCode(err) == ErrCodeUnsupportedComposition
}

// IsInvalidQuery returns true for InvalidQuery-class failures: malformed
// query descriptions (queryir.DecodeError), kind mismatches and unknown
// attributes.
func IsInvalidQuery(err error) bool {
	switch ErrorCode(err) {
	case ErrCodeInvalidQuery, ErrCodeAttributeNotFound:
		return true
	default:
		return false
	}
}

// NewTypeNotFoundError creates a QueryError for an unknown type.
func NewTypeNotFoundError(typeName string) *QueryError {
	return &QueryError{
		Code:     ErrCodeTypeNotFound,
		Message:  fmt.Sprintf("cannot find the type %q in the metamodel", typeName),
		TypeName: typeName,
	}
}

// NewAttributeNotFoundError creates a QueryError for an attribute the type lacks.
func NewAttributeNotFoundError(typeName, attribute string) *QueryError {
	return &QueryError{
		Code:      ErrCodeAttributeNotFound,
		Message:   fmt.Sprintf("type %q has no attribute %q", typeName, attribute),
		TypeName:  typeName,
		Attribute: attribute,
	}
}

// NewUnsupportedComparatorError creates a QueryError for an unknown comparator.
func NewUnsupportedComparatorError(typeName, attribute, comparator string, supported []string) *QueryError {
	return &QueryError{
		Code:      ErrCodeUnsupportedComparator,
		Message:   fmt.Sprintf("unsupported comparator %q", comparator),
		TypeName:  typeName,
		Attribute: attribute,
		Details: map[string]string{
			"comparator": comparator,
			"supported":  fmt.Sprintf("%q", supported),
		},
	}
}

// NewUnsupportedCompositionError creates a QueryError for an unknown operator.
func NewUnsupportedCompositionError(op queryir.Composition) *QueryError {
	return &QueryError{
		Code:    ErrCodeUnsupportedComposition,
		Message: fmt.Sprintf("unsupported condition composition %q, expecting %q or %q", op, queryir.And, queryir.Or),
		Details: map[string]string{
			"composition": string(op),
		},
	}
}

// NewKindMismatchError creates an InvalidQuery error for a condition whose
// kind does not match the attribute's declared kind.
func NewKindMismatchError(typeName, attribute string, want, got string) *QueryError {
	return &QueryError{
		Code:      ErrCodeInvalidQuery,
		Message:   fmt.Sprintf("%s condition on %s attribute", want, got),
		TypeName:  typeName,
		Attribute: attribute,
		Details: map[string]string{
			"condition_kind": want,
			"attribute_kind": got,
		},
	}
}
