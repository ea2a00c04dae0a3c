package engine

import (
	"strings"

	"github.com/roach88/modelq/internal/ir"
	"github.com/roach88/modelq/internal/queryir"
)

// Verdict is the outcome of evaluating a Predicate on one node.
type Verdict int

const (
	// Reject means the node's value was read and failed the test.
	Reject Verdict = iota

	// Accept means the node's value was read and passed the test.
	Accept

	// Skip means the value could not be compared: it is null or holds a
	// value of another kind. A skipped node does not match.
	Skip
)

// Matched reports whether the node passes.
func (v Verdict) Matched() bool {
	return v == Accept
}

// String returns a lowercase name for logs.
func (v Verdict) String() string {
	switch v {
	case Accept:
		return "accept"
	case Skip:
		return "skip"
	default:
		return "reject"
	}
}

// Predicate tests a single node. A nil Predicate means "no filter".
type Predicate func(n *ir.Node) Verdict

// BuildPredicate turns a condition into a Predicate over nodes of typeName.
//
// A nil condition yields a nil Predicate (no filter, not "reject all").
// Construction validates everything that can be validated up front:
//   - typeName must resolve (TYPE_NOT_FOUND)
//   - the attribute must exist on the type or a supertype (ATTRIBUTE_NOT_FOUND)
//   - the condition kind must match the attribute kind (INVALID_QUERY)
//   - the comparator must be supported (UNSUPPORTED_COMPARATOR)
//
// Evaluation is pure and reads only the node's attribute map.
func BuildPredicate(cond queryir.Condition, schema *ir.Schema, typeName string) (Predicate, error) {
	if cond == nil {
		return nil, nil
	}

	t, ok := ResolveType(schema, typeName)
	if !ok {
		return nil, NewTypeNotFoundError(typeName)
	}

	attrName := cond.AttributeName()
	attr, ok := attributeOf(t, attrName)
	if !ok {
		return nil, NewAttributeNotFoundError(typeName, attrName)
	}

	if attr.Kind != cond.AttributeKind() {
		return nil, NewKindMismatchError(typeName, attrName, string(cond.AttributeKind()), string(attr.Kind))
	}

	switch c := cond.(type) {
	case queryir.StringCondition:
		return buildStringPredicate(c, typeName)
	case queryir.NumericCondition:
		return buildNumericPredicate(c, typeName)
	default:
		return nil, &QueryError{
			Code:     ErrCodeInvalidQuery,
			Message:  "unsupported condition type",
			TypeName: typeName,
		}
	}
}

func buildStringPredicate(c queryir.StringCondition, typeName string) (Predicate, error) {
	var test func(value, literal string) bool
	switch c.Comparator {
	case queryir.StartsWith:
		test = strings.HasPrefix
	case queryir.EndsWith:
		test = strings.HasSuffix
	case queryir.Contains:
		test = strings.Contains
	case queryir.StringEquals:
		test = func(value, literal string) bool { return value == literal }
	default:
		supported := make([]string, len(queryir.StringComparators))
		for i, sc := range queryir.StringComparators {
			supported[i] = string(sc)
		}
		return nil, NewUnsupportedComparatorError(typeName, c.Attribute, string(c.Comparator), supported)
	}

	attr, literal := c.Attribute, c.Value
	return func(n *ir.Node) Verdict {
		s, ok := n.Get(attr).(ir.String)
		if !ok {
			return Skip
		}
		return verdict(test(string(s), literal))
	}, nil
}

func buildNumericPredicate(c queryir.NumericCondition, typeName string) (Predicate, error) {
	var test func(value, literal float64) bool
	switch c.Comparator {
	case queryir.GreaterThan:
		test = func(value, literal float64) bool { return value > literal }
	case queryir.LowerThan:
		test = func(value, literal float64) bool { return value < literal }
	case queryir.NumericEquals:
		// Exact float64 equality.
		test = func(value, literal float64) bool { return value == literal }
	default:
		supported := make([]string, len(queryir.NumericComparators))
		for i, nc := range queryir.NumericComparators {
			supported[i] = string(nc)
		}
		return nil, NewUnsupportedComparatorError(typeName, c.Attribute, string(c.Comparator), supported)
	}

	attr, literal := c.Attribute, c.Value
	return func(n *ir.Node) Verdict {
		v, ok := n.Get(attr).(ir.Number)
		if !ok {
			return Skip
		}
		return verdict(test(float64(v), literal))
	}, nil
}

func verdict(ok bool) Verdict {
	if ok {
		return Accept
	}
	return Reject
}
