package queryir

import (
	"strconv"

	"github.com/roach88/modelq/internal/ir"
)

// Condition is a single attribute test in a ConditionSpec.
//
// This is a sealed interface - only StringCondition and NumericCondition
// implement it.
type Condition interface {
	// AttributeName returns the attribute the condition reads.
	AttributeName() string

	// AttributeKind returns the attribute kind the condition compares against.
	AttributeKind() ir.AttrKind

	conditionNode() // Marker method - seals interface to this package
}

// StringComparator names a string comparison.
type StringComparator string

// String comparators. Matching is exact and case-sensitive.
const (
	StartsWith   StringComparator = "starts with"
	EndsWith     StringComparator = "ends with"
	Contains     StringComparator = "contains"
	StringEquals StringComparator = "equals"
)

// StringComparators lists the supported string comparators in display order.
var StringComparators = []StringComparator{StartsWith, EndsWith, Contains, StringEquals}

// NumericComparator names a numeric comparison.
type NumericComparator string

// Numeric comparators. Both sides are compared as float64.
const (
	GreaterThan   NumericComparator = "greater than"
	LowerThan     NumericComparator = "lower than"
	NumericEquals NumericComparator = "equals"
)

// NumericComparators lists the supported numeric comparators in display order.
var NumericComparators = []NumericComparator{GreaterThan, LowerThan, NumericEquals}

// Composition is the boolean operator joining condition1 and condition2.
type Composition string

const (
	// NoComposition means the caller did not choose an operator.
	NoComposition Composition = ""
	And           Composition = "and"
	Or            Composition = "or"
)

// StringCondition compares a string attribute against a literal.
//
// Semantics:
//
//	<attribute> <comparator> <value>
//
// Example:
//
//	StringCondition{Attribute: "name", Comparator: StartsWith, Value: "Project"}
type StringCondition struct {
	Attribute  string
	Comparator StringComparator
	Value      string
}

func (StringCondition) conditionNode() {}

// AttributeName returns the attribute the condition reads.
func (c StringCondition) AttributeName() string { return c.Attribute }

// AttributeKind returns ir.KindString.
func (StringCondition) AttributeKind() ir.AttrKind { return ir.KindString }

// NumericCondition compares a number attribute against a literal.
//
// Literal keeps the text the caller supplied; Value is its parsed form.
type NumericCondition struct {
	Attribute  string
	Comparator NumericComparator
	Value      float64
	Literal    string
}

func (NumericCondition) conditionNode() {}

// AttributeName returns the attribute the condition reads.
func (c NumericCondition) AttributeName() string { return c.Attribute }

// AttributeKind returns ir.KindNumber.
func (NumericCondition) AttributeKind() ir.AttrKind { return ir.KindNumber }

// NewNumericCondition parses literal as a float64 and builds the condition.
// An unparsable literal is an InvalidQuery DecodeError, never a silent zero.
func NewNumericCondition(attribute string, comparator NumericComparator, literal string) (NumericCondition, error) {
	v, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return NumericCondition{}, &DecodeError{
			Field:   "number",
			Message: "cannot parse " + strconv.Quote(literal) + " as a number",
		}
	}
	return NumericCondition{
		Attribute:  attribute,
		Comparator: comparator,
		Value:      v,
		Literal:    literal,
	}, nil
}

// ConditionSpec describes up to two conditions and how to combine them.
//
// A nil Condition1 and Condition2 means "no filter". Composition is only
// consulted when both conditions are present.
type ConditionSpec struct {
	Condition1  Condition
	Condition2  Condition
	Composition Composition
}

// Single builds a spec holding one condition.
func Single(c Condition) *ConditionSpec {
	return &ConditionSpec{Condition1: c}
}

// Both builds a spec holding two conditions joined by op.
func Both(c1 Condition, op Composition, c2 Condition) *ConditionSpec {
	return &ConditionSpec{Condition1: c1, Condition2: c2, Composition: op}
}

// IsEmpty reports whether the spec filters nothing.
func (s *ConditionSpec) IsEmpty() bool {
	return s == nil || (s.Condition1 == nil && s.Condition2 == nil)
}

// Conditions returns the present conditions in slot order.
func (s *ConditionSpec) Conditions() []Condition {
	if s == nil {
		return nil
	}
	var conds []Condition
	for _, c := range []Condition{s.Condition1, s.Condition2} {
		if c != nil {
			conds = append(conds, c)
		}
	}
	return conds
}
