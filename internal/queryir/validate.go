package queryir

import (
	"fmt"
	"math"
)

// ValidationResult contains non-fatal observations about a spec.
//
// Fatal problems (unknown attribute, unsupported comparator) are reported
// by the engine when the spec is run against a schema. Validate only looks
// at the spec itself.
type ValidationResult struct {
	// Warnings lists issues that change or weaken what the caller may expect.
	Warnings []string
}

// OK reports whether there were no warnings.
func (r ValidationResult) OK() bool {
	return len(r.Warnings) == 0
}

// Validate inspects a spec for surprising but legal shapes:
//  1. Two conditions without a composition: only condition1 is applied
//  2. A composition with fewer than two conditions: it is ignored
//  3. condition2 without condition1: it acts as the only condition
//  4. Numeric equals on a fractional literal: exact float equality
//
// Validate is a pure function with no side effects.
func Validate(spec *ConditionSpec) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	v.validateSpec(spec)
	return ValidationResult{Warnings: v.warnings}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

// addWarning appends a warning message.
func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateSpec(spec *ConditionSpec) {
	if spec.IsEmpty() {
		if spec != nil && spec.Composition != NoComposition {
			v.addWarning("composition %q ignored: no conditions", spec.Composition)
		}
		return
	}

	both := spec.Condition1 != nil && spec.Condition2 != nil
	switch {
	case both && spec.Composition == NoComposition:
		v.addWarning("no condition composition: only condition1 is applied")
	case !both && spec.Composition != NoComposition:
		v.addWarning("composition %q ignored: only one condition present", spec.Composition)
	}
	if spec.Condition1 == nil {
		v.addWarning("condition2 set without condition1: it is applied alone")
	}

	for _, c := range spec.Conditions() {
		v.validateCondition(c)
	}
}

func (v *validator) validateCondition(c Condition) {
	switch cond := c.(type) {
	case StringCondition:
		if cond.Value == "" && cond.Comparator != StringEquals {
			v.addWarning("%s %s empty string matches every non-null value", cond.Attribute, cond.Comparator)
		}
	case NumericCondition:
		if math.IsNaN(cond.Value) {
			v.addWarning("%s compared to NaN never matches", cond.Attribute)
		}
		if cond.Comparator == NumericEquals && cond.Value != math.Trunc(cond.Value) {
			v.addWarning("%s equals %s uses exact floating-point equality", cond.Attribute, cond.Literal)
		}
	}
}
