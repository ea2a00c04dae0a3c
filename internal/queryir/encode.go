package queryir

import (
	"strconv"

	"github.com/roach88/modelq/internal/ir"
)

// ToMap converts a spec back to the wire shape accepted by Decode.
// Decode(spec.ToMap()) yields an equivalent spec.
func (s *ConditionSpec) ToMap() map[string]any {
	m := make(map[string]any)
	if s == nil {
		return m
	}
	encodeSlot(m, s.Condition1, KeyCondition1, KeyStringValue1)
	encodeSlot(m, s.Condition2, KeyCondition2, KeyStringValue2)
	if s.Composition != NoComposition {
		m[KeyComposition] = string(s.Composition)
	}
	return m
}

func encodeSlot(m map[string]any, c Condition, condKey, valueKey string) {
	switch cond := c.(type) {
	case StringCondition:
		m[condKey] = map[string]any{
			keyKind:       KindString,
			keyAttribute:  cond.Attribute,
			keyComparator: string(cond.Comparator),
		}
		m[valueKey] = cond.Value
	case NumericCondition:
		literal := cond.Literal
		if literal == "" {
			literal = strconv.FormatFloat(cond.Value, 'g', -1, 64)
		}
		m[condKey] = map[string]any{
			keyKind:       KindNumeric,
			keyAttribute:  cond.Attribute,
			keyComparator: string(cond.Comparator),
			keyNumber:     literal,
		}
	}
}

// Canonical returns the canonical JSON encoding of the spec, used to hash
// and persist query records.
func Canonical(s *ConditionSpec) (string, error) {
	data, err := ir.MarshalCanonical(s.ToMap())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// String renders the spec as a compact human-readable expression, e.g.
// `description starts with "this is the" and days greater than 3`.
func (s *ConditionSpec) String() string {
	if s.IsEmpty() {
		return "(all)"
	}
	out := describe(s.Condition1)
	if s.Condition2 != nil {
		if out != "" {
			op := string(s.Composition)
			if op == "" {
				op = "?"
			}
			out += " " + op + " "
		}
		out += describe(s.Condition2)
	}
	return out
}

func describe(c Condition) string {
	switch cond := c.(type) {
	case StringCondition:
		return cond.Attribute + " " + string(cond.Comparator) + " " + strconv.Quote(cond.Value)
	case NumericCondition:
		literal := cond.Literal
		if literal == "" {
			literal = strconv.FormatFloat(cond.Value, 'g', -1, 64)
		}
		return cond.Attribute + " " + string(cond.Comparator) + " " + literal
	default:
		return ""
	}
}
