package queryir

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/roach88/modelq/internal/ir"
)

// Wire keys of the loose query shape.
const (
	KeyCondition1   = "condition1"
	KeyCondition2   = "condition2"
	KeyStringValue1 = "stringValue1"
	KeyStringValue2 = "stringValue2"
	KeyComposition  = "conditionComposition"

	keyKind       = "kind"
	keyAttribute  = "attribute"
	keyComparator = "comparator"
	keyNumber     = "number"

	keyLegacyStringAttribute     = "StringAttribute"
	keyLegacyStringComparator    = "StringComparator"
	keyLegacyNumericalAttribute  = "NumericalAttribute"
	keyLegacyNumericalComparator = "NumericalComparator"
)

// Condition kinds accepted in the "kind" key.
const (
	KindString  = "string"
	KindNumeric = "numeric"
)

var knownTopLevelKeys = map[string]bool{
	KeyCondition1:   true,
	KeyCondition2:   true,
	KeyStringValue1: true,
	KeyStringValue2: true,
	KeyComposition:  true,
}

// DecodeError reports a malformed query description.
// It is the InvalidQuery failure of the query taxonomy.
type DecodeError struct {
	Field   string // Dotted path of the offending key, e.g. "condition2.number"
	Message string
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return "invalid query: " + e.Message
	}
	return fmt.Sprintf("invalid query: %s: %s", e.Field, e.Message)
}

// IsDecodeError reports whether err is or wraps a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// Decode converts a loosely shaped query map into a ConditionSpec.
//
// A nil or empty map yields an empty spec (no filter). Unknown top-level
// keys are rejected so that typos such as "conditon1" do not silently drop a
// filter.
func Decode(m map[string]any) (*ConditionSpec, error) {
	spec := &ConditionSpec{}
	if len(m) == 0 {
		return spec, nil
	}

	for _, k := range ir.SortedKeys(m) {
		if !knownTopLevelKeys[k] {
			return nil, &DecodeError{Field: k, Message: "unknown key"}
		}
	}

	var err error
	spec.Condition1, err = decodeSlot(m, KeyCondition1, KeyStringValue1)
	if err != nil {
		return nil, err
	}
	spec.Condition2, err = decodeSlot(m, KeyCondition2, KeyStringValue2)
	if err != nil {
		return nil, err
	}

	if raw, ok := m[KeyComposition]; ok && raw != nil {
		s, ok := raw.(string)
		if !ok {
			return nil, &DecodeError{Field: KeyComposition, Message: fmt.Sprintf("expected string, got %T", raw)}
		}
		spec.Composition = Composition(s)
	}

	return spec, nil
}

// DecodeYAML parses a YAML query document and decodes it.
// An empty document yields an empty spec.
func DecodeYAML(data []byte) (*ConditionSpec, error) {
	var m map[string]any
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return &ConditionSpec{}, nil
		}
		return nil, &DecodeError{Message: fmt.Sprintf("parse YAML: %v", err)}
	}
	return Decode(m)
}

// DecodeJSON parses a JSON query document and decodes it.
func DecodeJSON(data []byte) (*ConditionSpec, error) {
	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return nil, &DecodeError{Message: fmt.Sprintf("parse JSON: %v", err)}
	}
	return Decode(m)
}

// decodeSlot decodes one condition slot. A missing or null slot is nil.
func decodeSlot(m map[string]any, condKey, valueKey string) (Condition, error) {
	raw, ok := m[condKey]
	if !ok || raw == nil {
		return nil, nil
	}

	cond, err := asStringMap(raw)
	if err != nil {
		return nil, &DecodeError{Field: condKey, Message: err.Error()}
	}

	kind, err := detectKind(cond)
	if err != nil {
		return nil, &DecodeError{Field: condKey, Message: err.Error()}
	}

	switch kind {
	case KindString:
		attr, err := stringField(cond, condKey, keyAttribute, keyLegacyStringAttribute)
		if err != nil {
			return nil, err
		}
		comparator, err := stringField(cond, condKey, keyComparator, keyLegacyStringComparator)
		if err != nil {
			return nil, err
		}
		rawValue, ok := m[valueKey]
		if !ok || rawValue == nil {
			return nil, &DecodeError{Field: valueKey, Message: "required for a string condition"}
		}
		value, ok := rawValue.(string)
		if !ok {
			return nil, &DecodeError{Field: valueKey, Message: fmt.Sprintf("expected string, got %T", rawValue)}
		}
		return StringCondition{Attribute: attr, Comparator: StringComparator(comparator), Value: value}, nil

	default:
		attr, err := stringField(cond, condKey, keyAttribute, keyLegacyNumericalAttribute)
		if err != nil {
			return nil, err
		}
		comparator, err := stringField(cond, condKey, keyComparator, keyLegacyNumericalComparator)
		if err != nil {
			return nil, err
		}
		literal, err := numberLiteral(cond, condKey)
		if err != nil {
			return nil, err
		}
		nc, err := NewNumericCondition(attr, NumericComparator(comparator), literal)
		if err != nil {
			var de *DecodeError
			if errors.As(err, &de) {
				de.Field = condKey + "." + keyNumber
			}
			return nil, err
		}
		return nc, nil
	}
}

// detectKind decides the condition variant from its keys.
// An explicit "kind" wins; otherwise the legacy attribute keys decide.
func detectKind(cond map[string]any) (string, error) {
	if raw, ok := cond[keyKind]; ok && raw != nil {
		kind, ok := raw.(string)
		if !ok {
			return "", fmt.Errorf("kind: expected string, got %T", raw)
		}
		switch kind {
		case KindString:
			return KindString, nil
		case KindNumeric, "numerical":
			return KindNumeric, nil
		default:
			return "", fmt.Errorf("unsupported condition kind %q, expecting %q or %q", kind, KindString, KindNumeric)
		}
	}
	_, isString := cond[keyLegacyStringAttribute]
	_, isNumeric := cond[keyLegacyNumericalAttribute]
	switch {
	case isString && isNumeric:
		return "", fmt.Errorf("ambiguous condition: both %s and %s present", keyLegacyStringAttribute, keyLegacyNumericalAttribute)
	case isString:
		return KindString, nil
	case isNumeric:
		return KindNumeric, nil
	}
	return "", fmt.Errorf("unsupported condition type, expecting a string or numeric condition")
}

// stringField returns the first present key among keys as a non-empty string.
func stringField(cond map[string]any, condKey string, keys ...string) (string, error) {
	for _, k := range keys {
		raw, ok := cond[k]
		if !ok || raw == nil {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			return "", &DecodeError{Field: condKey + "." + k, Message: fmt.Sprintf("expected string, got %T", raw)}
		}
		if s == "" {
			return "", &DecodeError{Field: condKey + "." + k, Message: "must not be empty"}
		}
		return s, nil
	}
	return "", &DecodeError{Field: condKey + "." + keys[0], Message: "required"}
}

// numberLiteral returns the numeric literal as text. Strings are the wire
// form; numbers decoded by YAML or JSON are formatted back losslessly.
func numberLiteral(cond map[string]any, condKey string) (string, error) {
	raw, ok := cond[keyNumber]
	if !ok || raw == nil {
		return "", &DecodeError{Field: condKey + "." + keyNumber, Message: "required for a numeric condition"}
	}
	switch n := raw.(type) {
	case string:
		return n, nil
	case json.Number:
		return n.String(), nil
	case int:
		return strconv.Itoa(n), nil
	case int64:
		return strconv.FormatInt(n, 10), nil
	case uint64:
		return strconv.FormatUint(n, 10), nil
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64), nil
	default:
		return "", &DecodeError{Field: condKey + "." + keyNumber, Message: fmt.Sprintf("expected number, got %T", raw)}
	}
}

// asStringMap accepts both map[string]any (JSON, yaml.v3) and
// map[any]any (older YAML decoders, hand-built slot maps).
func asStringMap(raw any) (map[string]any, error) {
	switch m := raw.(type) {
	case map[string]any:
		return m, nil
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key %v", k)
			}
			out[ks] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a condition object, got %T", raw)
	}
}
