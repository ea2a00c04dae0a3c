package ir

import (
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"
)

// Value is a sealed interface representing an attribute value on a Node.
// Only Null, String, Number, and Bool implement this.
type Value interface {
	Kind() AttrKind
	value() // Sealed - only these types implement it
}

// Null represents an unset attribute.
// Using an explicit type ensures absent attributes still satisfy Value.
type Null struct{}

func (Null) value() {}

// Kind returns the empty kind; Null matches no declared attribute kind.
func (Null) Kind() AttrKind { return "" }

// String represents a string attribute value.
type String string

func (String) value() {}

// Kind returns KindString.
func (String) Kind() AttrKind { return KindString }

// Number represents a numeric attribute value.
// Integers and decimals share one float64 representation.
type Number float64

func (Number) value() {}

// Kind returns KindNumber.
func (Number) Kind() AttrKind { return KindNumber }

// Bool represents a boolean attribute value.
type Bool bool

func (Bool) value() {}

// Kind returns KindBool.
func (Bool) Kind() AttrKind { return KindBool }

// IsNull reports whether v is nil or Null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// FormatValue renders a value for human-readable output.
func FormatValue(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return ""
	case String:
		return string(val)
	case Number:
		return strconv.FormatFloat(float64(val), 'f', -1, 64)
	case Bool:
		return strconv.FormatBool(bool(val))
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ValueOf converts a decoded YAML/JSON scalar into a Value of the given kind.
// nil becomes Null. Any other mismatch between the Go value and kind is an error.
func ValueOf(kind AttrKind, raw any) (Value, error) {
	if raw == nil {
		return Null{}, nil
	}
	switch kind {
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", raw)
		}
		return String(s), nil
	case KindNumber:
		switch n := raw.(type) {
		case int:
			return Number(n), nil
		case int64:
			return Number(n), nil
		case uint64:
			return Number(n), nil
		case float64:
			return Number(n), nil
		case float32:
			return Number(n), nil
		default:
			return nil, fmt.Errorf("expected number, got %T", raw)
		}
	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", raw)
		}
		return Bool(b), nil
	default:
		return nil, fmt.Errorf("unknown attribute kind %q", kind)
	}
}

// SortedKeys returns map keys in RFC 8785 canonical order (UTF-16 code units).
// CRITICAL: Go's sort.Strings uses UTF-8 which produces DIFFERENT order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	// Shorter string comes first
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}
