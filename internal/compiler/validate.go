package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/modelq/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrNoTypes            = "E100" // metamodel declares no type
	ErrDuplicateType      = "E101" // type name declared twice
	ErrUnknownSupertype   = "E102" // extends names an undeclared type
	ErrInheritanceCycle   = "E103" // type extends itself, directly or not
	ErrDuplicateAttribute = "E104" // attribute declared twice on a type or through inheritance
	ErrInvalidKind        = "E105" // attribute kind outside string/number/bool
	ErrUnknownContained   = "E106" // contains names an undeclared type
	ErrEmptyName          = "E107" // empty type or attribute name
)

// ValidationError represents a metamodel validation error.
type ValidationError struct {
	Type    string `json:"type,omitempty"` // Offending type, if any
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled schema against the metamodel rules.
// Returns all errors found (does not fail-fast), in declaration order.
func Validate(schema *ir.Schema) []ValidationError {
	var errs []ValidationError

	// E100: at least one type
	if schema == nil || len(schema.Types) == 0 {
		return []ValidationError{{
			Field:   "type",
			Message: "at least one type is required",
			Code:    ErrNoTypes,
		}}
	}

	declared := make(map[string]bool)
	for i, t := range schema.Types {
		field := fmt.Sprintf("type.%s", t.Name)

		// E107: type name
		if strings.TrimSpace(t.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("types[%d].name", i),
				Message: "type name must be non-empty",
				Code:    ErrEmptyName,
			})
			continue
		}

		// E101: duplicate type
		if declared[t.Name] {
			errs = append(errs, ValidationError{
				Type:    t.Name,
				Field:   field,
				Message: fmt.Sprintf("duplicate type name: %q", t.Name),
				Code:    ErrDuplicateType,
			})
		}
		declared[t.Name] = true
	}

	for _, t := range schema.Types {
		if strings.TrimSpace(t.Name) == "" {
			continue
		}
		errs = append(errs, validateType(schema, t, declared)...)
	}

	// E103: inheritance cycles
	for _, cycle := range FindInheritanceCycles(schema) {
		errs = append(errs, ValidationError{
			Type:    cycle.Path[0],
			Field:   fmt.Sprintf("type.%s.%s", cycle.Path[0], fieldExtends),
			Message: cycle.Message,
			Code:    ErrInheritanceCycle,
		})
	}

	return errs
}

// validateType validates one type's own declarations.
func validateType(schema *ir.Schema, t *ir.TypeDef, declared map[string]bool) []ValidationError {
	var errs []ValidationError
	field := fmt.Sprintf("type.%s", t.Name)

	seen := make(map[string]bool)
	for i, attr := range t.Attributes {
		attrField := fmt.Sprintf("%s.%s.%s", field, fieldAttributes, attr.Name)

		// E107: attribute name
		if strings.TrimSpace(attr.Name) == "" {
			errs = append(errs, ValidationError{
				Type:    t.Name,
				Field:   fmt.Sprintf("%s.%s[%d]", field, fieldAttributes, i),
				Message: "attribute name must be non-empty",
				Code:    ErrEmptyName,
			})
			continue
		}

		// E104: duplicate on the same type
		if seen[attr.Name] {
			errs = append(errs, ValidationError{
				Type:    t.Name,
				Field:   attrField,
				Message: fmt.Sprintf("duplicate attribute name: %q", attr.Name),
				Code:    ErrDuplicateAttribute,
			})
		}
		seen[attr.Name] = true

		// E105: kind
		if !ir.ValidKinds[attr.Kind] {
			errs = append(errs, ValidationError{
				Type:    t.Name,
				Field:   attrField,
				Message: fmt.Sprintf("invalid kind %q for attribute %q", attr.Kind, attr.Name),
				Code:    ErrInvalidKind,
			})
		}
	}

	// E102: unknown supertypes
	for _, super := range t.Supertypes {
		if !declared[super] {
			errs = append(errs, ValidationError{
				Type:    t.Name,
				Field:   field + "." + fieldExtends,
				Message: fmt.Sprintf("unknown supertype %q", super),
				Code:    ErrUnknownSupertype,
			})
		}
	}

	// E106: unknown contained types
	for _, contained := range t.Contains {
		if !declared[contained] {
			errs = append(errs, ValidationError{
				Type:    t.Name,
				Field:   field + "." + fieldContains,
				Message: fmt.Sprintf("unknown contained type %q", contained),
				Code:    ErrUnknownContained,
			})
		}
	}

	// E104: attributes redeclared through inheritance
	for _, name := range inheritedConflicts(t) {
		errs = append(errs, ValidationError{
			Type:    t.Name,
			Field:   fmt.Sprintf("%s.%s.%s", field, fieldAttributes, name),
			Message: fmt.Sprintf("attribute %q is declared by more than one type in the hierarchy", name),
			Code:    ErrDuplicateAttribute,
		})
	}

	return errs
}

// inheritedConflicts returns attribute names that t and its ancestors
// declare more than once. A diamond inheriting the same declaration twice
// is not a conflict.
func inheritedConflicts(t *ir.TypeDef) []string {
	owner := make(map[string]*ir.TypeDef)
	var conflicts []string
	reported := make(map[string]bool)

	visited := make(map[*ir.TypeDef]bool)
	var visit func(*ir.TypeDef)
	visit = func(cur *ir.TypeDef) {
		if visited[cur] {
			return
		}
		visited[cur] = true
		for _, attr := range cur.Attributes {
			if prev, ok := owner[attr.Name]; ok && prev != cur && !reported[attr.Name] {
				conflicts = append(conflicts, attr.Name)
				reported[attr.Name] = true
			}
			if _, ok := owner[attr.Name]; !ok {
				owner[attr.Name] = cur
			}
		}
		for _, super := range cur.SupertypeDefs() {
			visit(super)
		}
	}
	visit(t)
	return conflicts
}
