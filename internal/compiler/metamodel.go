package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/modelq/internal/ir"
)

// Fields accepted inside a type declaration.
const (
	fieldAttributes = "attributes"
	fieldExtends    = "extends"
	fieldContains   = "contains"
	fieldAbstract   = "abstract"
)

var knownTypeFields = map[string]bool{
	fieldAttributes: true,
	fieldExtends:    true,
	fieldContains:   true,
	fieldAbstract:   true,
}

// CompileSchema parses a CUE metamodel into an ir.Schema.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value is the metamodel root, e.g.:
//
//	name: "projects"
//	type: Project: { attributes: { name: string }, contains: ["Task"] }
//	type: Task: { attributes: { description: string, days: number } }
//	type: Milestone: { extends: ["Task"], attributes: { due: string } }
//
// Types keep their declaration order. The compiled schema is validated
// (see Validate); the first violation is returned as a CompileError
// positioned at the offending type.
func CompileSchema(v cue.Value) (*ir.Schema, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	var name string
	if nameVal := v.LookupPath(cue.ParsePath("name")); nameVal.Exists() {
		s, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		name = s
	}

	typesVal := v.LookupPath(cue.ParsePath("type"))
	if !typesVal.Exists() {
		return nil, &CompileError{
			Field:   "type",
			Message: "at least one type is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := typesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var types []*ir.TypeDef
	positions := make(map[string]token.Pos)
	for iter.Next() {
		t, err := CompileType(iter.Value())
		if err != nil {
			return nil, err
		}
		if _, dup := positions[t.Name]; !dup {
			positions[t.Name] = iter.Value().Pos()
		}
		types = append(types, t)
	}
	if len(types) == 0 {
		return nil, &CompileError{
			Field:   "type",
			Message: "at least one type is required",
			Pos:     typesVal.Pos(),
		}
	}

	schema := ir.NewSchema(name, types...)

	if errs := Validate(schema); len(errs) > 0 {
		first := errs[0]
		return nil, &CompileError{
			Field:   first.Field,
			Message:    fmt.Sprintf("[%s] %s", first.Code, first.Message),
			Pos:        positions[first.Type],
			Violations: errs,
		}
	}

	return schema, nil
}

// CompileType parses a single type declaration. The type name is taken from
// the value's path label:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`type: Task: { attributes: { days: number } }`)
//	t, err := CompileType(v.LookupPath(cue.ParsePath("type.Task")))
func CompileType(v cue.Value) (*ir.TypeDef, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	t := &ir.TypeDef{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		t.Name = labels[len(labels)-1].Unquoted()
	}
	if t.Name == "" {
		return nil, &CompileError{
			Field:   "type",
			Message: "type declaration must be labelled with its name",
			Pos:     v.Pos(),
		}
	}
	prefix := "type." + t.Name

	fields, err := v.Fields()
	if err != nil {
		return nil, &CompileError{
			Field:   prefix,
			Message: "type declaration must be a struct",
			Pos:     v.Pos(),
		}
	}
	for fields.Next() {
		label := fields.Selector().Unquoted()
		if !knownTypeFields[label] {
			return nil, &CompileError{
				Field:   prefix + "." + label,
				Message: fmt.Sprintf("unknown field, expecting one of %s, %s, %s, %s", fieldAttributes, fieldExtends, fieldContains, fieldAbstract),
				Pos:     fields.Value().Pos(),
			}
		}
	}

	t.Attributes, err = parseAttributes(v, prefix)
	if err != nil {
		return nil, err
	}

	t.Supertypes, err = parseNameList(v, fieldExtends, prefix)
	if err != nil {
		return nil, err
	}

	t.Contains, err = parseNameList(v, fieldContains, prefix)
	if err != nil {
		return nil, err
	}

	if abstractVal := v.LookupPath(cue.ParsePath(fieldAbstract)); abstractVal.Exists() {
		abstract, err := abstractVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		t.Abstract = abstract
	}

	return t, nil
}

// parseAttributes extracts attribute declarations in declaration order.
func parseAttributes(v cue.Value, prefix string) ([]ir.AttributeDef, error) {
	var attrs []ir.AttributeDef

	attrsVal := v.LookupPath(cue.ParsePath(fieldAttributes))
	if !attrsVal.Exists() {
		return attrs, nil // attributes are optional
	}

	iter, err := attrsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		attrName := iter.Selector().Unquoted()
		if attrName == ir.NodeKeyType || attrName == ir.NodeKeyChildren {
			return nil, &CompileError{
				Field:   prefix + "." + fieldAttributes + "." + attrName,
				Message: fmt.Sprintf("%q is a reserved model key and cannot name an attribute", attrName),
				Pos:     iter.Value().Pos(),
			}
		}
		kind, err := extractKind(iter.Value(), prefix+"."+fieldAttributes+"."+attrName)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, ir.AttributeDef{
			Name: attrName,
			Kind: kind,
		})
	}

	return attrs, nil
}

// parseNameList reads an optional list of type names.
func parseNameList(v cue.Value, field, prefix string) ([]string, error) {
	listVal := v.LookupPath(cue.ParsePath(field))
	if !listVal.Exists() {
		return nil, nil
	}

	iter, err := listVal.List()
	if err != nil {
		return nil, &CompileError{
			Field:   prefix + "." + field,
			Message: "must be a list of type names",
			Pos:     listVal.Pos(),
		}
	}

	var names []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		names = append(names, s)
	}
	return names, nil
}

// extractKind converts a CUE type to an attribute kind.
// int, float and number all map to KindNumber; values are compared as float64.
func extractKind(v cue.Value, field string) (ir.AttrKind, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return ir.KindString, nil
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		return ir.KindNumber, nil
	case cue.BoolKind:
		return ir.KindBool, nil
	default:
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported attribute kind: %v (expecting string, number or bool)", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos

	// Violations holds every validation error when the schema failed
	// Validate. The first one is reported in Field and Message.
	Violations []ValidationError
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
