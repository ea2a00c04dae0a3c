package engine

import "github.com/roach88/modelq/internal/ir"

// ResolveType returns the type named name, matched exactly and
// case-sensitively. A missing type is reported as (nil, false), never as an
// error; the Executor decides whether that is fatal.
//
// If the schema declares the name more than once, the first declaration wins.
func ResolveType(schema *ir.Schema, name string) (*ir.TypeDef, bool) {
	if schema == nil {
		return nil, false
	}
	for _, t := range schema.Types {
		if t != nil && t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// ResolveAttribute resolves typeName and then the attribute attrName on it.
// Declared attributes are searched first, then inherited ones through the
// supertype chain (depth-first, declaration order).
func ResolveAttribute(schema *ir.Schema, typeName, attrName string) (*ir.AttributeDef, bool) {
	t, ok := ResolveType(schema, typeName)
	if !ok {
		return nil, false
	}
	return attributeOf(t, attrName)
}

// attributeOf finds name on t or on one of its supertypes.
func attributeOf(t *ir.TypeDef, name string) (*ir.AttributeDef, bool) {
	seen := make(map[*ir.TypeDef]bool)
	var visit func(*ir.TypeDef) (*ir.AttributeDef, bool)
	visit = func(cur *ir.TypeDef) (*ir.AttributeDef, bool) {
		if seen[cur] {
			return nil, false
		}
		seen[cur] = true
		if attr, ok := cur.Attribute(name); ok {
			return attr, true
		}
		for _, super := range cur.SupertypeDefs() {
			if attr, ok := visit(super); ok {
				return attr, true
			}
		}
		return nil, false
	}
	return visit(t)
}
