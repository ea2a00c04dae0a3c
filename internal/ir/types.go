package ir

// AttrKind is the primitive kind of an attribute declared on a type.
type AttrKind string

const (
	KindString AttrKind = "string"
	KindNumber AttrKind = "number"
	KindBool   AttrKind = "bool"
)

// ValidKinds defines the attribute kinds a metamodel may declare.
var ValidKinds = map[AttrKind]bool{
	KindString: true,
	KindNumber: true,
	KindBool:   true,
}

// Schema is a compiled metamodel: the set of types a model may instantiate.
//
// A Schema is built once by the compiler and never mutated afterwards, so it
// may be shared read-only across goroutines.
type Schema struct {
	Name  string     `json:"name"`
	Types []*TypeDef `json:"types"` // Declaration order
}

// TypeDef is a named type of the metamodel.
type TypeDef struct {
	Name       string         `json:"name"`
	Attributes []AttributeDef `json:"attributes"` // Declared (not inherited) attributes
	Supertypes []string       `json:"supertypes,omitempty"`
	Contains   []string       `json:"contains,omitempty"` // Types allowed as children
	Abstract   bool           `json:"abstract,omitempty"`

	schema *Schema
}

// Reserved keys of a model node. An attribute may not use either name.
const (
	NodeKeyType     = "type"
	NodeKeyChildren = "children"
)

// AttributeDef is a named, typed field declared on a TypeDef.
type AttributeDef struct {
	Name string   `json:"name"`
	Kind AttrKind `json:"kind"`
}

// NewSchema creates a schema from types and links each type back to it.
// The types slice is copied; later changes by the caller are not observed.
func NewSchema(name string, types ...*TypeDef) *Schema {
	s := &Schema{Name: name, Types: make([]*TypeDef, len(types))}
	copy(s.Types, types)
	for _, t := range s.Types {
		t.schema = s
	}
	return s
}

// Schema returns the schema that owns this type, or nil for a detached type.
func (t *TypeDef) Schema() *Schema {
	return t.schema
}

// Attribute returns the attribute declared directly on t with the given name.
func (t *TypeDef) Attribute(name string) (*AttributeDef, bool) {
	for i := range t.Attributes {
		if t.Attributes[i].Name == name {
			return &t.Attributes[i], true
		}
	}
	return nil, false
}

// IsSubtypeOf reports whether t is other or inherits from it, directly or
// transitively. Supertypes are looked up by name in t's schema; a supertype
// name that cannot be resolved is ignored. Cycles are tolerated.
func (t *TypeDef) IsSubtypeOf(other *TypeDef) bool {
	if t == nil || other == nil {
		return false
	}
	if t == other {
		return true
	}
	seen := map[*TypeDef]bool{t: true}
	stack := []*TypeDef{t}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, name := range cur.Supertypes {
			super := cur.lookup(name)
			if super == nil || seen[super] {
				continue
			}
			if super == other {
				return true
			}
			seen[super] = true
			stack = append(stack, super)
		}
	}
	return false
}

// lookup finds a sibling type by name within t's schema.
func (t *TypeDef) lookup(name string) *TypeDef {
	if t.schema == nil {
		return nil
	}
	for _, candidate := range t.schema.Types {
		if candidate.Name == name {
			return candidate
		}
	}
	return nil
}

// SupertypeDefs returns the resolved direct supertypes of t in declaration order.
func (t *TypeDef) SupertypeDefs() []*TypeDef {
	var supers []*TypeDef
	for _, name := range t.Supertypes {
		if super := t.lookup(name); super != nil {
			supers = append(supers, super)
		}
	}
	return supers
}
