package ir

// Graph is a loaded model: an ordered forest of contained nodes.
//
// A Graph is read-only while it is being queried. Pure-read concurrent access
// is safe; concurrent mutation is not supported.
type Graph struct {
	Source string  `json:"source,omitempty"` // Path the model was loaded from
	Roots  []*Node `json:"roots"`
}

// Node is a single typed object in a Graph.
type Node struct {
	Type     *TypeDef         `json:"-"`
	Attrs    map[string]Value `json:"-"`
	Children []*Node          `json:"-"`
}

// NewNode creates a node of type t with every declared and inherited
// attribute initialised to Null.
func NewNode(t *TypeDef) *Node {
	n := &Node{Type: t, Attrs: make(map[string]Value)}
	for _, attr := range AllAttributes(t) {
		n.Attrs[attr.Name] = Null{}
	}
	return n
}

// Get returns the value of the named attribute, or Null if unset.
func (n *Node) Get(name string) Value {
	if v, ok := n.Attrs[name]; ok && v != nil {
		return v
	}
	return Null{}
}

// Set assigns an attribute value and returns n for chaining.
func (n *Node) Set(name string, v Value) *Node {
	if v == nil {
		v = Null{}
	}
	n.Attrs[name] = v
	return n
}

// Add appends children and returns n for chaining.
func (n *Node) Add(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// TypeName returns the node's type name, or "" for an untyped node.
func (n *Node) TypeName() string {
	if n.Type == nil {
		return ""
	}
	return n.Type.Name
}

// Walk visits every node of the graph in document order (pre-order,
// depth-first, children left to right). Returning false from visit stops
// the walk.
func (g *Graph) Walk(visit func(*Node) bool) {
	if g == nil {
		return
	}
	var stack []*Node
	for i := len(g.Roots) - 1; i >= 0; i-- {
		stack = append(stack, g.Roots[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil {
			continue
		}
		if !visit(n) {
			return
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// Size returns the number of nodes reachable from the roots.
func (g *Graph) Size() int {
	count := 0
	g.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// AllAttributes returns the declared attributes of t followed by inherited
// ones, walking supertypes depth-first in declaration order. An attribute
// name already seen is not repeated.
func AllAttributes(t *TypeDef) []AttributeDef {
	if t == nil {
		return nil
	}
	var attrs []AttributeDef
	seenName := make(map[string]bool)
	seenType := make(map[*TypeDef]bool)
	var visit func(*TypeDef)
	visit = func(cur *TypeDef) {
		if seenType[cur] {
			return
		}
		seenType[cur] = true
		for _, a := range cur.Attributes {
			if !seenName[a.Name] {
				seenName[a.Name] = true
				attrs = append(attrs, a)
			}
		}
		for _, super := range cur.SupertypeDefs() {
			visit(super)
		}
	}
	visit(t)
	return attrs
}
