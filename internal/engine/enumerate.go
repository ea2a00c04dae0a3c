package engine

import "github.com/roach88/modelq/internal/ir"

// AllInstancesOf returns every node of graph whose type is t or a subtype of
// t, in document order (pre-order, depth-first).
//
// The graph is scanned in full on every call; nothing is cached. The result
// is never nil, so callers can range over it and marshal it as [].
func AllInstancesOf(graph *ir.Graph, t *ir.TypeDef) []*ir.Node {
	instances := []*ir.Node{}
	if t == nil {
		return instances
	}
	graph.Walk(func(n *ir.Node) bool {
		if n.Type != nil && n.Type.IsSubtypeOf(t) {
			instances = append(instances, n)
		}
		return true
	})
	return instances
}
