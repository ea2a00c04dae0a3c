package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/modelq/internal/ir"
)

// InheritanceCycle is a set of types that (transitively) extend each other.
type InheritanceCycle struct {
	Path    []string `json:"path"`    // Cycle path: ["A", "B", "A"]
	Message string   `json:"message"` // Human-readable description
}

// FindInheritanceCycles detects cycles in the extends relation.
//
// The algorithm:
//  1. Build type → supertypes graph from the declared extends lists
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or self-loops as a cycle
//
// Supertype names that do not resolve are ignored here; Validate reports
// them separately. Nodes are visited in declaration order so the result is
// deterministic. An acyclic schema returns an empty list.
func FindInheritanceCycles(schema *ir.Schema) []InheritanceCycle {
	graph, order := buildInheritanceGraph(schema)

	sccs := tarjanSCC(graph, order)

	cycles := []InheritanceCycle{}
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			cycles = append(cycles, sccToCycle(scc, graph))
		}
	}
	return cycles
}

// inheritanceGraph maps type name → names of its declared supertypes.
type inheritanceGraph map[string][]string

// buildInheritanceGraph returns the graph and the type names in declaration
// order, keeping only edges to declared types.
func buildInheritanceGraph(schema *ir.Schema) (inheritanceGraph, []string) {
	graph := make(inheritanceGraph)
	var order []string
	if schema == nil {
		return graph, order
	}

	declared := make(map[string]bool)
	for _, t := range schema.Types {
		declared[t.Name] = true
	}

	for _, t := range schema.Types {
		if _, seen := graph[t.Name]; seen {
			continue
		}
		order = append(order, t.Name)
		graph[t.Name] = []string{}
		for _, super := range t.Supertypes {
			if declared[super] {
				graph[t.Name] = append(graph[t.Name], super)
			}
		}
	}
	return graph, order
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph inheritanceGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(graph inheritanceGraph, order []string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// Root of an SCC: pop it
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// sccToCycle converts an SCC to an InheritanceCycle, starting the path at
// the member declared first.
func sccToCycle(scc []string, graph inheritanceGraph) InheritanceCycle {
	if len(scc) == 1 {
		name := scc[0]
		return InheritanceCycle{
			Path:    []string{name, name},
			Message: fmt.Sprintf("type %s extends itself", name),
		}
	}

	path := reconstructCyclePath(scc, graph)
	return InheritanceCycle{
		Path:    path,
		Message: fmt.Sprintf("inheritance cycle: %s", strings.Join(path, " extends ")),
	}
}

// reconstructCyclePath follows edges within the SCC from its last popped
// member (the earliest visited) until it returns to the start.
func reconstructCyclePath(scc []string, graph inheritanceGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool)
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[len(scc)-1]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}

		if next == "" {
			break
		}

		path = append(path, next)

		if next == start {
			break
		}

		current = next
	}

	return path
}
