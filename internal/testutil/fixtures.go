// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"fmt"

	"github.com/roach88/modelq/internal/ir"
)

// ProjectSchema returns the project-management metamodel used across tests:
//
//	Project   { name: string }              contains Task
//	Task      { description: string, days: number, owner: string }
//	Milestone extends Task { due: string }
func ProjectSchema() *ir.Schema {
	return ir.NewSchema("projects",
		&ir.TypeDef{
			Name:       "Project",
			Attributes: []ir.AttributeDef{{Name: "name", Kind: ir.KindString}},
			Contains:   []string{"Task"},
		},
		&ir.TypeDef{
			Name: "Task",
			Attributes: []ir.AttributeDef{
				{Name: "description", Kind: ir.KindString},
				{Name: "days", Kind: ir.KindNumber},
				{Name: "owner", Kind: ir.KindString},
			},
		},
		&ir.TypeDef{
			Name:       "Milestone",
			Attributes: []ir.AttributeDef{{Name: "due", Kind: ir.KindString}},
			Supertypes: []string{"Task"},
		},
	)
}

// MustType returns the named type or panics.
func MustType(s *ir.Schema, name string) *ir.TypeDef {
	for _, t := range s.Types {
		if t.Name == name {
			return t
		}
	}
	panic(fmt.Sprintf("testutil: no type %q in schema %q", name, s.Name))
}

// NewProject builds a Project node.
func NewProject(s *ir.Schema, name string, tasks ...*ir.Node) *ir.Node {
	return ir.NewNode(MustType(s, "Project")).
		Set("name", ir.String(name)).
		Add(tasks...)
}

// NewTask builds a Task node. owner is left null.
func NewTask(s *ir.Schema, description string, days float64) *ir.Node {
	return ir.NewNode(MustType(s, "Task")).
		Set("description", ir.String(description)).
		Set("days", ir.Number(days))
}

// NewMilestone builds a Milestone node.
func NewMilestone(s *ir.Schema, description string, days float64, due string) *ir.Node {
	return ir.NewNode(MustType(s, "Milestone")).
		Set("description", ir.String(description)).
		Set("days", ir.Number(days)).
		Set("due", ir.String(due))
}

// ProjectModel returns one Project named "ProjectTest" holding two tasks:
//
//	"this is the first task"  days=2
//	"this is the second task" days=4
func ProjectModel(s *ir.Schema) *ir.Graph {
	return &ir.Graph{
		Source: "project.yaml",
		Roots: []*ir.Node{
			NewProject(s, "ProjectTest",
				NewTask(s, "this is the first task", 2),
				NewTask(s, "this is the second task", 4),
			),
		},
	}
}

// Descriptions returns the description attribute of each node, for
// order-sensitive assertions. Null values render as "<null>".
func Descriptions(nodes []*ir.Node) []string {
	return Strings(nodes, "description")
}

// Strings returns the named attribute of each node formatted as text.
func Strings(nodes []*ir.Node, attr string) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		v := n.Get(attr)
		if ir.IsNull(v) {
			out[i] = "<null>"
			continue
		}
		out[i] = ir.FormatValue(v)
	}
	return out
}
