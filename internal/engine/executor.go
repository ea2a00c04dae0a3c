package engine

import (
	"log/slog"

	"github.com/roach88/modelq/internal/ir"
	"github.com/roach88/modelq/internal/queryir"
)

// Stats summarises one query execution.
type Stats struct {
	Scanned int `json:"scanned"` // Instances of the type found in the graph
	Matched int `json:"matched"` // Instances returned
	Skipped int `json:"skipped"` // Instances dropped because a value was null or of another kind
}

// Executor runs type queries over a model.
//
// An Executor holds no per-query state and is safe for concurrent use.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates an executor. A nil logger falls back to slog.Default().
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{logger: logger}
}

// Execute returns the instances of typeName in graph that satisfy spec.
//
// Steps:
// 1. Resolve typeName (TYPE_NOT_FOUND if absent)
// 2. Enumerate all instances in document order
// 3. With an empty spec, return them unfiltered
// 4. Otherwise build and compose the predicates and filter stably
//
// The graph is never mutated. On error no nodes are returned.
func (e *Executor) Execute(graph *ir.Graph, schema *ir.Schema, typeName string, spec *queryir.ConditionSpec) ([]*ir.Node, error) {
	nodes, _, err := e.ExecuteWithStats(graph, schema, typeName, spec)
	return nodes, err
}

// ExecuteWithStats is Execute that also reports how many instances were
// scanned, matched and skipped.
func (e *Executor) ExecuteWithStats(graph *ir.Graph, schema *ir.Schema, typeName string, spec *queryir.ConditionSpec) ([]*ir.Node, Stats, error) {
	t, ok := ResolveType(schema, typeName)
	if !ok {
		return nil, Stats{}, NewTypeNotFoundError(typeName)
	}

	instances := AllInstancesOf(graph, t)
	stats := Stats{Scanned: len(instances)}

	if spec.IsEmpty() {
		stats.Matched = len(instances)
		e.logger.Debug("query executed",
			"type", typeName,
			"found", stats.Matched,
		)
		return instances, stats, nil
	}

	predicate, err := e.buildFilter(spec, schema, typeName)
	if err != nil {
		return nil, Stats{}, err
	}

	result := make([]*ir.Node, 0, len(instances))
	for _, n := range instances {
		switch predicate(n) {
		case Accept:
			result = append(result, n)
		case Skip:
			stats.Skipped++
		}
	}
	stats.Matched = len(result)

	e.logger.Debug("query executed",
		"type", typeName,
		"filter", spec.String(),
		"scanned", stats.Scanned,
		"found", stats.Matched,
		"skipped", stats.Skipped,
	)
	return result, stats, nil
}

// buildFilter builds both predicates before composing them, so an invalid
// condition2 fails the query even when the composition would drop it.
func (e *Executor) buildFilter(spec *queryir.ConditionSpec, schema *ir.Schema, typeName string) (Predicate, error) {
	p1, err := BuildPredicate(spec.Condition1, schema, typeName)
	if err != nil {
		return nil, err
	}
	p2, err := BuildPredicate(spec.Condition2, schema, typeName)
	if err != nil {
		return nil, err
	}
	predicate, err := Compose(spec, p1, p2, e.logger)
	if err != nil {
		return nil, err
	}
	if predicate == nil {
		return func(*ir.Node) Verdict { return Accept }, nil
	}
	return predicate, nil
}
