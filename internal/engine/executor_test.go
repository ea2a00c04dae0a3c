package engine

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modelq/internal/ir"
	"github.com/roach88/modelq/internal/queryir"
	"github.com/roach88/modelq/internal/testutil"
)

func quietExecutor() *Executor {
	return NewExecutor(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var (
	descriptionStartsWith = queryir.StringCondition{Attribute: "description", Comparator: queryir.StartsWith, Value: "this is the"}
	daysGreaterThan3      = queryir.NumericCondition{Attribute: "days", Comparator: queryir.GreaterThan, Value: 3, Literal: "3"}
)

func TestExecute_StringOneMatch(t *testing.T) {
	s := testutil.ProjectSchema()
	g := testutil.ProjectModel(s)

	spec, err := queryir.Decode(map[string]any{
		"condition1":   map[string]any{"kind": "string", "attribute": "name", "comparator": "starts with"},
		"stringValue1": "Project",
	})
	require.NoError(t, err)

	got, err := quietExecutor().Execute(g, s, "Project", spec)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ir.String("ProjectTest"), got[0].Get("name"))
}

func TestExecute_StringNoMatch(t *testing.T) {
	s := testutil.ProjectSchema()
	g := testutil.ProjectModel(s)

	spec := queryir.Single(queryir.StringCondition{Attribute: "name", Comparator: queryir.StartsWith, Value: "ERROR"})

	got, err := quietExecutor().Execute(g, s, "Project", spec)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExecute_ComposedAnd(t *testing.T) {
	s := testutil.ProjectSchema()
	g := testutil.ProjectModel(s)

	got, err := quietExecutor().Execute(g, s, "Task", queryir.Both(descriptionStartsWith, queryir.And, daysGreaterThan3))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ir.Number(4), got[0].Get("days"))
}

func TestExecute_ComposedOr(t *testing.T) {
	s := testutil.ProjectSchema()
	g := testutil.ProjectModel(s)

	got, err := quietExecutor().Execute(g, s, "Task", queryir.Both(descriptionStartsWith, queryir.Or, daysGreaterThan3))
	require.NoError(t, err)
	assert.Equal(t, []string{"this is the first task", "this is the second task"}, testutil.Descriptions(got))
}

func TestExecute_MissingComposition(t *testing.T) {
	s := testutil.ProjectSchema()
	g := testutil.ProjectModel(s)
	logger, buf := bufferLogger()
	exec := NewExecutor(logger)

	got, err := exec.Execute(g, s, "Task", queryir.Both(descriptionStartsWith, queryir.NoComposition, daysGreaterThan3))
	require.NoError(t, err)

	want, err := exec.Execute(g, s, "Task", queryir.Single(descriptionStartsWith))
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.Len(t, got, 2)
	assert.Contains(t, buf.String(), "no condition composition found")
}

func TestExecute_UnknownType(t *testing.T) {
	s := testutil.ProjectSchema()
	g := testutil.ProjectModel(s)

	got, stats, err := quietExecutor().ExecuteWithStats(g, s, "INVALID", queryir.Single(descriptionStartsWith))
	require.Error(t, err)
	assert.Nil(t, got, "no partial result")
	assert.Equal(t, Stats{}, stats)
	assert.True(t, IsTypeNotFound(err))

	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "INVALID", qe.TypeName)
}

func TestExecute_NoSpecReturnsAllInstances(t *testing.T) {
	s := testutil.ProjectSchema()
	g := testutil.ProjectModel(s)

	for _, spec := range []*queryir.ConditionSpec{nil, {}, {Composition: queryir.And}} {
		got, err := quietExecutor().Execute(g, s, "Task", spec)
		require.NoError(t, err)
		assert.Equal(t, AllInstancesOf(g, testutil.MustType(s, "Task")), got)
	}
}

func TestExecute_FatalErrorsAbort(t *testing.T) {
	s := testutil.ProjectSchema()
	g := testutil.ProjectModel(s)

	tests := []struct {
		name  string
		spec  *queryir.ConditionSpec
		check func(error) bool
	}{
		{
			name:  "unknown attribute in condition1",
			spec:  queryir.Single(queryir.StringCondition{Attribute: "title", Comparator: queryir.Contains, Value: "x"}),
			check: IsAttributeNotFound,
		},
		{
			name:  "bad comparator in condition2 dropped by missing composition",
			spec:  queryir.Both(descriptionStartsWith, queryir.NoComposition, queryir.NumericCondition{Attribute: "days", Comparator: "about", Value: 1}),
			check: IsUnsupportedComparator,
		},
		{
			name:  "unsupported composition",
			spec:  queryir.Both(descriptionStartsWith, "nand", daysGreaterThan3),
			check: IsUnsupportedComposition,
		},
		{
			name:  "kind mismatch",
			spec:  queryir.Single(queryir.NumericCondition{Attribute: "description", Comparator: queryir.GreaterThan, Value: 1}),
			check: IsInvalidQuery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := quietExecutor().Execute(g, s, "Task", tt.spec)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestExecute_NullAttributeIsSkipped(t *testing.T) {
	s := testutil.ProjectSchema()
	g := testutil.ProjectModel(s)
	g.Roots[0].Children[1].Set("owner", ir.String("ada"))

	spec := queryir.Single(queryir.StringCondition{Attribute: "owner", Comparator: queryir.StringEquals, Value: "ada"})
	got, stats, err := quietExecutor().ExecuteWithStats(g, s, "Task", spec)
	require.NoError(t, err)

	assert.Equal(t, []string{"this is the second task"}, testutil.Descriptions(got))
	assert.Equal(t, Stats{Scanned: 2, Matched: 1, Skipped: 1}, stats)
}

func TestExecute_SubtypesIncluded(t *testing.T) {
	s := testutil.ProjectSchema()
	g := mixedModel(s)

	got, err := quietExecutor().Execute(g, s, "Task", queryir.Single(queryir.NumericCondition{Attribute: "days", Comparator: queryir.GreaterThan, Value: 2}))
	require.NoError(t, err)
	assert.Equal(t, []string{"a-release", "b-release", "b1"}, testutil.Descriptions(got))
}

func TestExecute_DoesNotMutateGraph(t *testing.T) {
	s := testutil.ProjectSchema()
	g := mixedModel(s)

	before, err := ir.ResultHash(AllInstancesOf(g, testutil.MustType(s, "Project")))
	require.NoError(t, err)
	size := g.Size()

	_, err = quietExecutor().Execute(g, s, "Task", queryir.Both(descriptionStartsWith, queryir.Or, daysGreaterThan3))
	require.NoError(t, err)

	after, err := ir.ResultHash(AllInstancesOf(g, testutil.MustType(s, "Project")))
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, size, g.Size())
}

// queryCases is a fixed grid of specs used by the property tests below.
func queryCases() []*queryir.ConditionSpec {
	strConds := []queryir.Condition{
		queryir.StringCondition{Attribute: "description", Comparator: queryir.StartsWith, Value: "a"},
		queryir.StringCondition{Attribute: "description", Comparator: queryir.Contains, Value: "release"},
		queryir.StringCondition{Attribute: "description", Comparator: queryir.EndsWith, Value: "1"},
	}
	numConds := []queryir.Condition{
		queryir.NumericCondition{Attribute: "days", Comparator: queryir.GreaterThan, Value: 2},
		queryir.NumericCondition{Attribute: "days", Comparator: queryir.LowerThan, Value: 6},
		queryir.NumericCondition{Attribute: "days", Comparator: queryir.NumericEquals, Value: 8},
	}

	var specs []*queryir.ConditionSpec
	for _, c1 := range strConds {
		specs = append(specs, queryir.Single(c1))
		for _, c2 := range numConds {
			specs = append(specs,
				queryir.Both(c1, queryir.And, c2),
				queryir.Both(c1, queryir.Or, c2),
				queryir.Both(c2, queryir.And, c1),
			)
		}
	}
	return specs
}

func TestExecute_SubsetAndOrderPreserved(t *testing.T) {
	s := testutil.ProjectSchema()
	g := mixedModel(s)
	exec := quietExecutor()

	all, err := exec.Execute(g, s, "Task", nil)
	require.NoError(t, err)
	position := make(map[*ir.Node]int, len(all))
	for i, n := range all {
		position[n] = i
	}

	for _, spec := range queryCases() {
		t.Run(spec.String(), func(t *testing.T) {
			got, err := exec.Execute(g, s, "Task", spec)
			require.NoError(t, err)

			last := -1
			for _, n := range got {
				pos, ok := position[n]
				require.True(t, ok, "result contains a node outside the unfiltered result")
				assert.Greater(t, pos, last, "filtering reordered results")
				last = pos
			}
		})
	}
}

func TestExecute_AndCommutative(t *testing.T) {
	s := testutil.ProjectSchema()
	g := mixedModel(s)
	exec := quietExecutor()

	for i, spec := range queryCases() {
		if spec.Composition != queryir.And {
			continue
		}
		t.Run(fmt.Sprintf("case-%d", i), func(t *testing.T) {
			swapped := queryir.Both(spec.Condition2, queryir.And, spec.Condition1)

			a, err := exec.Execute(g, s, "Task", spec)
			require.NoError(t, err)
			b, err := exec.Execute(g, s, "Task", swapped)
			require.NoError(t, err)
			assert.Equal(t, a, b)
		})
	}
}

func TestExecute_AndAssociative(t *testing.T) {
	s := testutil.ProjectSchema()
	g := mixedModel(s)
	exec := quietExecutor()
	task := testutil.MustType(s, "Task")

	c1 := queryir.StringCondition{Attribute: "description", Comparator: queryir.Contains, Value: "a"}
	c2 := queryir.NumericCondition{Attribute: "days", Comparator: queryir.GreaterThan, Value: 1}
	c3 := queryir.NumericCondition{Attribute: "days", Comparator: queryir.LowerThan, Value: 8}

	// (c1 and c2) and c3, evaluated by filtering the first result with c3.
	left, err := exec.Execute(g, s, "Task", queryir.Both(c1, queryir.And, c2))
	require.NoError(t, err)
	p3, err := BuildPredicate(c3, s, task.Name)
	require.NoError(t, err)
	var leftResult []*ir.Node
	for _, n := range left {
		if p3(n).Matched() {
			leftResult = append(leftResult, n)
		}
	}

	// c1 and (c2 and c3).
	right, err := exec.Execute(g, s, "Task", queryir.Both(c2, queryir.And, c3))
	require.NoError(t, err)
	p1, err := BuildPredicate(c1, s, task.Name)
	require.NoError(t, err)
	var rightResult []*ir.Node
	for _, n := range right {
		if p1(n).Matched() {
			rightResult = append(rightResult, n)
		}
	}

	assert.Equal(t, leftResult, rightResult)
	assert.Equal(t, []string{"a-release", "a2", "b-release"}, testutil.Descriptions(leftResult))
}
