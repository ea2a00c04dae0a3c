package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modelq/internal/engine"
	"github.com/roach88/modelq/internal/queryir"
	"github.com/roach88/modelq/internal/testutil"
)

func TestInstancesCommand(t *testing.T) {
	f := newCLIFixture(t)
	f.loaded(t, "planning")

	output, err := f.run(t, "instances", "Task", "--session", "planning")
	require.NoError(t, err)
	assert.Contains(t, output, `Task description="this is the first task" days=2`)
	assert.Contains(t, output, `Task description="this is the second task" days=4`)
	assert.Contains(t, output, "found 2 instances of Task")
}

func TestInstancesCommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantExit int
		wantCode string
	}{
		{"unknown session", []string{"instances", "Task", "--session", "nope"}, ExitCommandError, "SESSION_NOT_FOUND"},
		{"unknown type", []string{"instances", "Sprint", "--session", "planning"}, ExitFailure, "TYPE_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCLIFixture(t)
			f.loaded(t, "planning")

			output, err := f.run(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))
			assert.Contains(t, output, "Error ["+tt.wantCode+"]")
		})
	}
}

func TestInstancesCommandMissingSession(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run(t, "instances", "Task")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "session" not set`)
}

func TestSelectCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "expression",
			args: []string{"--where", "days greater than 3"},
			want: []string{"this is the second task"},
		},
		{
			name: "expression with and",
			args: []string{"--where", `description starts with "this is" and days lower than 3`},
			want: []string{"this is the first task"},
		},
		{
			name: "two conditions with or",
			args: []string{"--where", "days lower than 3", "--where2", "days greater than 3", "--compose", "or"},
			want: []string{"this is the first task", "this is the second task"},
		},
		{
			name: "no match",
			args: []string{"--where", "description ends with nothing"},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCLIFixture(t)
			f.loaded(t, "planning")

			args := append([]string{"--format", "json", "select", "Task", "--session", "planning"}, tt.args...)
			output, err := f.run(t, args...)
			require.NoError(t, err)

			var response struct {
				Data QueryOutput `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(output), &response))
			assert.Equal(t, len(tt.want), response.Data.Count)
			assert.Equal(t, "planning", response.Data.Session)

			got := []string{}
			for _, doc := range response.Data.Results {
				attrs := doc["attributes"].(map[string]any)
				got = append(got, attrs["description"].(string))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectCommandQueryFile(t *testing.T) {
	f := newCLIFixture(t)
	f.loaded(t, "planning")

	yamlQuery := testutil.WriteFile(t, f.dir, "query.yaml", `condition1:
  kind: numeric
  attribute: days
  comparator: greater than
  number: 3
`)
	jsonQuery := testutil.WriteFile(t, f.dir, "query.json",
		`{"condition1":{"kind":"string","attribute":"name","comparator":"starts with"},"stringValue1":"Project"}`)

	output, err := f.run(t, "select", "Task", "--session", "planning", "-q", yamlQuery)
	require.NoError(t, err)
	assert.Contains(t, output, "found 1 instances of Task")

	output, err = f.run(t, "select", "Project", "--session", "planning", "--query", jsonQuery)
	require.NoError(t, err)
	assert.Contains(t, output, `Project name="ProjectTest"`)
}

func TestSelectCommandTable(t *testing.T) {
	f := newCLIFixture(t)
	f.loaded(t, "planning")

	output, err := f.run(t, "--format", "table", "select", "Task", "--session", "planning", "--where", "days greater than 3")
	require.NoError(t, err)
	assert.Contains(t, output, "DESCRIPTION")
	assert.Contains(t, output, "this is the second task")
	assert.Contains(t, output, "(1 rows)")
}

func TestSelectCommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantExit int
		wantCode string
	}{
		{"no comparator", []string{"--where", "days between 3"}, ExitCommandError, "INVALID_QUERY"},
		{"compose without where2", []string{"--where", "days lower than 3", "--compose", "or"}, ExitCommandError, "INVALID_ARGUMENT"},
		{"unknown attribute", []string{"--where", "budget greater than 3"}, ExitFailure, "ATTRIBUTE_NOT_FOUND"},
		{"unsupported composition", []string{"--where", "days lower than 3", "--where2", "days greater than 3", "--compose", "xor"}, ExitFailure, "UNSUPPORTED_COMPOSITION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCLIFixture(t)
			f.loaded(t, "planning")

			args := append([]string{"select", "Task", "--session", "planning"}, tt.args...)
			output, err := f.run(t, args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))
			assert.Contains(t, output, "Error ["+tt.wantCode+"]")
		})
	}
}

func TestBuildSpec(t *testing.T) {
	spec, err := buildSpec(&QueryOptions{})
	require.NoError(t, err)
	assert.True(t, spec.IsEmpty())

	spec, err = buildSpec(&QueryOptions{Where: "days lower than 2", Where2: "owner equals ada", Compose: "and"})
	require.NoError(t, err)
	assert.Equal(t, queryir.And, spec.Composition)
	assert.Equal(t, "days lower than 2 and owner equals \"ada\"", spec.String())

	_, err = buildSpec(&QueryOptions{Where2: "days lower than 2"})
	assert.ErrorContains(t, err, "--where2 requires --where")

	_, err = buildSpec(&QueryOptions{QueryFile: "query.yaml", Where: "days lower than 2"})
	assert.ErrorContains(t, err, "cannot be combined")

	_, err = buildSpec(&QueryOptions{Where: "days between 3"})
	assert.Equal(t, engine.ErrCodeInvalidQuery, engine.ErrorCode(err))
}
