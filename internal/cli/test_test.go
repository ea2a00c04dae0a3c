package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modelq/internal/testutil"
)

const passingScenario = `name: long_tasks
metamodel: ../model/projects.cue
model: ../model/project.yaml
type: Task
where: days greater than 3
expect:
  count: 1
  attribute: description
  names: ["this is the second task"]
`

const failingScenario = `name: wrong_count
metamodel: ../model/projects.cue
model: ../model/project.yaml
type: Task
expect:
  count: 5
`

// scenarioDir writes the project fixtures under dir/model and the given
// scenarios under dir/scenarios, and returns the scenarios directory.
func scenarioDir(t *testing.T, scenarios map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteProjectFiles(t, filepath.Join(dir, "model"))
	scenariosDir := filepath.Join(dir, "scenarios")
	require.NoError(t, os.MkdirAll(scenariosDir, 0755))
	for name, content := range scenarios {
		testutil.WriteFile(t, scenariosDir, name, content)
	}
	return scenariosDir
}

func runTestCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runTestCommand(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := runTestCommand(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	output, err := runTestCommand(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, output, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	output, err := runTestCommand(t, "json", t.TempDir())
	require.NoError(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(output), &response))
	assert.Equal(t, "ok", response.Status)
}

func TestTestCommandPassing(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"long_tasks.yaml": passingScenario})

	output, err := runTestCommand(t, "text", dir)
	require.NoError(t, err)
	assert.Contains(t, output, "✓ long_tasks")
	assert.Contains(t, output, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, output, "✓ All scenarios passed")
}

func TestTestCommandFailing(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"long_tasks.yaml":  passingScenario,
		"wrong_count.yaml": failingScenario,
	})

	output, err := runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, output, "✗ wrong_count")
	assert.Contains(t, output, "expected 5 results, got 2")
	assert.Contains(t, output, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandFailingJSON(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"wrong_count.yaml": failingScenario})

	output, err := runTestCommand(t, "json", dir)
	require.Error(t, err)

	var response struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &response))
	assert.Equal(t, "error", response.Status)
	assert.Equal(t, 1, response.Data.Failed)
	require.Len(t, response.Data.Scenarios, 1)
	assert.Equal(t, "wrong_count", response.Data.Scenarios[0].Name)
	assert.Equal(t, "E_TEST_FAILED", response.Error.Code)
}

func TestTestCommandInvalidScenario(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"broken.yaml": "name: broken\n"})

	output, err := runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, output, "✗ broken.yaml")
	assert.Contains(t, output, "Load error")
}

func TestTestCommandUpdateThenCompare(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"long_tasks.yaml": passingScenario})
	goldenPath := filepath.Join(dir, "golden", "long_tasks.golden")

	output, err := runTestCommand(t, "text", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, output, "✓ long_tasks (golden updated)")

	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name":"long_tasks"`)
	assert.Contains(t, string(golden), `"description":"this is the second task"`)

	// Same result: the golden file matches.
	output, err = runTestCommand(t, "text", dir)
	require.NoError(t, err)
	assert.Contains(t, output, "✓ long_tasks")

	// A tampered golden file fails the scenario.
	require.NoError(t, os.WriteFile(goldenPath, []byte(`{}`), 0644))
	output, err = runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, output, "Golden file mismatch")
}

func TestTestCommandFilter(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"long_tasks.yaml":  passingScenario,
		"wrong_count.yaml": failingScenario,
	})

	output, err := runTestCommand(t, "text", dir, "--filter", "long_*")
	require.NoError(t, err)
	assert.Contains(t, output, "1 total")
}

func TestTestHelpText(t *testing.T) {
	output, err := runTestCommand(t, "text", "--help")
	require.NoError(t, err)

	assert.Contains(t, output, "scenarios")
	assert.Contains(t, output, "--update")
	assert.Contains(t, output, "--filter")
	assert.Contains(t, output, "scenarios-dir")
}

func TestFindScenarioFiles(t *testing.T) {
	tmpDir := t.TempDir()

	// Create scenario files
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "test1.yaml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "test2.yml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "ignore.txt"), []byte(""), 0644))

	files, err := findScenarioFiles(tmpDir, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestFindScenarioFilesWithFilter(t *testing.T) {
	tmpDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "tasks-long.yaml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "tasks-short.yaml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "projects-all.yaml"), []byte(""), 0644))

	files, err := findScenarioFiles(tmpDir, "tasks-*")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	for _, f := range files {
		assert.Regexp(t, `^tasks-`, filepath.Base(f))
	}
}

func TestFindScenarioFilesSubdirectories(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "subdir")
	golden := filepath.Join(tmpDir, "golden")
	require.NoError(t, os.MkdirAll(subDir, 0755))
	require.NoError(t, os.MkdirAll(golden, 0755))

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "root.yaml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(subDir, "sub.yaml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(golden, "skipped.yaml"), []byte(""), 0644))

	files, err := findScenarioFiles(tmpDir, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestGoldenFilePath(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"/path/to/scenario.yaml", "/path/to/golden/scenario.golden"},
		{"/path/to/scenario.yml", "/path/to/golden/scenario.golden"},
		{"scenarios/test.yaml", "scenarios/golden/test.golden"},
	}

	for _, tc := range testCases {
		result := goldenFilePath(tc.input)
		assert.Equal(t, tc.expected, result)
	}
}

func TestTestCommandTable(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"long_tasks.yaml":  passingScenario,
		"wrong_count.yaml": failingScenario,
	})

	output, err := runTestCommand(t, "table", dir)
	require.Error(t, err)
	assert.Contains(t, output, "SCENARIO")
	assert.Contains(t, output, "FAIL")
	assert.Contains(t, output, "(2 rows)")
}

func TestFindScenarioFilesInvalidFilter(t *testing.T) {
	_, err := findScenarioFiles(t.TempDir(), "[")
	assert.ErrorContains(t, err, "invalid filter pattern")
}
